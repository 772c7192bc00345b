package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"go.uber.org/multierr"

	"github.com/Faultbox/smf/pkg/smf"
)

// diagnostics prints errors and warnings to the error stream.
type diagnostics struct {
	mu       sync.Mutex
	w        io.Writer
	errorC   *color.Color
	warningC *color.Color
}

func newDiagnostics(w io.Writer) *diagnostics {
	return &diagnostics{
		w:        w,
		errorC:   color.New(color.FgRed, color.Bold),
		warningC: color.New(color.FgYellow, color.Bold),
	}
}

// error prints every error held by err, one per line.
func (d *diagnostics) error(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range multierr.Errors(err) {
		d.errorC.Fprint(d.w, "error: ")
		fmt.Fprintln(d.w, e)
	}
}

func (d *diagnostics) warning(w *smf.Warning) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.warningC.Fprint(d.w, "warning: ")
	fmt.Fprintf(d.w, "%s: %s\n", w.Position, w.Message)
}
