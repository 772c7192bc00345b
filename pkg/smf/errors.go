package smf

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Sentinel errors wrapped by the codecs, registry and processing packages.
var (
	ErrUsage              = errors.New("usage error")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrNoProvider         = errors.New("no format provider")
	ErrInvalidAttribute   = errors.New("invalid attribute")
	ErrInvalidTriangles   = errors.New("invalid triangles")
	ErrInvalidCoordinates = errors.New("invalid coordinate system")
	ErrInvalidHeader      = errors.New("invalid header")
)

// ErrorKind classifies parse, serialize and validation errors.
type ErrorKind int

const (
	KindLexical    ErrorKind = iota // Malformed token, line or framing
	KindStructural                  // Counts or sections not matching the header
	KindRange                       // Value outside the declared width or bounds
	KindTransport                   // I/O failure on the underlying stream
	KindValidation                  // Schema constraint violated
	KindUsage                       // API misuse by the caller
)

// String returns a human-readable kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindLexical:
		return "lexical"
	case KindStructural:
		return "structural"
	case KindRange:
		return "range"
	case KindTransport:
		return "transport"
	case KindValidation:
		return "validation"
	case KindUsage:
		return "usage"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Position locates an error or warning within a source. Text sources use
// Line and Column (1-based lines), binary sources use Offset.
type Position struct {
	Source string
	Line   int
	Column int
	Offset int64
}

// String formats the position for diagnostics.
func (p Position) String() string {
	src := p.Source
	if src == "" {
		src = "<stream>"
	}
	if p.Line > 0 {
		return fmt.Sprintf("%s:%d:%d", src, p.Line, p.Column)
	}
	return fmt.Sprintf("%s@0x%x", src, p.Offset)
}

// Error is the tagged error delivered through the event protocol and
// returned by the validator and filters.
type Error struct {
	Kind     ErrorKind
	Position Position
	Message  string
	Cause    error
}

// NewError creates an error without a cause.
func NewError(kind ErrorKind, pos Position, message string) *Error {
	return &Error{Kind: kind, Position: pos, Message: message}
}

// Errorf creates an error with a formatted message.
func Errorf(kind ErrorKind, pos Position, format string, args ...any) *Error {
	return &Error{Kind: kind, Position: pos, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates an error retaining cause.
func WrapError(kind ErrorKind, pos Position, cause error, message string) *Error {
	return &Error{Kind: kind, Position: pos, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s error: %s: %v", e.Position, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s error: %s", e.Position, e.Kind, e.Message)
}

// Unwrap returns the original cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Warning is a non-fatal diagnostic.
type Warning struct {
	Position Position
	Message  string
}

func (w *Warning) String() string {
	return fmt.Sprintf("%s: warning: %s", w.Position, w.Message)
}

// Combine merges errors into a single error value, or nil if errs is empty.
func Combine(errs []*Error) error {
	var err error
	for _, e := range errs {
		err = multierr.Append(err, e)
	}
	return err
}

// Errors splits err into its tagged errors. Errors that are not *Error
// are wrapped as transport errors so no cause is lost.
func Errors(err error) []*Error {
	if err == nil {
		return nil
	}
	var out []*Error
	for _, e := range multierr.Errors(err) {
		var se *Error
		if errors.As(e, &se) {
			out = append(out, se)
			continue
		}
		out = append(out, WrapError(KindTransport, Position{}, e, e.Error()))
	}
	return out
}
