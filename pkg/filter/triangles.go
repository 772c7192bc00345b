package filter

import (
	"fmt"
	"strconv"

	"github.com/Faultbox/smf/pkg/mesh"
	"github.com/Faultbox/smf/pkg/smf"
)

var indexWidths = [...]int{8, 16, 32, 64}

// TrianglesOptimize changes the declared triangle index width. A zero
// Width selects the smallest width that holds every index.
type TrianglesOptimize struct {
	Width    int
	Validate bool
}

func (f *TrianglesOptimize) Name() string { return "triangles-optimize" }

func (f *TrianglesOptimize) Syntax() string {
	return "core:triangles-optimize <8|16|32|64|-> <validate|no-validate>"
}

func (f *TrianglesOptimize) Filter(ctx Context, m *mesh.Mesh) (*mesh.Mesh, error) {
	h := m.Header()
	var errs []*smf.Error

	if f.Validate {
		for i, t := range m.Triangles() {
			for _, v := range t {
				if v >= h.VertexCount() {
					errs = append(errs, ctx.errorf("triangle %d: vertex index %d does not exist, the mesh has %d vertices",
						i, v, h.VertexCount()))
				}
			}
		}
		if len(errs) > 0 {
			return nil, smf.Combine(errs)
		}
	}

	width := f.Width
	if width == 0 {
		width = minimalWidth(m.Triangles())
	} else {
		limit := smf.MaxUnsigned(width)
		for i, t := range m.Triangles() {
			for _, v := range t {
				if v > limit {
					errs = append(errs, ctx.errorf("triangle %d: vertex index %d does not fit in %d bits", i, v, width))
				}
			}
		}
		if len(errs) > 0 {
			return nil, smf.Combine(errs)
		}
	}

	tri, err := smf.NewTriangles(h.Triangles().Count(), width)
	if err != nil {
		return nil, err
	}
	nh, err := h.Builder().SetTriangles(tri).Build()
	if err != nil {
		return nil, err
	}
	return withHeader(nh, m, m.Metadata())
}

// minimalWidth returns the smallest index width holding every index.
func minimalWidth(triangles []mesh.Triangle) int {
	var hi uint64
	for _, t := range triangles {
		hi = max(hi, t[0], t[1], t[2])
	}
	for _, w := range indexWidths {
		if hi <= smf.MaxUnsigned(w) {
			return w
		}
	}
	return 64
}

func parseTrianglesOptimize(args []string) (Filter, error) {
	if len(args) != 2 {
		return nil, errExpectedArgs
	}
	f := &TrianglesOptimize{}
	if args[0] != "-" {
		w, ok := parseWidth(args[0])
		if !ok {
			return nil, fmt.Errorf("invalid width %q", args[0])
		}
		f.Width = w
	}
	switch args[1] {
	case "validate":
		f.Validate = true
	case "no-validate":
	default:
		return nil, fmt.Errorf("expected validate or no-validate, received %q", args[1])
	}
	return f, nil
}

func parseWidth(s string) (int, bool) {
	for _, w := range indexWidths {
		if s == strconv.Itoa(w) {
			return w, true
		}
	}
	return 0, false
}
