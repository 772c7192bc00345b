package validation

import (
	"sort"

	"github.com/Faultbox/smf/pkg/smf"
)

// Validate checks h against s. Every violation is collected; the returned
// error combines them and Violations splits it back. On success the
// unchanged header is returned.
func Validate(h *smf.Header, s *Schema) (*smf.Header, error) {
	v := &validator{}

	if id, ok := h.SchemaIdentifier(); ok && id != s.ID {
		v.addf("schema identifier mismatch: expected %s, received %s", s.ID, id)
	}

	if s.RequireVertices && h.VertexCount() == 0 {
		v.addf("vertices required: the mesh has no vertices")
	}
	if s.RequireTriangles && h.Triangles().Count() == 0 {
		v.addf("triangles required: the mesh has no triangles")
	}

	for _, a := range h.Attributes() {
		if c, ok := s.Required[a.Name()]; ok {
			v.checkAttribute(a, c)
		} else if c, ok := s.Optional[a.Name()]; ok {
			v.checkAttribute(a, c)
		} else if !s.AllowExtraAttributes {
			v.addf("extra attribute: %s", a.Name())
		}
	}

	var missing []string
	for name := range s.Required {
		if _, ok := h.Attribute(name); !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	for _, name := range missing {
		v.addf("missing attribute: %s", name)
	}

	if s.CoordinateSystem != nil && *s.CoordinateSystem != h.CoordinateSystem() {
		v.addf("coordinate system mismatch: expected %s, received %s", *s.CoordinateSystem, h.CoordinateSystem())
	}

	if len(v.errs) > 0 {
		return nil, smf.Combine(v.errs)
	}
	return h, nil
}

// Violations returns the individual violations held by err.
func Violations(err error) []*smf.Error {
	return smf.Errors(err)
}

type validator struct {
	errs []*smf.Error
}

func (v *validator) addf(format string, args ...any) {
	v.errs = append(v.errs, smf.Errorf(smf.KindValidation, smf.Position{Source: "schema"}, format, args...))
}

func (v *validator) checkAttribute(a smf.Attribute, c AttributeConstraint) {
	if c.Kind != nil && *c.Kind != a.Kind() {
		v.addf("attribute %s: kind: expected %s, received %s", a.Name(), *c.Kind, a.Kind())
	}
	if c.Bits != nil && *c.Bits != a.ComponentBits() {
		v.addf("attribute %s: width: expected %d, received %d", a.Name(), *c.Bits, a.ComponentBits())
	}
	if c.Count != nil && *c.Count != a.ComponentCount() {
		v.addf("attribute %s: count: expected %d, received %d", a.Name(), *c.Count, a.ComponentCount())
	}
}
