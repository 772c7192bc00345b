package parser

import (
	"fmt"

	"github.com/Faultbox/smf/pkg/smf"
)

// Serializer writes a mesh through the same stages a parse delivers. All
// ordering mistakes are reported as errors wrapping smf.ErrUsage.
type Serializer interface {
	SerializeHeader(header *smf.Header) error
	SerializeVertexDataNonInterleavedStart() (AttributesWriter, error)
	SerializeTrianglesStart() (TrianglesWriter, error)
	SerializeMetadata(schema smf.SchemaIdentifier, data []byte) error
	// Close terminates the stream. The underlying writer is flushed and
	// released even if Close returns an error.
	Close() error
}

// AttributesWriter writes non-interleaved attribute data in header order.
type AttributesWriter interface {
	SerializeData(name string) (ValuesWriter, error)
	Close() error
}

// ValuesWriter writes the values of one attribute. The number of
// components passed must equal the attribute's component count.
type ValuesWriter interface {
	SerializeSigned(v ...int64) error
	SerializeUnsigned(v ...uint64) error
	SerializeFloat(v ...float64) error
	Close() error
}

// TrianglesWriter writes triangles.
type TrianglesWriter interface {
	SerializeTriangle(a, b, c uint64) error
	Close() error
}

type writePhase int

const (
	phaseInitial writePhase = iota
	phaseHeader
	phaseVertices
	phaseVerticesDone
	phaseTriangles
	phaseTrianglesDone
	phaseMetadata
	phaseClosed
)

// WriteOrder enforces serializer ordering: header first, then vertex data
// in header attribute order with exactly the declared counts, then
// triangles, then metadata. Codecs call it before writing each element.
type WriteOrder struct {
	header *smf.Header
	phase  writePhase

	attrs     []smf.Attribute
	attrIndex int
	attrOpen  bool
	values    uint64
	triangles uint64
	meta      uint64
}

func usage(format string, args ...any) error {
	return fmt.Errorf("%w: %s", smf.ErrUsage, fmt.Sprintf(format, args...))
}

// Header returns the serialized header, or nil.
func (o *WriteOrder) Header() *smf.Header {
	return o.header
}

// BeginHeader records the header.
func (o *WriteOrder) BeginHeader(h *smf.Header) error {
	if o.phase != phaseInitial {
		return usage("header already serialized")
	}
	if h == nil {
		return usage("header is nil")
	}
	o.header = h
	o.attrs = h.Attributes()
	o.phase = phaseHeader
	return nil
}

// BeginVertices starts the non-interleaved vertex data.
func (o *WriteOrder) BeginVertices() error {
	if o.phase == phaseInitial {
		return usage("must serialize header first")
	}
	if o.phase != phaseHeader {
		return usage("vertex data must be serialized once, before triangles and metadata")
	}
	o.phase = phaseVertices
	return nil
}

// BeginAttribute starts the next attribute, which must be name.
func (o *WriteOrder) BeginAttribute(name string) (smf.Attribute, error) {
	if o.phase != phaseVertices {
		return smf.Attribute{}, usage("vertex data writer is not open")
	}
	if o.attrOpen {
		return smf.Attribute{}, usage("attribute %q is still open", o.attrs[o.attrIndex].Name())
	}
	if o.attrIndex >= len(o.attrs) {
		return smf.Attribute{}, usage("all attributes have already been serialized, got %q", name)
	}
	want := o.attrs[o.attrIndex]
	if want.Name() != name {
		return smf.Attribute{}, usage("expected attribute %q, got %q", want.Name(), name)
	}
	o.attrOpen = true
	o.values = 0
	return want, nil
}

// Value checks a value of n components of kind for the open attribute.
func (o *WriteOrder) Value(kind smf.ComponentKind, n int) error {
	if !o.attrOpen {
		return usage("no attribute is open")
	}
	a := o.attrs[o.attrIndex]
	if a.Kind() != kind {
		return usage("attribute %q has kind %s, got a %s value", a.Name(), a.Kind(), kind)
	}
	if a.ComponentCount() != n {
		return usage("attribute %q has %d components, got %d", a.Name(), a.ComponentCount(), n)
	}
	if o.values >= o.header.VertexCount() {
		return usage("attribute %q already has %d values", a.Name(), o.header.VertexCount())
	}
	o.values++
	return nil
}

// EndAttribute closes the open attribute.
func (o *WriteOrder) EndAttribute() error {
	if !o.attrOpen {
		return usage("no attribute is open")
	}
	a := o.attrs[o.attrIndex]
	o.attrOpen = false
	o.attrIndex++
	if o.values != o.header.VertexCount() {
		return usage("attribute %q received %d values, expected %d", a.Name(), o.values, o.header.VertexCount())
	}
	return nil
}

// EndVertices closes the vertex data.
func (o *WriteOrder) EndVertices() error {
	if o.phase != phaseVertices {
		return usage("vertex data writer is not open")
	}
	o.phase = phaseVerticesDone
	if o.attrOpen {
		return usage("attribute %q is still open", o.attrs[o.attrIndex].Name())
	}
	if o.attrIndex != len(o.attrs) {
		return usage("%d of %d attributes were serialized", o.attrIndex, len(o.attrs))
	}
	return nil
}

// BeginTriangles starts the triangle data.
func (o *WriteOrder) BeginTriangles() error {
	switch o.phase {
	case phaseInitial:
		return usage("must serialize header first")
	case phaseHeader:
		if o.verticesRequired() {
			return usage("vertex data must be serialized before triangles")
		}
	case phaseVerticesDone:
	default:
		return usage("triangles must be serialized once, before metadata")
	}
	o.phase = phaseTriangles
	o.triangles = 0
	return nil
}

// Triangle checks one triangle.
func (o *WriteOrder) Triangle(a, b, c uint64) error {
	if o.phase != phaseTriangles {
		return usage("triangle writer is not open")
	}
	if o.triangles >= o.header.Triangles().Count() {
		return usage("already serialized %d triangles", o.header.Triangles().Count())
	}
	bits := o.header.Triangles().IndexBits()
	for _, v := range []uint64{a, b, c} {
		if !UnsignedFits(v, bits) {
			return fmt.Errorf("%w: triangle index %d does not fit in %d bits", smf.ErrUsage, v, bits)
		}
	}
	o.triangles++
	return nil
}

// EndTriangles closes the triangle data.
func (o *WriteOrder) EndTriangles() error {
	if o.phase != phaseTriangles {
		return usage("triangle writer is not open")
	}
	o.phase = phaseTrianglesDone
	if o.triangles != o.header.Triangles().Count() {
		return usage("received %d triangles, expected %d", o.triangles, o.header.Triangles().Count())
	}
	return nil
}

// Metadata checks one metadata block.
func (o *WriteOrder) Metadata() error {
	switch o.phase {
	case phaseInitial:
		return usage("must serialize header first")
	case phaseVertices, phaseTriangles:
		return usage("cannot serialize metadata while a data writer is open")
	case phaseClosed:
		return usage("serializer is closed")
	}
	if o.phase == phaseHeader && o.verticesRequired() {
		return usage("vertex data must be serialized before metadata")
	}
	if o.phase != phaseTrianglesDone && o.phase != phaseMetadata && o.header.Triangles().Count() > 0 {
		return usage("triangles must be serialized before metadata")
	}
	if o.meta >= o.header.MetaCount() {
		return usage("header declares %d metadata elements", o.header.MetaCount())
	}
	o.phase = phaseMetadata
	o.meta++
	return nil
}

// NeedsTrianglesSection reports whether a triangle section has yet to be
// written. Codecs that always emit one call it from Close.
func (o *WriteOrder) NeedsTrianglesSection() bool {
	return o.phase == phaseHeader || o.phase == phaseVerticesDone
}

// Close checks that everything declared by the header was serialized.
func (o *WriteOrder) Close() error {
	phase := o.phase
	o.phase = phaseClosed
	switch phase {
	case phaseInitial:
		return usage("closed before a header was serialized")
	case phaseClosed:
		return usage("serializer already closed")
	case phaseVertices, phaseTriangles:
		return usage("closed while a data writer is open")
	}
	if phase == phaseHeader && o.verticesRequired() {
		return usage("vertex data was not serialized")
	}
	if phase < phaseTrianglesDone && o.header.Triangles().Count() > 0 {
		return usage("triangles were not serialized")
	}
	if o.meta != o.header.MetaCount() {
		return usage("serialized %d metadata elements, header declares %d", o.meta, o.header.MetaCount())
	}
	return nil
}

func (o *WriteOrder) verticesRequired() bool {
	return len(o.attrs) > 0 && o.header.VertexCount() > 0
}
