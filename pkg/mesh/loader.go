package mesh

import (
	"errors"

	"github.com/Faultbox/smf/pkg/parser"
	"github.com/Faultbox/smf/pkg/smf"
)

var ErrIncomplete = errors.New("parse did not complete")

// Loader is a parse consumer that accumulates a Mesh.
type Loader struct {
	header    *smf.Header
	arrays    []*Array
	current   *Array
	triangles []Triangle
	metadata  []smf.Metadata

	errors   []*smf.Error
	warnings []*smf.Warning
	finished bool
}

var (
	_ parser.Events           = (*Loader)(nil)
	_ parser.TriangleReceiver = (*Loader)(nil)
)

// NewLoader creates an empty loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Mesh returns the loaded mesh. It fails with the accumulated parse
// errors if any were delivered; no partial mesh is ever returned.
func (l *Loader) Mesh() (*Mesh, error) {
	if len(l.errors) > 0 {
		return nil, smf.Combine(l.errors)
	}
	if !l.finished || l.header == nil {
		return nil, ErrIncomplete
	}
	return New(l.header, l.arrays, l.triangles, l.metadata)
}

// Errors returns the errors delivered so far.
func (l *Loader) Errors() []*smf.Error { return l.errors }

// Warnings returns the warnings delivered so far.
func (l *Loader) Warnings() []*smf.Warning { return l.warnings }

func (l *Loader) OnError(err *smf.Error) { l.errors = append(l.errors, err) }
func (l *Loader) OnWarning(w *smf.Warning) { l.warnings = append(l.warnings, w) }

func (l *Loader) OnStart() {
	*l = Loader{}
}

func (l *Loader) OnVersionReceived(smf.FormatVersion) {}

func (l *Loader) OnHeaderParsed(h *smf.Header) {
	l.header = h
	l.triangles = make([]Triangle, 0, preallocate(h.Triangles().Count()))
}

func (l *Loader) OnDataAttributeStart(a smf.Attribute) parser.AttributeValues {
	l.current = NewArray(a, l.header.VertexCount())
	return (*values)(l)
}

func (l *Loader) OnDataTrianglesStart() parser.TriangleReceiver {
	return l
}

func (l *Loader) OnDataTriangle(a, b, c uint64) {
	l.triangles = append(l.triangles, Triangle{a, b, c})
}

func (l *Loader) OnDataTrianglesFinish() {}

func (l *Loader) OnMeta(id smf.SchemaIdentifier) parser.MetaReceiver {
	return metaReceiver{l: l, id: id}
}

func (l *Loader) OnFinish() {
	l.finished = true
}

type metaReceiver struct {
	l  *Loader
	id smf.SchemaIdentifier
}

func (m metaReceiver) OnMetaData(data []byte) {
	m.l.metadata = append(m.l.metadata, smf.Metadata{Schema: m.id, Data: append([]byte(nil), data...)})
}

// values receives attribute values into the loader's current array.
type values Loader

func (v *values) signed(x ...int64) { v.current.Signed = append(v.current.Signed, x...) }
func (v *values) unsigned(x ...uint64) { v.current.Unsigned = append(v.current.Unsigned, x...) }
func (v *values) float(x ...float64) { v.current.Float = append(v.current.Float, x...) }

func (v *values) OnDataAttributeValueIntegerSigned1(x int64)          { v.signed(x) }
func (v *values) OnDataAttributeValueIntegerSigned2(x, y int64)       { v.signed(x, y) }
func (v *values) OnDataAttributeValueIntegerSigned3(x, y, z int64)    { v.signed(x, y, z) }
func (v *values) OnDataAttributeValueIntegerSigned4(x, y, z, w int64) { v.signed(x, y, z, w) }

func (v *values) OnDataAttributeValueIntegerUnsigned1(x uint64)          { v.unsigned(x) }
func (v *values) OnDataAttributeValueIntegerUnsigned2(x, y uint64)       { v.unsigned(x, y) }
func (v *values) OnDataAttributeValueIntegerUnsigned3(x, y, z uint64)    { v.unsigned(x, y, z) }
func (v *values) OnDataAttributeValueIntegerUnsigned4(x, y, z, w uint64) { v.unsigned(x, y, z, w) }

func (v *values) OnDataAttributeValueFloat1(x float64)          { v.float(x) }
func (v *values) OnDataAttributeValueFloat2(x, y float64)       { v.float(x, y) }
func (v *values) OnDataAttributeValueFloat3(x, y, z float64)    { v.float(x, y, z) }
func (v *values) OnDataAttributeValueFloat4(x, y, z, w float64) { v.float(x, y, z, w) }

func (v *values) OnDataAttributeFinish(smf.Attribute) {
	v.arrays = append(v.arrays, v.current)
	v.current = nil
}
