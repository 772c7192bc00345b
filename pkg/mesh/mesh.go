// Package mesh materializes parsed SMF data into an in-memory Mesh and
// replays a Mesh through any serializer.
package mesh

import (
	"fmt"

	"github.com/Faultbox/smf/pkg/smf"
)

// Triangle is three vertex indices.
type Triangle [3]uint64

// Array holds the values of one attribute, flattened. Vertex i occupies
// elements [i*n, (i+1)*n) where n is the attribute's component count. Only
// the slice matching the attribute's kind is populated.
type Array struct {
	Attribute smf.Attribute
	Signed    []int64
	Unsigned  []uint64
	Float     []float64
}

// maxPrealloc bounds the capacity reserved from header counts, which are
// untrusted until the data has actually been read.
const maxPrealloc = 1 << 16

func preallocate(n uint64) int {
	return int(min(n, maxPrealloc))
}

// NewArray creates an empty array with room for vertices values. The
// reservation is capped and the array grows as values arrive.
func NewArray(a smf.Attribute, vertices uint64) *Array {
	n := preallocate(vertices) * a.ComponentCount()
	arr := &Array{Attribute: a}
	switch a.Kind() {
	case smf.KindIntegerSigned:
		arr.Signed = make([]int64, 0, n)
	case smf.KindIntegerUnsigned:
		arr.Unsigned = make([]uint64, 0, n)
	default:
		arr.Float = make([]float64, 0, n)
	}
	return arr
}

func (a *Array) components() int {
	switch a.Attribute.Kind() {
	case smf.KindIntegerSigned:
		return len(a.Signed)
	case smf.KindIntegerUnsigned:
		return len(a.Unsigned)
	default:
		return len(a.Float)
	}
}

// Len returns the number of vertices held.
func (a *Array) Len() uint64 {
	return uint64(a.components() / a.Attribute.ComponentCount())
}

func (a *Array) span(i uint64) (int, int) {
	n := a.Attribute.ComponentCount()
	return int(i) * n, int(i)*n + n
}

// SignedAt returns the components of vertex i of a signed array.
func (a *Array) SignedAt(i uint64) []int64 {
	lo, hi := a.span(i)
	return a.Signed[lo:hi]
}

// UnsignedAt returns the components of vertex i of an unsigned array.
func (a *Array) UnsignedAt(i uint64) []uint64 {
	lo, hi := a.span(i)
	return a.Unsigned[lo:hi]
}

// FloatAt returns the components of vertex i of a floating point array.
func (a *Array) FloatAt(i uint64) []float64 {
	lo, hi := a.span(i)
	return a.Float[lo:hi]
}

// Mesh is an immutable in-memory mesh. Slices returned by its accessors
// must not be modified.
type Mesh struct {
	header    *smf.Header
	arrays    map[string]*Array
	triangles []Triangle
	metadata  []smf.Metadata
}

// New creates a mesh, checking that the data matches the header: one
// array per attribute with exactly the declared vertex count, the declared
// number of triangles with indices fitting the index width, and the
// declared number of metadata blocks.
func New(h *smf.Header, arrays []*Array, triangles []Triangle, metadata []smf.Metadata) (*Mesh, error) {
	if h == nil {
		return nil, fmt.Errorf("%w: nil header", smf.ErrInvalidHeader)
	}
	m := &Mesh{
		header:    h,
		arrays:    make(map[string]*Array, len(arrays)),
		triangles: triangles,
		metadata:  metadata,
	}
	for _, arr := range arrays {
		want, ok := h.Attribute(arr.Attribute.Name())
		if !ok || want != arr.Attribute {
			return nil, fmt.Errorf("%w: array %s does not match the header", smf.ErrInvalidHeader, arr.Attribute)
		}
		if _, dup := m.arrays[want.Name()]; dup {
			return nil, fmt.Errorf("%w: duplicate array %q", smf.ErrInvalidHeader, want.Name())
		}
		if arr.components()%want.ComponentCount() != 0 || arr.Len() != h.VertexCount() {
			return nil, fmt.Errorf("%w: array %q holds %d components, expected %d vertices",
				smf.ErrInvalidHeader, want.Name(), arr.components(), h.VertexCount())
		}
		m.arrays[want.Name()] = arr
	}
	if h.VertexCount() > 0 {
		for _, a := range h.Attributes() {
			if _, ok := m.arrays[a.Name()]; !ok {
				return nil, fmt.Errorf("%w: no array for attribute %q", smf.ErrInvalidHeader, a.Name())
			}
		}
	}
	if uint64(len(triangles)) != h.Triangles().Count() {
		return nil, fmt.Errorf("%w: %d triangles, header declares %d",
			smf.ErrInvalidTriangles, len(triangles), h.Triangles().Count())
	}
	limit := h.Triangles().MaxIndex()
	for i, t := range triangles {
		for _, v := range t {
			if v > limit {
				return nil, fmt.Errorf("%w: triangle %d index %d exceeds %d bits",
					smf.ErrInvalidTriangles, i, v, h.Triangles().IndexBits())
			}
		}
	}
	if uint64(len(metadata)) != h.MetaCount() {
		return nil, fmt.Errorf("%w: %d metadata blocks, header declares %d",
			smf.ErrInvalidHeader, len(metadata), h.MetaCount())
	}
	return m, nil
}

// Header returns the mesh header.
func (m *Mesh) Header() *smf.Header { return m.header }

// Array returns the values of the named attribute.
func (m *Mesh) Array(name string) (*Array, bool) {
	a, ok := m.arrays[name]
	return a, ok
}

// Arrays returns the attribute arrays in header order.
func (m *Mesh) Arrays() []*Array {
	out := make([]*Array, 0, len(m.arrays))
	for _, a := range m.header.Attributes() {
		if arr, ok := m.arrays[a.Name()]; ok {
			out = append(out, arr)
		}
	}
	return out
}

// Triangles returns the triangle list.
func (m *Mesh) Triangles() []Triangle { return m.triangles }

// Metadata returns the metadata blocks in order.
func (m *Mesh) Metadata() []smf.Metadata { return m.metadata }
