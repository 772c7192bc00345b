package smf

import "fmt"

// DefaultIndexBits is the triangle index width used when none is declared.
const DefaultIndexBits = 32

// Triangles declares the triangle count and index width of a mesh.
type Triangles struct {
	count uint64
	bits  int
}

// NewTriangles creates a triangle declaration. bits must be 8, 16, 32 or 64.
func NewTriangles(count uint64, bits int) (Triangles, error) {
	if !KindIntegerUnsigned.SupportsWidth(bits) {
		return Triangles{}, fmt.Errorf("%w: index width %d must be one of 8, 16, 32, 64", ErrInvalidTriangles, bits)
	}
	return Triangles{count: count, bits: bits}, nil
}

// DefaultTriangles returns zero triangles with 32-bit indices.
func DefaultTriangles() Triangles {
	return Triangles{count: 0, bits: DefaultIndexBits}
}

func (t Triangles) Count() uint64 { return t.count }
func (t Triangles) IndexBits() int { return t.bits }

// IndexOctets returns the size of one index.
func (t Triangles) IndexOctets() int {
	return t.bits / 8
}

// TriangleOctets returns the size of one triangle (three indices).
func (t Triangles) TriangleOctets() int {
	return 3 * t.IndexOctets()
}

// MaxIndex returns the largest index representable at the declared width.
func (t Triangles) MaxIndex() uint64 {
	return MaxUnsigned(t.bits)
}

// MaxUnsigned returns 2^bits - 1 for bits in [1, 64].
func MaxUnsigned(bits int) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(bits)) - 1
}
