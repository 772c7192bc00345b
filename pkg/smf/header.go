package smf

import (
	"encoding/binary"
	"fmt"
)

// ByteOrder is the declared byte order of numeric mesh data.
type ByteOrder uint32

const (
	BigEndian    ByteOrder = 0
	LittleEndian ByteOrder = 1
)

// String returns "big" or "little".
func (o ByteOrder) String() string {
	switch o {
	case BigEndian:
		return "big"
	case LittleEndian:
		return "little"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(o))
	}
}

// Binary returns the encoding/binary order for o.
func (o ByteOrder) Binary() binary.ByteOrder {
	if o == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// ParseByteOrder parses "big" or "little".
func ParseByteOrder(name string) (ByteOrder, error) {
	switch name {
	case "big":
		return BigEndian, nil
	case "little":
		return LittleEndian, nil
	default:
		return 0, fmt.Errorf("%w: byte order must be 'big' | 'little', got %q", ErrInvalidHeader, name)
	}
}

// Header is a frozen, validated mesh header. Use HeaderBuilder to create one.
type Header struct {
	schema      SchemaIdentifier
	vertexCount uint64
	triangles   Triangles
	coords      CoordinateSystem
	attributes  []Attribute
	byName      map[string]Attribute
	metaCount   uint64
	byteOrder   ByteOrder
}

// SchemaIdentifier returns the header's schema identifier and whether one is present.
func (h *Header) SchemaIdentifier() (SchemaIdentifier, bool) {
	return h.schema, !h.schema.IsZero()
}

func (h *Header) VertexCount() uint64 { return h.vertexCount }
func (h *Header) Triangles() Triangles { return h.triangles }
func (h *Header) CoordinateSystem() CoordinateSystem { return h.coords }
func (h *Header) MetaCount() uint64 { return h.metaCount }
func (h *Header) ByteOrder() ByteOrder { return h.byteOrder }

// Attributes returns the attributes in declaration order.
func (h *Header) Attributes() []Attribute {
	out := make([]Attribute, len(h.attributes))
	copy(out, h.attributes)
	return out
}

// Attribute looks up an attribute by name.
func (h *Header) Attribute(name string) (Attribute, bool) {
	a, ok := h.byName[name]
	return a, ok
}

// Equal reports whether two headers describe the same mesh layout.
func (h *Header) Equal(o *Header) bool {
	if h == nil || o == nil {
		return h == o
	}
	if h.schema != o.schema || h.vertexCount != o.vertexCount || h.triangles != o.triangles ||
		h.coords != o.coords || h.metaCount != o.metaCount || h.byteOrder != o.byteOrder {
		return false
	}
	if len(h.attributes) != len(o.attributes) {
		return false
	}
	for i := range h.attributes {
		if h.attributes[i] != o.attributes[i] {
			return false
		}
	}
	return true
}

// Builder returns a builder initialised from h.
func (h *Header) Builder() *HeaderBuilder {
	return &HeaderBuilder{
		schema:      h.schema,
		vertexCount: h.vertexCount,
		triangles:   h.triangles,
		coords:      h.coords,
		attributes:  h.Attributes(),
		metaCount:   h.metaCount,
		byteOrder:   h.byteOrder,
	}
}

// HeaderBuilder assembles a Header incrementally.
type HeaderBuilder struct {
	schema      SchemaIdentifier
	vertexCount uint64
	triangles   Triangles
	coords      CoordinateSystem
	attributes  []Attribute
	metaCount   uint64
	byteOrder   ByteOrder
}

// NewHeaderBuilder returns a builder with default triangles, coordinate
// system and big-endian data.
func NewHeaderBuilder() *HeaderBuilder {
	return &HeaderBuilder{
		triangles: DefaultTriangles(),
		coords:    DefaultCoordinateSystem(),
		byteOrder: BigEndian,
	}
}

func (b *HeaderBuilder) SetSchemaIdentifier(id SchemaIdentifier) *HeaderBuilder {
	b.schema = id
	return b
}

func (b *HeaderBuilder) SetVertexCount(n uint64) *HeaderBuilder {
	b.vertexCount = n
	return b
}

func (b *HeaderBuilder) SetTriangles(t Triangles) *HeaderBuilder {
	b.triangles = t
	return b
}

func (b *HeaderBuilder) SetCoordinateSystem(c CoordinateSystem) *HeaderBuilder {
	b.coords = c
	return b
}

func (b *HeaderBuilder) SetMetaCount(n uint64) *HeaderBuilder {
	b.metaCount = n
	return b
}

func (b *HeaderBuilder) SetByteOrder(o ByteOrder) *HeaderBuilder {
	b.byteOrder = o
	return b
}

// AddAttribute appends an attribute. Duplicates are reported by Build.
func (b *HeaderBuilder) AddAttribute(a Attribute) *HeaderBuilder {
	b.attributes = append(b.attributes, a)
	return b
}

// SetAttributes replaces the attribute list.
func (b *HeaderBuilder) SetAttributes(attrs []Attribute) *HeaderBuilder {
	b.attributes = append([]Attribute(nil), attrs...)
	return b
}

// Build validates the accumulated fields and freezes them into a Header.
func (b *HeaderBuilder) Build() (*Header, error) {
	if b.triangles.bits == 0 {
		return nil, fmt.Errorf("%w: triangle index width not set", ErrInvalidTriangles)
	}
	if _, err := NewCoordinateSystem(b.coords.right, b.coords.up, b.coords.forward, b.coords.winding); err != nil {
		return nil, err
	}
	if b.byteOrder != BigEndian && b.byteOrder != LittleEndian {
		return nil, fmt.Errorf("%w: invalid byte order %d", ErrInvalidHeader, uint32(b.byteOrder))
	}

	byName := make(map[string]Attribute, len(b.attributes))
	for _, a := range b.attributes {
		if a.name == "" {
			return nil, fmt.Errorf("%w: attribute was not constructed with NewAttribute", ErrInvalidAttribute)
		}
		if _, dup := byName[a.name]; dup {
			return nil, fmt.Errorf("%w: duplicate attribute %q", ErrInvalidHeader, a.name)
		}
		byName[a.name] = a
	}

	return &Header{
		schema:      b.schema,
		vertexCount: b.vertexCount,
		triangles:   b.triangles,
		coords:      b.coords,
		attributes:  append([]Attribute(nil), b.attributes...),
		byName:      byName,
		metaCount:   b.metaCount,
		byteOrder:   b.byteOrder,
	}, nil
}
