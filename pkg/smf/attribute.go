package smf

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxAttributeNameOctets is the longest attribute name, in UTF-8 octets.
const MaxAttributeNameOctets = 64

// ComponentKind is the numeric kind of an attribute's components.
type ComponentKind uint32

const (
	KindIntegerSigned   ComponentKind = 0
	KindIntegerUnsigned ComponentKind = 1
	KindFloat           ComponentKind = 2
)

// String returns the name used by the text encoding.
func (k ComponentKind) String() string {
	switch k {
	case KindIntegerSigned:
		return "integer-signed"
	case KindIntegerUnsigned:
		return "integer-unsigned"
	case KindFloat:
		return "float"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(k))
	}
}

// ParseComponentKind parses a component kind name.
func ParseComponentKind(name string) (ComponentKind, error) {
	switch name {
	case "integer-signed":
		return KindIntegerSigned, nil
	case "integer-unsigned":
		return KindIntegerUnsigned, nil
	case "float":
		return KindFloat, nil
	default:
		return 0, fmt.Errorf("%w: unrecognized component kind %q", ErrInvalidAttribute, name)
	}
}

// SupportsWidth reports whether bits is a valid component width for k.
func (k ComponentKind) SupportsWidth(bits int) bool {
	switch k {
	case KindIntegerSigned, KindIntegerUnsigned:
		return bits == 8 || bits == 16 || bits == 32 || bits == 64
	case KindFloat:
		return bits == 16 || bits == 32 || bits == 64
	default:
		return false
	}
}

// Attribute describes one named per-vertex data channel.
type Attribute struct {
	name  string
	kind  ComponentKind
	count int
	bits  int
}

// NewAttribute creates an attribute, checking every invariant. The name
// is normalized to Unicode NFC.
func NewAttribute(name string, kind ComponentKind, count, bits int) (Attribute, error) {
	name = norm.NFC.String(name)
	if name == "" {
		return Attribute{}, fmt.Errorf("%w: name must be non-empty", ErrInvalidAttribute)
	}
	if !utf8.ValidString(name) {
		return Attribute{}, fmt.Errorf("%w: name %q is not valid UTF-8", ErrInvalidAttribute, name)
	}
	if len(name) > MaxAttributeNameOctets {
		return Attribute{}, fmt.Errorf("%w: name %q exceeds %d octets", ErrInvalidAttribute, name, MaxAttributeNameOctets)
	}
	if count < 1 || count > 4 {
		return Attribute{}, fmt.Errorf("%w: %s: component count %d must be in the range [1, 4]", ErrInvalidAttribute, name, count)
	}
	if !kind.SupportsWidth(bits) {
		return Attribute{}, fmt.Errorf("%w: %s: %d-bit components are not supported for %s", ErrInvalidAttribute, name, bits, kind)
	}
	return Attribute{name: name, kind: kind, count: count, bits: bits}, nil
}

// MustAttribute is like NewAttribute but panics on invalid input.
func MustAttribute(name string, kind ComponentKind, count, bits int) Attribute {
	a, err := NewAttribute(name, kind, count, bits)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Attribute) Name() string { return a.name }
func (a Attribute) Kind() ComponentKind { return a.kind }
func (a Attribute) ComponentCount() int { return a.count }
func (a Attribute) ComponentBits() int { return a.bits }

// ComponentOctets returns ceil(bits / 8).
func (a Attribute) ComponentOctets() int {
	return (a.bits + 7) / 8
}

// Octets returns the size of one attribute value.
func (a Attribute) Octets() int {
	return a.ComponentOctets() * a.count
}

// String returns the attribute in text-header form.
func (a Attribute) String() string {
	return fmt.Sprintf("%q %s %d %d", a.name, a.kind, a.count, a.bits)
}
