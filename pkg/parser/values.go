package parser

import (
	"fmt"

	"github.com/Faultbox/smf/pkg/smf"
)

// DeliverSigned delivers a signed value of len(v) components to r.
func DeliverSigned(r AttributeValues, v []int64) {
	switch len(v) {
	case 1:
		r.OnDataAttributeValueIntegerSigned1(v[0])
	case 2:
		r.OnDataAttributeValueIntegerSigned2(v[0], v[1])
	case 3:
		r.OnDataAttributeValueIntegerSigned3(v[0], v[1], v[2])
	case 4:
		r.OnDataAttributeValueIntegerSigned4(v[0], v[1], v[2], v[3])
	default:
		panic(fmt.Sprintf("component count %d out of range", len(v)))
	}
}

// DeliverUnsigned delivers an unsigned value of len(v) components to r.
func DeliverUnsigned(r AttributeValues, v []uint64) {
	switch len(v) {
	case 1:
		r.OnDataAttributeValueIntegerUnsigned1(v[0])
	case 2:
		r.OnDataAttributeValueIntegerUnsigned2(v[0], v[1])
	case 3:
		r.OnDataAttributeValueIntegerUnsigned3(v[0], v[1], v[2])
	case 4:
		r.OnDataAttributeValueIntegerUnsigned4(v[0], v[1], v[2], v[3])
	default:
		panic(fmt.Sprintf("component count %d out of range", len(v)))
	}
}

// DeliverFloat delivers a floating point value of len(v) components to r.
func DeliverFloat(r AttributeValues, v []float64) {
	switch len(v) {
	case 1:
		r.OnDataAttributeValueFloat1(v[0])
	case 2:
		r.OnDataAttributeValueFloat2(v[0], v[1])
	case 3:
		r.OnDataAttributeValueFloat3(v[0], v[1], v[2])
	case 4:
		r.OnDataAttributeValueFloat4(v[0], v[1], v[2], v[3])
	default:
		panic(fmt.Sprintf("component count %d out of range", len(v)))
	}
}

// SignedFits reports whether v is representable as a bits-wide two's
// complement integer.
func SignedFits(v int64, bits int) bool {
	if bits >= 64 {
		return true
	}
	lo := -(int64(1) << uint(bits-1))
	hi := (int64(1) << uint(bits-1)) - 1
	return v >= lo && v <= hi
}

// UnsignedFits reports whether v is representable in bits.
func UnsignedFits(v uint64, bits int) bool {
	return v <= smf.MaxUnsigned(bits)
}
