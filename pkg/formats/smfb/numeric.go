package smfb

import (
	"encoding/binary"
	"math"

	"github.com/x448/float16"

	"github.com/Faultbox/smf/pkg/smf"
)

// component reads and writes one numeric component of a fixed width in a
// fixed byte order. Every attribute value and triangle index goes through
// it, so the (kind, width, order) matrix is never unrolled.
type component struct {
	octets int
	order  binary.ByteOrder
}

func newComponent(bits int, order smf.ByteOrder) component {
	return component{octets: bits / 8, order: order.Binary()}
}

func (c component) unsigned(b []byte) uint64 {
	switch c.octets {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(c.order.Uint16(b))
	case 4:
		return uint64(c.order.Uint32(b))
	default:
		return c.order.Uint64(b)
	}
}

// signed sign-extends the stored two's complement value to 64 bits.
func (c component) signed(b []byte) int64 {
	shift := 64 - 8*uint(c.octets)
	return int64(c.unsigned(b)<<shift) >> shift
}

func (c component) float(b []byte) float64 {
	u := c.unsigned(b)
	switch c.octets {
	case 2:
		return float64(float16.Frombits(uint16(u)).Float32())
	case 4:
		return float64(math.Float32frombits(uint32(u)))
	default:
		return math.Float64frombits(u)
	}
}

func (c component) putUnsigned(b []byte, v uint64) {
	switch c.octets {
	case 1:
		b[0] = byte(v)
	case 2:
		c.order.PutUint16(b, uint16(v))
	case 4:
		c.order.PutUint32(b, uint32(v))
	default:
		c.order.PutUint64(b, v)
	}
}

func (c component) putSigned(b []byte, v int64) {
	c.putUnsigned(b, uint64(v))
}

func (c component) putFloat(b []byte, v float64) {
	switch c.octets {
	case 2:
		c.putUnsigned(b, uint64(float16.Fromfloat32(float32(v)).Bits()))
	case 4:
		c.putUnsigned(b, uint64(math.Float32bits(float32(v))))
	default:
		c.putUnsigned(b, math.Float64bits(v))
	}
}

// decodeVector fills dst with consecutive components decoded from src.
func decodeVector[T any](dst []T, src []byte, octets int, decode func([]byte) T) []T {
	for i := range dst {
		dst[i] = decode(src[i*octets:])
	}
	return dst
}

// encodeVector writes the components of src consecutively into dst.
func encodeVector[T any](dst []byte, src []T, octets int, encode func([]byte, T)) {
	for i, v := range src {
		encode(dst[i*octets:], v)
	}
}
