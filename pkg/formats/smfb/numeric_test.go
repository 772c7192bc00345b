package smfb

import (
	"math"
	"testing"

	"github.com/Faultbox/smf/pkg/smf"
)

func TestComponent_Unsigned(t *testing.T) {
	orders := []smf.ByteOrder{smf.BigEndian, smf.LittleEndian}
	for _, order := range orders {
		for _, bits := range []int{8, 16, 32, 64} {
			c := newComponent(bits, order)
			buf := make([]byte, c.octets)
			for _, v := range []uint64{0, 1, smf.MaxUnsigned(bits) / 2, smf.MaxUnsigned(bits)} {
				c.putUnsigned(buf, v)
				if got := c.unsigned(buf); got != v {
					t.Errorf("%s u%d: got %d, want %d", order, bits, got, v)
				}
			}
		}
	}
}

func TestComponent_Signed(t *testing.T) {
	for _, order := range []smf.ByteOrder{smf.BigEndian, smf.LittleEndian} {
		for _, bits := range []int{8, 16, 32, 64} {
			c := newComponent(bits, order)
			buf := make([]byte, c.octets)
			lo := int64(-1) << (bits - 1)
			hi := -(lo + 1)
			for _, v := range []int64{0, -1, 1, lo, hi, lo + 1, hi - 1} {
				c.putSigned(buf, v)
				if got := c.signed(buf); got != v {
					t.Errorf("%s s%d: got %d, want %d", order, bits, got, v)
				}
			}
		}
	}
}

func TestComponent_SignExtension(t *testing.T) {
	c := newComponent(8, smf.BigEndian)
	if got := c.signed([]byte{0xff}); got != -1 {
		t.Errorf("0xff as s8: got %d, want -1", got)
	}
	if got := c.signed([]byte{0x80}); got != -128 {
		t.Errorf("0x80 as s8: got %d, want -128", got)
	}
	c = newComponent(16, smf.LittleEndian)
	if got := c.signed([]byte{0x00, 0x80}); got != -32768 {
		t.Errorf("0x8000 as s16le: got %d, want -32768", got)
	}
}

func TestComponent_Float(t *testing.T) {
	tests := []struct {
		bits   int
		values []float64
	}{
		{16, []float64{0, 1, -2.5, 65504, -65504, 6.103515625e-05, math.Inf(1)}},
		{32, []float64{0, 1, -2.5, math.MaxFloat32, math.SmallestNonzeroFloat32, math.Inf(-1)}},
		{64, []float64{0, 1, -2.5, math.MaxFloat64, math.SmallestNonzeroFloat64, math.Pi}},
	}
	for _, tt := range tests {
		for _, order := range []smf.ByteOrder{smf.BigEndian, smf.LittleEndian} {
			c := newComponent(tt.bits, order)
			buf := make([]byte, c.octets)
			for _, v := range tt.values {
				c.putFloat(buf, v)
				if got := c.float(buf); got != v {
					t.Errorf("%s f%d: got %v, want %v", order, tt.bits, got, v)
				}
			}
		}
	}
}

func TestComponent_ByteLayout(t *testing.T) {
	buf := make([]byte, 4)
	newComponent(32, smf.BigEndian).putUnsigned(buf, 0x01020304)
	if buf[0] != 1 || buf[3] != 4 {
		t.Errorf("big endian layout: % x", buf)
	}
	newComponent(32, smf.LittleEndian).putUnsigned(buf, 0x01020304)
	if buf[0] != 4 || buf[3] != 1 {
		t.Errorf("little endian layout: % x", buf)
	}
}

func TestVector(t *testing.T) {
	c := newComponent(16, smf.LittleEndian)
	buf := make([]byte, 8)
	encodeVector(buf, []uint64{1, 2, 3, 65535}, c.octets, c.putUnsigned)
	got := decodeVector(make([]uint64, 4), buf, c.octets, c.unsigned)
	want := []uint64{1, 2, 3, 65535}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("component %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestAlign(t *testing.T) {
	tests := []struct{ in, want uint64 }{
		{0, 0}, {1, 16}, {15, 16}, {16, 16}, {17, 32}, {72, 80},
	}
	for _, tt := range tests {
		if got := align(tt.in); got != tt.want {
			t.Errorf("align(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSectionName(t *testing.T) {
	tests := []struct {
		magic uint64
		want  string
	}{
		{MagicHeader, "SMF_HEAD"},
		{MagicTriangles, "SMF_TRIS"},
		{MagicEnd, "SMF_END"},
		{0x0102030405060708, "0x0102030405060708"},
	}
	for _, tt := range tests {
		if got := SectionName(tt.magic); got != tt.want {
			t.Errorf("SectionName(%x) = %q, want %q", tt.magic, got, tt.want)
		}
	}
}
