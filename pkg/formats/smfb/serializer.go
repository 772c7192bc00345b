package smfb

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"go.uber.org/multierr"

	"github.com/Faultbox/smf/pkg/encoding"
	"github.com/Faultbox/smf/pkg/parser"
	"github.com/Faultbox/smf/pkg/smf"
)

var zeros [alignment]byte

// output is a buffered writer with a sticky error.
type output struct {
	w   *bufio.Writer
	err error
	buf [headerFixedSize + attributeRecordSize]byte
}

func (o *output) write(b []byte) error {
	if o.err != nil {
		return o.err
	}
	_, o.err = o.w.Write(b)
	return o.err
}

func (o *output) pad(n uint64) error {
	if rem := n % alignment; rem != 0 {
		return o.write(zeros[:alignment-rem])
	}
	return o.err
}

func (o *output) section(magic, size uint64) error {
	b := o.buf[:sectionHeaderSize]
	binary.BigEndian.PutUint64(b[0:8], magic)
	binary.BigEndian.PutUint64(b[8:16], size)
	binary.BigEndian.PutUint64(b[16:24], 0)
	return o.write(b)
}

// Serializer writes the binary encoding. Calls must follow the order the
// header dictates; misuse returns errors wrapping smf.ErrUsage.
type Serializer struct {
	out     *output
	closer  io.Closer
	version smf.FormatVersion
	order   parser.WriteOrder
	closed  bool
}

var _ parser.Serializer = (*Serializer)(nil)

// NewSerializer creates a serializer for version writing to w. If w is an
// io.Closer, Close closes it.
func NewSerializer(w io.Writer, version smf.FormatVersion) (*Serializer, error) {
	if !supported(version) {
		return nil, fmt.Errorf("%w: smf/b %s", smf.ErrUnsupportedVersion, version)
	}
	s := &Serializer{out: &output{w: bufio.NewWriter(w)}, version: version}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s, nil
}

// SerializeHeader writes the file header and the header section.
func (s *Serializer) SerializeHeader(h *smf.Header) error {
	if err := s.order.BeginHeader(h); err != nil {
		return err
	}

	b := s.out.buf[:fileHeaderSize]
	binary.BigEndian.PutUint64(b[0:8], FileMagic)
	binary.BigEndian.PutUint32(b[8:12], s.version.Major)
	binary.BigEndian.PutUint32(b[12:16], s.version.Minor)
	if err := s.out.write(b); err != nil {
		return err
	}

	attrs := h.Attributes()
	size := uint64(headerFixedSize + len(attrs)*attributeRecordSize)
	if err := s.out.section(MagicHeader, align(size)); err != nil {
		return err
	}

	be := binary.BigEndian
	b = s.out.buf[:headerFixedSize]
	clear(b)
	schema, _ := h.SchemaIdentifier()
	be.PutUint32(b[0:4], schema.Vendor)
	be.PutUint32(b[4:8], schema.Schema)
	be.PutUint32(b[8:12], schema.Major)
	be.PutUint32(b[12:16], schema.Minor)
	be.PutUint64(b[16:24], h.VertexCount())
	be.PutUint64(b[24:32], h.Triangles().Count())
	be.PutUint32(b[32:36], uint32(h.Triangles().IndexBits()))
	be.PutUint32(b[36:40], uint32(len(attrs)))
	coords := h.CoordinateSystem()
	be.PutUint32(b[40:44], uint32(coords.Right()))
	be.PutUint32(b[44:48], uint32(coords.Up()))
	be.PutUint32(b[48:52], uint32(coords.Forward()))
	be.PutUint32(b[52:56], uint32(coords.Winding()))
	be.PutUint32(b[56:60], uint32(h.ByteOrder()))
	be.PutUint64(b[64:72], h.MetaCount())
	if err := s.out.write(b); err != nil {
		return err
	}

	for _, a := range attrs {
		r := s.out.buf[:attributeRecordSize]
		if err := encoding.PutFixedString(r[:smf.MaxAttributeNameOctets], a.Name()); err != nil {
			return err
		}
		rest := r[smf.MaxAttributeNameOctets:]
		be.PutUint32(rest[0:4], uint32(a.Kind()))
		be.PutUint32(rest[4:8], uint32(a.ComponentCount()))
		be.PutUint32(rest[8:12], uint32(a.ComponentBits()))
		if err := s.out.write(r); err != nil {
			return err
		}
	}
	return s.out.pad(size)
}

// SerializeVertexDataNonInterleavedStart writes the vertex data section
// header and returns a writer for the attributes in header order.
func (s *Serializer) SerializeVertexDataNonInterleavedStart() (parser.AttributesWriter, error) {
	if err := s.order.BeginVertices(); err != nil {
		return nil, err
	}
	h := s.order.Header()
	var total uint64
	for _, a := range h.Attributes() {
		n, ok := regionSize(h.VertexCount(), a.Octets())
		if !ok {
			return nil, fmt.Errorf("%w: vertex data size overflows", smf.ErrUsage)
		}
		total += n
	}
	if err := s.out.section(MagicVertexData, total); err != nil {
		return nil, err
	}
	return &attributesWriter{s: s}, nil
}

// SerializeTrianglesStart writes the triangle section header and returns a
// writer for exactly the declared number of triangles.
func (s *Serializer) SerializeTrianglesStart() (parser.TrianglesWriter, error) {
	if err := s.order.BeginTriangles(); err != nil {
		return nil, err
	}
	t := s.order.Header().Triangles()
	size, ok := regionSize(t.Count(), t.TriangleOctets())
	if !ok {
		return nil, fmt.Errorf("%w: triangle data size overflows", smf.ErrUsage)
	}
	if err := s.out.section(MagicTriangles, size); err != nil {
		return nil, err
	}
	return &trianglesWriter{
		s:    s,
		c:    newComponent(t.IndexBits(), s.order.Header().ByteOrder()),
		buf:  make([]byte, t.TriangleOctets()),
		size: uint64(t.TriangleOctets()) * t.Count(),
	}, nil
}

// SerializeMetadata writes one metadata section.
func (s *Serializer) SerializeMetadata(schema smf.SchemaIdentifier, data []byte) error {
	if err := s.order.Metadata(); err != nil {
		return err
	}
	size := uint64(metadataFixedSize + len(data))
	if err := s.out.section(MagicMetadata, align(size)); err != nil {
		return err
	}
	be := binary.BigEndian
	b := s.out.buf[:metadataFixedSize]
	be.PutUint32(b[0:4], schema.Vendor)
	be.PutUint32(b[4:8], schema.Schema)
	be.PutUint32(b[8:12], schema.Major)
	be.PutUint32(b[12:16], schema.Minor)
	be.PutUint64(b[16:24], uint64(len(data)))
	if err := s.out.write(b); err != nil {
		return err
	}
	if err := s.out.write(data); err != nil {
		return err
	}
	return s.out.pad(size)
}

// Close writes the end section, flushes and releases the stream. The
// stream is released even when an error is returned.
func (s *Serializer) Close() error {
	if s.closed {
		return fmt.Errorf("%w: serializer already closed", smf.ErrUsage)
	}
	s.closed = true

	var err error
	if s.order.Header() != nil {
		err = multierr.Append(err, s.out.section(MagicEnd, 0))
	}
	err = multierr.Append(err, s.order.Close())
	if s.out.err == nil {
		err = multierr.Append(err, s.out.w.Flush())
	}
	if s.closer != nil {
		err = multierr.Append(err, s.closer.Close())
	}
	return err
}

type attributesWriter struct {
	s *Serializer
}

func (w *attributesWriter) SerializeData(name string) (parser.ValuesWriter, error) {
	a, err := w.s.order.BeginAttribute(name)
	if err != nil {
		return nil, err
	}
	return &valuesWriter{
		s:    w.s,
		attr: a,
		c:    newComponent(a.ComponentBits(), w.s.order.Header().ByteOrder()),
		buf:  make([]byte, a.Octets()),
	}, nil
}

func (w *attributesWriter) Close() error {
	return w.s.order.EndVertices()
}

type valuesWriter struct {
	s       *Serializer
	attr    smf.Attribute
	c       component
	buf     []byte
	written uint64
}

func (w *valuesWriter) SerializeSigned(v ...int64) error {
	for _, x := range v {
		if !parser.SignedFits(x, w.attr.ComponentBits()) {
			return fmt.Errorf("%w: value %d does not fit attribute %q", smf.ErrUsage, x, w.attr.Name())
		}
	}
	if err := w.s.order.Value(smf.KindIntegerSigned, len(v)); err != nil {
		return err
	}
	encodeVector(w.buf, v, w.c.octets, w.c.putSigned)
	return w.flush()
}

func (w *valuesWriter) SerializeUnsigned(v ...uint64) error {
	for _, x := range v {
		if !parser.UnsignedFits(x, w.attr.ComponentBits()) {
			return fmt.Errorf("%w: value %d does not fit attribute %q", smf.ErrUsage, x, w.attr.Name())
		}
	}
	if err := w.s.order.Value(smf.KindIntegerUnsigned, len(v)); err != nil {
		return err
	}
	encodeVector(w.buf, v, w.c.octets, w.c.putUnsigned)
	return w.flush()
}

func (w *valuesWriter) SerializeFloat(v ...float64) error {
	if err := w.s.order.Value(smf.KindFloat, len(v)); err != nil {
		return err
	}
	encodeVector(w.buf, v, w.c.octets, w.c.putFloat)
	return w.flush()
}

func (w *valuesWriter) flush() error {
	w.written += uint64(len(w.buf))
	return w.s.out.write(w.buf)
}

func (w *valuesWriter) Close() error {
	if err := w.s.order.EndAttribute(); err != nil {
		return err
	}
	return w.s.out.pad(w.written)
}

type trianglesWriter struct {
	s    *Serializer
	c    component
	buf  []byte
	size uint64
}

func (w *trianglesWriter) SerializeTriangle(a, b, c uint64) error {
	if err := w.s.order.Triangle(a, b, c); err != nil {
		return err
	}
	encodeVector(w.buf, []uint64{a, b, c}, w.c.octets, w.c.putUnsigned)
	return w.s.out.write(w.buf)
}

func (w *trianglesWriter) Close() error {
	if err := w.s.order.EndTriangles(); err != nil {
		return err
	}
	return w.s.out.pad(w.size)
}
