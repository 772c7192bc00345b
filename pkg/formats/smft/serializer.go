package smft

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/Faultbox/smf/pkg/encoding"
	"github.com/Faultbox/smf/pkg/parser"
	"github.com/Faultbox/smf/pkg/smf"
)

// Serializer writes the text encoding. Calls must follow the order the
// header dictates; misuse returns errors wrapping smf.ErrUsage.
type Serializer struct {
	w       *bufio.Writer
	err     error
	closer  io.Closer
	version smf.FormatVersion
	order   parser.WriteOrder

	metaOpen bool
	closed   bool
	fields   []string
}

var _ parser.Serializer = (*Serializer)(nil)

// NewSerializer creates a serializer for version writing to w. If w is an
// io.Closer, Close closes it.
func NewSerializer(w io.Writer, version smf.FormatVersion) (*Serializer, error) {
	if !supported(version) {
		return nil, fmt.Errorf("%w: smf/t %s", smf.ErrUnsupportedVersion, version)
	}
	s := &Serializer{w: bufio.NewWriter(w), version: version}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s, nil
}

func (s *Serializer) line(fields ...string) error {
	if s.err != nil {
		return s.err
	}
	if _, s.err = s.w.WriteString(strings.Join(fields, " ")); s.err != nil {
		return s.err
	}
	s.err = s.w.WriteByte('\n')
	return s.err
}

// SerializeHeader writes the version line, the header commands and "data".
func (s *Serializer) SerializeHeader(h *smf.Header) error {
	for _, a := range h.Attributes() {
		if strings.ContainsAny(a.Name(), "\r\n") {
			return fmt.Errorf("%w: attribute name %q cannot be written as text", smf.ErrUsage, a.Name())
		}
	}
	if err := s.order.BeginHeader(h); err != nil {
		return err
	}

	u := func(v uint64) string { return strconv.FormatUint(v, 10) }

	s.line("smf", u(uint64(s.version.Major)), u(uint64(s.version.Minor)))
	s.line("vertices", u(h.VertexCount()))
	s.line("triangles", u(h.Triangles().Count()), strconv.Itoa(h.Triangles().IndexBits()))
	s.line("coordinates", h.CoordinateSystem().String())
	s.line("endianness", h.ByteOrder().String())
	if id, ok := h.SchemaIdentifier(); ok {
		s.line("schema", fmt.Sprintf("%08x", id.Vendor), fmt.Sprintf("%08x", id.Schema),
			u(uint64(id.Major)), u(uint64(id.Minor)))
	}
	if h.MetaCount() > 0 {
		s.line("meta", u(h.MetaCount()))
	}
	for _, a := range h.Attributes() {
		s.line("attribute", Quote(a.Name()), a.Kind().String(),
			strconv.Itoa(a.ComponentCount()), strconv.Itoa(a.ComponentBits()))
	}
	return s.line("data")
}

// SerializeVertexDataNonInterleavedStart returns a writer for the
// attributes in header order.
func (s *Serializer) SerializeVertexDataNonInterleavedStart() (parser.AttributesWriter, error) {
	if err := s.order.BeginVertices(); err != nil {
		return nil, err
	}
	return &attributesWriter{s: s}, nil
}

// SerializeTrianglesStart writes the triangles section line and returns a
// writer for exactly the declared number of triangles.
func (s *Serializer) SerializeTrianglesStart() (parser.TrianglesWriter, error) {
	if err := s.order.BeginTriangles(); err != nil {
		return nil, err
	}
	if err := s.line("triangles"); err != nil {
		return nil, err
	}
	return &trianglesWriter{s: s}, nil
}

// SerializeMetadata writes one meta block as base64 lines.
func (s *Serializer) SerializeMetadata(schema smf.SchemaIdentifier, data []byte) error {
	if err := s.order.Metadata(); err != nil {
		return err
	}
	if !s.metaOpen {
		s.metaOpen = true
		s.line("metadata")
	}
	lines := encoding.Base64Lines(data)
	s.line("meta",
		fmt.Sprintf("%08x", schema.Vendor),
		fmt.Sprintf("%08x", schema.Schema),
		strconv.FormatUint(uint64(schema.Major), 10),
		strconv.FormatUint(uint64(schema.Minor), 10),
		strconv.Itoa(len(lines)))
	for _, l := range lines {
		s.line(l)
	}
	return s.err
}

// Close terminates an open metadata list, flushes and releases the stream.
// The stream is released even when an error is returned.
func (s *Serializer) Close() error {
	if s.closed {
		return fmt.Errorf("%w: serializer already closed", smf.ErrUsage)
	}
	s.closed = true

	var err error
	if s.metaOpen {
		err = multierr.Append(err, s.line("end"))
	}
	err = multierr.Append(err, s.order.Close())
	if s.err == nil {
		err = multierr.Append(err, s.w.Flush())
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
	if err := w.s.line("attribute", Quote(a.Name())); err != nil {
		return nil, err
	}
	return &valuesWriter{s: w.s, attr: a}, nil
}

func (w *attributesWriter) Close() error {
	return w.s.order.EndVertices()
}

type valuesWriter struct {
	s    *Serializer
	attr smf.Attribute
}

func (w *valuesWriter) fields(n int) []string {
	if cap(w.s.fields) < n {
		w.s.fields = make([]string, n)
	}
	return w.s.fields[:n]
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
	f := w.fields(len(v))
	for i, x := range v {
		f[i] = strconv.FormatInt(x, 10)
	}
	return w.s.line(f...)
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
	f := w.fields(len(v))
	for i, x := range v {
		f[i] = strconv.FormatUint(x, 10)
	}
	return w.s.line(f...)
}

func (w *valuesWriter) SerializeFloat(v ...float64) error {
	if err := w.s.order.Value(smf.KindFloat, len(v)); err != nil {
		return err
	}
	f := w.fields(len(v))
	for i, x := range v {
		f[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return w.s.line(f...)
}

func (w *valuesWriter) Close() error {
	return w.s.order.EndAttribute()
}

type trianglesWriter struct {
	s *Serializer
}

func (w *trianglesWriter) SerializeTriangle(a, b, c uint64) error {
	if err := w.s.order.Triangle(a, b, c); err != nil {
		return err
	}
	return w.s.line(
		strconv.FormatUint(a, 10),
		strconv.FormatUint(b, 10),
		strconv.FormatUint(c, 10))
}

func (w *trianglesWriter) Close() error {
	return w.s.order.EndTriangles()
}
