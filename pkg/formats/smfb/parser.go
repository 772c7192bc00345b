package smfb

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math/bits"

	"go.uber.org/zap"

	"github.com/Faultbox/smf/pkg/encoding"
	"github.com/Faultbox/smf/pkg/parser"
	"github.com/Faultbox/smf/pkg/smf"
)

// input tracks the absolute offset of a buffered stream.
type input struct {
	r   *bufio.Reader
	off int64
	buf [headerFixedSize + attributeRecordSize]byte
}

func (in *input) read(n int) ([]byte, error) {
	b := in.buf[:n]
	k, err := io.ReadFull(in.r, b)
	in.off += int64(k)
	return b, err
}

func (in *input) readInto(b []byte) error {
	k, err := io.ReadFull(in.r, b)
	in.off += int64(k)
	return err
}

func (in *input) skip(n uint64) error {
	for n > 0 {
		step := n
		if step > 1<<30 {
			step = 1 << 30
		}
		k, err := in.r.Discard(int(step))
		in.off += int64(k)
		if err != nil {
			return err
		}
		n -= step
	}
	return nil
}

type section struct {
	magic  uint64
	size   uint64
	offset int64
}

// Parser parses the binary encoding from a stream, delivering events to a
// consumer. A Parser is used for exactly one Parse call.
type Parser struct {
	in      *input
	closer  io.Closer
	session *parser.Session
	events  parser.Events

	version smf.FormatVersion
	header  *smf.Header
	tracker *parser.Tracker
	order   smf.ByteOrder
}

var _ parser.Parser = (*Parser)(nil)

// NewParser creates a parser reading r. source names the stream in error
// positions. If r is an io.Closer, Close closes it.
func NewParser(r io.Reader, source string, events parser.Events) *Parser {
	p := &Parser{
		in:      &input{r: bufio.NewReader(r)},
		session: parser.NewSession(events, source),
		events:  events,
	}
	if c, ok := r.(io.Closer); ok {
		p.closer = c
	}
	return p
}

// Parse reads the whole stream. OnStart and OnFinish are always delivered.
func (p *Parser) Parse() {
	p.events.OnStart()
	defer p.session.Finish()

	if err := p.parse(); err != nil {
		p.session.Fail(err)
	}
}

// Failed reports whether the parse delivered an error.
func (p *Parser) Failed() bool {
	return p.session.Failed()
}

// Close releases the underlying stream.
func (p *Parser) Close() error {
	if p.closer == nil {
		return nil
	}
	c := p.closer
	p.closer = nil
	return c.Close()
}

func (p *Parser) pos() smf.Position {
	return smf.Position{Source: p.session.Source(), Offset: p.in.off}
}

func (p *Parser) errorf(kind smf.ErrorKind, format string, args ...any) *smf.Error {
	return smf.Errorf(kind, p.pos(), format, args...)
}

func (p *Parser) ioError(err error) *smf.Error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return p.errorf(smf.KindLexical, "Unexpected end of input.")
	}
	return smf.WrapError(smf.KindTransport, p.pos(), err, "I/O error")
}

func (p *Parser) parse() *smf.Error {
	if err := p.parseFileHeader(); err != nil {
		return err
	}
	if !p.session.Advance(parser.StateHeaderParsing) {
		return nil
	}

	for !p.session.Failed() {
		s, err := p.readSection()
		if err != nil {
			return err
		}
		zap.L().Debug("smfb section",
			zap.String("source", p.session.Source()),
			zap.String("section", SectionName(s.magic)),
			zap.Int64("offset", s.offset),
			zap.Uint64("size", s.size))

		if s.magic == MagicEnd {
			return p.parseEnd(s)
		}

		start := p.in.off
		if err := p.parseSection(s); err != nil {
			return err
		}
		consumed := uint64(p.in.off - start)
		if err := p.in.skip(s.size - consumed); err != nil {
			return p.ioError(err)
		}
	}
	return nil
}

func (p *Parser) parseFileHeader() *smf.Error {
	b, err := p.in.read(fileHeaderSize)
	if err != nil {
		return p.ioError(err)
	}
	version, perr := Probe(b)
	if perr != nil {
		return smf.WrapError(smf.KindLexical, smf.Position{Offset: 0}, perr,
			"Bad magic number: expected 0x89534D460D0A1A0A")
	}
	if !supported(version) {
		return smf.WrapError(smf.KindLexical, smf.Position{Offset: 8}, smf.ErrUnsupportedVersion,
			"Unsupported binary format version "+version.String())
	}
	p.version = version
	p.events.OnVersionReceived(version)
	return nil
}

func (p *Parser) readSection() (section, *smf.Error) {
	offset := p.in.off
	b, err := p.in.read(sectionHeaderSize)
	if err != nil {
		return section{}, p.ioError(err)
	}
	return section{
		magic:  binary.BigEndian.Uint64(b[0:8]),
		size:   binary.BigEndian.Uint64(b[8:16]),
		offset: offset,
	}, nil
}

func (p *Parser) parseSection(s section) *smf.Error {
	if s.magic != MagicHeader && p.header == nil {
		switch s.magic {
		case MagicVertexData, MagicTriangles, MagicMetadata:
			return p.errorf(smf.KindStructural,
				"Section %s appeared before the header section.", SectionName(s.magic))
		}
	}
	switch s.magic {
	case MagicHeader:
		return p.parseHeader(s)
	case MagicVertexData:
		return p.parseVertexData(s)
	case MagicTriangles:
		return p.parseTriangles(s)
	case MagicMetadata:
		return p.parseMetadata(s)
	default:
		return smf.Errorf(smf.KindLexical, smf.Position{Source: p.session.Source(), Offset: s.offset},
			"Unrecognized section magic number %s.", SectionName(s.magic))
	}
}

func (p *Parser) parseHeader(s section) *smf.Error {
	if p.header != nil {
		return p.errorf(smf.KindStructural, "Duplicate header section.")
	}
	if s.size < headerFixedSize {
		return p.errorf(smf.KindStructural,
			"Header section size %d is smaller than the minimum %d.", s.size, headerFixedSize)
	}
	b, err := p.in.read(headerFixedSize)
	if err != nil {
		return p.ioError(err)
	}
	be := binary.BigEndian

	hb := smf.NewHeaderBuilder()
	schema := smf.SchemaIdentifier{
		Vendor: be.Uint32(b[0:4]),
		Schema: be.Uint32(b[4:8]),
		Major:  be.Uint32(b[8:12]),
		Minor:  be.Uint32(b[12:16]),
	}
	if !schema.IsZero() {
		hb.SetSchemaIdentifier(schema)
	}
	hb.SetVertexCount(be.Uint64(b[16:24]))

	triangles, terr := smf.NewTriangles(be.Uint64(b[24:32]), int(be.Uint32(b[32:36])))
	if terr != nil {
		return smf.WrapError(smf.KindStructural, p.pos(), terr, "Invalid triangle declaration")
	}
	hb.SetTriangles(triangles)

	attrCount := uint64(be.Uint32(b[36:40]))

	coords, cerr := smf.NewCoordinateSystem(
		smf.Axis(be.Uint32(b[40:44])),
		smf.Axis(be.Uint32(b[44:48])),
		smf.Axis(be.Uint32(b[48:52])),
		smf.WindingOrder(be.Uint32(b[52:56])))
	if cerr != nil {
		return smf.WrapError(smf.KindStructural, p.pos(), cerr, "Invalid coordinate system")
	}
	hb.SetCoordinateSystem(coords)

	order := smf.ByteOrder(be.Uint32(b[56:60]))
	if order != smf.BigEndian && order != smf.LittleEndian {
		return p.errorf(smf.KindStructural, "Invalid byte order %d.", uint32(order))
	}
	hb.SetByteOrder(order)
	hb.SetMetaCount(be.Uint64(b[64:72]))

	if need := headerFixedSize + attrCount*attributeRecordSize; need > s.size {
		return p.errorf(smf.KindStructural,
			"Header section declares %d attributes requiring %d octets, but the section holds %d.",
			attrCount, need, s.size)
	}
	for i := uint64(0); i < attrCount; i++ {
		a, err := p.parseAttribute()
		if err != nil {
			return err
		}
		hb.AddAttribute(a)
	}

	header, herr := hb.Build()
	if herr != nil {
		return smf.WrapError(smf.KindStructural, p.pos(), herr, "Invalid header")
	}
	p.header = header
	p.order = order
	p.tracker = parser.NewTracker(header)

	if !p.session.Advance(parser.StateHeaderParsed) {
		return nil
	}
	p.events.OnHeaderParsed(header)
	return nil
}

func (p *Parser) parseAttribute() (smf.Attribute, *smf.Error) {
	b, err := p.in.read(attributeRecordSize)
	if err != nil {
		return smf.Attribute{}, p.ioError(err)
	}
	name, nerr := encoding.FixedString(b[:smf.MaxAttributeNameOctets])
	if nerr != nil {
		return smf.Attribute{}, smf.WrapError(smf.KindLexical, p.pos(), nerr, "Invalid attribute name")
	}
	rest := b[smf.MaxAttributeNameOctets:]
	kind := smf.ComponentKind(binary.BigEndian.Uint32(rest[0:4]))
	count := int(binary.BigEndian.Uint32(rest[4:8]))
	width := int(binary.BigEndian.Uint32(rest[8:12]))

	a, aerr := smf.NewAttribute(name, kind, count, width)
	if aerr != nil {
		return smf.Attribute{}, smf.WrapError(smf.KindStructural, p.pos(), aerr, "Invalid attribute")
	}
	return a, nil
}

// regionSize returns the padded size of n elements of size octets.
func regionSize(n uint64, size int) (uint64, bool) {
	hi, lo := bits.Mul64(n, uint64(size))
	if hi != 0 || lo > ^uint64(0)-alignment {
		return 0, false
	}
	return align(lo), true
}

func (p *Parser) parseVertexData(s section) *smf.Error {
	attrs := p.header.Attributes()
	var total uint64
	for _, a := range attrs {
		n, ok := regionSize(p.header.VertexCount(), a.Octets())
		if !ok || total+n < total {
			return p.errorf(smf.KindStructural, "Vertex data size overflows.")
		}
		total += n
	}
	if total > s.size {
		return p.errorf(smf.KindStructural,
			"Vertex data section requires %d octets, but the section holds %d.", total, s.size)
	}
	for _, a := range attrs {
		if p.session.Failed() {
			return nil
		}
		if !p.tracker.AttributeReceived(a.Name()) {
			return p.errorf(smf.KindStructural, "Duplicate vertex data section.")
		}
		if err := p.parseAttributeData(a); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) parseAttributeData(a smf.Attribute) *smf.Error {
	count := p.header.VertexCount()
	size, _ := regionSize(count, a.Octets())
	start := p.in.off

	recv := p.events.OnDataAttributeStart(a)
	if recv == nil {
		if err := p.in.skip(size); err != nil {
			return p.ioError(err)
		}
		return nil
	}

	c := newComponent(a.ComponentBits(), p.order)
	buf := make([]byte, a.Octets())
	var (
		signed   [4]int64
		unsigned [4]uint64
		floats   [4]float64
	)
	n := a.ComponentCount()
	for i := uint64(0); i < count; i++ {
		if err := p.in.readInto(buf); err != nil {
			return p.ioError(err)
		}
		switch a.Kind() {
		case smf.KindIntegerSigned:
			parser.DeliverSigned(recv, decodeVector(signed[:n], buf, c.octets, c.signed))
		case smf.KindIntegerUnsigned:
			parser.DeliverUnsigned(recv, decodeVector(unsigned[:n], buf, c.octets, c.unsigned))
		case smf.KindFloat:
			parser.DeliverFloat(recv, decodeVector(floats[:n], buf, c.octets, c.float))
		}
	}
	recv.OnDataAttributeFinish(a)

	if err := p.in.skip(size - uint64(p.in.off-start)); err != nil {
		return p.ioError(err)
	}
	return nil
}

func (p *Parser) parseTriangles(s section) *smf.Error {
	triangles := p.header.Triangles()
	size, ok := regionSize(triangles.Count(), triangles.TriangleOctets())
	if !ok {
		return p.errorf(smf.KindStructural, "Triangle data size overflows.")
	}
	if size > s.size {
		return p.errorf(smf.KindStructural,
			"Triangle section requires %d octets, but the section holds %d.", size, s.size)
	}
	if !p.tracker.TrianglesReceived() {
		return p.errorf(smf.KindStructural, "Duplicate triangle section.")
	}

	recv := p.events.OnDataTrianglesStart()
	if recv == nil {
		if err := p.in.skip(size); err != nil {
			return p.ioError(err)
		}
		return nil
	}

	c := newComponent(triangles.IndexBits(), p.order)
	buf := make([]byte, triangles.TriangleOctets())
	var tri [3]uint64
	for i := uint64(0); i < triangles.Count(); i++ {
		if err := p.in.readInto(buf); err != nil {
			return p.ioError(err)
		}
		decodeVector(tri[:], buf, c.octets, c.unsigned)
		recv.OnDataTriangle(tri[0], tri[1], tri[2])
	}
	recv.OnDataTrianglesFinish()
	return nil
}

func (p *Parser) parseMetadata(s section) *smf.Error {
	if s.size < metadataFixedSize {
		return p.errorf(smf.KindStructural,
			"Metadata section size %d is smaller than the minimum %d.", s.size, metadataFixedSize)
	}
	b, err := p.in.read(metadataFixedSize)
	if err != nil {
		return p.ioError(err)
	}
	be := binary.BigEndian
	schema := smf.SchemaIdentifier{
		Vendor: be.Uint32(b[0:4]),
		Schema: be.Uint32(b[4:8]),
		Major:  be.Uint32(b[8:12]),
		Minor:  be.Uint32(b[12:16]),
	}
	length := be.Uint64(b[16:24])
	if length > s.size-metadataFixedSize {
		return p.errorf(smf.KindStructural,
			"Metadata length %d exceeds the section size %d.", length, s.size)
	}

	p.tracker.MetaReceived()
	recv := p.events.OnMeta(schema)
	if recv == nil {
		if err := p.in.skip(length); err != nil {
			return p.ioError(err)
		}
		return nil
	}

	var data bytes.Buffer
	k, cerr := io.CopyN(&data, p.in.r, int64(length))
	p.in.off += k
	if cerr != nil {
		return p.ioError(cerr)
	}
	recv.OnMetaData(data.Bytes())
	return nil
}

func (p *Parser) parseEnd(s section) *smf.Error {
	if err := p.in.skip(s.size); err != nil {
		return p.ioError(err)
	}
	if p.header == nil {
		return p.errorf(smf.KindStructural, "No header section was provided.")
	}

	pos := p.pos()
	errs := p.tracker.Check(pos)
	if err := p.tracker.CheckMeta(pos); err != nil {
		errs = append(errs, err)
	}
	for _, err := range errs {
		p.session.Fail(err)
	}
	p.session.Advance(parser.StateFinished)
	return nil
}
