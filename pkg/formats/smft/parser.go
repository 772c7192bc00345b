package smft

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/Faultbox/smf/pkg/encoding"
	"github.com/Faultbox/smf/pkg/parser"
	"github.com/Faultbox/smf/pkg/smf"
)

// lineReader reads numbered lines.
type lineReader struct {
	r    *bufio.Reader
	line int
	eof  bool
}

func (l *lineReader) read() (string, bool, error) {
	if l.eof {
		return "", false, nil
	}
	s, err := l.r.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", false, err
		}
		l.eof = true
		if s == "" {
			return "", false, nil
		}
	}
	l.line++
	return strings.TrimSuffix(s, "\n"), true, nil
}

// Parser parses the text encoding from a stream, delivering events to a
// consumer. A Parser is used for exactly one Parse call.
type Parser struct {
	lines   *lineReader
	closer  io.Closer
	session *parser.Session
	events  parser.Events

	header      *smf.Header
	tracker     *parser.Tracker
	metaChecked bool
}

var _ parser.Parser = (*Parser)(nil)

// NewParser creates a parser reading r. source names the stream in error
// positions. If r is an io.Closer, Close closes it.
func NewParser(r io.Reader, source string, events parser.Events) *Parser {
	p := &Parser{
		lines:   &lineReader{r: bufio.NewReader(encoding.NewUTF8Reader(r))},
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
	p.parse()
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
	return smf.Position{Source: p.session.Source(), Line: p.lines.line, Column: 1}
}

func (p *Parser) fail(kind smf.ErrorKind, format string, args ...any) {
	p.session.Fail(smf.Errorf(kind, p.pos(), format, args...))
}

func (p *Parser) failCause(kind smf.ErrorKind, cause error, message string) {
	p.session.Fail(smf.WrapError(kind, p.pos(), cause, message))
}

func (p *Parser) failEOF() {
	p.fail(smf.KindLexical, "Unexpected EOF.")
}

// status of a line read.
type status int

const (
	lineOK status = iota
	lineEOF
	lineBad   // lexical error reported, parsing may continue
	lineAbort // transport error reported
)

// line reads and lexes the next line, reporting lexical and transport
// errors itself.
func (p *Parser) line() ([]string, status) {
	raw, ok, err := p.lines.read()
	if err != nil {
		p.failCause(smf.KindTransport, err, "I/O error")
		return nil, lineAbort
	}
	if !ok {
		return nil, lineEOF
	}
	tokens, err := Lex(raw)
	if err != nil {
		p.failCause(smf.KindLexical, err, "Malformed line")
		return nil, lineBad
	}
	return tokens, lineOK
}

// command reads the next non-empty line.
func (p *Parser) command() ([]string, status) {
	for {
		tokens, st := p.line()
		if st != lineOK || len(tokens) > 0 {
			return tokens, st
		}
	}
}

func (p *Parser) parse() {
	tokens, st := p.command()
	switch st {
	case lineEOF:
		p.failEOF()
		return
	case lineBad, lineAbort:
		return
	}
	version, msg := parseVersion(tokens)
	if msg != "" {
		p.fail(smf.KindLexical, "%s", msg)
		return
	}
	if !supported(version) {
		p.failCause(smf.KindLexical, smf.ErrUnsupportedVersion, "Version "+version.String()+" is not supported")
		return
	}
	p.events.OnVersionReceived(version)
	if !p.session.Advance(parser.StateHeaderParsing) {
		return
	}

	header := p.parseHeader()
	if header == nil {
		return
	}
	p.header = header
	p.tracker = parser.NewTracker(header)
	if !p.session.Advance(parser.StateHeaderParsed) {
		return
	}
	p.events.OnHeaderParsed(header)

	if !p.parseBody() {
		return
	}

	pos := p.pos()
	errs := p.tracker.Check(pos)
	if !p.metaChecked {
		if err := p.tracker.CheckMeta(pos); err != nil {
			errs = append(errs, err)
		}
	}
	for _, err := range errs {
		p.session.Fail(err)
	}
	p.session.Advance(parser.StateFinished)
}

// parseHeader reads header commands up to "data". Each malformed command
// fails the parse immediately.
func (p *Parser) parseHeader() *smf.Header {
	b := smf.NewHeaderBuilder()
	seen := make(map[string]bool)

	for {
		tokens, st := p.command()
		switch st {
		case lineEOF:
			p.failEOF()
			return nil
		case lineBad, lineAbort:
			return nil
		}

		var ok bool
		switch tokens[0] {
		case "vertices":
			ok = p.headerVertices(b, tokens)
		case "triangles":
			ok = p.headerTriangles(b, tokens)
		case "attribute":
			ok = p.headerAttribute(b, tokens, seen)
		case "coordinates":
			ok = p.headerCoordinates(b, tokens)
		case "schema":
			ok = p.headerSchema(b, tokens)
		case "meta":
			ok = p.headerMeta(b, tokens)
		case "endianness":
			ok = p.headerEndianness(b, tokens)
		case "data":
			if len(tokens) != 1 {
				p.fail(smf.KindLexical, "%s", expectedGot("Could not parse 'data' command", "data", tokens))
				return nil
			}
			h, err := b.Build()
			if err != nil {
				p.failCause(smf.KindStructural, err, "Invalid header")
				return nil
			}
			return h
		default:
			p.session.Warn(&smf.Warning{
				Position: p.pos(),
				Message:  "Unrecognized header command: " + strconv.Quote(tokens[0]),
			})
			ok = true
		}
		if !ok {
			return nil
		}
	}
}

func (p *Parser) malformed(command, syntax string, tokens []string, cause error) bool {
	msg := expectedGot("Could not parse '"+command+"' command", syntax, tokens)
	if cause != nil {
		p.failCause(smf.KindLexical, cause, msg)
	} else {
		p.fail(smf.KindLexical, "%s", msg)
	}
	return false
}

func (p *Parser) headerVertices(b *smf.HeaderBuilder, tokens []string) bool {
	const syntax = "vertices <count>"
	if len(tokens) != 2 {
		return p.malformed("vertices", syntax, tokens, nil)
	}
	n, err := strconv.ParseUint(tokens[1], 10, 64)
	if err != nil {
		return p.malformed("vertices", syntax, tokens, err)
	}
	b.SetVertexCount(n)
	return true
}

func (p *Parser) headerTriangles(b *smf.HeaderBuilder, tokens []string) bool {
	const syntax = "triangles <count> <index-width>"
	if len(tokens) != 3 {
		return p.malformed("triangles", syntax, tokens, nil)
	}
	n, err := strconv.ParseUint(tokens[1], 10, 64)
	if err != nil {
		return p.malformed("triangles", syntax, tokens, err)
	}
	width, err := strconv.Atoi(tokens[2])
	if err != nil {
		return p.malformed("triangles", syntax, tokens, err)
	}
	t, err := smf.NewTriangles(n, width)
	if err != nil {
		return p.malformed("triangles", syntax, tokens, err)
	}
	b.SetTriangles(t)
	return true
}

func (p *Parser) headerAttribute(b *smf.HeaderBuilder, tokens []string, seen map[string]bool) bool {
	const syntax = "attribute <name> <kind> <count> <width>"
	if len(tokens) != 5 {
		return p.malformed("attribute", syntax, tokens, nil)
	}
	kind, err := smf.ParseComponentKind(tokens[2])
	if err != nil {
		return p.malformed("attribute", syntax, tokens, err)
	}
	count, err := strconv.Atoi(tokens[3])
	if err != nil {
		return p.malformed("attribute", syntax, tokens, err)
	}
	width, err := strconv.Atoi(tokens[4])
	if err != nil {
		return p.malformed("attribute", syntax, tokens, err)
	}
	a, err := smf.NewAttribute(tokens[1], kind, count, width)
	if err != nil {
		return p.malformed("attribute", syntax, tokens, err)
	}
	if seen[a.Name()] {
		p.fail(smf.KindStructural, "Duplicate attribute name %q.", a.Name())
		return false
	}
	seen[a.Name()] = true
	b.AddAttribute(a)
	return true
}

func (p *Parser) headerCoordinates(b *smf.HeaderBuilder, tokens []string) bool {
	const syntax = "coordinates <axis> <axis> <axis> <winding>"
	if len(tokens) != 5 {
		return p.malformed("coordinates", syntax, tokens, nil)
	}
	c, err := smf.ParseCoordinateSystem(strings.Join(tokens[1:], " "))
	if err != nil {
		return p.malformed("coordinates", syntax, tokens, err)
	}
	b.SetCoordinateSystem(c)
	return true
}

func (p *Parser) headerSchema(b *smf.HeaderBuilder, tokens []string) bool {
	const syntax = "schema <vendor-id> <schema-id> <major> <minor>"
	if len(tokens) != 5 {
		return p.malformed("schema", syntax, tokens, nil)
	}
	id, err := ParseSchemaIdentifier(tokens[1:])
	if err != nil {
		return p.malformed("schema", syntax, tokens, err)
	}
	b.SetSchemaIdentifier(id)
	return true
}

func (p *Parser) headerMeta(b *smf.HeaderBuilder, tokens []string) bool {
	const syntax = "meta <count>"
	if len(tokens) != 2 {
		return p.malformed("meta", syntax, tokens, nil)
	}
	n, err := strconv.ParseUint(tokens[1], 10, 64)
	if err != nil {
		return p.malformed("meta", syntax, tokens, err)
	}
	b.SetMetaCount(n)
	return true
}

func (p *Parser) headerEndianness(b *smf.HeaderBuilder, tokens []string) bool {
	const syntax = "endianness big|little"
	if len(tokens) != 2 {
		return p.malformed("endianness", syntax, tokens, nil)
	}
	order, err := smf.ParseByteOrder(tokens[1])
	if err != nil {
		return p.malformed("endianness", syntax, tokens, err)
	}
	b.SetByteOrder(order)
	return true
}

// parseBody reads body sections to the end of input. It returns false if
// the parse must stop without the end-of-input checks.
func (p *Parser) parseBody() bool {
	for {
		tokens, st := p.command()
		switch st {
		case lineEOF:
			return true
		case lineBad, lineAbort:
			return false
		}

		zap.L().Debug("smft section",
			zap.String("source", p.session.Source()),
			zap.String("section", tokens[0]),
			zap.Int("line", p.lines.line))

		switch tokens[0] {
		case "attribute":
			p.parseAttributeData(tokens)
		case "triangles":
			p.parseTriangles(tokens)
		case "metadata":
			p.parseMetadata(tokens)
		default:
			p.fail(smf.KindLexical, "Unrecognized body section %q: expected attribute, triangles or metadata.", tokens[0])
		}
		if p.session.Failed() {
			return false
		}
	}
}

// parseAttributeData reads one attribute's values. Errors on individual
// lines are reported and reading continues to the end of the section, but
// no further values are delivered.
func (p *Parser) parseAttributeData(tokens []string) {
	if len(tokens) != 2 {
		p.malformed("attribute", "attribute <name>", tokens, nil)
		return
	}
	a, ok := p.header.Attribute(norm.NFC.String(tokens[1]))
	if !ok {
		p.fail(smf.KindStructural, "Attribute %q was not declared in the header.", tokens[1])
		return
	}
	if !p.tracker.AttributeReceived(a.Name()) {
		p.fail(smf.KindStructural, "Data for attribute %q was already provided.", a.Name())
		return
	}

	recv := p.events.OnDataAttributeStart(a)
	n := a.ComponentCount()
	var (
		signed   [4]int64
		unsigned [4]uint64
		floats   [4]float64
	)
	for i := uint64(0); i < p.header.VertexCount(); i++ {
		values, st := p.line()
		switch st {
		case lineEOF:
			p.failEOF()
			return
		case lineAbort:
			return
		case lineBad:
			continue
		}
		if len(values) != n {
			p.fail(smf.KindLexical, "Attribute %q value has %d components, expected %d.", a.Name(), len(values), n)
			continue
		}

		var valid bool
		switch a.Kind() {
		case smf.KindIntegerSigned:
			valid = p.parseSigned(signed[:n], values, a.ComponentBits())
		case smf.KindIntegerUnsigned:
			valid = p.parseUnsigned(unsigned[:n], values, a.ComponentBits())
		default:
			valid = p.parseFloat(floats[:n], values)
		}
		if !valid || recv == nil || p.session.Failed() {
			continue
		}
		switch a.Kind() {
		case smf.KindIntegerSigned:
			parser.DeliverSigned(recv, signed[:n])
		case smf.KindIntegerUnsigned:
			parser.DeliverUnsigned(recv, unsigned[:n])
		default:
			parser.DeliverFloat(recv, floats[:n])
		}
	}
	if recv != nil && !p.session.Failed() {
		recv.OnDataAttributeFinish(a)
	}
}

func (p *Parser) parseSigned(dst []int64, tokens []string, bits int) bool {
	for i, tok := range tokens {
		v, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			p.failCause(smf.KindLexical, err, "Could not parse signed integer "+strconv.Quote(tok))
			return false
		}
		if !parser.SignedFits(v, bits) {
			p.fail(smf.KindRange, "Value %d does not fit in a %d-bit signed integer.", v, bits)
			return false
		}
		dst[i] = v
	}
	return true
}

func (p *Parser) parseUnsigned(dst []uint64, tokens []string, bits int) bool {
	for i, tok := range tokens {
		v, err := strconv.ParseUint(tok, 10, 64)
		if err != nil {
			p.failCause(smf.KindLexical, err, "Could not parse unsigned integer "+strconv.Quote(tok))
			return false
		}
		if !parser.UnsignedFits(v, bits) {
			p.fail(smf.KindRange, "Value %d does not fit in a %d-bit unsigned integer.", v, bits)
			return false
		}
		dst[i] = v
	}
	return true
}

func (p *Parser) parseFloat(dst []float64, tokens []string) bool {
	for i, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			p.failCause(smf.KindLexical, err, "Could not parse floating point value "+strconv.Quote(tok))
			return false
		}
		dst[i] = v
	}
	return true
}

func (p *Parser) parseTriangles(tokens []string) {
	if len(tokens) != 1 {
		p.malformed("triangles", "triangles", tokens, nil)
		return
	}
	if !p.tracker.TrianglesReceived() {
		p.fail(smf.KindStructural, "Triangle data was already provided.")
		return
	}

	triangles := p.header.Triangles()
	recv := p.events.OnDataTrianglesStart()
	var tri [3]uint64
	for i := uint64(0); i < triangles.Count(); i++ {
		values, st := p.line()
		switch st {
		case lineEOF:
			p.failEOF()
			return
		case lineAbort:
			return
		case lineBad:
			continue
		}
		if len(values) != 3 {
			p.fail(smf.KindLexical, "Triangle has %d indices, expected 3.", len(values))
			continue
		}
		if !p.parseUnsigned(tri[:], values, triangles.IndexBits()) || recv == nil || p.session.Failed() {
			continue
		}
		recv.OnDataTriangle(tri[0], tri[1], tri[2])
	}
	if recv != nil && !p.session.Failed() {
		recv.OnDataTrianglesFinish()
	}
}

// parseMetadata reads meta blocks up to "end". A malformed block fails
// immediately; a block count differing from the header is reported once,
// after the whole list has been read.
func (p *Parser) parseMetadata(tokens []string) {
	if len(tokens) != 1 {
		p.malformed("metadata", "metadata", tokens, nil)
		return
	}
	if p.metaChecked {
		p.fail(smf.KindStructural, "Metadata was already provided.")
		return
	}

	for {
		tokens, st := p.command()
		switch st {
		case lineEOF:
			p.failEOF()
			return
		case lineBad, lineAbort:
			return
		}
		switch tokens[0] {
		case "meta":
			if !p.parseMeta(tokens) {
				return
			}
		case "end":
			if len(tokens) != 1 {
				p.malformed("end", "end", tokens, nil)
				return
			}
			p.metaChecked = true
			if err := p.tracker.CheckMeta(p.pos()); err != nil {
				p.session.Fail(err)
			}
			return
		default:
			p.fail(smf.KindLexical, "%s", expectedGot("Unrecognized metadata command", "meta | end", tokens))
			return
		}
	}
}

func (p *Parser) parseMeta(tokens []string) bool {
	const syntax = "meta <vendor-id> <schema-id> [<major> <minor>] <line-count>"
	if len(tokens) != 4 && len(tokens) != 6 {
		return p.malformed("meta", syntax, tokens, nil)
	}
	var (
		id  smf.SchemaIdentifier
		err error
	)
	if id.Vendor, err = parseHex32(tokens[1]); err != nil {
		return p.malformed("meta", syntax, tokens, err)
	}
	if id.Schema, err = parseHex32(tokens[2]); err != nil {
		return p.malformed("meta", syntax, tokens, err)
	}
	if len(tokens) == 6 {
		if id.Major, err = parseUint32(tokens[3]); err != nil {
			return p.malformed("meta", syntax, tokens, err)
		}
		if id.Minor, err = parseUint32(tokens[4]); err != nil {
			return p.malformed("meta", syntax, tokens, err)
		}
	}
	count, err := strconv.ParseUint(tokens[len(tokens)-1], 10, 64)
	if err != nil {
		return p.malformed("meta", syntax, tokens, err)
	}

	var lines []string
	for i := uint64(0); i < count; i++ {
		data, st := p.line()
		switch st {
		case lineEOF:
			p.failEOF()
			return false
		case lineBad, lineAbort:
			return false
		}
		if len(data) != 1 {
			p.fail(smf.KindLexical, "%s", expectedGot("Cannot parse base64 encoded data", "a single base64 token", data))
			return false
		}
		lines = append(lines, data[0])
	}
	data, err := encoding.FromBase64Lines(lines)
	if err != nil {
		p.failCause(smf.KindLexical, err, "Cannot parse base64 encoded data")
		return false
	}

	p.tracker.MetaReceived()
	if recv := p.events.OnMeta(id); recv != nil {
		recv.OnMetaData(data)
	}
	return true
}
