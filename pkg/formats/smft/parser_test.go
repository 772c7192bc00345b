package smft

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/smf/pkg/parser"
	"github.com/Faultbox/smf/pkg/smf"
)

func parse(t *testing.T, lines ...string) *parser.Recorder {
	t.Helper()
	rec := &parser.Recorder{}
	p := NewParser(strings.NewReader(strings.Join(lines, "\n")+"\n"), "test.smft", rec)
	p.Parse()
	require.NoError(t, p.Close())
	assert.Equal(t, len(rec.Errors) > 0, p.Failed())
	return rec
}

func TestParser_SignedAttribute(t *testing.T) {
	rec := parse(t,
		"smf 1 0",
		`attribute "p" integer-signed 3 64`,
		"vertices 3",
		"data",
		`attribute "p"`,
		"0 1 2",
		"10 11 12",
		"20 21 22",
	)
	require.Empty(t, rec.Errors)
	assert.Equal(t, []string{
		"onStart",
		"onVersionReceived 1.0",
		"onHeaderParsed vertices=3 triangles=0/32 attributes=1 meta=0",
		`onDataAttributeStart "p" integer-signed 3 64`,
		"onDataAttributeValueIntegerSigned3 0 1 2",
		"onDataAttributeValueIntegerSigned3 10 11 12",
		"onDataAttributeValueIntegerSigned3 20 21 22",
		"onDataAttributeFinish p",
		"onFinish",
	}, rec.Lines)
}

func TestParser_BadVersionLine(t *testing.T) {
	rec := parse(t, "foo 1 0", "vertices 3")
	require.Len(t, rec.Errors, 1)
	assert.Contains(t, rec.Errors[0].Message, "expected smf <major> <minor>")
	assert.Equal(t, 1, rec.Errors[0].Position.Line)
	assert.Equal(t, []string{"onStart", "onError " + rec.Errors[0].Error(), "onFinish"}, rec.Lines)
}

func TestParser_VersionErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"arguments", "smf 1", "Incorrect number of arguments"},
		{"number", "smf one 0", "Cannot parse number"},
		{"unsupported", "smf 2 0", "Version 2.0 is not supported"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := parse(t, tt.line)
			require.Len(t, rec.Errors, 1)
			assert.Contains(t, rec.Errors[0].Error(), tt.want)
		})
	}
}

func TestParser_EmptyInput(t *testing.T) {
	rec := parse(t, "", "")
	require.Len(t, rec.Errors, 1)
	assert.Contains(t, rec.Errors[0].Message, "Unexpected EOF")
}

func TestParser_ByteOrderMark(t *testing.T) {
	rec := parse(t, "\ufeffsmf 1 0", "data")
	require.Empty(t, rec.Errors)
	assert.Equal(t, "onVersionReceived 1.0", rec.Lines[1])
}

func TestParser_Header(t *testing.T) {
	rec := parse(t,
		"smf 1 0",
		"",
		"vertices 2",
		"triangles 1 16",
		"coordinates +z +y +x clockwise",
		"schema 696f376d 61707069 2 1",
		"endianness little",
		"meta 0",
		`attribute "position" float 3 32`,
		`attribute "uv map" float 2 16`,
		"frobnicate 1 2 3",
		"data",
		`attribute "uv map"`,
		"0.5 0.25",
		"1 -1",
		`attribute "position"`,
		"0 0 0",
		"1.5 2.5 3.5",
		"triangles",
		"0 1 1",
	)
	require.Empty(t, rec.Errors)
	require.Len(t, rec.Warnings, 1)
	assert.Contains(t, rec.Warnings[0].Message, "frobnicate")
	assert.Equal(t, 11, rec.Warnings[0].Position.Line)

	h := rec.Header
	require.NotNil(t, h)
	assert.Equal(t, uint64(2), h.VertexCount())
	assert.Equal(t, 16, h.Triangles().IndexBits())
	assert.Equal(t, smf.LittleEndian, h.ByteOrder())
	assert.Equal(t, "+z +y +x clockwise", h.CoordinateSystem().String())
	id, ok := h.SchemaIdentifier()
	require.True(t, ok)
	assert.Equal(t, smf.SchemaIdentifier{Vendor: 0x696f376d, Schema: 0x61707069, Major: 2, Minor: 1}, id)
	require.Len(t, h.Attributes(), 2)
	assert.Equal(t, "uv map", h.Attributes()[1].Name())

	assert.Equal(t, 1, rec.Count("onDataAttributeValueFloat2 0.5 0.25"))
	assert.Equal(t, 1, rec.Count("onDataAttributeValueFloat3 1.5 2.5 3.5"))
	assert.Equal(t, 1, rec.Count("onDataTriangle 0 1 1"))
}

func TestParser_DecomposedAttributeName(t *testing.T) {
	rec := parse(t,
		"smf 1 0",
		"vertices 1",
		"attribute \"e\u0301\" float 1 32",
		"data",
		"attribute \"e\u0301\"",
		"2.5",
	)
	require.Empty(t, rec.Errors)
	require.Len(t, rec.Header.Attributes(), 1)
	assert.Equal(t, "\u00e9", rec.Header.Attributes()[0].Name())
	assert.Equal(t, 1, rec.Count("onDataAttributeFinish \u00e9"))
	assert.Equal(t, 1, rec.Count("onDataAttributeValueFloat1 2.5"))
}

func TestParser_HeaderErrorsStopImmediately(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    string
	}{
		{"vertices arity", "vertices", "Could not parse 'vertices' command"},
		{"vertices number", "vertices x", "Could not parse 'vertices' command"},
		{"triangle width", "triangles 1 12", "Could not parse 'triangles' command"},
		{"attribute kind", `attribute "p" complex 3 32`, "Could not parse 'attribute' command"},
		{"attribute width", `attribute "p" float 3 8`, "Could not parse 'attribute' command"},
		{"coordinates", "coordinates +x +x +z clockwise", "Could not parse 'coordinates' command"},
		{"schema", "schema xyz 1 0 0", "Could not parse 'schema' command"},
		{"meta", "meta -1", "Could not parse 'meta' command"},
		{"endianness", "endianness middle", "Could not parse 'endianness' command"},
		{"lexical", `attribute "p`, "Malformed line"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := parse(t, "smf 1 0", tt.command, "vertices x", "data")
			require.Len(t, rec.Errors, 1, "header errors stop the parse")
			assert.Contains(t, rec.Errors[0].Error(), tt.want)
			assert.Equal(t, 2, rec.Errors[0].Position.Line)
			assert.Zero(t, rec.Count("onHeaderParsed"))
		})
	}
}

func TestParser_DuplicateHeaderAttribute(t *testing.T) {
	rec := parse(t, "smf 1 0", `attribute "p" float 3 32`, `attribute "p" float 2 32`, "data")
	require.Len(t, rec.Errors, 1)
	assert.Contains(t, rec.Errors[0].Message, `Duplicate attribute name "p"`)
}

func TestParser_BodyErrorsAccumulate(t *testing.T) {
	rec := parse(t,
		"smf 1 0",
		"vertices 4",
		`attribute "c" integer-unsigned 2 8`,
		"data",
		`attribute "c"`,
		"1 2",
		"256 0",
		"1",
		"3 4",
	)
	require.Len(t, rec.Errors, 2)
	assert.Equal(t, smf.KindRange, rec.Errors[0].Kind)
	assert.Equal(t, 7, rec.Errors[0].Position.Line)
	assert.Contains(t, rec.Errors[1].Message, "has 1 components, expected 2")
	assert.Equal(t, 8, rec.Errors[1].Position.Line)

	assert.Equal(t, 1, rec.Count("onDataAttributeValue"), "no values after the first error")
	assert.Zero(t, rec.Count("onDataAttributeFinish"))
}

func TestParser_MissingSections(t *testing.T) {
	rec := parse(t,
		"smf 1 0",
		"vertices 1",
		"triangles 1 32",
		`attribute "a" float 1 32`,
		`attribute "b" float 1 32`,
		"data",
		`attribute "a"`,
		"1",
	)
	require.Len(t, rec.Errors, 2)
	assert.Contains(t, rec.Errors[0].Message, `No data was provided for attribute "b"`)
	assert.Contains(t, rec.Errors[1].Message, "no triangles were provided")
	assert.Equal(t, 1, rec.Count("onDataAttributeFinish a"))
}

func TestParser_UnexpectedEOFInSection(t *testing.T) {
	rec := parse(t, "smf 1 0", "vertices 3", `attribute "a" float 1 32`, "data", `attribute "a"`, "1")
	require.Len(t, rec.Errors, 1)
	assert.Contains(t, rec.Errors[0].Message, "Unexpected EOF")
}

func TestParser_UnknownAttribute(t *testing.T) {
	rec := parse(t, "smf 1 0", "vertices 1", "data", `attribute "nope"`, "1")
	require.Len(t, rec.Errors, 1)
	assert.Contains(t, rec.Errors[0].Message, `Attribute "nope" was not declared`)
}

func TestParser_TriangleRange(t *testing.T) {
	rec := parse(t, "smf 1 0", "triangles 2 8", "data", "triangles", "0 1 256", "0 1 2")
	require.Len(t, rec.Errors, 1)
	assert.Equal(t, smf.KindRange, rec.Errors[0].Kind)
	assert.Zero(t, rec.Count("onDataTriangle "))
}

func TestParser_Metadata(t *testing.T) {
	rec := parse(t,
		"smf 1 0",
		"meta 2",
		"data",
		"metadata",
		"meta 696f376d 61707069 1",
		"aGVsbG8=",
		"",
		"meta 696f376d 61707069 3 4 2",
		"aGVs",
		"bG8=",
		"end",
	)
	require.Empty(t, rec.Errors)
	assert.Equal(t, []string{
		"onMeta 696f376d 61707069 0.0",
		"onMetaData 5",
		"onMeta 696f376d 61707069 3.4",
		"onMetaData 5",
	}, rec.Lines[3:7])
}

func TestParser_MetadataCountDeferred(t *testing.T) {
	rec := parse(t,
		"smf 1 0",
		"meta 1",
		"data",
		"metadata",
		"meta 1 2 1",
		"AA==",
		"meta 1 2 1",
		"AA==",
		"end",
	)
	require.Len(t, rec.Errors, 1)
	assert.Contains(t, rec.Errors[0].Message, "Too many metadata elements")
	assert.Equal(t, 9, rec.Errors[0].Position.Line, "reported after the list is read")
	assert.Equal(t, 2, rec.Count("onMetaData"))
}

func TestParser_MetadataMissing(t *testing.T) {
	rec := parse(t, "smf 1 0", "meta 1", "data")
	require.Len(t, rec.Errors, 1)
	assert.Contains(t, rec.Errors[0].Message, "Too few metadata elements")
}

func TestParser_MetadataMalformed(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{"arity", []string{"meta 1 2"}, "Could not parse 'meta' command"},
		{"hex", []string{"meta zz 2 0"}, "Could not parse 'meta' command"},
		{"base64", []string{"meta 1 2 1", "!!!!"}, "Cannot parse base64"},
		{"tokens", []string{"meta 1 2 1", "AA== AA=="}, "Cannot parse base64"},
		{"command", []string{"bogus"}, "Unrecognized metadata command"},
		{"eof", []string{"meta 1 2 1"}, "Unexpected EOF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := append([]string{"smf 1 0", "meta 1", "data", "metadata"}, tt.lines...)
			rec := parse(t, lines...)
			require.NotEmpty(t, rec.Errors)
			assert.Contains(t, rec.Errors[0].Error(), tt.want)
		})
	}
}

type declining struct {
	parser.IgnoringEvents
	errors int
}

func (d *declining) OnError(*smf.Error) { d.errors++ }

func TestParser_IgnoringReceivers(t *testing.T) {
	in := strings.Join([]string{
		"smf 1 0",
		"vertices 1",
		"triangles 1 32",
		"meta 1",
		`attribute "a" float 1 32`,
		"data",
		`attribute "a"`,
		"1",
		"triangles",
		"0 0 0",
		"metadata",
		"meta 1 2 1",
		"AA==",
		"end",
	}, "\n")
	d := &declining{}
	p := NewParser(bytes.NewBufferString(in), "", d)
	p.Parse()
	assert.False(t, p.Failed())
	assert.Zero(t, d.errors)
}

func TestProbe(t *testing.T) {
	v, err := Probe([]byte("smf 1 0\nvertices 1\n"))
	require.NoError(t, err)
	assert.Equal(t, smf.FormatVersion{Major: 1, Minor: 0}, v)

	v, err = Probe([]byte("\xef\xbb\xbfsmf 1 2"))
	require.NoError(t, err)
	assert.Equal(t, smf.FormatVersion{Major: 1, Minor: 2}, v)

	v, err = Probe([]byte("\n  \t\nsmf 1 3\n"))
	require.NoError(t, err)
	assert.Equal(t, smf.FormatVersion{Major: 1, Minor: 3}, v)

	_, err = Probe([]byte("\x89SMF\r\n\x1a\n"))
	assert.ErrorIs(t, err, ErrNoVersionLine)

	_, err = Probe([]byte("\n\n"))
	assert.ErrorIs(t, err, ErrNoVersionLine)
}
