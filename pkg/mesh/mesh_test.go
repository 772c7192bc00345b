package mesh

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/maxatome/go-testdeep/td"

	"github.com/Faultbox/smf/pkg/formats"
	"github.com/Faultbox/smf/pkg/formats/smfb"
	"github.com/Faultbox/smf/pkg/formats/smft"
	"github.com/Faultbox/smf/pkg/parser"
	"github.com/Faultbox/smf/pkg/smf"
)

func sampleMesh(t *testing.T) *Mesh {
	t.Helper()
	pos := smf.MustAttribute("position", smf.KindFloat, 3, 32)
	uv := smf.MustAttribute("uv", smf.KindFloat, 2, 16)
	id := smf.MustAttribute("id", smf.KindIntegerSigned, 1, 16)
	col := smf.MustAttribute("color", smf.KindIntegerUnsigned, 4, 8)

	tri, err := smf.NewTriangles(2, 16)
	td.Require(t).CmpNoError(err)
	h, err := smf.NewHeaderBuilder().
		SetVertexCount(3).
		SetTriangles(tri).
		SetMetaCount(1).
		SetByteOrder(smf.LittleEndian).
		SetSchemaIdentifier(smf.SchemaIdentifier{Vendor: 0x01020304, Schema: 0x0a0b0c0d, Major: 1, Minor: 2}).
		SetAttributes([]smf.Attribute{pos, uv, id, col}).
		Build()
	td.Require(t).CmpNoError(err)

	posArr := NewArray(pos, 3)
	posArr.Float = append(posArr.Float, 0, 0, 0, 1.5, -2.25, 0.5, 1024, 0.125, -8)
	uvArr := NewArray(uv, 3)
	uvArr.Float = append(uvArr.Float, 0, 1, 0.5, 0.25, 2, -1)
	idArr := NewArray(id, 3)
	idArr.Signed = append(idArr.Signed, -32768, 0, 32767)
	colArr := NewArray(col, 3)
	colArr.Unsigned = append(colArr.Unsigned, 255, 0, 0, 255, 0, 255, 0, 255, 1, 2, 3, 4)

	m, err := New(h,
		[]*Array{posArr, uvArr, idArr, colArr},
		[]Triangle{{0, 1, 2}, {2, 1, 0}},
		[]smf.Metadata{{Schema: smf.SchemaIdentifier{Vendor: 7, Schema: 8, Major: 0, Minor: 1}, Data: []byte("opaque payload")}})
	td.Require(t).CmpNoError(err)
	return m
}

func cmpMesh(t *testing.T, got, want *Mesh) {
	t.Helper()
	td.CmpTrue(t, got.Header().Equal(want.Header()), "header")
	td.Cmp(t, got.Arrays(), want.Arrays(), "arrays")
	td.Cmp(t, got.Triangles(), want.Triangles(), "triangles")
	td.Cmp(t, got.Metadata(), want.Metadata(), "metadata")
}

type codec struct {
	name      string
	serialize func(io.Writer) (parser.Serializer, error)
	parse     func(io.Reader, parser.Events) parser.Parser
}

var codecs = []codec{
	{
		name: "binary",
		serialize: func(w io.Writer) (parser.Serializer, error) {
			return smfb.NewSerializer(w, smfb.CurrentVersion)
		},
		parse: func(r io.Reader, e parser.Events) parser.Parser { return smfb.NewParser(r, "mem", e) },
	},
	{
		name: "text",
		serialize: func(w io.Writer) (parser.Serializer, error) {
			return smft.NewSerializer(w, smft.CurrentVersion)
		},
		parse: func(r io.Reader, e parser.Events) parser.Parser { return smft.NewParser(r, "mem", e) },
	},
}

func roundTrip(t *testing.T, m *Mesh, c codec) *Mesh {
	t.Helper()
	var buf bytes.Buffer
	s, err := c.serialize(&buf)
	td.Require(t).CmpNoError(err)
	td.Require(t).CmpNoError(Serialize(m, s))

	l := NewLoader()
	p := c.parse(&buf, l)
	p.Parse()
	td.CmpFalse(t, p.Failed())
	got, err := l.Mesh()
	td.Require(t).CmpNoError(err)
	return got
}

func TestRoundTrip(t *testing.T) {
	want := sampleMesh(t)
	for _, c := range codecs {
		t.Run(c.name, func(t *testing.T) {
			cmpMesh(t, roundTrip(t, want, c), want)
		})
	}
}

func TestRoundTrip_CrossFormat(t *testing.T) {
	want := sampleMesh(t)
	viaBinary := roundTrip(t, want, codecs[0])
	viaText := roundTrip(t, viaBinary, codecs[1])
	cmpMesh(t, viaText, want)
	cmpMesh(t, roundTrip(t, viaText, codecs[0]), want)
}

func TestRoundTrip_Empty(t *testing.T) {
	h, err := smf.NewHeaderBuilder().Build()
	td.Require(t).CmpNoError(err)
	m, err := New(h, nil, nil, nil)
	td.Require(t).CmpNoError(err)
	for _, c := range codecs {
		t.Run(c.name, func(t *testing.T) {
			got := roundTrip(t, m, c)
			td.CmpTrue(t, got.Header().Equal(h))
			td.CmpEmpty(t, got.Arrays())
			td.CmpEmpty(t, got.Triangles())
			td.CmpEmpty(t, got.Metadata())
		})
	}
}

func TestLoader_ErrorsYieldNoMesh(t *testing.T) {
	l := NewLoader()
	smft.NewParser(strings.NewReader("smf 1 0\nvertices x\n"), "bad.smft", l).Parse()

	m, err := l.Mesh()
	td.CmpNil(t, m)
	td.CmpError(t, err)
	td.CmpLen(t, l.Errors(), 1)
	td.Cmp(t, err.Error(), td.HasPrefix("bad.smft:2:1: "))
}

func TestLoader_Incomplete(t *testing.T) {
	m, err := NewLoader().Mesh()
	td.CmpNil(t, m)
	td.CmpTrue(t, errors.Is(err, ErrIncomplete))
}

func TestLoader_Warnings(t *testing.T) {
	text := "smf 1 0\nvertices 0\ntriangles 0 16\nfrobnicate 3\ndata\n"
	l := NewLoader()
	smft.NewParser(strings.NewReader(text), "w.smft", l).Parse()

	m, err := l.Mesh()
	td.Require(t).CmpNoError(err)
	td.Cmp(t, m.Header().VertexCount(), uint64(0))
	td.CmpLen(t, l.Warnings(), 1)
}

func TestLoader_HugeDeclaredCounts(t *testing.T) {
	const huge = "1152921504606846976"
	for name, text := range map[string]string{
		"triangles": "smf 1 0\ntriangles " + huge + " 32\ndata\n",
		"vertices":  "smf 1 0\nvertices " + huge + "\nattribute \"p\" float 3 32\ndata\nattribute \"p\"\n",
	} {
		t.Run(name, func(t *testing.T) {
			l := NewLoader()
			td.CmpNotPanic(t, func() {
				smft.NewParser(strings.NewReader(text), "huge.smft", l).Parse()
			})
			m, err := l.Mesh()
			td.CmpNil(t, m)
			td.CmpError(t, err)
			td.CmpNotEmpty(t, l.Errors())
		})
	}

	// The loader sees the header before any codec checks section sizes.
	p := smf.MustAttribute("p", smf.KindFloat, 3, 32)
	tri, err := smf.NewTriangles(1<<60, 64)
	td.Require(t).CmpNoError(err)
	h, err := smf.NewHeaderBuilder().
		SetVertexCount(1 << 60).
		SetTriangles(tri).
		AddAttribute(p).
		Build()
	td.Require(t).CmpNoError(err)

	l := NewLoader()
	td.CmpNotPanic(t, func() {
		l.OnStart()
		l.OnHeaderParsed(h)
		l.OnDataAttributeStart(p)
		l.OnDataTrianglesStart().OnDataTriangle(0, 1, 2)
	})
	td.CmpLen(t, l.triangles, 1)
	td.Cmp(t, cap(NewArray(p, 1<<60).Float), 3*maxPrealloc)
}

func TestNew_Validation(t *testing.T) {
	pos := smf.MustAttribute("p", smf.KindIntegerUnsigned, 1, 8)
	tri, err := smf.NewTriangles(1, 8)
	td.Require(t).CmpNoError(err)
	h, err := smf.NewHeaderBuilder().
		SetVertexCount(2).
		SetTriangles(tri).
		AddAttribute(pos).
		Build()
	td.Require(t).CmpNoError(err)

	arr := func(a smf.Attribute, values ...uint64) *Array {
		r := NewArray(a, 2)
		r.Unsigned = append(r.Unsigned, values...)
		return r
	}

	tests := []struct {
		name      string
		arrays    []*Array
		triangles []Triangle
		metadata  []smf.Metadata
		want      error
	}{
		{"missing array", nil, []Triangle{{0, 1, 1}}, nil, smf.ErrInvalidHeader},
		{"short array", []*Array{arr(pos, 1)}, []Triangle{{0, 1, 1}}, nil, smf.ErrInvalidHeader},
		{"foreign array", []*Array{arr(smf.MustAttribute("q", smf.KindIntegerUnsigned, 1, 8), 1, 2)}, []Triangle{{0, 1, 1}}, nil, smf.ErrInvalidHeader},
		{"duplicate array", []*Array{arr(pos, 1, 2), arr(pos, 1, 2)}, []Triangle{{0, 1, 1}}, nil, smf.ErrInvalidHeader},
		{"triangle count", []*Array{arr(pos, 1, 2)}, nil, nil, smf.ErrInvalidTriangles},
		{"index width", []*Array{arr(pos, 1, 2)}, []Triangle{{0, 1, 256}}, nil, smf.ErrInvalidTriangles},
		{"metadata count", []*Array{arr(pos, 1, 2)}, []Triangle{{0, 1, 1}}, []smf.Metadata{{Data: []byte{1}}}, smf.ErrInvalidHeader},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(h, tt.arrays, tt.triangles, tt.metadata)
			td.CmpNil(t, m)
			td.CmpTrue(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	m, err := New(h, []*Array{arr(pos, 1, 2)}, []Triangle{{0, 1, 1}}, nil)
	td.Require(t).CmpNoError(err)
	a, ok := m.Array("p")
	td.CmpTrue(t, ok)
	td.Cmp(t, a.UnsignedAt(1), []uint64{2})
	td.Cmp(t, a.Len(), uint64(2))
}

func TestFiles(t *testing.T) {
	reg := formats.Default()
	want := sampleMesh(t)
	dir := t.TempDir()

	for _, suffix := range []string{"smfb", "smft"} {
		t.Run(suffix, func(t *testing.T) {
			res, err := reg.FindBySuffix(suffix)
			td.Require(t).CmpNoError(err)
			path := filepath.Join(dir, "mesh."+suffix)
			td.Require(t).CmpNoError(SaveFile(reg, path, res, want))

			got, warnings, err := LoadFile(reg, path)
			td.Require(t).CmpNoError(err)
			td.CmpEmpty(t, warnings)
			cmpMesh(t, got, want)
		})
	}

	_, _, err := LoadFile(reg, filepath.Join(dir, "missing.smfb"))
	td.CmpError(t, err)

	truncated := filepath.Join(dir, "truncated.smft")
	td.Require(t).CmpNoError(os.WriteFile(truncated, []byte("smf 1 0\ntriangles 1152921504606846976 32\ndata\n"), 0o644))
	m, _, err := LoadFile(reg, truncated)
	td.CmpNil(t, m)
	td.CmpError(t, err)
}
