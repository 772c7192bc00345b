package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Faultbox/smf/pkg/smf"
)

// Recorder is an Events implementation that records every event as a line
// of text. It accepts all attributes, triangles and metadata.
type Recorder struct {
	Lines    []string
	Errors   []*smf.Error
	Warnings []*smf.Warning
	Header   *smf.Header

	// Sink, if set, receives each line as it is recorded.
	Sink func(line string)
}

var (
	_ Events           = (*Recorder)(nil)
	_ AttributeValues  = (*Recorder)(nil)
	_ TriangleReceiver = (*Recorder)(nil)
	_ MetaReceiver     = (*Recorder)(nil)
)

func (r *Recorder) record(name string, args ...string) {
	line := name
	if len(args) > 0 {
		line += " " + strings.Join(args, " ")
	}
	r.Lines = append(r.Lines, line)
	if r.Sink != nil {
		r.Sink(line)
	}
}

func ints(v ...int64) []string {
	out := make([]string, len(v))
	for i, x := range v {
		out[i] = strconv.FormatInt(x, 10)
	}
	return out
}

func uints(v ...uint64) []string {
	out := make([]string, len(v))
	for i, x := range v {
		out[i] = strconv.FormatUint(x, 10)
	}
	return out
}

func floats(v ...float64) []string {
	out := make([]string, len(v))
	for i, x := range v {
		out[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return out
}

func (r *Recorder) OnError(err *smf.Error) {
	r.Errors = append(r.Errors, err)
	r.record("onError", err.Error())
}

func (r *Recorder) OnWarning(w *smf.Warning) {
	r.Warnings = append(r.Warnings, w)
	r.record("onWarning", w.String())
}

func (r *Recorder) OnStart() { r.record("onStart") }

func (r *Recorder) OnVersionReceived(v smf.FormatVersion) {
	r.record("onVersionReceived", v.String())
}

func (r *Recorder) OnHeaderParsed(h *smf.Header) {
	r.Header = h
	r.record("onHeaderParsed",
		fmt.Sprintf("vertices=%d", h.VertexCount()),
		fmt.Sprintf("triangles=%d/%d", h.Triangles().Count(), h.Triangles().IndexBits()),
		fmt.Sprintf("attributes=%d", len(h.Attributes())),
		fmt.Sprintf("meta=%d", h.MetaCount()))
}

func (r *Recorder) OnDataAttributeStart(a smf.Attribute) AttributeValues {
	r.record("onDataAttributeStart", a.String())
	return r
}

func (r *Recorder) OnDataAttributeValueIntegerSigned1(x int64) {
	r.record("onDataAttributeValueIntegerSigned1", ints(x)...)
}

func (r *Recorder) OnDataAttributeValueIntegerSigned2(x, y int64) {
	r.record("onDataAttributeValueIntegerSigned2", ints(x, y)...)
}

func (r *Recorder) OnDataAttributeValueIntegerSigned3(x, y, z int64) {
	r.record("onDataAttributeValueIntegerSigned3", ints(x, y, z)...)
}

func (r *Recorder) OnDataAttributeValueIntegerSigned4(x, y, z, w int64) {
	r.record("onDataAttributeValueIntegerSigned4", ints(x, y, z, w)...)
}

func (r *Recorder) OnDataAttributeValueIntegerUnsigned1(x uint64) {
	r.record("onDataAttributeValueIntegerUnsigned1", uints(x)...)
}

func (r *Recorder) OnDataAttributeValueIntegerUnsigned2(x, y uint64) {
	r.record("onDataAttributeValueIntegerUnsigned2", uints(x, y)...)
}

func (r *Recorder) OnDataAttributeValueIntegerUnsigned3(x, y, z uint64) {
	r.record("onDataAttributeValueIntegerUnsigned3", uints(x, y, z)...)
}

func (r *Recorder) OnDataAttributeValueIntegerUnsigned4(x, y, z, w uint64) {
	r.record("onDataAttributeValueIntegerUnsigned4", uints(x, y, z, w)...)
}

func (r *Recorder) OnDataAttributeValueFloat1(x float64) {
	r.record("onDataAttributeValueFloat1", floats(x)...)
}

func (r *Recorder) OnDataAttributeValueFloat2(x, y float64) {
	r.record("onDataAttributeValueFloat2", floats(x, y)...)
}

func (r *Recorder) OnDataAttributeValueFloat3(x, y, z float64) {
	r.record("onDataAttributeValueFloat3", floats(x, y, z)...)
}

func (r *Recorder) OnDataAttributeValueFloat4(x, y, z, w float64) {
	r.record("onDataAttributeValueFloat4", floats(x, y, z, w)...)
}

func (r *Recorder) OnDataAttributeFinish(a smf.Attribute) {
	r.record("onDataAttributeFinish", a.Name())
}

func (r *Recorder) OnDataTrianglesStart() TriangleReceiver {
	r.record("onDataTrianglesStart")
	return r
}

func (r *Recorder) OnDataTriangle(a, b, c uint64) {
	r.record("onDataTriangle", uints(a, b, c)...)
}

func (r *Recorder) OnDataTrianglesFinish() { r.record("onDataTrianglesFinish") }

func (r *Recorder) OnMeta(id smf.SchemaIdentifier) MetaReceiver {
	r.record("onMeta", id.String())
	return r
}

func (r *Recorder) OnMetaData(data []byte) {
	r.record("onMetaData", strconv.Itoa(len(data)))
}

func (r *Recorder) OnFinish() { r.record("onFinish") }

// Count returns the number of recorded lines starting with prefix.
func (r *Recorder) Count(prefix string) int {
	n := 0
	for _, l := range r.Lines {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}
	return n
}
