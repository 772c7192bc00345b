package formats

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/smf/pkg/formats/smfb"
	"github.com/Faultbox/smf/pkg/formats/smft"
	"github.com/Faultbox/smf/pkg/parser"
	"github.com/Faultbox/smf/pkg/smf"
)

type fakeProvider struct {
	name     string
	suffix   string
	versions []smf.FormatVersion
}

func (f fakeProvider) Format() smf.FormatDescription {
	return smf.FormatDescription{Name: f.name, Suffix: f.suffix}
}
func (f fakeProvider) Versions() []smf.FormatVersion { return f.versions }
func (f fakeProvider) Probe([]byte) (smf.FormatVersion, error) {
	return smf.FormatVersion{}, io.ErrUnexpectedEOF
}
func (f fakeProvider) NewParser(io.Reader, string, parser.Events) parser.Parser { return nil }
func (f fakeProvider) NewSerializer(io.Writer, smf.FormatVersion) (parser.Serializer, error) {
	return nil, nil
}

func TestRegistry_Default(t *testing.T) {
	r := Default()
	assert.Same(t, r, Default())

	names := []string{}
	for _, p := range r.Providers() {
		names = append(names, p.Format().Name)
	}
	assert.Equal(t, []string{"smf/b", "smf/t"}, names)

	res, err := r.FindByName("smf/b")
	require.NoError(t, err)
	assert.Equal(t, smf.FormatVersion{Major: 2}, res.Version)

	res, err = r.FindBySuffix(".SMFT")
	require.NoError(t, err)
	assert.Equal(t, "smf/t", res.Provider.Format().Name)

	res, err = r.Find("", "/tmp/mesh.smfb")
	require.NoError(t, err)
	assert.Equal(t, "smf/b", res.Provider.Format().Name)

	res, err = r.Find("smf/t", "/tmp/mesh.smfb")
	require.NoError(t, err)
	assert.Equal(t, "smf/t", res.Provider.Format().Name)

	_, err = r.FindByName("obj")
	assert.ErrorIs(t, err, smf.ErrNoProvider)
	_, err = r.Find("", "mesh.obj")
	assert.ErrorIs(t, err, smf.ErrNoProvider)
}

func TestRegistry_HighestVersion(t *testing.T) {
	old := fakeProvider{name: "x", suffix: "x", versions: []smf.FormatVersion{{Major: 1}, {Major: 1, Minor: 3}}}
	newer := fakeProvider{name: "x", suffix: "x", versions: []smf.FormatVersion{{Major: 2, Minor: 1}}}
	r := NewRegistry(old, newer)

	res, err := r.FindBySuffix("x")
	require.NoError(t, err)
	assert.Equal(t, smf.FormatVersion{Major: 2, Minor: 1}, res.Version)
	assert.Equal(t, newer.versions, res.Provider.Versions())

	res, err = r.FindVersion("x", smf.FormatVersion{Major: 1, Minor: 0})
	require.NoError(t, err)
	assert.Equal(t, old.versions, res.Provider.Versions())
	assert.Equal(t, smf.FormatVersion{Major: 1, Minor: 0}, res.Version)

	_, err = r.FindVersion("x", smf.FormatVersion{Major: 3})
	assert.ErrorIs(t, err, smf.ErrUnsupportedVersion)
}

func TestVersions_Sorted(t *testing.T) {
	p := fakeProvider{name: "x", versions: []smf.FormatVersion{{Major: 2, Minor: 1}, {Major: 1, Minor: 3}, {Major: 1}}}
	assert.Equal(t, []smf.FormatVersion{{Major: 1}, {Major: 1, Minor: 3}, {Major: 2, Minor: 1}}, Versions(p))
	assert.Equal(t, smf.FormatVersion{Major: 2, Minor: 1}, p.versions[0], "provider slice untouched")
}

func TestRegistry_Probe(t *testing.T) {
	var bin bytes.Buffer
	s, err := smfb.NewSerializer(&bin, smfb.CurrentVersion)
	require.NoError(t, err)
	h, err := smf.NewHeaderBuilder().Build()
	require.NoError(t, err)
	require.NoError(t, s.SerializeHeader(h))
	require.NoError(t, s.Close())

	tests := []struct {
		name    string
		data    []byte
		format  string
		version smf.FormatVersion
	}{
		{"binary", bin.Bytes(), "smf/b", smf.FormatVersion{Major: 2}},
		{"text", []byte("smf 1 0\ndata\n"), "smf/t", smf.FormatVersion{Major: 1}},
		{"text with bom", []byte("\xef\xbb\xbfsmf 1 0\n"), "smf/t", smf.FormatVersion{Major: 1}},
		{"text after blank lines", []byte("\n\nsmf 1 0\ndata\n"), "smf/t", smf.FormatVersion{Major: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			br := bufio.NewReaderSize(bytes.NewReader(tt.data), ProbeSize)
			res, p, err := Default().Probe(br)
			require.NoError(t, err)
			assert.Equal(t, tt.format, res.Format.Name)
			assert.Equal(t, tt.format, p.Format().Name)
			assert.Equal(t, tt.version, res.Version)

			rest, err := io.ReadAll(br)
			require.NoError(t, err)
			assert.Equal(t, tt.data, rest, "probe must not consume input")
		})
	}

	_, _, err = Default().Probe(bufio.NewReader(strings.NewReader("ply\nformat ascii 1.0\n")))
	assert.ErrorIs(t, err, ErrUnrecognized)
}

func TestRegistry_ParseFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.bin")
	require.NoError(t, os.WriteFile(good, []byte("smf 1 0\nvertices 0\ndata\n"), 0o644))
	bad := filepath.Join(dir, "bad.smft")
	require.NoError(t, os.WriteFile(bad, []byte("smf 1 0\nvertices x\ndata\n"), 0o644))

	rec := &parser.Recorder{}
	require.NoError(t, Default().ParseFile(good, rec))
	assert.Equal(t, "onFinish", rec.Lines[len(rec.Lines)-1])

	blank := filepath.Join(dir, "blank.smft")
	require.NoError(t, os.WriteFile(blank, []byte("\nsmf 1 0\ndata\n"), 0o644))
	rec = &parser.Recorder{}
	require.NoError(t, Default().ParseFile(blank, rec))
	assert.Empty(t, rec.Errors)

	err := Default().ParseFile(bad, &parser.Recorder{})
	assert.ErrorIs(t, err, ErrParseFailed)

	_, err = Default().ProbeFile(filepath.Join(dir, "missing.smft"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	res, err := Default().ProbeFile(good)
	require.NoError(t, err)
	assert.Equal(t, smft.Description, res.Format)
}

func TestRegistry_Create(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.smft")
	res, err := Default().Find("", path)
	require.NoError(t, err)
	s, err := Default().Create(path, res)
	require.NoError(t, err)
	h, err := smf.NewHeaderBuilder().Build()
	require.NoError(t, err)
	require.NoError(t, s.SerializeHeader(h))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "smf 1 0\n"))
}
