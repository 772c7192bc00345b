// Package filter implements mesh filters and the command files that
// describe filter pipelines.
package filter

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/smf/pkg/mesh"
	"github.com/Faultbox/smf/pkg/smf"
)

// Context carries the environment a filter runs in.
type Context struct {
	// Source is the command file the filter was declared in, if any.
	Source string
}

// Resolve resolves path relative to the directory of the command file.
func (c Context) Resolve(path string) string {
	if filepath.IsAbs(path) || c.Source == "" {
		return path
	}
	return filepath.Join(filepath.Dir(c.Source), path)
}

func (c Context) errorf(format string, args ...any) *smf.Error {
	return smf.Errorf(smf.KindValidation, smf.Position{Source: c.Source}, format, args...)
}

// Filter transforms a mesh. Filters never modify their input: on success
// they return a new mesh, on failure the input is left as it was.
type Filter interface {
	Name() string
	Syntax() string
	Filter(ctx Context, m *mesh.Mesh) (*mesh.Mesh, error)
}

// Apply runs filters in order, stopping at the first failure.
func Apply(ctx Context, m *mesh.Mesh, filters []Filter) (*mesh.Mesh, error) {
	for _, f := range filters {
		zap.L().Debug("applying filter", zap.String("filter", f.Name()), zap.String("source", ctx.Source))
		next, err := f.Filter(ctx, m)
		if err != nil {
			return nil, err
		}
		m = next
	}
	return m, nil
}

// withHeader rebuilds m around a new header, keeping its data.
func withHeader(h *smf.Header, m *mesh.Mesh, metadata []smf.Metadata) (*mesh.Mesh, error) {
	return mesh.New(h, m.Arrays(), m.Triangles(), metadata)
}
