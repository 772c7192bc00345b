package mesh

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/smf/pkg/formats"
	"github.com/Faultbox/smf/pkg/smf"
)

// LoadFile parses the file at path, choosing the encoding by probing.
func LoadFile(reg *formats.Registry, path string) (m *Mesh, warnings []*smf.Warning, err error) {
	l := NewLoader()
	p, err := reg.Open(path, l)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if cerr := p.Close(); cerr != nil {
			m = nil
			err = multierr.Append(err, cerr)
		}
	}()
	p.Parse()
	warnings = l.Warnings()
	if m, err = l.Mesh(); err != nil {
		return nil, warnings, err
	}
	zap.L().Debug("loaded mesh",
		zap.String("path", path),
		zap.Uint64("vertices", m.Header().VertexCount()),
		zap.Uint64("triangles", m.Header().Triangles().Count()))
	return m, warnings, nil
}

// SaveFile writes m to path using the resolved encoding.
func SaveFile(reg *formats.Registry, path string, res formats.Resolved, m *Mesh) error {
	s, err := reg.Create(path, res)
	if err != nil {
		return err
	}
	if err := Serialize(m, s); err != nil {
		return multierr.Append(fmt.Errorf("%s: serialize failed", path), err)
	}
	return nil
}
