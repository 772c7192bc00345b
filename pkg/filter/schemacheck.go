package filter

import (
	"github.com/Faultbox/smf/pkg/mesh"
	"github.com/Faultbox/smf/pkg/validation"
)

// SchemaCheck validates the mesh header against a schema document. The
// path is resolved against the command file's directory.
type SchemaCheck struct {
	Path string
}

func (f *SchemaCheck) Name() string { return "schema-check" }

func (f *SchemaCheck) Syntax() string { return "core:schema-check <schema-file>" }

func (f *SchemaCheck) Filter(ctx Context, m *mesh.Mesh) (*mesh.Mesh, error) {
	s, err := validation.LoadSchema(ctx.Resolve(f.Path))
	if err != nil {
		return nil, err
	}
	if _, err := validation.Validate(m.Header(), s); err != nil {
		return nil, err
	}
	return m, nil
}

func parseSchemaCheck(args []string) (Filter, error) {
	if len(args) != 1 {
		return nil, errExpectedArgs
	}
	return &SchemaCheck{Path: args[0]}, nil
}
