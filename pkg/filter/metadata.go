package filter

import (
	"fmt"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Faultbox/smf/pkg/formats/smft"
	"github.com/Faultbox/smf/pkg/mesh"
	"github.com/Faultbox/smf/pkg/smf"
)

// SchemaSet replaces the header's schema identifier.
type SchemaSet struct {
	ID smf.SchemaIdentifier
}

func (f *SchemaSet) Name() string { return "schema-set" }

func (f *SchemaSet) Syntax() string {
	return "core:schema-set <vendor-id> <schema-id> <major> <minor>"
}

func (f *SchemaSet) Filter(_ Context, m *mesh.Mesh) (*mesh.Mesh, error) {
	h, err := m.Header().Builder().SetSchemaIdentifier(f.ID).Build()
	if err != nil {
		return nil, err
	}
	return withHeader(h, m, m.Metadata())
}

func parseSchemaSet(args []string) (Filter, error) {
	if len(args) != 4 {
		return nil, errExpectedArgs
	}
	id, err := smft.ParseSchemaIdentifier(args)
	if err != nil {
		return nil, err
	}
	return &SchemaSet{ID: id}, nil
}

// ApplicationInfoSchema identifies the metadata added by ApplicationInfoAdd.
var ApplicationInfoSchema = smf.SchemaIdentifier{Vendor: 0x696f376d, Schema: 0x61707069, Major: 1, Minor: 0}

// ApplicationInfoAdd appends a metadata block describing the program that
// processed the mesh, as key=value lines.
type ApplicationInfoAdd struct {
	Now   func() time.Time
	RunID func() uuid.UUID
}

func (f *ApplicationInfoAdd) Name() string { return "application-info-add" }

func (f *ApplicationInfoAdd) Syntax() string { return "core:application-info-add" }

func (f *ApplicationInfoAdd) Filter(_ Context, m *mesh.Mesh) (*mesh.Mesh, error) {
	now, runID := time.Now, uuid.New
	if f.Now != nil {
		now = f.Now
	}
	if f.RunID != nil {
		runID = f.RunID
	}

	props := map[string]string{
		"time":        now().UTC().Format(time.RFC3339),
		"app.role":    "filter",
		"app.version": "smf " + Version(),
		"run.id":      runID().String(),
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, props[k])
	}

	metadata := append(append([]smf.Metadata(nil), m.Metadata()...), smf.Metadata{
		Schema: ApplicationInfoSchema,
		Data:   []byte(b.String()),
	})
	h, err := m.Header().Builder().SetMetaCount(uint64(len(metadata))).Build()
	if err != nil {
		return nil, err
	}
	return withHeader(h, m, metadata)
}

func parseApplicationInfoAdd(args []string) (Filter, error) {
	if len(args) != 0 {
		return nil, errExpectedArgs
	}
	return &ApplicationInfoAdd{}, nil
}

// Version returns the module version recorded in the build, or 0.0.0.
func Version() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "0.0.0"
}
