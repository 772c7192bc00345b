package validation

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/smf/pkg/smf"
)

// document is the YAML form of a Schema.
type document struct {
	Schema struct {
		Vendor string `yaml:"vendor"`
		Schema string `yaml:"schema"`
		Major  uint32 `yaml:"major"`
		Minor  uint32 `yaml:"minor"`
	} `yaml:"schema"`
	RequireVertices      bool   `yaml:"require_vertices"`
	RequireTriangles     bool   `yaml:"require_triangles"`
	AllowExtraAttributes bool   `yaml:"allow_extra_attributes"`
	CoordinateSystem     string `yaml:"coordinate_system"`
	Attributes           struct {
		Required map[string]attributeDocument `yaml:"required"`
		Optional map[string]attributeDocument `yaml:"optional"`
	} `yaml:"attributes"`
}

type attributeDocument struct {
	Kind  string `yaml:"kind"`
	Count *int   `yaml:"count"`
	Width *int   `yaml:"width"`
}

// LoadSchema reads a YAML schema document from path.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := ParseSchema(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseSchema decodes a YAML schema document. Unknown keys are rejected and
// every malformed field is reported.
func ParseSchema(data []byte) (*Schema, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding schema: %w", err)
	}

	var errs error
	s := &Schema{
		RequireVertices:      doc.RequireVertices,
		RequireTriangles:     doc.RequireTriangles,
		AllowExtraAttributes: doc.AllowExtraAttributes,
		Required:             make(map[string]AttributeConstraint, len(doc.Attributes.Required)),
		Optional:             make(map[string]AttributeConstraint, len(doc.Attributes.Optional)),
	}

	vendor, err := parseHex32(doc.Schema.Vendor)
	errs = multierr.Append(errs, err)
	schema, err := parseHex32(doc.Schema.Schema)
	errs = multierr.Append(errs, err)
	s.ID = smf.SchemaIdentifier{Vendor: vendor, Schema: schema, Major: doc.Schema.Major, Minor: doc.Schema.Minor}

	if doc.CoordinateSystem != "" {
		cs, err := smf.ParseCoordinateSystem(doc.CoordinateSystem)
		if err != nil {
			errs = multierr.Append(errs, err)
		} else {
			s.CoordinateSystem = &cs
		}
	}

	for name, a := range doc.Attributes.Required {
		c, err := a.constraint(name)
		errs = multierr.Append(errs, err)
		s.Required[name] = c
	}
	for name, a := range doc.Attributes.Optional {
		if _, dup := s.Required[name]; dup {
			errs = multierr.Append(errs, fmt.Errorf("attribute %q is both required and optional", name))
			continue
		}
		c, err := a.constraint(name)
		errs = multierr.Append(errs, err)
		s.Optional[name] = c
	}

	if errs != nil {
		return nil, errs
	}
	return s, nil
}

func (a attributeDocument) constraint(name string) (AttributeConstraint, error) {
	c := AttributeConstraint{Count: a.Count, Bits: a.Width}
	if a.Kind != "" {
		k, err := smf.ParseComponentKind(a.Kind)
		if err != nil {
			return c, fmt.Errorf("attribute %q: %w", name, err)
		}
		c.Kind = &k
	}
	return c, nil
}

func parseHex32(s string) (uint32, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid schema id %q: %w", s, err)
	}
	return uint32(v), nil
}
