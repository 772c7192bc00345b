package smf

import "fmt"

// SchemaIdentifier names a schema by vendor and schema id plus a version.
// An all-zero identifier means "no schema".
type SchemaIdentifier struct {
	Vendor uint32
	Schema uint32
	Major  uint32
	Minor  uint32
}

// IsZero reports whether the identifier is the absent identifier.
func (s SchemaIdentifier) IsZero() bool {
	return s == SchemaIdentifier{}
}

// SameSchema reports whether s and o name the same vendor and schema,
// regardless of version.
func (s SchemaIdentifier) SameSchema(o SchemaIdentifier) bool {
	return s.Vendor == o.Vendor && s.Schema == o.Schema
}

// CompareVersion orders identifiers by (major, minor).
func (s SchemaIdentifier) CompareVersion(o SchemaIdentifier) int {
	return FormatVersion{Major: s.Major, Minor: s.Minor}.Compare(FormatVersion{Major: o.Major, Minor: o.Minor})
}

// String returns "vendor schema major.minor" with hex vendor and schema ids.
func (s SchemaIdentifier) String() string {
	return fmt.Sprintf("%08x %08x %d.%d", s.Vendor, s.Schema, s.Major, s.Minor)
}

// Metadata is an opaque payload tagged with a schema identifier.
type Metadata struct {
	Schema SchemaIdentifier
	Data   []byte
}
