// Package validation checks mesh headers against structural schemas.
package validation

import (
	"github.com/Faultbox/smf/pkg/smf"
)

// AttributeConstraint pins zero or more fields of an attribute. A nil
// field is unconstrained.
type AttributeConstraint struct {
	Kind  *smf.ComponentKind
	Count *int
	Bits  *int
}

// Schema is a set of structural constraints for mesh headers.
type Schema struct {
	ID                   smf.SchemaIdentifier
	RequireVertices      bool
	RequireTriangles     bool
	AllowExtraAttributes bool

	// CoordinateSystem, if non-nil, must equal the header's.
	CoordinateSystem *smf.CoordinateSystem

	Required map[string]AttributeConstraint
	Optional map[string]AttributeConstraint
}
