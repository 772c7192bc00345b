// Package smf defines the SMF mesh data model: headers, attributes,
// triangle layout, coordinate systems, schema identifiers and metadata.
package smf

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// FormatVersion identifies a version of an encoding.
type FormatVersion struct {
	Major uint32
	Minor uint32
}

// String returns the version as "Major.Minor".
func (v FormatVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// ParseFormatVersion parses "Major.Minor".
func ParseFormatVersion(text string) (FormatVersion, error) {
	major, minor, ok := strings.Cut(text, ".")
	if !ok {
		return FormatVersion{}, fmt.Errorf("invalid version %q: expected major.minor", text)
	}
	ma, err := strconv.ParseUint(major, 10, 32)
	if err != nil {
		return FormatVersion{}, fmt.Errorf("invalid version %q: %w", text, err)
	}
	mi, err := strconv.ParseUint(minor, 10, 32)
	if err != nil {
		return FormatVersion{}, fmt.Errorf("invalid version %q: %w", text, err)
	}
	return FormatVersion{Major: uint32(ma), Minor: uint32(mi)}, nil
}

// AtLeast returns true if version is >= major.minor.
func (v FormatVersion) AtLeast(major, minor uint32) bool {
	if v.Major > major {
		return true
	}
	if v.Major == major && v.Minor >= minor {
		return true
	}
	return false
}

// Compare orders versions by major then minor.
func (v FormatVersion) Compare(o FormatVersion) int {
	switch {
	case v.Major < o.Major:
		return -1
	case v.Major > o.Major:
		return 1
	case v.Minor < o.Minor:
		return -1
	case v.Minor > o.Minor:
		return 1
	default:
		return 0
	}
}

// SortVersions sorts versions in ascending order in place.
func SortVersions(versions []FormatVersion) {
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Compare(versions[j]) < 0
	})
}
