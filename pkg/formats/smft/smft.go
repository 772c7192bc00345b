// Package smft implements the line-oriented text SMF encoding.
//
// The first line declares the version:
//
//	smf 1 0
//
// Header commands follow until a "data" line, after which come attribute,
// triangle and metadata sections.
package smft

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Faultbox/smf/pkg/encoding"
	"github.com/Faultbox/smf/pkg/smf"
)

const versionSyntax = "smf <major> <minor>"

var (
	ErrNoVersionLine = errors.New("no SMF text version line")
)

// Description describes the text encoding.
var Description = smf.FormatDescription{
	Name:         "smf/t",
	Suffix:       "smft",
	MimeType:     "text/vnd.io7m.smf",
	Description:  "A plain text encoding of SMF data",
	RandomAccess: false,
}

// Versions lists the supported format versions, lowest first.
var Versions = []smf.FormatVersion{{Major: 1, Minor: 0}}

// CurrentVersion is the version written by default.
var CurrentVersion = smf.FormatVersion{Major: 1, Minor: 0}

func supported(v smf.FormatVersion) bool {
	for _, s := range Versions {
		if s.Major == v.Major {
			return true
		}
	}
	return false
}

// expectedGot formats the message used for malformed commands.
func expectedGot(message, expected string, tokens []string) string {
	return fmt.Sprintf("%s: expected %s, received %q", message, expected, strings.Join(tokens, " "))
}

// parseVersion parses the tokens of a version line. The returned string
// is an error message when the line is not a version declaration.
func parseVersion(tokens []string) (smf.FormatVersion, string) {
	if len(tokens) == 0 {
		return smf.FormatVersion{}, expectedGot("The first line must be a version declaration", versionSyntax, tokens)
	}
	if tokens[0] != "smf" {
		return smf.FormatVersion{}, expectedGot("Unrecognized command", versionSyntax, tokens)
	}
	if len(tokens) != 3 {
		return smf.FormatVersion{}, expectedGot("Incorrect number of arguments", versionSyntax, tokens)
	}
	major, err := strconv.ParseUint(tokens[1], 10, 32)
	if err != nil {
		return smf.FormatVersion{}, expectedGot("Cannot parse number", versionSyntax, tokens)
	}
	minor, err := strconv.ParseUint(tokens[2], 10, 32)
	if err != nil {
		return smf.FormatVersion{}, expectedGot("Cannot parse number", versionSyntax, tokens)
	}
	return smf.FormatVersion{Major: uint32(major), Minor: uint32(minor)}, ""
}

// Probe identifies the version of a text stream from its first non-blank
// line within head.
func Probe(head []byte) (smf.FormatVersion, error) {
	var tokens []string
	for len(head) > 0 && len(tokens) == 0 {
		line := head
		if i := bytes.IndexByte(head, '\n'); i >= 0 {
			line, head = head[:i], head[i+1:]
		} else {
			head = nil
		}
		text, err := encoding.DecodeUTF8(line)
		if err != nil {
			return smf.FormatVersion{}, err
		}
		if tokens, err = Lex(text); err != nil {
			return smf.FormatVersion{}, err
		}
	}
	version, msg := parseVersion(tokens)
	if msg != "" {
		return smf.FormatVersion{}, fmt.Errorf("%w: %s", ErrNoVersionLine, msg)
	}
	return version, nil
}

// ParseSchemaIdentifier parses "<vendor-hex> <schema-hex> <major> <minor>".
func ParseSchemaIdentifier(fields []string) (smf.SchemaIdentifier, error) {
	var (
		id  smf.SchemaIdentifier
		err error
	)
	if len(fields) != 4 {
		return id, fmt.Errorf("expected <vendor-id> <schema-id> <major> <minor>, received %d fields", len(fields))
	}
	if id.Vendor, err = parseHex32(fields[0]); err != nil {
		return id, err
	}
	if id.Schema, err = parseHex32(fields[1]); err != nil {
		return id, err
	}
	if id.Major, err = parseUint32(fields[2]); err != nil {
		return id, err
	}
	if id.Minor, err = parseUint32(fields[3]); err != nil {
		return id, err
	}
	return id, nil
}

func parseHex32(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	return uint32(v), err
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	return uint32(v), err
}
