// Package smfb implements the section-framed binary SMF encoding.
//
// A file is a 16-octet file header followed by sections:
//
//	[8 magic][8 payload size][8 reserved][payload, zero padded to 16 octets]
//
// All framing fields are big-endian. Vertex and triangle data use the byte
// order declared in the header.
package smfb

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Faultbox/smf/pkg/smf"
)

// File and section magic numbers.
const (
	FileMagic uint64 = 0x89534D460D0A1A0A

	MagicHeader     uint64 = 0x534D465F48454144 // SMF_HEAD
	MagicVertexData uint64 = 0x534D465F56444E49 // SMF_VDNI
	MagicTriangles  uint64 = 0x534D465F54524953 // SMF_TRIS
	MagicMetadata   uint64 = 0x534D465F4D455441 // SMF_META
	MagicEnd        uint64 = 0x534D465F454E4400 // SMF_END\0
)

const (
	fileHeaderSize    = 16
	sectionHeaderSize = 24
	alignment         = 16

	headerFixedSize     = 72
	attributeRecordSize = smf.MaxAttributeNameOctets + 12
	metadataFixedSize   = 24
)

var (
	ErrInvalidMagic = errors.New("invalid SMF binary magic")
	ErrShortProbe   = errors.New("too few octets to identify SMF binary")
)

// Description describes the binary encoding.
var Description = smf.FormatDescription{
	Name:         "smf/b",
	Suffix:       "smfb",
	MimeType:     "application/vnd.io7m.smf",
	Description:  "A binary encoding of SMF",
	RandomAccess: false,
}

// Versions lists the supported format versions, lowest first.
var Versions = []smf.FormatVersion{{Major: 2, Minor: 0}}

// CurrentVersion is the version written by default.
var CurrentVersion = smf.FormatVersion{Major: 2, Minor: 0}

func supported(v smf.FormatVersion) bool {
	for _, s := range Versions {
		if s.Major == v.Major {
			return true
		}
	}
	return false
}

// SectionName returns the printable name of a section magic number.
func SectionName(magic uint64) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], magic)
	name := bytes.TrimRight(b[:], "\x00")
	for _, c := range name {
		if c < 0x20 || c > 0x7e {
			return fmt.Sprintf("0x%016x", magic)
		}
	}
	return string(name)
}

// Probe identifies the version of a binary stream from its first octets.
func Probe(head []byte) (smf.FormatVersion, error) {
	if len(head) < fileHeaderSize {
		return smf.FormatVersion{}, ErrShortProbe
	}
	if binary.BigEndian.Uint64(head[0:8]) != FileMagic {
		return smf.FormatVersion{}, ErrInvalidMagic
	}
	return smf.FormatVersion{
		Major: binary.BigEndian.Uint32(head[8:12]),
		Minor: binary.BigEndian.Uint32(head[12:16]),
	}, nil
}

func align(n uint64) uint64 {
	return (n + alignment - 1) &^ (alignment - 1)
}
