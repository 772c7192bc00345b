package encoding

import (
	"encoding/base64"
	"strings"
)

// Base64LineLength is the maximum length of an encoded line.
const Base64LineLength = 72

// Base64Lines encodes data as standard base64 split into lines of at most
// Base64LineLength characters. Empty data yields no lines.
func Base64Lines(data []byte) []string {
	encoded := base64.StdEncoding.EncodeToString(data)
	lines := make([]string, 0, (len(encoded)+Base64LineLength-1)/Base64LineLength)
	for len(encoded) > Base64LineLength {
		lines = append(lines, encoded[:Base64LineLength])
		encoded = encoded[Base64LineLength:]
	}
	if encoded != "" {
		lines = append(lines, encoded)
	}
	return lines
}

// FromBase64Lines decodes the concatenation of lines.
func FromBase64Lines(lines []string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(strings.Join(lines, ""))
}
