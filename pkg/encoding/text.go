// Package encoding provides text and fixed-width string utilities for the
// SMF encodings.
package encoding

import (
	"bytes"
	"errors"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	ErrInvalidUTF8   = errors.New("invalid UTF-8")
	ErrStringTooLong = errors.New("string too long for field")
)

// NewUTF8Reader returns a reader that decodes r as UTF-8, dropping a leading
// byte order mark. A UTF-16 byte order mark switches decoding to UTF-16.
func NewUTF8Reader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// DecodeUTF8 converts data to a string, dropping any byte order mark.
// Returns an error if the result is not valid UTF-8.
func DecodeUTF8(data []byte) (string, error) {
	result, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(result) {
		return "", ErrInvalidUTF8
	}
	return string(result), nil
}

// FixedString decodes a NUL-padded UTF-8 field.
func FixedString(data []byte) (string, error) {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	if !utf8.Valid(data) {
		return "", ErrInvalidUTF8
	}
	return string(data), nil
}

// PutFixedString writes s into dst and pads the remainder with NUL bytes.
func PutFixedString(dst []byte, s string) error {
	if len(s) > len(dst) {
		return ErrStringTooLong
	}
	n := copy(dst, s)
	clear(dst[n:])
	return nil
}
