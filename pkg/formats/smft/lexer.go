package smft

import (
	"errors"
	"strings"
)

var (
	ErrUnterminatedQuote = errors.New("unterminated quoted string")
	ErrInvalidEscape     = errors.New("invalid escape sequence")
)

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\v', '\f':
		return true
	}
	return false
}

// Lex splits a line into tokens on ASCII whitespace. Double quotes group
// characters, including whitespace, into one token; inside quotes `\\`
// and `\"` escape a backslash and a quote.
func Lex(line string) ([]string, error) {
	var (
		tokens  []string
		current strings.Builder
		inToken bool
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			inToken = true
			i++
			for ; i < len(line) && line[i] != '"'; i++ {
				if line[i] != '\\' {
					current.WriteByte(line[i])
					continue
				}
				if i+1 >= len(line) || (line[i+1] != '\\' && line[i+1] != '"') {
					return nil, ErrInvalidEscape
				}
				i++
				current.WriteByte(line[i])
			}
			if i >= len(line) {
				return nil, ErrUnterminatedQuote
			}
		case isSpace(c):
			if inToken {
				tokens = append(tokens, current.String())
				current.Reset()
				inToken = false
			}
		default:
			inToken = true
			current.WriteByte(c)
		}
	}
	if inToken {
		tokens = append(tokens, current.String())
	}
	return tokens, nil
}

// Quote returns s as a quoted token that Lex reads back unchanged.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' || s[i] == '"' {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('"')
	return b.String()
}
