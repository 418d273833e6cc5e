// Package script validates text that must be written in Urdu script.
package script

import (
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Bounds of the Arabic Unicode block, which carries the Urdu alphabet.
const (
	BlockStart rune = 0x0600
	BlockEnd   rune = 0x06FF
)

// InBlock reports whether r belongs to the Arabic block.
func InBlock(r rune) bool {
	return r >= BlockStart && r <= BlockEnd
}

// IsUrdu reports whether s consists of Arabic-block characters and whitespace
// only. A string with no Arabic-block character at all is rejected.
func IsUrdu(s string) bool {
	letters := 0
	for _, r := range s {
		switch {
		case InBlock(r):
			letters++
		case unicode.IsSpace(r):
		default:
			return false
		}
	}
	return letters > 0
}

// Normalize returns s in NFC, the form names are stored and compared in.
func Normalize(s string) string {
	return norm.NFC.String(s)
}
