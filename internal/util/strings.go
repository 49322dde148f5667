package util

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ToValidUTF8 ensures a string is valid UTF-8.
// Spreadsheet exports from older tools are often Latin-1 (ISO-8859-1) or
// Windows-1252; rather than replacing bytes with U+FFFD we decode them so
// values like "São Paulo" or "não" survive.
func ToValidUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	// Windows-1252 is a superset of Latin-1 for printable characters and is
	// what Excel writes on most Western locales.
	decoded, err := charmap.Windows1252.NewDecoder().String(s)
	if err == nil && utf8.ValidString(decoded) {
		return decoded
	}

	// Fallback: decode byte-by-byte as Latin-1, which maps 1:1 onto the first
	// 256 code points and therefore cannot fail.
	runes := make([]rune, len(s))
	for i := 0; i < len(s); i++ {
		runes[i] = rune(s[i])
	}
	return string(runes)
}

// ToValidUTF8Bytes ensures bytes represent valid UTF-8.
func ToValidUTF8Bytes(b []byte) []byte {
	if utf8.Valid(b) {
		return b
	}
	return []byte(ToValidUTF8(string(b)))
}
