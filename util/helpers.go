// Package util holds small shared helpers for decoding device-supplied
// strings. Printers frequently return octet strings that are not valid
// UTF-8 or carry stray control bytes.
package util

import (
	"strings"
	"unicode/utf8"
)

// DecodeOctetString converts raw SNMP octet-string bytes into a
// human-friendly UTF-8 string. It tries UTF-8 first, then falls back to a
// single-byte ISO-8859-1 style decoding (direct byte->rune mapping), and
// strips non-printable control characters and surrounding whitespace.
func DecodeOctetString(b []byte) string {
	if b == nil {
		return ""
	}
	if utf8.Valid(b) {
		return SanitizeString(string(b))
	}
	runes := make([]rune, 0, len(b))
	for _, by := range b {
		runes = append(runes, rune(by))
	}
	return SanitizeString(string(runes))
}

// SanitizeString removes C0 control characters (except tab, newline and
// carriage return) and trims surrounding whitespace.
func SanitizeString(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' {
			b.WriteRune(r)
			continue
		}
		if r < 0x20 {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
