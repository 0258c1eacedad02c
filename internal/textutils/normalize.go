package textutils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeDescription returns a trimmed, NFC-normalized description with
// runs of whitespace collapsed and control characters removed. Spreadsheet
// null markers ("nan", "None") become the empty string.
func NormalizeDescription(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "none", "null":
		return ""
	}
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// Fold lower-cases s and strips diacritics, so "Descripción" and
// "DESCRIPCION" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// Truncate cuts s to at most n runes, appending suffix when it was cut.
func Truncate(s string, n int, suffix string) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + suffix
}
