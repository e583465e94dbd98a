// Package divipola holds the vocabulary of the electoral political-administrative
// division: name normalization, zone codes and zone kinds.
package divipola

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// KeySeparator joins the municipality and polling place parts of a match key.
const KeySeparator = "|"

// NormalizeName uppercases text, strips diacritics and collapses whitespace.
// It is total: any input, including the empty string, yields a result.
//
//	NormalizeName("  San Vicente  del Caguán ") == "SAN VICENTE DEL CAGUAN"
func NormalizeName(text string) string {
	// Transformers carry state, so each call builds its own chain.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	stripped, _, err := transform.String(stripMarks, text)
	if err != nil {
		stripped = text
	}

	return strings.Join(strings.Fields(strings.ToUpper(stripped)), " ")
}

// MatchKey is the exact-match key of a polling place within its municipality.
func MatchKey(municipality, pollingPlace string) string {
	return NormalizeName(municipality) + KeySeparator + NormalizeName(pollingPlace)
}
