package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripAccents removes combining marks after NFD decomposition, so that
// "SÃO PAULO" and "SAO PAULO" produce the same comparison key.
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName builds the canonical form used as the natural key of cities,
// instruments and ministry-role text: trim, collapse internal whitespace,
// uppercase, strip diacritics.
func NormalizeName(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ToUpper(s)
	if out, _, err := transform.String(stripAccents, s); err == nil {
		s = out
	}
	return s
}

// instrumentSynonyms maps common misspellings and variants to the canonical
// instrument name used for grouping in reports. Keys are already in
// normalized form.
var instrumentSynonyms = map[string]string{
	"VIOLONCELO":         "VIOLONCELLO",
	"OBOE":               "OBOE",
	"ORGAO":              "ORGAO",
	"EUFONIO":            "EUPHONIO",
	"CLARINETA":          "CLARINETE",
	"FLAUTA TRANSVERSAL": "FLAUTA",
	"SAX":                "SAXOFONE",
}

// NormalizeInstrumentName normalizes like NormalizeName and then applies the
// canonical synonym table, so a typed "clarineta" and "CLARINETE" resolve to
// the same reference row.
func NormalizeInstrumentName(raw string) string {
	s := NormalizeName(raw)
	if canonical, ok := instrumentSynonyms[s]; ok {
		return canonical
	}
	return s
}
