// Package titles normalizes media titles and ranks them against a query.
package titles

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// romanRe matches II-IX after a space. A leading numeral ("VII Days") and the
// single letters I and X ("SPY x FAMILY") are left alone.
var romanRe = regexp.MustCompile(`(?i) (ii|iii|iv|v|vi|vii|viii|ix)\b`)

var romanValues = map[string]string{
	"ii": "2", "iii": "3", "iv": "4", "v": "5",
	"vi": "6", "vii": "7", "viii": "8", "ix": "9",
}

var articles = []string{"the ", "a ", "an "}

// Clean lowercases a title and strips what differs between catalogs:
// accents, punctuation, leading articles of each colon-separated part,
// and Roman sequel numbers, which become digits.
func Clean(title string) string {
	s := strings.ToLower(title)
	s = romanRe.ReplaceAllStringFunc(s, func(m string) string {
		return " " + romanValues[strings.TrimSpace(m)]
	})
	s = foldAccents(s)

	s = strings.NewReplacer("&", " and ", "-", " ", "'", "", "’", "", ".", " ", "_", " ").Replace(s)

	parts := strings.Split(s, ":")
	for i, p := range parts {
		parts[i] = trimArticle(strings.TrimSpace(p))
	}
	s = strings.Join(parts, " ")

	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func trimArticle(s string) string {
	for _, a := range articles {
		if strings.HasPrefix(s, a) {
			return strings.TrimPrefix(s, a)
		}
	}
	return s
}
