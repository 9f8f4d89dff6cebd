package tool

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ParseSlug turns s into an ASCII slug: diacritics are dropped, words are
// joined with separator and every other character is removed. The result is
// lower-cased unless lower is false.
//
//	tool.ParseSlug(`s GętĄ9 2[3]"'6`, "-", true) // "s-geta9-236"
func ParseSlug(s, separator string, lower bool) string {
	plain, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		plain = s
	}

	words := strings.FieldsFunc(plain, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '_'
	})
	out := make([]string, 0, len(words))
	for _, word := range words {
		word = strings.Map(func(r rune) rune {
			if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
				return r
			}
			return -1
		}, word)
		if word != "" {
			out = append(out, word)
		}
	}

	slug := strings.Join(out, separator)
	if lower {
		slug = strings.ToLower(slug)
	}
	return slug
}
