package strutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Default word lists for Brazilian Portuguese institutional names. They are
// data, not logic: deployments in another locale swap them via configuration.
var (
	DefaultLowercaseWords = []string{
		"à", "a", "com", "da", "das", "de", "do", "dos", "e", "em",
		"na", "nas", "no", "nos", "o", "por", "sem", "para",
	}
	DefaultUppercaseAcronyms = []string{
		"cnpj", "cpf", "ltda", "qp", "tv", "mei", "me", "ei", "epp",
		"eireli", "sa", "ti", "i", "ii", "iii", "iv", "v", "vi", "vii",
		"viii", "ix", "x",
	}
)

// TitleCaser converts free-text institutional names into display-cased names
// using per-locale exception lists. It is pure and safe for concurrent use.
type TitleCaser struct {
	lowercase map[string]struct{}
	uppercase map[string]struct{}
	lower     cases.Caser
	upper     cases.Caser
	title     cases.Caser
}

// NewTitleCaser builds a caser for the given locale and exception lists.
// Entries are matched after locale lowercasing, so list them in lowercase.
func NewTitleCaser(tag language.Tag, lowercaseWords, uppercaseAcronyms []string) *TitleCaser {
	c := &TitleCaser{
		lowercase: make(map[string]struct{}, len(lowercaseWords)),
		uppercase: make(map[string]struct{}, len(uppercaseAcronyms)),
		lower:     cases.Lower(tag),
		upper:     cases.Upper(tag),
		title:     cases.Title(tag),
	}
	for _, w := range lowercaseWords {
		c.lowercase[w] = struct{}{}
	}
	for _, w := range uppercaseAcronyms {
		c.uppercase[w] = struct{}{}
	}
	return c
}

// NewBrazilianTitleCaser builds a caser with the default pt-BR lists,
// optionally overridden per deployment.
func NewBrazilianTitleCaser(lowercaseWords, uppercaseAcronyms []string) *TitleCaser {
	if len(lowercaseWords) == 0 {
		lowercaseWords = DefaultLowercaseWords
	}
	if len(uppercaseAcronyms) == 0 {
		uppercaseAcronyms = DefaultUppercaseAcronyms
	}
	return NewTitleCaser(language.BrazilianPortuguese, lowercaseWords, uppercaseAcronyms)
}

// Title lowercases the whole phrase by locale rules, then re-cases word by
// word: stopwords stay lowercase, acronyms go uppercase, everything else is
// title-cased. Words are rejoined with single spaces. Display names only;
// natural keys never pass through here.
func (c *TitleCaser) Title(phrase string) string {
	words := strings.Fields(c.lower.String(phrase))
	for i, word := range words {
		if _, ok := c.lowercase[word]; ok {
			continue
		}
		if _, ok := c.uppercase[word]; ok {
			words[i] = c.upper.String(word)
			continue
		}
		words[i] = c.title.String(word)
	}
	return strings.Join(words, " ")
}
