package generator

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// leetRules are applied in order, so "l" and "i" both become "1".
var leetRules = []struct{ from, to string }{
	{"a", "@"},
	{"e", "3"},
	{"i", "1"},
	{"o", "0"},
	{"s", "$"},
	{"t", "7"},
	{"l", "1"},
	{"g", "9"},
}

// leet applies every leet rule to s. Only lower-case letters are replaced.
func leet(s string) string {
	for _, r := range leetRules {
		s = strings.ReplaceAll(s, r.from, r.to)
	}
	return s
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// upperFirst upper-cases the first rune and keeps the rest unchanged.
func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// alternating upper-cases runes at even positions and lower-cases the others.
func alternating(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	i := 0
	for _, r := range s {
		if i%2 == 0 {
			b.WriteRune(unicode.ToUpper(r))
		} else {
			b.WriteRune(unicode.ToLower(r))
		}
		i++
	}
	return b.String()
}

// reverse returns s with its runes in reverse order.
func reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

// titleWords title-cases every word of s and joins them without spaces,
// so "john smith" becomes "JohnSmith".
func titleWords(s string) string {
	caser := cases.Title(language.Und)
	return strings.Join(strings.Fields(caser.String(s)), "")
}

// runeLen returns the number of runes in s.
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
