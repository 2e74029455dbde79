package pattern

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/arcrack/internal/generator"
	"github.com/nao1215/arcrack/internal/model"
)

var leetify = strings.NewReplacer("a", "@", "e", "3", "i", "1", "o", "0", "s", "5", "t", "7")

// GeneratePasswordVariants expands patterns into candidates, at most
// MaxGeneratedVariants of them, without duplicates. Values outside the
// candidate length bounds are dropped. Word patterns are also
// concatenated with year, date and numeric-suffix patterns in both orders.
func (c *Cache) GeneratePasswordVariants(patterns []Pattern, _ model.GenerationContext) []string {
	return expand(patterns, c.opts.MaxGeneratedVariants, c.now().Year())
}

func expand(patterns []Pattern, limit, year int) []string {
	out := make([]string, 0, limit)
	seen := make(map[string]bool)
	add := func(v string) {
		if !generator.ValidLength(v) || seen[v] || len(out) >= limit {
			return
		}
		seen[v] = true
		out = append(out, v)
	}

	yearSuffix := strconv.Itoa(year)
	title := cases.Title(language.Und)
	for _, p := range patterns {
		for _, v := range variantsOf(p, yearSuffix, title) {
			add(v)
		}
		if len(out) >= limit {
			break
		}
	}

	var wordValues, numberValues []string
	for _, p := range patterns {
		switch p.Type {
		case TypeWord:
			wordValues = append(wordValues, p.Value)
		case TypeYear, TypeDate, TypeNumSuffix:
			numberValues = append(numberValues, p.Value)
		}
	}
	for _, w := range wordValues {
		for _, n := range numberValues {
			add(w + n)
			add(n + w)
		}
	}
	return out
}

// variantsOf returns the type-specific expansion of one pattern.
func variantsOf(p Pattern, year string, title cases.Caser) []string {
	v := p.Value
	switch p.Type {
	case TypeWord:
		return []string{
			v,
			strings.ToLower(v),
			strings.ToUpper(v),
			title.String(strings.ToLower(v)),
			leetify.Replace(strings.ToLower(v)),
			v + "1",
			v + "123",
			v + year,
			v + "!",
		}
	case TypeYear:
		if len(v) == 4 {
			return []string{v, v[2:]}
		}
		return []string{v}
	case TypeFileName:
		return []string{v, v + "123", v + year}
	case TypeKeyboard:
		return []string{v, strings.ToUpper(v), v + "123"}
	case TypeFileNumber:
		return []string{v}
	default:
		return nil
	}
}
