package generator

import (
	"strconv"
	"strings"
	"time"
)

// ruleLeet is the full leet substitution of the rule engine.
var ruleLeet = strings.NewReplacer(
	"a", "@", "e", "3", "i", "1", "o", "0", "s", "$", "t", "7", "l", "1",
)

var (
	ruleNumericSuffixes = []string{"1", "123", "1234", "!", "12", "01", "123!", "1!"}
	ruleSpecialSuffixes = []string{"!", "@", "!@"}
	rulePrefixes        = []string{"1", "123", "!"}
	ruleFixedYears      = []string{"2000", "2020"}
)

const (
	recentYearCount = 5
	doublingMaxLen  = 4
)

// RuleEngine expands a dictionary word into its most common real-world
// mutations. The rule set is fixed and not exhaustive.
type RuleEngine struct {
	// ReferenceYear anchors the "recent years" suffixes. Zero means the
	// current year.
	ReferenceYear int
}

// ApplyRules expands word with the current year as reference.
func ApplyRules(word string) []string {
	return RuleEngine{}.Apply(word)
}

// Apply returns the de-duplicated variants of word in rule order. The
// word itself is always the first variant.
func (e RuleEngine) Apply(word string) []string {
	year := e.ReferenceYear
	if year == 0 {
		year = time.Now().Year()
	}

	out := make([]string, 0, 48)
	seen := make(map[string]struct{}, 48)
	add := func(v string) {
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	add(word)

	// case
	add(strings.ToLower(word))
	add(strings.ToUpper(word))
	add(capitalize(word))

	// leet: full, then the two most common partial substitutions
	add(ruleLeet.Replace(strings.ToLower(word)))
	add(strings.NewReplacer("a", "@", "A", "@").Replace(word))
	add(strings.NewReplacer("o", "0", "O", "0").Replace(word))

	// numeric suffixes, plain and capitalised
	for _, s := range ruleNumericSuffixes {
		add(word + s)
		add(upperFirst(word) + s)
	}

	// recent years in four- and two-digit form
	for i := 0; i < recentYearCount; i++ {
		y := year - i
		add(word + strconv.Itoa(y))
		add(word + twoDigitYear(y))
	}
	for _, y := range ruleFixedYears {
		add(word + y)
	}

	for _, s := range ruleSpecialSuffixes {
		add(word + s)
	}
	for _, p := range rulePrefixes {
		add(p + word)
	}

	// repetition
	if runeLen(word) <= doublingMaxLen {
		add(word + word)
	}
	if word != "" {
		runes := []rune(word)
		add(word + string(runes[len(runes)-1]))
	}

	add(reverse(word))

	return out
}
