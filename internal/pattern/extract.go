package pattern

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/nao1215/arcrack/internal/model"
)

// commonWords are the dictionary words recognized inside a password.
var commonWords = []string{
	"password", "admin", "user", "test", "demo", "guest", "root", "login",
	"welcome", "hello", "world", "love", "baby", "angel", "honey", "sweet",
}

var keyboardRows = []string{
	"1234567890",
	"qwertyuiop",
	"asdfghjkl",
	"zxcvbnm",
}

const specialChars = `!@#$%^&*()_+-=[]{}|;:,.<>?`

// unleet maps substitutes back to letters.
var unleet = strings.NewReplacer("@", "a", "3", "e", "1", "i", "0", "o", "5", "s", "7", "t")

var (
	digitRun    = regexp.MustCompile(`\d+`)
	digitSuffix = regexp.MustCompile(`\d+$`)
	digitPrefix = regexp.MustCompile(`^\d+`)
)

// extract returns every feature of password in extraction order.
func extract(password string, gc model.GenerationContext) []observation {
	if password == "" {
		return nil
	}

	var obs []observation
	add := func(t Type, key, value string) {
		obs = append(obs, observation{typ: t, key: key, value: value})
	}

	runes := []rune(password)

	// Structure.
	add(TypeLength, fmt.Sprintf("len:%d", len(runes)), strconv.Itoa(len(runes)))
	positions := classString(runes, false)
	add(TypePosition, "pos:"+positions, positions)
	for _, r := range repeats(runes) {
		add(TypeRepeat, fmt.Sprintf("repeat:%s:%d", r.unit, r.count), r.unit)
	}

	// Character classes.
	classes := classString(runes, true)
	add(TypeCharType, "ct:"+classes, classes)
	lower, upper, digits, special := classCounts(runes)
	stats := fmt.Sprintf("%d:%d:%d:%d", lower, upper, digits, special)
	add(TypeCharStats, "stats:"+stats, stats)

	// Semantics.
	for _, w := range words(password, gc.Keywords) {
		add(TypeWord, "word:"+w, w)
	}
	for _, n := range digitRun.FindAllString(password, -1) {
		v, err := strconv.Atoi(n)
		if err != nil {
			continue
		}
		if len(n) == 4 && v >= 1900 && v <= 2030 {
			add(TypeYear, "year:"+n, n)
		}
		if len(n) == 2 && v >= 1 && v <= 31 {
			add(TypeDate, "date:"+n, n)
		}
	}
	for _, kb := range keyboardRuns(password) {
		add(TypeKeyboard, "kb:"+kb, kb)
	}

	// Context.
	if base := strings.ToLower(gc.BaseName()); base != "" {
		lowerPwd := strings.ToLower(password)
		if strings.Contains(lowerPwd, base) {
			add(TypeFileName, "fn:"+base, base)
		}
		for _, n := range digitRun.FindAllString(base, -1) {
			if strings.Contains(password, n) {
				add(TypeFileNumber, "fnum:"+n, n)
			}
		}
	}
	if class := SizeClass(gc.FileSize); class != "" {
		add(TypeFileSize, "fsize:"+class, class)
	}
	if ext := gc.Extension(); ext != "" {
		add(TypeFileType, "ftype:"+ext, ext)
	}

	// N-grams.
	for i := 0; i+1 < len(runes); i++ {
		g := string(runes[i : i+2])
		add(TypeBigram, "2g:"+g, g)
	}
	for i := 0; i+2 < len(runes); i++ {
		g := string(runes[i : i+3])
		add(TypeTrigram, "3g:"+g, g)
	}

	// Transforms.
	if strings.ContainsAny(password, "@31057") {
		original := unleet.Replace(password)
		add(TypeLeet, "leet:"+original, original)
	}
	if c := casePattern(runes); c != "mixed" {
		add(TypeCase, "case:"+c, c)
	}
	if s := digitSuffix.FindString(password); s != "" {
		add(TypeNumSuffix, "nsuf:"+s, s)
	}
	if p := digitPrefix.FindString(password); p != "" {
		add(TypeNumPrefix, "npre:"+p, p)
	}

	return obs
}

// classString maps each rune to l, u, d or s. With detailed set, special
// characters outside the common set map to o.
func classString(runes []rune, detailed bool) string {
	var b strings.Builder
	b.Grow(len(runes))
	for _, r := range runes {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteByte('l')
		case r >= 'A' && r <= 'Z':
			b.WriteByte('u')
		case r >= '0' && r <= '9':
			b.WriteByte('d')
		case !detailed || strings.ContainsRune(specialChars, r):
			b.WriteByte('s')
		default:
			b.WriteByte('o')
		}
	}
	return b.String()
}

func classCounts(runes []rune) (lower, upper, digits, special int) {
	for _, r := range runes {
		switch {
		case r >= 'a' && r <= 'z':
			lower++
		case r >= 'A' && r <= 'Z':
			upper++
		case r >= '0' && r <= '9':
			digits++
		case strings.ContainsRune(specialChars, r):
			special++
		}
	}
	return lower, upper, digits, special
}

type repeat struct {
	unit  string
	count int
}

// repeats finds every substring of length >= 2 that occurs at least twice
// back to back, for example "abab" yields ("ab", 2).
func repeats(runes []rune) []repeat {
	var out []repeat
	n := len(runes)
	for size := 2; size <= n/2; size++ {
		for i := 0; i+2*size <= n; i++ {
			unit := string(runes[i : i+size])
			if string(runes[i+size:i+2*size]) != unit {
				continue
			}
			count := 2
			for pos := i + 2*size; pos+size <= n && string(runes[pos:pos+size]) == unit; pos += size {
				count++
			}
			out = append(out, repeat{unit: unit, count: count})
		}
	}
	return out
}

// words returns the dictionary words and context keywords contained in
// password, lower-cased.
func words(password string, keywords []string) []string {
	lower := strings.ToLower(password)
	seen := make(map[string]bool)
	var out []string
	for _, w := range commonWords {
		if strings.Contains(lower, w) && !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if len([]rune(k)) < 3 || seen[k] {
			continue
		}
		if strings.Contains(lower, k) {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// keyboardRuns returns every row substring of length 3 to 8 found in password.
func keyboardRuns(password string) []string {
	lower := strings.ToLower(password)
	var out []string
	for _, row := range keyboardRows {
		for start := 0; start < len(row)-2; start++ {
			for size := 3; size <= min(8, len(row)-start); size++ {
				run := row[start : start+size]
				if strings.Contains(lower, run) {
					out = append(out, run)
				}
			}
		}
	}
	return out
}

// casePattern classifies the letter case of a password as none, lower,
// upper, title or mixed.
func casePattern(runes []rune) string {
	hasLower, hasUpper := false, false
	for _, r := range runes {
		if unicode.IsLower(r) {
			hasLower = true
		}
		if unicode.IsUpper(r) {
			hasUpper = true
		}
	}
	switch {
	case !hasLower && !hasUpper:
		return "none"
	case hasLower && !hasUpper:
		return "lower"
	case hasUpper && !hasLower:
		return "upper"
	}

	if unicode.IsUpper(runes[0]) && strings.ToLower(string(runes[1:])) == string(runes[1:]) {
		return "title"
	}
	return "mixed"
}
