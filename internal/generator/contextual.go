package generator

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/nao1215/arcrack/internal/model"
)

// DefaultContextualMaxVariants is the default output cap of the social mode.
const DefaultContextualMaxVariants = 25000

const (
	contextualMinLength   = 4
	contextualMaxLength   = 20
	combinationMinLength  = 6
	keywordMinLength      = 3
	keywordMaxLength      = 15
	componentMaxLength    = 15
	defaultTopKeywords    = 8
	defaultMaxCombination = 100
)

var (
	contextSuffixes = []string{
		"", "!", "@", "#", "$", "%", "&", "*",
		"1", "12", "123", "1234", "12345",
		"21", "321", "4321", "54321",
		"00", "01", "02", "03", "99", "88", "77",
		"2023", "2024", "2025", "2022", "2021", "2020",
	}
	contextPrefixes = []string{"", "my", "the", "new", "old", "best", "love", "i", "we"}

	// contextConnectors join two keywords; the first three are used for combinations.
	contextConnectors = []string{"", "_", "-", ".", "&", "+"}
)

var (
	orgPattern         = regexp.MustCompile(`(?i)\b(\w+(?:corp|inc|ltd|llc|co|company|group|tech|soft|sys|net|com))\b`)
	hanNamePattern     = regexp.MustCompile(`\p{Han}{2,4}`)
	latinNamePattern   = regexp.MustCompile(`\b[A-Z][a-z]{2,10}\s+[A-Z][a-z]{2,10}\b`)
	keywordPattern     = regexp.MustCompile(`[a-zA-Z0-9\p{Han}]+`)
	nonAlnumPattern    = regexp.MustCompile(`[^a-zA-Z0-9\p{Han}]`)
	nonLatinPattern    = regexp.MustCompile(`[^a-zA-Z0-9]`)
	nonLetterPattern   = regexp.MustCompile(`[^a-zA-Z\s]`)
	nonDigitPattern    = regexp.MustCompile(`[^0-9]`)
	contextDatePattern = []*regexp.Regexp{
		regexp.MustCompile(`\b(19|20)\d{2}\b`),
		regexp.MustCompile(`\b\d{1,2}[-/]\d{1,2}[-/](19|20)?\d{2}\b`),
		regexp.MustCompile(`\b(19|20)\d{2}[-/]\d{1,2}[-/]\d{1,2}\b`),
	}
)

// ContextualOptions configures a ContextualMode.
type ContextualOptions struct {
	// MaxVariants caps the number of candidates.
	MaxVariants int

	// IncludeTransformations adds leet and case variants of every token.
	IncludeTransformations bool

	// IncludeCombinations joins the top keywords pairwise.
	IncludeCombinations bool

	// TopKeywords is the number of keywords that take part in combinations.
	TopKeywords int

	// MaxCombinations caps the pairwise combinations.
	MaxCombinations int
}

// DefaultContextualOptions returns the default social mode options.
func DefaultContextualOptions() ContextualOptions {
	return ContextualOptions{
		MaxVariants:            DefaultContextualMaxVariants,
		IncludeTransformations: true,
		IncludeCombinations:    true,
		TopKeywords:            defaultTopKeywords,
		MaxCombinations:        defaultMaxCombination,
	}
}

// ContextualMode derives candidates from the archive's name, its directory
// names, user keywords and harvested metadata.
type ContextualMode struct {
	baseMode
	opts ContextualOptions
}

// NewContextualMode creates a social mode.
func NewContextualMode(opts ContextualOptions) *ContextualMode {
	if opts.TopKeywords <= 0 {
		opts.TopKeywords = defaultTopKeywords
	}
	if opts.MaxCombinations <= 0 {
		opts.MaxCombinations = defaultMaxCombination
	}
	m := &ContextualMode{opts: opts}
	m.maxVariants = opts.MaxVariants
	if m.maxVariants <= 0 {
		m.maxVariants = DefaultContextualMaxVariants
	}
	return m
}

// Name returns "social".
func (m *ContextualMode) Name() string { return ModeSocial }

// contextInfo is the token material extracted from a GenerationContext.
type contextInfo struct {
	fileName       string
	pathComponents []string
	userKeywords   []string
	organizations  []string
	persons        []string
	dates          []string
	keywords       []string
}

// Generate produces candidates from the file name, user keywords, path
// components, organization names, person names, dates and keyword
// combinations, in that order. Every candidate is 4 to 20 characters long.
func (m *ContextualMode) Generate(ctx context.Context, gc model.GenerationContext) ([]string, error) {
	info := extractContextInfo(gc)
	set := newCandidateSet(contextualMinLength, contextualMaxLength, m.maxVariants)

	if info.fileName != "" {
		set.addAll(m.fromFileName(info.fileName))
	}
	for _, kw := range info.userKeywords {
		set.addAll(m.fromFileName(kw))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, c := range info.pathComponents {
		set.addAll(m.fromPathComponent(c))
	}
	for _, org := range info.organizations {
		set.addAll(m.fromOrganization(org))
	}
	for _, p := range info.persons {
		set.addAll(fromPersonName(p))
	}
	for _, d := range info.dates {
		set.addAll(fromDate(d))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.opts.IncludeCombinations && len(info.keywords) > 1 {
		set.addAll(m.combinations(info.keywords))
	}

	return set.list(), nil
}

// extractContextInfo runs the token heuristics over the file name, the
// directory names and the user keywords.
func extractContextInfo(gc model.GenerationContext) contextInfo {
	info := contextInfo{
		fileName:       gc.BaseName(),
		pathComponents: make([]string, 0),
	}

	for _, c := range gc.PathComponents() {
		if !strings.Contains(c, ":") && c != ".." {
			info.pathComponents = append(info.pathComponents, c)
		}
	}
	for _, kw := range gc.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			info.userKeywords = append(info.userKeywords, kw)
		}
	}

	parts := make([]string, 0, 1+len(info.userKeywords)+len(info.pathComponents))
	parts = append(parts, info.fileName)
	parts = append(parts, info.userKeywords...)
	parts = append(parts, info.pathComponents...)
	allText := strings.Join(parts, " ")

	for _, m := range orgPattern.FindAllStringSubmatch(allText, -1) {
		info.organizations = append(info.organizations, m[1])
	}
	info.persons = append(info.persons, hanNamePattern.FindAllString(allText, -1)...)
	info.persons = append(info.persons, latinNamePattern.FindAllString(allText, -1)...)

	for _, p := range contextDatePattern {
		info.dates = append(info.dates, p.FindAllString(allText, -1)...)
	}
	for _, d := range gc.Dates {
		if !d.IsZero() {
			info.dates = append(info.dates, d.Format("2006-01-02"))
		}
	}

	seen := make(map[string]struct{})
	for _, tok := range keywordPattern.FindAllString(allText, -1) {
		n := utf8.RuneCountInString(tok)
		if n < keywordMinLength || n > keywordMaxLength {
			continue
		}
		tok = strings.ToLower(tok)
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		info.keywords = append(info.keywords, tok)
	}

	return info
}

// fromFileName returns the cleaned name, its transforms, and the name
// wrapped in the leading prefixes and suffixes.
func (m *ContextualMode) fromFileName(name string) []string {
	clean := nonAlnumPattern.ReplaceAllString(name, "")
	if runeLen(clean) < keywordMinLength {
		return nil
	}

	out := []string{clean}
	if m.opts.IncludeTransformations {
		out = append(out, transformations(clean)...)
	}
	for _, prefix := range contextPrefixes[:5] {
		for _, suffix := range contextSuffixes[:10] {
			if prefix == "" && suffix == "" {
				continue
			}
			combined := prefix + clean + suffix
			if n := runeLen(combined); n >= contextualMinLength && n <= contextualMaxLength {
				out = append(out, combined)
			}
		}
	}
	return out
}

func (m *ContextualMode) fromPathComponent(component string) []string {
	clean := nonAlnumPattern.ReplaceAllString(component, "")
	n := runeLen(clean)
	if n < keywordMinLength || n > componentMaxLength {
		return nil
	}
	out := []string{clean}
	if hasHan(clean) {
		out = append(out, toPinyin(clean))
	}
	if m.opts.IncludeTransformations {
		out = append(out, transformations(clean)...)
	}
	return out
}

func (m *ContextualMode) fromOrganization(org string) []string {
	clean := strings.ToLower(nonLatinPattern.ReplaceAllString(org, ""))
	if len(clean) < keywordMinLength {
		return nil
	}
	out := []string{
		clean,
		clean + "123",
		clean + "2024",
		clean + "!",
		"my" + clean,
		clean + "pass",
		clean + "pwd",
	}
	if m.opts.IncludeTransformations {
		out = append(out, transformations(clean)...)
	}
	return out
}

// fromPersonName romanises Han names and derives initials-based variants
// of Latin names.
func fromPersonName(name string) []string {
	out := make([]string, 0, 12)

	if hasHan(name) {
		py := toPinyin(name)
		if runeLen(py) >= keywordMinLength {
			out = append(out, py, py+"123", py+"888", py+"2024")
		}
	}

	latin := strings.ToLower(nonLetterPattern.ReplaceAllString(name, ""))
	if len(strings.TrimSpace(latin)) >= keywordMinLength {
		parts := strings.Fields(latin)
		full := strings.Join(parts, "")
		out = append(out, full, titleWords(latin))
		if len(parts) >= 2 {
			first, last := parts[0], parts[len(parts)-1]
			out = append(out, first+last[:1], last+first[:1])
		}
		for _, suffix := range []string{"123", "321", "888", "2024", "!"} {
			out = append(out, full+suffix)
		}
	}

	return out
}

// fromDate returns the digits of a date string and its year in four- and
// two-digit form.
func fromDate(date string) []string {
	out := []string{nonDigitPattern.ReplaceAllString(date, "")}
	if y := yearInName.FindString(date); y != "" {
		out = append(out, y, y[2:])
	}
	return out
}

// combinations joins the top keywords pairwise with the first three connectors.
func (m *ContextualMode) combinations(keywords []string) []string {
	if len(keywords) > m.opts.TopKeywords {
		keywords = keywords[:m.opts.TopKeywords]
	}

	out := make([]string, 0, m.opts.MaxCombinations)
	for i := 0; i < len(keywords) && len(out) < m.opts.MaxCombinations; i++ {
		for j := i + 1; j < len(keywords) && len(out) < m.opts.MaxCombinations; j++ {
			w1, w2 := keywords[i], keywords[j]
			if runeLen(w1) < keywordMinLength || runeLen(w2) < keywordMinLength {
				continue
			}
			for _, conn := range contextConnectors[:3] {
				combined := w1 + conn + w2
				if n := runeLen(combined); n >= combinationMinLength && n <= contextualMaxLength {
					out = append(out, combined)
				}
			}
		}
	}
	return out
}

// transformations returns the leet, capitalized, upper-case and alternating
// variants of text that differ from it and have at least four characters.
func transformations(text string) []string {
	variants := make([]string, 0, 4)
	if l := leet(text); l != text {
		variants = append(variants, l)
	}
	variants = append(variants, capitalize(text), strings.ToUpper(text))
	if runeLen(text) > 2 {
		variants = append(variants, alternating(text))
	}

	out := variants[:0]
	for _, v := range variants {
		if v != text && runeLen(v) >= contextualMinLength {
			out = append(out, v)
		}
	}
	return out
}
