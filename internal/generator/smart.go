package generator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/arcrack/internal/model"
)

// Phase is one stage of the SmartIterator.
type Phase int

const (
	// PhaseSingleChar emits single characters. It only runs when the
	// minimum length is 1.
	PhaseSingleChar Phase = iota
	// PhaseDictionary emits dictionary words expanded by the rule engine.
	PhaseDictionary
	// PhaseDates emits full dates in six layouts.
	PhaseDates
	// PhaseKeyboard emits keyboard rows, diagonals and numpad shapes.
	PhaseKeyboard
	// PhaseRepeat emits repeated characters and pairs.
	PhaseRepeat
	// PhaseMarkov emits the Markov walk.
	PhaseMarkov
	// PhaseDone means the iterator is exhausted.
	PhaseDone
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseSingleChar:
		return "single-char"
	case PhaseDictionary:
		return "dictionary"
	case PhaseDates:
		return "dates"
	case PhaseKeyboard:
		return "keyboard"
	case PhaseRepeat:
		return "repeat"
	case PhaseMarkov:
		return "markov"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

const (
	singleChars       = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ!@#$%^&*()_+-=[]{}|;:,.<>?"
	repeatChars       = "abcdefghijklmnopqrstuvwxyz0123456789"
	smartDateFromYear = 1970

	// DefaultMarkovBudget caps the Markov phase.
	DefaultMarkovBudget = 50000
	// DefaultMarkovTopK is the number of successors explored per step.
	DefaultMarkovTopK = 5
	// DefaultSmartMaxVariants is the default output cap of the dictionary mode.
	DefaultSmartMaxVariants = 100000
)

var keyboardRows = []string{"1234567890", "qwertyuiop", "asdfghjkl", "zxcvbnm"}

var keyboardDiagonals = []string{
	"1qaz", "2wsx", "3edc", "4rfv", "5tgb", "6yhn", "7ujm",
	"zaq1", "xsw2", "cde3", "vfr4", "bgt5", "nhy6", "mju7",
	"1qaz2wsx", "2wsx3edc", "3edc4rfv", "qazwsx", "wsxedc", "edcrfv",
}

var numpadShapes = []string{
	"147", "258", "369", "123", "456", "789",
	"147258", "258369", "123456", "456789",
	"147258369", "159357", "951753", "741852963", "963852741", "159753",
}

// SmartOptions configures a SmartIterator.
type SmartOptions struct {
	// MinLength and MaxLength bound every candidate.
	MinLength int
	MaxLength int

	// ExtraWords are tried before the built-in dictionary.
	ExtraWords []string

	// MarkovBudget caps the Markov phase.
	MarkovBudget int

	// MarkovTopK is the number of successors explored at each Markov step.
	MarkovTopK int

	// ReferenceYear anchors year rules and the date phase. Zero means the
	// current year.
	ReferenceYear int
}

// DefaultSmartOptions returns the default iterator options.
func DefaultSmartOptions() SmartOptions {
	return SmartOptions{
		MinLength:    1,
		MaxLength:    8,
		MarkovBudget: DefaultMarkovBudget,
		MarkovTopK:   DefaultMarkovTopK,
	}
}

// SmartIterator is a finite, restartable, lazily produced candidate
// sequence. It runs through the phases in order and never yields the same
// candidate twice. Reset restarts it and the same order is reproduced.
//
// A SmartIterator is not safe for concurrent use.
type SmartIterator struct {
	opts  SmartOptions
	rules RuleEngine

	phase Phase
	seen  map[string]struct{}

	// pending holds candidates produced by the current phase and not yet
	// returned.
	pending []string

	// phase cursors
	cursor int
	date   dateCursor
	markov *markovWalk
}

// NewSmartIterator creates an iterator. Invalid bounds are reported as
// an error.
func NewSmartIterator(opts SmartOptions) (*SmartIterator, error) {
	def := DefaultSmartOptions()
	if opts.MinLength <= 0 {
		opts.MinLength = def.MinLength
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = def.MaxLength
	}
	if opts.MinLength > opts.MaxLength {
		return nil, fmt.Errorf("%w: %d > %d", ErrInvalidLengthRange, opts.MinLength, opts.MaxLength)
	}
	if opts.MarkovBudget <= 0 {
		opts.MarkovBudget = def.MarkovBudget
	}
	if opts.MarkovTopK <= 0 {
		opts.MarkovTopK = def.MarkovTopK
	}
	if opts.ReferenceYear == 0 {
		opts.ReferenceYear = time.Now().Year()
	}

	it := &SmartIterator{
		opts:  opts,
		rules: RuleEngine{ReferenceYear: opts.ReferenceYear},
	}
	it.Reset()
	return it, nil
}

// Reset restarts the sequence from the first phase.
func (it *SmartIterator) Reset() {
	it.seen = make(map[string]struct{}, 1<<14)
	it.pending = it.pending[:0]
	it.cursor = 0
	it.date = dateCursor{year: smartDateFromYear, month: 1, day: 1}
	it.markov = nil
	it.phase = PhaseDictionary
	if it.opts.MinLength == 1 {
		it.phase = PhaseSingleChar
	}
}

// Phase returns the phase the next candidate comes from.
func (it *SmartIterator) Phase() Phase {
	return it.phase
}

// Next returns the next candidate, or false when the sequence is exhausted.
func (it *SmartIterator) Next() (string, bool) {
	for it.phase != PhaseDone {
		for len(it.pending) > 0 {
			c := it.pending[0]
			it.pending = it.pending[1:]
			if it.accept(c) {
				return c, true
			}
		}
		if !it.fill() {
			it.advance()
		}
	}
	return "", false
}

// accept applies the length bounds and the cross-phase seen set.
func (it *SmartIterator) accept(c string) bool {
	n := runeLen(c)
	if n < it.opts.MinLength || n > it.opts.MaxLength {
		return false
	}
	if _, ok := it.seen[c]; ok {
		return false
	}
	it.seen[c] = struct{}{}
	return true
}

// advance moves to the next phase and clears the phase cursor.
func (it *SmartIterator) advance() {
	it.phase++
	it.cursor = 0
	it.pending = it.pending[:0]
}

// fill loads the next chunk of the current phase into pending. It returns
// false when the phase has nothing left.
func (it *SmartIterator) fill() bool {
	switch it.phase {
	case PhaseSingleChar:
		if it.cursor >= len(singleChars) {
			return false
		}
		it.pending = append(it.pending, singleChars[it.cursor:it.cursor+1])
		it.cursor++
		return true

	case PhaseDictionary:
		total := len(it.opts.ExtraWords) + len(commonPasswords)
		if it.cursor >= total {
			return false
		}
		var word string
		if it.cursor < len(it.opts.ExtraWords) {
			word = it.opts.ExtraWords[it.cursor]
		} else {
			word = commonPasswords[it.cursor-len(it.opts.ExtraWords)]
		}
		it.cursor++
		it.pending = append(it.pending, it.rules.Apply(word)...)
		return true

	case PhaseDates:
		batch, ok := it.date.next(it.opts.ReferenceYear)
		if !ok {
			return false
		}
		it.pending = append(it.pending, batch...)
		return true

	case PhaseKeyboard:
		return it.fillFrom(keyboardPatterns())

	case PhaseRepeat:
		return it.fillFrom(repeatPatterns())

	case PhaseMarkov:
		if it.markov == nil {
			it.markov = newMarkovWalk(it.opts.MinLength, it.opts.MaxLength, it.opts.MarkovTopK, it.opts.MarkovBudget)
		}
		c, ok := it.markov.next()
		if !ok {
			return false
		}
		it.pending = append(it.pending, c)
		return true

	default:
		return false
	}
}

// fillFrom loads a precomputed phase list in one step.
func (it *SmartIterator) fillFrom(list []string) bool {
	if it.cursor > 0 {
		return false
	}
	it.cursor = 1
	it.pending = append(it.pending, list...)
	return true
}

// dateCursor walks every year, month and day from 1970 to the reference year.
type dateCursor struct {
	year, month, day int
}

// next returns the six layouts of the current day and advances.
func (d *dateCursor) next(lastYear int) ([]string, bool) {
	if d.year > lastYear {
		return nil, false
	}
	yyyy, yy := strconv.Itoa(d.year), twoDigitYear(d.year)
	mm, dd := pad2(d.month), pad2(d.day)
	batch := []string{
		yyyy + mm + dd,
		dd + mm + yyyy,
		mm + dd + yyyy,
		yy + mm + dd,
		dd + mm + yy,
		mm + dd + yy,
	}

	d.day++
	if d.day > 31 {
		d.day = 1
		d.month++
		if d.month > 12 {
			d.month = 1
			d.year++
		}
	}
	return batch, true
}

// keyboardPatterns returns row slices of length 3 to 8, diagonals in plain
// and upper case, and numpad shapes.
func keyboardPatterns() []string {
	out := make([]string, 0, 256)
	for _, row := range keyboardRows {
		for start := 0; start < len(row); start++ {
			for length := 3; length <= min(8, len(row)-start); length++ {
				out = append(out, row[start:start+length])
			}
		}
	}
	for _, d := range keyboardDiagonals {
		out = append(out, d, strings.ToUpper(d))
	}
	return append(out, numpadShapes...)
}

// repeatPatterns returns runs of one character (3 to 8 long) and pairs
// repeated two to four times.
func repeatPatterns() []string {
	out := make([]string, 0, len(repeatChars)*6+len(repeatChars)*len(repeatChars)*3)
	for i := 0; i < len(repeatChars); i++ {
		for length := 3; length <= 8; length++ {
			out = append(out, strings.Repeat(repeatChars[i:i+1], length))
		}
	}
	for i := 0; i < len(repeatChars); i++ {
		for j := 0; j < len(repeatChars); j++ {
			pair := repeatChars[i:i+1] + repeatChars[j:j+1]
			for n := 2; n <= 4; n++ {
				out = append(out, strings.Repeat(pair, n))
			}
		}
	}
	return out
}

// DictionaryMode adapts a SmartIterator to the AttackMode interface.
type DictionaryMode struct {
	baseMode
	opts SmartOptions
}

// NewDictionaryMode creates a dictionary mode.
func NewDictionaryMode(opts SmartOptions, maxVariants int) *DictionaryMode {
	m := &DictionaryMode{opts: opts}
	m.maxVariants = maxVariants
	if m.maxVariants <= 0 {
		m.maxVariants = DefaultSmartMaxVariants
	}
	return m
}

// Name returns "dictionary".
func (m *DictionaryMode) Name() string { return ModeDictionary }

// Generate pulls up to MaxVariants candidates from a fresh iterator. User
// keywords from the context are tried first as extra dictionary words.
func (m *DictionaryMode) Generate(ctx context.Context, gc model.GenerationContext) ([]string, error) {
	opts := m.opts
	if len(gc.Keywords) > 0 {
		opts.ExtraWords = append(append([]string(nil), gc.Keywords...), opts.ExtraWords...)
	}

	it, err := NewSmartIterator(opts)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, min(m.maxVariants, 4096))
	for len(out) < m.maxVariants {
		if len(out)%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		c, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, c)
	}
	return out, nil
}
