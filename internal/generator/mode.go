package generator

import (
	"context"
	"unicode/utf8"

	"github.com/nao1215/arcrack/internal/model"
)

// Mode names used by the orchestrator's priority tables.
const (
	ModeSocial     = "social"
	ModeLearned    = "learned"
	ModeDate       = "date"
	ModeKeyboard   = "keyboard"
	ModeDictionary = "dictionary"
	ModeNeural     = "neural"
)

// AttackMode is one named candidate-generation strategy.
//
// An AttackMode is constructed once per job. The orchestrator may change
// its variant cap before each Generate call; apart from that a mode keeps
// no state between calls, so the same context yields the same output.
type AttackMode interface {
	// Name returns the mode name used in priority tables and reports.
	Name() string

	// Generate returns at most MaxVariants distinct candidates for the
	// given archive context. An empty context is valid input.
	Generate(ctx context.Context, gc model.GenerationContext) ([]string, error)

	// MaxVariants returns the current output cap.
	MaxVariants() int

	// SetMaxVariants changes the output cap. Values below 1 are ignored.
	SetMaxVariants(n int)
}

// Every candidate handed to an oracle is between MinCandidateLength and
// MaxCandidateLength runes long.
const (
	MinCandidateLength = 1
	MaxCandidateLength = 20
)

// ValidLength reports whether c is within the candidate length bounds.
func ValidLength(c string) bool {
	n := runeLen(c)
	return n >= MinCandidateLength && n <= MaxCandidateLength
}

// candidateSet is an insertion-ordered set of candidates with length
// bounds and an optional size limit.
type candidateSet struct {
	items    []string
	seen     map[string]struct{}
	minLen   int
	maxLen   int
	limit    int
	rejected int
}

func newCandidateSet(minLen, maxLen, limit int) *candidateSet {
	capacity := limit
	if capacity <= 0 || capacity > 4096 {
		capacity = 4096
	}
	return &candidateSet{
		items:  make([]string, 0, capacity),
		seen:   make(map[string]struct{}, capacity),
		minLen: minLen,
		maxLen: maxLen,
		limit:  limit,
	}
}

// add inserts c when it fits the length bounds, is new and the set is not
// full. It reports whether c was inserted.
func (s *candidateSet) add(c string) bool {
	if s.full() {
		return false
	}
	n := utf8.RuneCountInString(c)
	if c == "" || n < s.minLen || (s.maxLen > 0 && n > s.maxLen) {
		s.rejected++
		return false
	}
	if _, ok := s.seen[c]; ok {
		return false
	}
	s.seen[c] = struct{}{}
	s.items = append(s.items, c)
	return true
}

// addAll inserts every candidate in order and stops once the set is full.
func (s *candidateSet) addAll(cs []string) {
	for _, c := range cs {
		if s.full() {
			return
		}
		s.add(c)
	}
}

func (s *candidateSet) full() bool {
	return s.limit > 0 && len(s.items) >= s.limit
}

func (s *candidateSet) len() int {
	return len(s.items)
}

func (s *candidateSet) list() []string {
	return s.items
}

// baseMode holds the variant cap shared by every built-in mode.
type baseMode struct {
	maxVariants int
}

// MaxVariants returns the current output cap.
func (b *baseMode) MaxVariants() int {
	return b.maxVariants
}

// SetMaxVariants changes the output cap. Values below 1 are ignored.
func (b *baseMode) SetMaxVariants(n int) {
	if n > 0 {
		b.maxVariants = n
	}
}
