package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/nao1215/arcrack/internal/model"
)

// DefaultKeyboardMaxVariants is the default output cap of the keyboard mode.
const DefaultKeyboardMaxVariants = 30000

// qwertyNeighbors maps every key of a QWERTY layout to its physical neighbors.
var qwertyNeighbors = map[byte]string{
	'1': "2q", '2': "13qw", '3': "24we", '4': "35er", '5': "46rt",
	'6': "57ty", '7': "68yu", '8': "79ui", '9': "80io", '0': "9op",

	'q': "12wa", 'w': "23qeas", 'e': "34wrsd", 'r': "45etdf", 't': "56ryfg",
	'y': "67tugh", 'u': "78yihj", 'i': "89uojk", 'o': "90ipkl", 'p': "0ol",

	'a': "qwsz", 's': "weadzx", 'd': "ersfxc", 'f': "rtdgcv", 'g': "tyfhvb",
	'h': "yugjbn", 'j': "uihknm", 'k': "iojlm", 'l': "opk",

	'z': "asx", 'x': "sdzc", 'c': "dfxv", 'v': "fgcb", 'b': "ghvn",
	'n': "hjbm", 'm': "jkn",
}

// numpadNeighbors maps numeric keypad keys to their neighbors.
var numpadNeighbors = map[byte]string{
	'7': "48", '8': "759", '9': "86",
	'4': "715", '5': "4826", '6': "593",
	'1': "42", '2': "153", '3': "26",
}

// shiftMap holds the character produced by each key with Shift held.
var shiftMap = map[rune]rune{
	'1': '!', '2': '@', '3': '#', '4': '$', '5': '%',
	'6': '^', '7': '&', '8': '*', '9': '(', '0': ')',
}

// walkStartKeys are the keys walks start from, in order.
const walkStartKeys = "qwertyuiopasdfghjklzxcvbnm1234567890"

// canonicalWalks are real-world keyboard passwords emitted verbatim before
// any graph exploration.
var canonicalWalks = []string{
	// rows
	"qwerty", "qwertyui", "asdf", "asdfgh", "zxcv", "zxcvbn", "yuiop", "hjkl", "nm",
	// columns
	"qaz", "wsx", "edc", "rfv", "tgb", "yhn", "ujm", "ik", "ol",
	// diagonals
	"qwe", "asd", "zxc", "wer", "sdf", "xcv", "ert", "dfg", "cvb",
	// number row
	"123", "1234", "12345", "123456", "1234567", "12345678", "123456789", "1234567890",
	"098", "0987", "09876", "098765", "0987654", "09876543", "098765432", "0987654321",
	// common walks
	"qwer", "p",
	// reversed
	"trewq", "fdsa", "vcxz", "zaq", "xsw", "cde",
	// shapes
	"qweasd", "qazwsx", "plokij", "mnbvcx",
}

// canonicalNumpadWalks are numpad lines and shapes.
var canonicalNumpadWalks = []string{
	"147", "258", "369", "159", "357", "741", "852", "963", "951", "753",
	"1472", "2583", "3694", "1596", "3574", "7412", "8523", "9634",
}

// KeyboardOptions configures a KeyboardWalkMode.
type KeyboardOptions struct {
	// MinLength and MaxLength bound walk length.
	MinLength int
	MaxLength int

	// MaxVariants caps the number of candidates.
	MaxVariants int

	// IncludeShifted adds Shift and mixed-case variants of each walk.
	IncludeShifted bool

	// IncludeReverse adds the reversed walk.
	IncludeReverse bool

	// WalksPerKey caps the walks explored from one start key for one length.
	WalksPerKey int
}

// DefaultKeyboardOptions returns the default keyboard mode options.
func DefaultKeyboardOptions() KeyboardOptions {
	return KeyboardOptions{
		MinLength:      4,
		MaxLength:      12,
		MaxVariants:    DefaultKeyboardMaxVariants,
		IncludeShifted: true,
		IncludeReverse: true,
		WalksPerKey:    20,
	}
}

// KeyboardWalkMode generates walks over adjacent keys.
type KeyboardWalkMode struct {
	baseMode
	opts KeyboardOptions
}

// NewKeyboardWalkMode creates a keyboard mode.
func NewKeyboardWalkMode(opts KeyboardOptions) *KeyboardWalkMode {
	def := DefaultKeyboardOptions()
	if opts.MinLength <= 0 {
		opts.MinLength = def.MinLength
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = def.MaxLength
	}
	if opts.WalksPerKey <= 0 {
		opts.WalksPerKey = def.WalksPerKey
	}
	m := &KeyboardWalkMode{opts: opts}
	m.maxVariants = opts.MaxVariants
	if m.maxVariants <= 0 {
		m.maxVariants = DefaultKeyboardMaxVariants
	}
	return m
}

// Name returns "keyboard".
func (m *KeyboardWalkMode) Name() string { return ModeKeyboard }

// Generate emits canonical patterns first, then graph walks from every
// start key for every length, then numpad walks. Each walk is followed
// by its enabled transforms.
func (m *KeyboardWalkMode) Generate(ctx context.Context, _ model.GenerationContext) ([]string, error) {
	if m.opts.MinLength > m.opts.MaxLength {
		return nil, fmt.Errorf("%w: %d > %d", ErrInvalidLengthRange, m.opts.MinLength, m.opts.MaxLength)
	}

	set := newCandidateSet(m.opts.MinLength, m.opts.MaxLength, m.maxVariants)

	for _, w := range canonicalWalks {
		if set.full() {
			break
		}
		m.addWithTransforms(set, w)
	}

	for i := 0; i < len(walkStartKeys) && !set.full(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for length := m.opts.MinLength; length <= m.opts.MaxLength && !set.full(); length++ {
			for _, w := range walksFrom(qwertyNeighbors, walkStartKeys[i], length, m.opts.WalksPerKey) {
				if set.full() {
					break
				}
				m.addWithTransforms(set, w)
			}
		}
	}

	set.addAll(numpadWalks(m.opts.MinLength))

	return set.list(), nil
}

func (m *KeyboardWalkMode) addWithTransforms(set *candidateSet, walk string) {
	set.add(walk)
	if m.opts.IncludeReverse {
		set.add(reverse(walk))
	}
	if m.opts.IncludeShifted {
		set.add(shift(walk))
		for _, v := range mixedCase(walk) {
			set.add(v)
		}
	}
}

// walksFrom returns up to limit walks of exactly length keys starting at
// start, in depth-first order. A walk never steps straight back to the
// key it just left.
func walksFrom(graph map[byte]string, start byte, length, limit int) []string {
	walks := make([]string, 0, limit)
	path := make([]byte, 1, length)
	path[0] = start

	var dfs func()
	dfs = func() {
		if len(walks) >= limit {
			return
		}
		if len(path) == length {
			walks = append(walks, string(path))
			return
		}
		current := path[len(path)-1]
		var previous byte
		if len(path) > 1 {
			previous = path[len(path)-2]
		}
		for i := 0; i < len(graph[current]); i++ {
			next := graph[current][i]
			if next == previous {
				continue
			}
			path = append(path, next)
			dfs()
			path = path[:len(path)-1]
			if len(walks) >= limit {
				return
			}
		}
	}
	dfs()

	return walks
}

// numpadWalks follows the first neighbor from every numpad key, keeping
// prefixes of at least minLength keys, then appends the canonical numpad
// patterns.
func numpadWalks(minLength int) []string {
	walks := make([]string, 0, 64)
	for start := byte('1'); start <= '9'; start++ {
		current := start
		walk := []byte{start}
		for i := 1; i < 6; i++ {
			neighbors := numpadNeighbors[current]
			if neighbors == "" {
				break
			}
			current = neighbors[0]
			walk = append(walk, current)
			if len(walk) >= minLength {
				walks = append(walks, string(walk))
			}
		}
	}
	return append(walks, canonicalNumpadWalks...)
}

// shift returns walk as typed with Shift held.
func shift(walk string) string {
	return strings.Map(func(r rune) rune {
		if s, ok := shiftMap[r]; ok {
			return s
		}
		if r >= 'a' && r <= 'z' {
			return r - 'a' + 'A'
		}
		return r
	}, walk)
}

// mixedCase returns capitalized, upper-case and alternating variants of s
// that differ from s.
func mixedCase(s string) []string {
	if s == "" {
		return nil
	}
	variants := []string{capitalize(s), strings.ToUpper(s)}
	if runeLen(s) > 2 {
		variants = append(variants, alternating(s))
	}
	out := variants[:0]
	for _, v := range variants {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
