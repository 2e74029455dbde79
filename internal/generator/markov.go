package generator

// markovStart lists the first characters of Markov walks, most frequent first.
const markovStart = "asmpcdjbtrklnwefghioqvuxyz1234567890ASMPCDJBTRKLNWEFGHIOQVUXYZ"

// markovFallback is used for characters without a transition row.
const markovFallback = "aeiou0123456789"

// markovTransitions lists the successors of each lower-case character,
// ordered by empirical frequency in leaked password sets.
var markovTransitions = map[byte]string{
	'a': "nrsldtmcbpkgvwyfhijeouxqz123",
	'b': "aeioruylbcstnmwdghjkfpqvxz",
	'c': "aohekiurltycsnmdgbpwfvjqxz",
	'd': "aeioruydsnlmtgcbhkwfpjvqxz",
	'e': "rnsldetamcywbvgpfhikojuxqz",
	'f': "aeioruflstnmwdghjkbcpqvxyz",
	'g': "aeioruglstnmwdhjkbcfpqvxyz",
	'h': "aeioruhlstnmwdgjkbcfpqvxyz",
	'i': "nsetlcaomrdkgbpvfhwjuyxqz",
	'j': "aeioruljstnmwdghkbcfpqvxyz",
	'k': "aeioruklstnmwdghjbcfpqvxyz",
	'l': "aeiolyusdtmnkcbgpwfhrjvqxz",
	'm': "aeiouymnpsbrtdclgkwfhjvqxz",
	'n': "aegiodtsnckyulmrbhwfpjvqxz",
	'o': "nrumlwdstpvcbkgfhyaiejxqz",
	'p': "aeoiruhlpstycnmdgbkwfvjqxz",
	'q': "uaeioqwrtyplkjhgfdszxcvbnm",
	'r': "aeiouyrdstmnlcgkbpwfhjvqxz",
	's': "tseaiouhcpkmlnwybdgfrjvqxz",
	't': "aeiohurtsylncmdbgkwpfvjqxz",
	'u': "nrsldtmcbpkgvwyfhijeoaxqz",
	'v': "aeiouvlstnmwdghjkbcfpqrxyz",
	'w': "aeioruhlwstnmdgjkbcfpqvxyz",
	'x': "aeiouxlstnmwdghjkbcfpqrvyz",
	'y': "aeioruylstnmwdghjkbcfpqvxz",
	'z': "aeioruhlzstnmwdgjkbcfpqvxy",
	'0': "123456789",
	'1': "234567890",
	'2': "013456789",
	'3': "012456789",
	'4': "012356789",
	'5': "012346789",
	'6': "012345789",
	'7': "012345689",
	'8': "012345679",
	'9': "012345678",
}

// markovSuccessors returns the top k successors of c.
func markovSuccessors(c byte, k int) string {
	if c >= 'A' && c <= 'Z' {
		c = c - 'A' + 'a'
	}
	next, ok := markovTransitions[c]
	if !ok {
		next = markovFallback
	}
	if len(next) > k {
		next = next[:k]
	}
	return next
}

// markovWalk lazily expands strings character by character, exploring the
// top k successors at each step. For each length from minLen to maxLen
// and each start character it emits every leaf of the successor tree.
//
// All leaves of one tree sit at the same depth, so a depth-first walk
// emits them in exactly the order a breadth-first queue would, while
// holding only one path in memory.
type markovWalk struct {
	minLen, maxLen int
	topK           int
	budget         int

	emitted  int
	length   int
	startIdx int
	path     []byte
	stack    []markovFrame
}

type markovFrame struct {
	successors string
	next       int
}

func newMarkovWalk(minLen, maxLen, topK, budget int) *markovWalk {
	if minLen < 1 {
		minLen = 1
	}
	return &markovWalk{
		minLen: minLen,
		maxLen: maxLen,
		topK:   topK,
		budget: budget,
		length: minLen,
		path:   make([]byte, 0, maxLen),
	}
}

// next returns the next walk, or false once every tree is exhausted or the
// budget is spent.
func (w *markovWalk) next() (string, bool) {
	for {
		if w.emitted >= w.budget || w.length > w.maxLen {
			return "", false
		}

		if len(w.stack) == 0 {
			root := markovStart[w.startIdx]
			if w.length == 1 {
				w.advanceRoot()
				w.emitted++
				return string(root), true
			}
			w.path = append(w.path[:0], root)
			w.stack = append(w.stack, markovFrame{successors: markovSuccessors(root, w.topK)})
			continue
		}

		top := &w.stack[len(w.stack)-1]
		if top.next >= len(top.successors) {
			w.stack = w.stack[:len(w.stack)-1]
			if len(w.stack) == 0 {
				w.advanceRoot()
				continue
			}
			w.path = w.path[:len(w.path)-1]
			continue
		}

		c := top.successors[top.next]
		top.next++
		w.path = append(w.path, c)

		if len(w.path) == w.length {
			s := string(w.path)
			w.path = w.path[:len(w.path)-1]
			w.emitted++
			return s, true
		}
		w.stack = append(w.stack, markovFrame{successors: markovSuccessors(c, w.topK)})
	}
}

func (w *markovWalk) advanceRoot() {
	w.startIdx++
	if w.startIdx >= len(markovStart) {
		w.startIdx = 0
		w.length++
	}
}
