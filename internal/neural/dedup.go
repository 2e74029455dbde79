package neural

// DedupWindow remembers the most recent N distinct strings. Once full, the
// oldest entry is forgotten for every new one, so memory stays bounded and
// a string may reappear after it has left the window.
type DedupWindow struct {
	size int
	ring []string
	next int
	seen map[string]struct{}
}

// NewDedupWindow creates a window holding size entries. size <= 0 means 1.
func NewDedupWindow(size int) *DedupWindow {
	size = max(size, 1)
	return &DedupWindow{
		size: size,
		ring: make([]string, 0, size),
		seen: make(map[string]struct{}, size),
	}
}

// Add records s and reports whether it was new.
func (w *DedupWindow) Add(s string) bool {
	if _, ok := w.seen[s]; ok {
		return false
	}
	if len(w.ring) < w.size {
		w.ring = append(w.ring, s)
	} else {
		delete(w.seen, w.ring[w.next])
		w.ring[w.next] = s
		w.next = (w.next + 1) % w.size
	}
	w.seen[s] = struct{}{}
	return true
}

// Contains reports whether s is in the window.
func (w *DedupWindow) Contains(s string) bool {
	_, ok := w.seen[s]
	return ok
}

// Len returns the number of entries.
func (w *DedupWindow) Len() int { return len(w.ring) }
