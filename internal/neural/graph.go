package neural

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultOrder is the context length of trained graphs.
const DefaultOrder = 3

// GraphModel is a character-level logits graph. For every context of up
// to Order preceding tokens it stores one logit per vocabulary entry.
// Index 0 of Vocab is the end token.
type GraphModel struct {
	Vocab     []string             `json:"vocab"`
	Order     int                  `json:"order"`
	MaxLength int                  `json:"maxLength"`
	Logits    map[string][]float64 `json:"logits"`
}

// EndToken is the vocabulary index that terminates a sequence.
const EndToken = 0

// Validate checks the model for structural errors.
func (m *GraphModel) Validate() error {
	if len(m.Vocab) < 2 {
		return fmt.Errorf("%w: vocabulary needs the end token and at least one symbol", ErrInvalidModel)
	}
	if m.Order < 1 {
		return fmt.Errorf("%w: order must be positive", ErrInvalidModel)
	}
	if _, ok := m.Logits[""]; !ok {
		return fmt.Errorf("%w: missing root context", ErrInvalidModel)
	}
	for ctx, l := range m.Logits {
		if len(l) != len(m.Vocab) {
			return fmt.Errorf("%w: context %q has %d logits for %d symbols", ErrInvalidModel, ctx, len(l), len(m.Vocab))
		}
	}
	return nil
}

// next returns the logits that follow seq, backing off to shorter contexts.
func (m *GraphModel) next(seq []int) []float64 {
	for n := min(m.Order, len(seq)); n >= 0; n-- {
		if l, ok := m.Logits[m.key(seq[len(seq)-n:])]; ok {
			return l
		}
	}
	return m.Logits[""]
}

func (m *GraphModel) key(ids []int) string {
	var b strings.Builder
	for _, id := range ids {
		b.WriteString(m.Vocab[id])
	}
	return b.String()
}

func (m *GraphModel) decode(ids []int) string {
	return m.key(ids)
}

// Train builds a graph from words. Each context's logits are the log of
// add-one smoothed successor counts, so every symbol stays reachable.
func Train(words []string, order, maxLength int) (*GraphModel, error) {
	if order < 1 {
		order = DefaultOrder
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	index := map[string]int{"": EndToken}
	vocab := []string{""}
	for _, w := range words {
		for _, r := range w {
			s := string(r)
			if _, ok := index[s]; !ok {
				index[s] = len(vocab)
				vocab = append(vocab, s)
			}
		}
	}
	if len(vocab) < 2 {
		return nil, fmt.Errorf("%w: no training symbols", ErrInvalidModel)
	}

	counts := make(map[string][]float64)
	observe := func(ctx []string, next int) {
		key := strings.Join(ctx, "")
		c, ok := counts[key]
		if !ok {
			c = make([]float64, len(vocab))
			counts[key] = c
		}
		c[next]++
	}

	for _, w := range words {
		runes := []rune(w)
		if len(runes) == 0 || len(runes) > maxLength {
			continue
		}
		symbols := make([]string, len(runes))
		for i, r := range runes {
			symbols[i] = string(r)
		}
		for i := 0; i <= len(symbols); i++ {
			next := EndToken
			if i < len(symbols) {
				next = index[symbols[i]]
			}
			for n := 0; n <= min(order, i); n++ {
				observe(symbols[i-n:i], next)
			}
		}
	}

	m := &GraphModel{
		Vocab:     vocab,
		Order:     order,
		MaxLength: maxLength,
		Logits:    make(map[string][]float64, len(counts)),
	}
	for key, c := range counts {
		l := make([]float64, len(c))
		for i, n := range c {
			l[i] = math.Log(n + 1)
		}
		m.Logits[key] = l
	}
	if _, ok := m.Logits[""]; !ok {
		return nil, fmt.Errorf("%w: no usable training words", ErrInvalidModel)
	}
	return m, nil
}

// GraphBackend samples candidates from a GraphModel.
type GraphBackend struct {
	name string
	path string

	mu    sync.RWMutex
	model *GraphModel

	seed  uint64
	calls atomic.Uint64
}

// NewGraphBackend creates a backend for the model file at path.
func NewGraphBackend(path string) *GraphBackend {
	return &GraphBackend{name: "graph", path: path, seed: uint64(time.Now().UnixNano())}
}

// NewGraphBackendFromModel creates a loaded backend around an in-memory model.
func NewGraphBackendFromModel(name string, m *GraphModel) *GraphBackend {
	return &GraphBackend{name: name, model: m, seed: uint64(time.Now().UnixNano())}
}

// WithSeed fixes the random seed so output is reproducible.
func (b *GraphBackend) WithSeed(seed uint64) *GraphBackend {
	b.seed = seed
	return b
}

// Name returns the backend name.
func (b *GraphBackend) Name() string { return b.name }

// LoadModel reads and validates the model file. A backend built from an
// in-memory model is already loaded.
func (b *GraphBackend) LoadModel(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.model != nil {
		return nil
	}
	data, err := os.ReadFile(b.path)
	if err != nil {
		return fmt.Errorf("failed to read graph model: %w", err)
	}
	var m GraphModel
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}
	if err := m.Validate(); err != nil {
		return err
	}
	if m.MaxLength <= 0 {
		m.MaxLength = DefaultMaxLength
	}
	b.model = &m
	return nil
}

// GenerateBatch samples count candidates. Empty samples are dropped.
// Each call uses its own random stream so concurrent calls never share state.
func (b *GraphBackend) GenerateBatch(ctx context.Context, count int, temperature float64, topK int) ([]string, error) {
	b.mu.RLock()
	m := b.model
	b.mu.RUnlock()
	if m == nil {
		return nil, ErrModelNotLoaded
	}

	s := NewSampler(temperature, topK, m.MaxLength, b.seed, b.calls.Add(1))
	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return out, err
			}
		}
		if pwd := m.decode(s.Sample(m.next, EndToken)); pwd != "" {
			out = append(out, pwd)
		}
	}
	return out, nil
}

// Close drops the model.
func (b *GraphBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.path != "" {
		b.model = nil
	}
	return nil
}

// SaveModel writes m as JSON to path.
func SaveModel(path string, m *GraphModel) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal graph model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write graph model: %w", err)
	}
	return nil
}
