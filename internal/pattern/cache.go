package pattern

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/arcrack/internal/database"
	"github.com/nao1215/arcrack/internal/metrics"
	"github.com/nao1215/arcrack/internal/model"
)

// Default cache settings.
const (
	DefaultMaxPatterns          = 5000
	DefaultTTL                  = 168 * time.Hour
	DefaultMinOccurrence        = 3
	DefaultSimilarityThreshold  = 0.7
	DefaultMaxMatchResults      = 100
	DefaultMaxGeneratedVariants = 50
	DefaultSweepInterval        = time.Hour
)

// Options tune the cache.
type Options struct {
	// MaxPatterns bounds the cache; the least confident patterns are evicted first.
	MaxPatterns int

	// TTL evicts patterns not seen for this long.
	TTL time.Duration

	// MinOccurrence evicts patterns seen fewer times once they are older than TTL/2.
	MinOccurrence int

	// SimilarityThreshold is the minimum normalized similarity of a fuzzy match.
	SimilarityThreshold float64

	MaxMatchResults      int
	MaxGeneratedVariants int
	SweepInterval        time.Duration
}

// DefaultOptions returns the default cache settings.
func DefaultOptions() Options {
	return Options{
		MaxPatterns:          DefaultMaxPatterns,
		TTL:                  DefaultTTL,
		MinOccurrence:        DefaultMinOccurrence,
		SimilarityThreshold:  DefaultSimilarityThreshold,
		MaxMatchResults:      DefaultMaxMatchResults,
		MaxGeneratedVariants: DefaultMaxGeneratedVariants,
		SweepInterval:        DefaultSweepInterval,
	}
}

// Store persists patterns. *database.StateDB implements it.
type Store interface {
	UpsertPatterns(ctx context.Context, records []database.PatternRecord) error
	ListPatterns(ctx context.Context, patternType string) ([]database.PatternRecord, error)
	DeletePatternsNotIn(ctx context.Context, keep []string) (int, error)
}

// Statistics summarize the cache.
type Statistics struct {
	TotalPatterns     int          `json:"totalPatterns"`
	AverageConfidence float64      `json:"averageConfidence"`
	TypeDistribution  map[Type]int `json:"typeDistribution"`
	TotalMatches      int          `json:"totalMatches"`
	SuccessfulMatches int          `json:"successfulMatches"`
	LastSweep         time.Time    `json:"lastSweep,omitempty"`
}

// Cache holds learned patterns.
type Cache struct {
	opts    Options
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu       sync.RWMutex
	patterns map[string]*Pattern
	index    map[Type]map[string]struct{}

	totalMatches      int
	successfulMatches int
	lastSweep         time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithStore persists learned patterns.
func WithStore(s Store) Option {
	return func(c *Cache) {
		c.store = s
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithMetrics counts learned observations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache creates an empty cache. Zero fields of opts take their defaults.
func NewCache(opts Options, copts ...Option) *Cache {
	def := DefaultOptions()
	if opts.MaxPatterns <= 0 {
		opts.MaxPatterns = def.MaxPatterns
	}
	if opts.TTL <= 0 {
		opts.TTL = def.TTL
	}
	if opts.MinOccurrence <= 0 {
		opts.MinOccurrence = def.MinOccurrence
	}
	if opts.SimilarityThreshold <= 0 {
		opts.SimilarityThreshold = def.SimilarityThreshold
	}
	if opts.MaxMatchResults <= 0 {
		opts.MaxMatchResults = def.MaxMatchResults
	}
	if opts.MaxGeneratedVariants <= 0 {
		opts.MaxGeneratedVariants = def.MaxGeneratedVariants
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = def.SweepInterval
	}

	c := &Cache{
		opts:     opts,
		now:      time.Now,
		patterns: make(map[string]*Pattern),
		index:    make(map[Type]map[string]struct{}),
	}
	for _, opt := range copts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Load replaces the in-memory patterns with the stored ones.
// Records that cannot be decoded are skipped.
func (c *Cache) Load(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	records, err := c.store.ListPatterns(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to load patterns: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.patterns = make(map[string]*Pattern, len(records))
	for _, r := range records {
		var p Pattern
		if err := json.Unmarshal(r.Record, &p); err != nil {
			c.logger.Warn("skipping corrupted pattern record", "id", r.ID, "error", err)
			continue
		}
		p.ID = r.ID
		c.patterns[p.ID] = &p
	}
	c.rebuildIndexLocked()

	c.logger.Debug("patterns loaded", "count", len(c.patterns))
	return nil
}

// LearnFromSuccess records the features of a confirmed password. A feature
// seen again raises its count by one and its confidence by 0.05, up to
// MaxConfidence. It returns the number of distinct features observed.
func (c *Cache) LearnFromSuccess(ctx context.Context, password string, gc model.GenerationContext) (int, error) {
	obs := extract(password, gc)
	if len(obs) == 0 {
		return 0, nil
	}

	summary := ContextSummary{
		FileName:  gc.FileName,
		Extension: gc.Extension(),
		SizeClass: SizeClass(gc.FileSize),
	}
	now := c.now()

	c.mu.Lock()
	touched := make([]*Pattern, 0, len(obs))
	seen := make(map[string]bool, len(obs))
	for _, o := range obs {
		id := ID(o.typ, o.key)
		if seen[id] {
			continue
		}
		seen[id] = true

		p, ok := c.patterns[id]
		if ok {
			p.Count++
			p.LastSeen = now
			p.Confidence = min(MaxConfidence, p.Confidence+0.05)
		} else {
			p = &Pattern{
				ID:         id,
				Type:       o.typ,
				Key:        o.key,
				Value:      o.value,
				Confidence: baseConfidence[o.typ],
				Count:      1,
				Created:    now,
				LastSeen:   now,
			}
			c.patterns[id] = p
			c.indexLocked(p)
		}
		p.Contexts = appendContext(p.Contexts, summary)
		touched = append(touched, p)
	}
	evicted := c.enforceLimitLocked()

	records, err := toRecords(touched)
	c.mu.Unlock()
	if err != nil {
		return 0, err
	}

	c.metrics.AddPatternsLearned(len(touched))
	c.logger.Debug("learned patterns", "observed", len(touched), "evicted", evicted)

	if c.store != nil {
		if err := c.store.UpsertPatterns(ctx, records); err != nil {
			return len(touched), fmt.Errorf("failed to persist patterns: %w", err)
		}
		if evicted > 0 {
			if err := c.persistIDs(ctx); err != nil {
				return len(touched), err
			}
		}
	}
	return len(touched), nil
}

func appendContext(list []ContextSummary, s ContextSummary) []ContextSummary {
	if s == (ContextSummary{}) {
		return list
	}
	list = append(list, s)
	if len(list) > maxContexts {
		list = list[len(list)-maxContexts:]
	}
	return list
}

// FindMatchingPatterns returns the patterns relevant to gc, most
// confident first, at most MaxMatchResults of them. Matches are the union
// of exact key matches, patterns learned on archives of the same type or
// size class, and fuzzy matches of file names and keywords. When none of
// these match, the most confident generative patterns are returned.
func (c *Cache) FindMatchingPatterns(gc model.GenerationContext) []Pattern {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalMatches++

	matched := make(map[string]*Pattern)

	for _, k := range contextKeys(gc) {
		if p, ok := c.patterns[ID(k.typ, k.key)]; ok {
			matched[p.ID] = p
		}
	}

	ext := gc.Extension()
	sizeClass := SizeClass(gc.FileSize)
	for _, p := range c.patterns {
		if !p.Type.Generative() {
			continue
		}
		for _, s := range p.Contexts {
			if (ext != "" && s.Extension == ext) || (sizeClass != "" && s.SizeClass == sizeClass) {
				matched[p.ID] = p
				break
			}
		}
	}

	tokens := contextTokens(gc)
	if len(tokens) > 0 {
		for _, t := range []Type{TypeFileName, TypeWord} {
			for id := range c.index[t] {
				p := c.patterns[id]
				for _, tok := range tokens {
					if Similarity(p.Value, tok) >= c.opts.SimilarityThreshold {
						matched[p.ID] = p
						break
					}
				}
			}
		}
	}

	if len(matched) == 0 {
		for _, p := range c.patterns {
			if p.Type.Generative() {
				matched[p.ID] = p
			}
		}
	}

	out := make([]Pattern, 0, len(matched))
	for _, p := range matched {
		out = append(out, clonePattern(p))
	}
	sortPatterns(out)
	if len(out) > c.opts.MaxMatchResults {
		out = out[:c.opts.MaxMatchResults]
	}

	if len(out) > 0 {
		c.successfulMatches++
	}
	return out
}

// contextKeys returns the pattern keys a context can match exactly.
func contextKeys(gc model.GenerationContext) []observation {
	var keys []observation
	add := func(t Type, key string) {
		keys = append(keys, observation{typ: t, key: key})
	}

	base := strings.ToLower(gc.BaseName())
	if base != "" {
		add(TypeFileName, "fn:"+base)
		for _, n := range digitRun.FindAllString(base, -1) {
			add(TypeFileNumber, "fnum:"+n)
			if len(n) == 4 {
				add(TypeYear, "year:"+n)
			}
		}
	}
	if class := SizeClass(gc.FileSize); class != "" {
		add(TypeFileSize, "fsize:"+class)
	}
	if ext := gc.Extension(); ext != "" {
		add(TypeFileType, "ftype:"+ext)
	}
	if gc.HasCreated() {
		add(TypeYear, fmt.Sprintf("year:%04d", gc.Created.Year()))
	}
	for _, d := range gc.Dates {
		add(TypeYear, fmt.Sprintf("year:%04d", d.Year()))
	}
	for _, k := range gc.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			add(TypeWord, "word:"+k)
		}
	}
	return keys
}

// contextTokens returns the lower-cased name and keyword tokens compared
// by fuzzy matching.
func contextTokens(gc model.GenerationContext) []string {
	var tokens []string
	if base := strings.ToLower(gc.BaseName()); base != "" {
		tokens = append(tokens, base)
		for _, f := range strings.FieldsFunc(base, func(r rune) bool {
			return r == '_' || r == '-' || r == '.' || r == ' '
		}) {
			if f != base && len([]rune(f)) >= 3 {
				tokens = append(tokens, f)
			}
		}
	}
	for _, k := range gc.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			tokens = append(tokens, k)
		}
	}
	return tokens
}

// Sweep evicts patterns not seen within TTL, and patterns seen fewer than
// MinOccurrence times that are older than TTL/2. It then enforces
// MaxPatterns, rebuilds the type index and removes evicted patterns from
// the store. It returns the number of evicted patterns.
func (c *Cache) Sweep(ctx context.Context) (int, error) {
	now := c.now()

	c.mu.Lock()
	removed := 0
	for id, p := range c.patterns {
		if now.Sub(p.LastSeen) > c.opts.TTL ||
			(p.Count < c.opts.MinOccurrence && now.Sub(p.Created) > c.opts.TTL/2) {
			delete(c.patterns, id)
			removed++
		}
	}
	removed += c.enforceLimitLocked()
	c.rebuildIndexLocked()
	c.lastSweep = now
	c.mu.Unlock()

	if removed > 0 {
		c.logger.Info("swept expired patterns", "count", removed)
	}
	if c.store != nil {
		if err := c.persistIDs(ctx); err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// Run sweeps the cache every SweepInterval until ctx is cancelled.
func (c *Cache) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := c.Sweep(ctx); err != nil {
				c.logger.Warn("pattern sweep failed", "error", err)
			}
		}
	}
}

// persistIDs deletes stored patterns that are no longer cached.
func (c *Cache) persistIDs(ctx context.Context) error {
	c.mu.RLock()
	keep := make([]string, 0, len(c.patterns))
	for id := range c.patterns {
		keep = append(keep, id)
	}
	c.mu.RUnlock()

	if _, err := c.store.DeletePatternsNotIn(ctx, keep); err != nil {
		return fmt.Errorf("failed to delete evicted patterns: %w", err)
	}
	return nil
}

// enforceLimitLocked evicts the least confident, least recently seen
// patterns above MaxPatterns.
func (c *Cache) enforceLimitLocked() int {
	over := len(c.patterns) - c.opts.MaxPatterns
	if over <= 0 {
		return 0
	}
	all := make([]*Pattern, 0, len(c.patterns))
	for _, p := range c.patterns {
		all = append(all, p)
	}
	slices.SortFunc(all, func(a, b *Pattern) int {
		if n := cmp.Compare(a.Confidence, b.Confidence); n != 0 {
			return n
		}
		return a.LastSeen.Compare(b.LastSeen)
	})
	for _, p := range all[:over] {
		delete(c.patterns, p.ID)
		if ids, ok := c.index[p.Type]; ok {
			delete(ids, p.ID)
		}
	}
	return over
}

func (c *Cache) indexLocked(p *Pattern) {
	ids, ok := c.index[p.Type]
	if !ok {
		ids = make(map[string]struct{})
		c.index[p.Type] = ids
	}
	ids[p.ID] = struct{}{}
}

func (c *Cache) rebuildIndexLocked() {
	c.index = make(map[Type]map[string]struct{})
	for _, p := range c.patterns {
		c.indexLocked(p)
	}
}

// Len returns the number of cached patterns.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.patterns)
}

// Get returns the pattern with the given id.
func (c *Cache) Get(id string) (Pattern, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.patterns[id]
	if !ok {
		return Pattern{}, false
	}
	return clonePattern(p), true
}

// List returns the patterns of type t, or every pattern when t is empty,
// most confident first.
func (c *Cache) List(t Type) []Pattern {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Pattern, 0)
	if t == "" {
		for _, p := range c.patterns {
			out = append(out, clonePattern(p))
		}
	} else {
		for id := range c.index[t] {
			out = append(out, clonePattern(c.patterns[id]))
		}
	}
	sortPatterns(out)
	return out
}

// Statistics returns a summary of the cache.
func (c *Cache) Statistics() Statistics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Statistics{
		TotalPatterns:     len(c.patterns),
		TypeDistribution:  make(map[Type]int),
		TotalMatches:      c.totalMatches,
		SuccessfulMatches: c.successfulMatches,
		LastSweep:         c.lastSweep,
	}
	total := 0.0
	for _, p := range c.patterns {
		s.TypeDistribution[p.Type]++
		total += p.Confidence
	}
	if len(c.patterns) > 0 {
		s.AverageConfidence = total / float64(len(c.patterns))
	}
	return s
}

func clonePattern(p *Pattern) Pattern {
	out := *p
	out.Contexts = slices.Clone(p.Contexts)
	return out
}

// sortPatterns orders by confidence, then count, then key.
func sortPatterns(ps []Pattern) {
	slices.SortFunc(ps, func(a, b Pattern) int {
		if n := cmp.Compare(b.Confidence, a.Confidence); n != 0 {
			return n
		}
		if n := cmp.Compare(b.Count, a.Count); n != 0 {
			return n
		}
		return cmp.Compare(a.Key, b.Key)
	})
}

func toRecords(ps []*Pattern) ([]database.PatternRecord, error) {
	records := make([]database.PatternRecord, 0, len(ps))
	for _, p := range ps {
		data, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal pattern %s: %w", p.ID, err)
		}
		records = append(records, database.PatternRecord{
			ID:       p.ID,
			Type:     string(p.Type),
			Key:      p.Key,
			Record:   data,
			LastSeen: p.LastSeen,
		})
	}
	return records, nil
}
