package neural

import (
	"cmp"
	"math"
	"math/rand/v2"
	"slices"
)

// Sampler draws one token sequence autoregressively: it feeds the current
// sequence to a logits function, scales the logits by the temperature,
// keeps the TopK most likely tokens, renormalizes and samples. It stops at
// the end token or after MaxLength tokens.
//
// A Sampler is not safe for concurrent use.
type Sampler struct {
	Temperature float64
	TopK        int
	MaxLength   int

	rng *rand.Rand
}

// NewSampler creates a sampler with a deterministic random source.
func NewSampler(temperature float64, topK, maxLength int, seed1, seed2 uint64) *Sampler {
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &Sampler{
		Temperature: temperature,
		TopK:        topK,
		MaxLength:   maxLength,
		rng:         rand.New(rand.NewPCG(seed1, seed2)),
	}
}

// Sample returns the token ids of one sequence, without the end token.
func (s *Sampler) Sample(logits func(seq []int) []float64, endToken int) []int {
	seq := make([]int, 0, s.MaxLength)
	for len(seq) < s.MaxLength {
		l := logits(seq)
		if len(l) == 0 {
			break
		}
		next := s.pick(l)
		if next == endToken {
			break
		}
		seq = append(seq, next)
	}
	return seq
}

// pick samples one index from logits after temperature and top-k.
func (s *Sampler) pick(logits []float64) int {
	probs := softmax(logits, s.Temperature)

	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	if s.TopK > 0 && s.TopK < len(probs) {
		slices.SortStableFunc(idx, func(a, b int) int {
			return cmp.Compare(probs[b], probs[a])
		})
		idx = idx[:s.TopK]
	}

	total := 0.0
	for _, i := range idx {
		total += probs[i]
	}
	if total <= 0 {
		return idx[0]
	}

	r := s.rng.Float64() * total
	acc := 0.0
	for _, i := range idx {
		acc += probs[i]
		if r < acc {
			return i
		}
	}
	return idx[len(idx)-1]
}

// softmax converts logits/temperature to probabilities.
func softmax(logits []float64, temperature float64) []float64 {
	maxLogit := math.Inf(-1)
	for _, l := range logits {
		maxLogit = max(maxLogit, l/temperature)
	}
	probs := make([]float64, len(logits))
	sum := 0.0
	for i, l := range logits {
		e := math.Exp(l/temperature - maxLogit)
		probs[i] = e
		sum += e
	}
	if sum == 0 {
		return probs
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}
