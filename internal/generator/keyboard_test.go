package generator

import (
	"context"
	"slices"
	"testing"
	"unicode/utf8"

	"github.com/nao1215/arcrack/internal/model"
)

// TestKeyboardWalkMode_Lengths tests that every candidate fits the bounds.
func TestKeyboardWalkMode_Lengths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		min  int
		max  int
	}{
		{name: "defaults", min: 4, max: 12},
		{name: "short walks", min: 2, max: 4},
		{name: "exact length", min: 6, max: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := DefaultKeyboardOptions()
			opts.MinLength, opts.MaxLength = tt.min, tt.max
			got, err := NewKeyboardWalkMode(opts).Generate(context.Background(), model.GenerationContext{})
			if err != nil {
				t.Fatalf("Generate failed: %v", err)
			}
			if len(got) == 0 {
				t.Fatal("expected candidates")
			}

			seen := make(map[string]bool, len(got))
			for _, c := range got {
				n := utf8.RuneCountInString(c)
				if n < tt.min || n > tt.max {
					t.Errorf("candidate %q has length %d outside [%d,%d]", c, n, tt.min, tt.max)
				}
				if seen[c] {
					t.Errorf("duplicate candidate %q", c)
				}
				seen[c] = true
			}
		})
	}
}

// TestKeyboardWalkMode_CanonicalPatterns tests that canonical walks and
// their transforms appear verbatim.
func TestKeyboardWalkMode_CanonicalPatterns(t *testing.T) {
	t.Parallel()

	opts := DefaultKeyboardOptions()
	opts.MaxVariants = 1 << 20
	got, err := NewKeyboardWalkMode(opts).Generate(context.Background(), model.GenerationContext{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	for _, want := range []string{
		"qwerty", "ytrewq", "QWERTY", "Qwerty", "QwErTy",
		"123456", "!@#$%^", "qazwsx", "1472", "7412",
	} {
		if !slices.Contains(got, want) {
			t.Errorf("expected candidate %q", want)
		}
	}

	if got[0] != "qwerty" {
		t.Errorf("expected canonical patterns first, got %q", got[0])
	}
}

// TestKeyboardWalkMode_Cap tests the variant cap.
func TestKeyboardWalkMode_Cap(t *testing.T) {
	t.Parallel()

	mode := NewKeyboardWalkMode(DefaultKeyboardOptions())
	mode.SetMaxVariants(100)
	got, err := mode.Generate(context.Background(), model.GenerationContext{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(got) != 100 {
		t.Errorf("expected 100 candidates, got %d", len(got))
	}
}

// TestWalksFrom tests graph exploration.
func TestWalksFrom(t *testing.T) {
	t.Parallel()

	walks := walksFrom(qwertyNeighbors, 'q', 4, 20)
	if len(walks) != 20 {
		t.Fatalf("expected 20 walks, got %d", len(walks))
	}
	for _, w := range walks {
		if len(w) != 4 || w[0] != 'q' {
			t.Errorf("unexpected walk %q", w)
		}
		for i := 1; i < len(w); i++ {
			if !slices.Contains([]byte(qwertyNeighbors[w[i-1]]), w[i]) {
				t.Errorf("walk %q steps between non-adjacent keys", w)
			}
			if i > 1 && w[i] == w[i-2] {
				t.Errorf("walk %q steps straight back", w)
			}
		}
	}
}

// TestShift tests the Shift transform.
func TestShift(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "1qaz", want: "!QAZ"},
		{in: "qwerty", want: "QWERTY"},
		{in: "12345", want: "!@#$%"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			if got := shift(tt.in); got != tt.want {
				t.Errorf("shift(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
