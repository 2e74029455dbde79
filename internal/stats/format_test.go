package stats

import (
	"testing"
	"time"
)

func TestFormatSpeed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want string
	}{
		{in: 0, want: "0 pwd/s"},
		{in: 999.4, want: "999 pwd/s"},
		{in: 1000, want: "1.0K pwd/s"},
		{in: 15300, want: "15.3K pwd/s"},
		{in: 2_500_000, want: "2.5M pwd/s"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			if got := FormatSpeed(tt.in); got != tt.want {
				t.Errorf("FormatSpeed(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   time.Duration
		want string
	}{
		{in: 0, want: "< 1s"},
		{in: 500 * time.Millisecond, want: "< 1s"},
		{in: 42 * time.Second, want: "42s"},
		{in: 4*time.Minute + 10*time.Second, want: "4m 10s"},
		{in: time.Hour + 5*time.Minute + 59*time.Second, want: "1h 5m"},
		{in: 51 * time.Hour, want: "2d 3h"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			if got := FormatDuration(tt.in); got != tt.want {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   int64
		want string
	}{
		{in: 0, want: "0"},
		{in: 999, want: "999"},
		{in: 1500, want: "1.5K"},
		{in: 1_260_000, want: "1.3M"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			if got := FormatNumber(tt.in); got != tt.want {
				t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
