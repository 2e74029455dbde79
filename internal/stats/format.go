package stats

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// FormatSpeed renders a speed in pwd/s with K and M suffixes.
func FormatSpeed(speed float64) string {
	switch {
	case speed >= 1_000_000:
		return fmt.Sprintf("%.1fM pwd/s", speed/1_000_000)
	case speed >= 1_000:
		return fmt.Sprintf("%.1fK pwd/s", speed/1_000)
	default:
		return fmt.Sprintf("%d pwd/s", int64(math.Round(speed)))
	}
}

// FormatDuration renders d with its two most significant units,
// for example "2d 3h", "1h 5m", "4m 10s" or "42s".
func FormatDuration(d time.Duration) string {
	total := int64(d / time.Second)
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, secs)
	case secs > 0:
		return fmt.Sprintf("%ds", secs)
	default:
		return "< 1s"
	}
}

// FormatNumber renders n with K and M suffixes.
func FormatNumber(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return strconv.FormatInt(n, 10)
	}
}

func formatPercent(p int) string {
	return strconv.Itoa(p) + "%"
}
