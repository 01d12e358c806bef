package observability

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultWindow is the metrics window used when none is given.
const DefaultWindow = "7d"

// ParseSince turns a window such as "7d", "30d" or "24h" into the matching
// instant before now. An empty window means DefaultWindow.
func ParseSince(window string, now time.Time) (time.Time, error) {
	s := strings.TrimSpace(window)
	if s == "" {
		s = DefaultWindow
	}

	switch {
	case strings.HasSuffix(s, "d"):
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid day duration %q", s)
		}
		return now.AddDate(0, 0, -days), nil
	case strings.HasSuffix(s, "h"):
		hours, err := strconv.Atoi(strings.TrimSuffix(s, "h"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid hour duration %q", s)
		}
		return now.Add(-time.Duration(hours) * time.Hour), nil
	}
	return time.Time{}, fmt.Errorf("unsupported duration format %q (use e.g. 7d, 30d, 24h)", s)
}
