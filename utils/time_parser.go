package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseDuration parses sanction durations. On top of the standard forms
// (30m, 12h) it accepts a day suffix (7d) and a week suffix (2w), which
// moderators use far more often than hours.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	var perUnit time.Duration
	switch {
	case strings.HasSuffix(s, "w"):
		perUnit = 7 * 24 * time.Hour
	case strings.HasSuffix(s, "d"):
		perUnit = 24 * time.Hour
	default:
		return time.ParseDuration(s)
	}

	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return time.Duration(n) * perUnit, nil
}
