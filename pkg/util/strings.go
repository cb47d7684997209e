package util

import (
	"strconv"
	"strings"
)

// ParseFloat accepts plain decimals and tolerates surrounding spaces and "_" or "," digit grouping.
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.NewReplacer(",", "", "_", "").Replace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
