package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parsePair splits specs like "80x46" or "1:-1" into two ints using the
// given separator.
func parsePair(spec, sep string) (int, int, error) {
	first, second, ok := strings.Cut(spec, sep)
	if !ok {
		return 0, 0, fmt.Errorf("invalid spec %q", spec)
	}
	a, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid spec %q", spec)
	}
	b, err := strconv.Atoi(strings.TrimSpace(second))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid spec %q", spec)
	}
	return a, b, nil
}

// parseGrid understands "<cols>x<rows>" and the shorthand "<n>" for a square
// n x n grid.
func parseGrid(spec string) (cols, rows int, err error) {
	if !strings.Contains(spec, "x") {
		n, convErr := strconv.Atoi(strings.TrimSpace(spec))
		if convErr != nil {
			return 0, 0, fmt.Errorf("invalid grid spec %q", spec)
		}
		return n, n, nil
	}
	return parsePair(spec, "x")
}

// parseScroll turns the --scroll flag value into an enable flag and a step
// delay. The empty string means scrolling is off.
func parseScroll(spec string) (bool, time.Duration, error) {
	if spec == "" {
		return false, 0, nil
	}
	ms, err := strconv.Atoi(strings.TrimSpace(spec))
	if err != nil || ms < 0 {
		return false, 0, fmt.Errorf("invalid scroll delay %q: want milliseconds", spec)
	}
	return true, time.Duration(ms) * time.Millisecond, nil
}
