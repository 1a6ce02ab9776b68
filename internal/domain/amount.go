package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseAmount accepts the textual form of a JSON number and returns it as a
// positive integer amount. Fractions, exponents that do not resolve to an
// integer, NaN/Inf and values <= 0 are rejected with ErrInvalidAmount.
func ParseAmount(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("ParseAmount: empty: %w", ErrInvalidAmount)
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("ParseAmount: %d: %w", n, ErrInvalidAmount)
		}
		return n, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("ParseAmount: %q: %w", raw, ErrInvalidAmount)
	}
	if f != math.Trunc(f) || f <= 0 || f > math.MaxInt64/2 {
		return 0, fmt.Errorf("ParseAmount: %q: %w", raw, ErrInvalidAmount)
	}
	return int64(f), nil
}
