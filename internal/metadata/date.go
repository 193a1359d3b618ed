package metadata

import (
	"fmt"
	"strings"
	"time"
)

// ParseDate parses a catalog date. Partial dates are padded: "2024" becomes
// 2024-01-01 and "2024-08" becomes 2024-08-01. Empty input returns nil.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	switch strings.Count(s, "-") {
	case 0:
		s += "-01-01"
	case 1:
		s += "-01"
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", s, err)
	}
	return &t, nil
}
