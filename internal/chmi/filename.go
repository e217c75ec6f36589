// Package chmi talks to the CHMI open-data radar composite directories and
// understands their file naming.
package chmi

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"
)

// Composite filenames end in _<YYYYMMDDHHMMSS>.hdf; product PNGs append the
// rain score: _<YYYYMMDDHHMMSS>_<score>.png. Older product files lack the
// score suffix.
const timestampLayout = "20060102150405"

// ParseTimestamp extracts the UTC observation time from a composite filename.
func ParseTimestamp(filename string) (time.Time, error) {
	name := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	parts := strings.Split(name, "_")
	last := parts[len(parts)-1]

	ts, err := parseCompact(last)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse timestamp from filename %s: %w", filename, err)
	}
	return ts, nil
}

// ParseProductName extracts the observation time and, when present, the rain
// score from a product PNG filename. hasScore is false for legacy files
// without a score suffix.
func ParseProductName(filename string) (ts time.Time, score float64, hasScore bool, err error) {
	name := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	parts := strings.Split(name, "_")

	// new format: ..._<YYYYMMDDHHMMSS>_<score>
	if len(parts) >= 2 {
		if ts, tsErr := parseCompact(parts[len(parts)-2]); tsErr == nil {
			score, scoreErr := strconv.ParseFloat(parts[len(parts)-1], 64)
			if scoreErr == nil {
				return ts, score, true, nil
			}
			return ts, 0, false, nil
		}
	}

	// old format: ..._<YYYYMMDDHHMMSS>
	if ts, tsErr := parseCompact(parts[len(parts)-1]); tsErr == nil {
		return ts, 0, false, nil
	}

	return time.Time{}, 0, false, fmt.Errorf("cannot parse timestamp from filename: %s", filename)
}

func parseCompact(s string) (time.Time, error) {
	if len(s) != len(timestampLayout) {
		return time.Time{}, fmt.Errorf("expected %d digits, got %q", len(timestampLayout), s)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return time.Time{}, fmt.Errorf("non-digit in timestamp %q", s)
		}
	}
	return time.ParseInLocation(timestampLayout, s, time.UTC)
}
