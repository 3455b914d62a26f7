package model

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Bounds on the number of videos a single feed request may ask for.
const (
	DefaultMaxResults = 6
	MinMaxResults     = 1
	MaxMaxResults     = 24
)

// FeedRequest is a normalized feed lookup. Handle never carries a leading
// "@" and is never empty; MaxResults is always within [MinMaxResults, MaxMaxResults].
type FeedRequest struct {
	Handle     string
	ChannelID  string
	MaxResults int
}

// NewFeedRequest normalizes raw caller input. defaultHandle is used when the
// caller gave no usable handle.
func NewFeedRequest(rawHandle, channelID, rawMaxResults, defaultHandle string) FeedRequest {
	return FeedRequest{
		Handle:     NormalizeHandle(rawHandle, defaultHandle),
		ChannelID:  strings.TrimSpace(channelID),
		MaxResults: ParseMaxResults(rawMaxResults),
	}
}

// DisplayHandle is the "@"-prefixed form returned to callers.
func (r FeedRequest) DisplayHandle() string {
	return DisplayHandle(r.Handle)
}

// StripHandle removes surrounding whitespace and every leading "@".
func StripHandle(raw string) string {
	return strings.TrimLeft(strings.TrimSpace(raw), "@")
}

// NormalizeHandle strips raw and falls back to the stripped default handle
// when nothing is left.
func NormalizeHandle(raw, defaultHandle string) string {
	if handle := StripHandle(raw); handle != "" {
		return handle
	}
	return StripHandle(defaultHandle)
}

// DisplayHandle prefixes a stripped handle with exactly one "@".
func DisplayHandle(handle string) string {
	return "@" + StripHandle(handle)
}

// ParseMaxResults coerces a textual count. Missing or non-numeric input yields
// DefaultMaxResults; numbers, including ones too large to represent, are
// truncated and clamped.
func ParseMaxResults(raw string) int {
	f, ok := parseNumber(strings.TrimSpace(raw))
	if !ok {
		return DefaultMaxResults
	}
	switch {
	case f <= MinMaxResults:
		return MinMaxResults
	case f >= MaxMaxResults:
		return MaxMaxResults
	}
	return int(f)
}

// parseNumber accepts what a browser's Number() accepts: decimal and
// exponent notation, a signed or unsigned "Infinity", and unsigned 0x, 0o
// and 0b integers. Go-only spellings (inf, nan, digit underscores, hex
// floats) are rejected.
func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	sign, unsigned := "", s
	if s[0] == '+' || s[0] == '-' {
		sign, unsigned = s[:1], s[1:]
	}

	if unsigned == "Infinity" {
		if sign == "-" {
			return math.Inf(-1), true
		}
		return math.Inf(1), true
	}

	if len(unsigned) > 2 && unsigned[0] == '0' {
		if base := integerBase(unsigned[1]); base != 0 {
			if sign != "" {
				return 0, false
			}
			n, err := strconv.ParseUint(unsigned[2:], base, 64)
			if errors.Is(err, strconv.ErrRange) {
				return math.Inf(1), true
			}
			if err != nil {
				return 0, false
			}
			return float64(n), true
		}
	}

	if strings.ContainsFunc(unsigned, func(r rune) bool {
		return (r < '0' || r > '9') && !strings.ContainsRune(".eE+-", r)
	}) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return f, true
}

func integerBase(prefix byte) int {
	switch prefix {
	case 'x', 'X':
		return 16
	case 'o', 'O':
		return 8
	case 'b', 'B':
		return 2
	}
	return 0
}

// ClampMaxResults bounds n to [MinMaxResults, MaxMaxResults].
func ClampMaxResults(n int) int {
	return min(max(n, MinMaxResults), MaxMaxResults)
}
