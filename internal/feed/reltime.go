package feed

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const day = 24 * time.Hour

// units maps relative-time tokens to durations. Months are 30 days and
// years 365, matching how the platforms round.
var units = map[string]time.Duration{
	"s": time.Second, "sec": time.Second, "secs": time.Second, "second": time.Second, "seconds": time.Second,
	"m": time.Minute, "min": time.Minute, "mins": time.Minute, "minute": time.Minute, "minutes": time.Minute,
	"h": time.Hour, "hr": time.Hour, "hrs": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"d": day, "day": day, "days": day,
	"w": 7 * day, "wk": 7 * day, "wks": 7 * day, "week": 7 * day, "weeks": 7 * day,
	"mo": 30 * day, "mos": 30 * day, "month": 30 * day, "months": 30 * day,
	"y": 365 * day, "yr": 365 * day, "yrs": 365 * day, "year": 365 * day, "years": 365 * day,
}

// Letters are matched greedily so "mo" wins over "m" and "hr" over "h"
var relPattern = regexp.MustCompile(`(\d+)\s*([a-z]+)`)

// ParseAge parses texts like "2d", "3mo •", "1 hr" or "Streamed 5 hours ago"
// into the age they describe. ok is false when no known unit is found.
func ParseAge(text string) (age time.Duration, ok bool) {
	text, _, _ = strings.Cut(text, "•")
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return 0, false
	}

	m := relPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	unit, known := units[m[2]]
	if !known {
		return 0, false
	}
	return time.Duration(n) * unit, true
}

// WithinWindow reports whether an item whose time text is text falls inside
// the last windowDays days. An item exactly at the boundary is inside, and
// so is one whose text cannot be parsed.
func WithinWindow(text string, windowDays int, now time.Time) bool {
	age, ok := ParseAge(text)
	if !ok {
		return true
	}
	cutoff := now.Add(-time.Duration(windowDays) * day)
	posted := now.Add(-age)
	return !posted.Before(cutoff)
}

// pickTime returns the first candidate that parses, else the first one
func pickTime(candidates []string) string {
	for _, c := range candidates {
		if _, ok := ParseAge(c); ok {
			return c
		}
	}
	if len(candidates) > 0 {
		return candidates[0]
	}
	return ""
}
