package infer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	numberPattern  = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
	hexPattern     = regexp.MustCompile(`^0[xX][0-9a-fA-F]+$`)
	leadingPattern = regexp.MustCompile(`^[+-]?(Infinity|(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?)`)
)

// IsNumber reports whether the whole of s, ignoring surrounding whitespace,
// is a number: decimal with optional exponent, hexadecimal integer, or
// (+/-)Infinity. The empty string is not a number.
func IsNumber(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	switch s {
	case "Infinity", "+Infinity", "-Infinity":
		return true
	}
	return numberPattern.MatchString(s) || hexPattern.MatchString(s)
}

// LeadingFloat parses the longest numeric prefix of s after leading
// whitespace, so "12.5 kg" is 12.5. It returns NaN when there is no prefix.
func LeadingFloat(s string) float64 {
	m := leadingPattern.FindString(strings.TrimLeft(s, " \t\n\r\v\f"))
	if m == "" {
		return math.NaN()
	}
	switch m {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		// out of range: ParseFloat still returns ±Inf with ErrRange
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f
		}
		return math.NaN()
	}
	return f
}

// dateLayouts are tried in order. All values are interpreted in UTC so that
// comparisons between parsed dates are consistent.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-1-2",
	"2006/01/02",
	"2006/1/2",
	"2006-01",
	"2006",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"January 2 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	"Mon Jan 2 2006",
	"Mon, 02 Jan 2006",
	time.RFC1123,
	time.RFC1123Z,
	time.RFC822,
	time.RFC850,
	time.ANSIC,
}

// ParseDate parses a calendar date or timestamp in one of the common layouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsDate reports whether s parses as a date.
func IsDate(s string) bool {
	_, ok := ParseDate(s)
	return ok
}

// booleanWords are the values accepted as booleans, compared lower-cased.
var booleanWords = map[string]bool{
	"true": true, "false": true,
	"sim": true, "não": true,
	"yes": true, "no": true,
	"1": true, "0": true,
}

// IsBoolean reports whether s is one of the recognized boolean words,
// ignoring case.
func IsBoolean(s string) bool {
	return booleanWords[strings.ToLower(s)]
}

// IsTruthy reports whether a boolean word means "true".
func IsTruthy(s string) bool {
	switch strings.ToLower(s) {
	case "true", "sim", "yes", "1":
		return true
	}
	return false
}
