package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// missingTokens are cell values treated as absent regardless of column type.
var missingTokens = map[string]struct{}{
	"":      {},
	"nan":   {},
	"na":    {},
	"n/a":   {},
	"null":  {},
	"none":  {},
	"<nil>": {},
	"nat":   {},
}

// dateLayouts are tried in order by CoerceDate.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"20060102",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
}

// Optional holds a value that may be absent. The zero value is absent.
type Optional[T any] struct {
	Value T
	Valid bool
}

// Some wraps a present value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Valid: true}
}

// None returns an absent value.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Valid
}

// OrElse returns the value when present, otherwise def.
func (o Optional[T]) OrElse(def T) T {
	if o.Valid {
		return o.Value
	}
	return def
}

// IsMissing reports whether a raw cell should be treated as absent.
func IsMissing(s string) bool {
	_, ok := missingTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// CoerceString trims s and returns it, or None when the cell is missing.
func CoerceString(s string) Optional[string] {
	if IsMissing(s) {
		return None[string]()
	}
	return Some(strings.TrimSpace(s))
}

// CoerceCode normalizes an IATA identifier: trimmed and upper-cased.
func CoerceCode(s string) Optional[string] {
	v, ok := CoerceString(s).Get()
	if !ok {
		return None[string]()
	}
	return Some(strings.ToUpper(v))
}

// CoerceFloat parses a numeric cell. Parse failures and non-finite values are None.
func CoerceFloat(s string) Optional[float64] {
	if IsMissing(s) {
		return None[float64]()
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return None[float64]()
	}
	return Some(v)
}

// CoerceInt parses an integral cell. "7" and "7.0" are accepted, "7.5" is not.
func CoerceInt(s string) Optional[int] {
	f, ok := CoerceFloat(s).Get()
	if !ok || f != float64(int64(f)) {
		return None[int]()
	}
	return Some(int(f))
}

// CoerceFlag reads a boolean-like indicator as 0 or 1. Missing or unparseable
// input is 0; any non-zero number is 1.
func CoerceFlag(s string) int {
	if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
		if b {
			return 1
		}
		return 0
	}
	if f, ok := CoerceFloat(s).Get(); ok && f != 0 {
		return 1
	}
	return 0
}

// CoerceDateParts combines year, month and day into a UTC date. Any missing
// part or a combination the calendar would normalize (day 32, month 13) is None.
func CoerceDateParts(year, month, day Optional[int]) Optional[time.Time] {
	y, okY := year.Get()
	m, okM := month.Get()
	d, okD := day.Get()
	if !okY || !okM || !okD {
		return None[time.Time]()
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return None[time.Time]()
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return None[time.Time]()
	}
	return Some(t)
}

// CoerceDate parses a date-like cell using the known layouts and truncates it
// to the calendar day.
func CoerceDate(s string) Optional[time.Time] {
	v, ok := CoerceString(s).Get()
	if !ok {
		return None[time.Time]()
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return Some(DateOnly(t))
		}
	}
	return None[time.Time]()
}

// DateOnly drops the time-of-day component, keeping the calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatFloat renders a float the same way on every run so written tables are
// byte-stable.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatOptionalFloat renders a missing value as an empty cell.
func FormatOptionalFloat(o Optional[float64]) string {
	if v, ok := o.Get(); ok {
		return FormatFloat(v)
	}
	return ""
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
