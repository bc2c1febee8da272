package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsMissing(t *testing.T) {
	for _, s := range []string{"", "  ", "NaN", "nan", "NA", "n/a", "NULL", "None", "<nil>", "NaT"} {
		assert.True(t, IsMissing(s), "%q should be missing", s)
	}
	for _, s := range []string{"0", "JFK", "-1", "false"} {
		assert.False(t, IsMissing(s), "%q should not be missing", s)
	}
}

func TestCoerceFloat(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Optional[float64]
	}{
		{"integer", "12", Some(12.0)},
		{"negative", "-4", Some(-4.0)},
		{"decimal with spaces", " 3.5 ", Some(3.5)},
		{"empty", "", None[float64]()},
		{"NaN token", "NaN", None[float64]()},
		{"garbage", "abc", None[float64]()},
		{"infinity", "Inf", None[float64]()},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CoerceFloat(tc.input))
		})
	}
}

func TestCoerceInt(t *testing.T) {
	assert.Equal(t, Some(7), CoerceInt("7"))
	assert.Equal(t, Some(7), CoerceInt("7.0"))
	assert.Equal(t, None[int](), CoerceInt("7.5"))
	assert.Equal(t, None[int](), CoerceInt("seven"))
}

func TestCoerceCode(t *testing.T) {
	assert.Equal(t, Some("JFK"), CoerceCode(" jfk "))
	assert.Equal(t, None[string](), CoerceCode("  "))
	assert.Equal(t, None[string](), CoerceCode("nan"))
}

func TestCoerceFlag(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"1", 1},
		{"0", 0},
		{"", 0},
		{"true", 1},
		{"False", 0},
		{"2", 1},
		{"1.0", 1},
		{"x", 0},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, CoerceFlag(tc.input), "input %q", tc.input)
	}
}

func TestCoerceDateParts(t *testing.T) {
	tests := []struct {
		name             string
		year, month, day Optional[int]
		want             Optional[time.Time]
	}{
		{"valid", Some(2015), Some(1), Some(2), Some(time.Date(2015, 1, 2, 0, 0, 0, 0, time.UTC))},
		{"month 13", Some(2024), Some(13), Some(1), None[time.Time]()},
		{"day 32", Some(2024), Some(1), Some(32), None[time.Time]()},
		{"february 30", Some(2023), Some(2), Some(30), None[time.Time]()},
		{"leap day", Some(2024), Some(2), Some(29), Some(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC))},
		{"missing part", Some(2024), None[int](), Some(1), None[time.Time]()},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CoerceDateParts(tc.year, tc.month, tc.day))
		})
	}
}

func TestCoerceDate(t *testing.T) {
	want := Some(time.Date(2015, 3, 4, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, want, CoerceDate("2015-03-04"))
	assert.Equal(t, want, CoerceDate("2015-03-04 13:45:00"))
	assert.Equal(t, want, CoerceDate("03/04/2015"))
	assert.Equal(t, want, CoerceDate("2015-03-04T13:45:00"))
	assert.Equal(t, want, CoerceDate("2015-03-04T13:45:00.250"))
	assert.Equal(t, want, CoerceDate("20150304"))
	assert.Equal(t, None[time.Time](), CoerceDate("20151304"))
	assert.Equal(t, None[time.Time](), CoerceDate("not a date"))
	assert.Equal(t, None[time.Time](), CoerceDate(""))
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "0", FormatFloat(0))
	assert.Equal(t, "12.5", FormatFloat(12.5))
	assert.Equal(t, "-3", FormatFloat(-3))
	assert.Equal(t, "", FormatOptionalFloat(None[float64]()))
}
