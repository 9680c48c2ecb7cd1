package shadowdiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareNumbersWithinPrecision(t *testing.T) {
	precision := 0.01
	match, _, _ := compareNumbers(100.00, 100.005, &precision)
	assert.True(t, match)
}

func TestCompareNumbersExceedsPrecision(t *testing.T) {
	precision := 0.01
	match, code, params := compareNumbers(100.00, 100.05, &precision)
	assert.False(t, match)
	assert.Equal(t, "precision_exceeded", code)
	assert.Equal(t, "0.05", params["diff"])
}

func TestCompareStringsTrimAndCaseInsensitive(t *testing.T) {
	rules := FieldRules{TrimWhitespace: true, CaseInsensitive: true}
	match, _, _ := compareStrings(" Test ", "test", rules)
	assert.True(t, match)
}

func TestCompareStringsPatternBothMatch(t *testing.T) {
	rules := FieldRules{Pattern: `^[A-Z]{2}\d+$`}
	match, _, _ := compareStrings("AB123", "AB123", rules)
	assert.True(t, match)
}

func TestCompareStringsPatternNeitherMatches(t *testing.T) {
	rules := FieldRules{Pattern: `^\d+$`}
	match, code, _ := compareStrings("abc", "xyz", rules)
	assert.False(t, match)
	assert.Equal(t, "string_pattern_neither", code)
}

func TestCompareStringsInvalidPatternFallsBackToLiteral(t *testing.T) {
	rules := FieldRules{Pattern: "(unterminated"}
	match, code, _ := compareStrings("same", "same", rules)
	assert.True(t, match)
	assert.Empty(t, code)

	match, code, _ = compareStrings("a", "b", rules)
	assert.False(t, match)
	assert.Equal(t, "value_mismatch", code)
}

func TestCompareDatetimeWithinTolerance(t *testing.T) {
	match, _, _ := compareDatetime("2025-02-02T10:30:00Z", "2025-02-02T10:30:02Z", "", "5s")
	assert.True(t, match)
}

func TestCompareDatetimeExceedsTolerance(t *testing.T) {
	match, code, _ := compareDatetime("2025-02-02T10:30:00Z", "2025-02-02T10:30:10Z", "", "5s")
	assert.False(t, match)
	assert.Equal(t, "datetime_exceeded", code)
}

func TestParseToleranceDuration(t *testing.T) {
	d, err := parseToleranceDuration("5s")
	assert.NoError(t, err)
	assert.Equal(t, float64(5), d.Seconds())

	d, err = parseToleranceDuration("2h")
	assert.NoError(t, err)
	assert.Equal(t, float64(2), d.Hours())

	_, err = parseToleranceDuration("nonsense")
	assert.Error(t, err)
}

func TestSafeCastInt(t *testing.T) {
	assert.Equal(t, float64(5), safeCast("5", CastInt))
	assert.Equal(t, float64(5), safeCast(5.9, CastInt))
}

func TestSafeCastBoolean(t *testing.T) {
	assert.Equal(t, true, safeCast("true", CastBoolean))
	assert.Equal(t, false, safeCast("no", CastBoolean))
}

func TestCompareWithRulesDatetimeTriggersOnToleranceAlone(t *testing.T) {
	rules := FieldRules{DatetimeTolerance: "5s"}
	match, _, _ := compareWithRules("2025-02-02T10:30:00Z", "2025-02-02T10:30:02Z", rules)
	assert.True(t, match)
}

func TestCompareWithRulesNullVsValueUsesDefault(t *testing.T) {
	rules := FieldRules{HasDefault: true, Default: "fallback"}
	match, _, _ := compareWithRules(nil, "fallback", rules)
	assert.True(t, match)
}

func TestCompareWithRulesNullVsValueWithoutDefault(t *testing.T) {
	rules := FieldRules{}
	match, code, _ := compareWithRules(nil, "value", rules)
	assert.False(t, match)
	assert.Equal(t, "old_null_new_value", code)
}
