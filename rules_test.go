package shadowdiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFieldRulesDefaults(t *testing.T) {
	rules := ExtractFieldRules(nil, nil)
	assert.Equal(t, StrategyStrict, rules.Strategy)
	assert.Equal(t, ArrayModeStrict, rules.ArrayMode)
	assert.Equal(t, DuplicateError, rules.DuplicateHandling)
	assert.False(t, rules.HasDefault)
}

func TestExtractFieldRulesAllExtensions(t *testing.T) {
	node := map[string]any{
		"x-migration-strategy":           "lenient",
		"x-migration-alias":              "oldName",
		"x-migration-precision":          0.05,
		"x-migration-case-insensitive":   true,
		"x-migration-trim-whitespace":    true,
		"x-migration-cast":               "int",
		"x-migration-pattern":            "^[A-Z]+$",
		"x-migration-datetime-format":    "ISO8601",
		"x-migration-datetime-tolerance": "5s",
		"x-migration-default":            "fallback",
		"x-migration-enum-map":           map[string]any{"PAID": "paid"},
		"x-migration-array-mode":         "keyed",
		"x-migration-array-key":          "sku",
		"x-migration-order-by":           []any{"-createdAt"},
		"x-migration-ignore-extra-items": true,
		"x-migration-ignore-missing-items": true,
		"x-migration-array-subset":       true,
		"x-migration-duplicate-handling": "merge",
		"x-migration-inherit-rules":      true,
		"x-migration-when":               "$.old.tier=='gold'",
	}

	rules := ExtractFieldRules(node, nil)

	assert.Equal(t, StrategyLenient, rules.Strategy)
	assert.Equal(t, "oldName", rules.Alias)
	require.NotNil(t, rules.Precision)
	assert.InDelta(t, 0.05, *rules.Precision, 1e-9)
	assert.True(t, rules.CaseInsensitive)
	assert.True(t, rules.TrimWhitespace)
	assert.Equal(t, CastInt, rules.Cast)
	assert.Equal(t, "^[A-Z]+$", rules.Pattern)
	assert.Equal(t, "ISO8601", rules.DatetimeFormat)
	assert.Equal(t, "5s", rules.DatetimeTolerance)
	assert.True(t, rules.HasDefault)
	assert.Equal(t, "fallback", rules.Default)
	assert.Equal(t, ArrayModeKeyed, rules.ArrayMode)
	assert.Equal(t, []string{"sku"}, rules.ArrayKey)
	assert.Equal(t, []string{"-createdAt"}, rules.OrderBy)
	assert.True(t, rules.IgnoreExtraItems)
	assert.True(t, rules.IgnoreMissingItems)
	assert.True(t, rules.ArraySubset)
	assert.Equal(t, DuplicateMerge, rules.DuplicateHandling)
	assert.True(t, rules.InheritRules)
	assert.Equal(t, "$.old.tier=='gold'", rules.WhenCondition)
}

func TestExtractFieldRulesInheritance(t *testing.T) {
	parent := FieldRules{
		Strategy:        StrategyLenient,
		CaseInsensitive: true,
		TrimWhitespace:  true,
		InheritRules:    true,
	}

	child := ExtractFieldRules(map[string]any{}, &parent)

	assert.Equal(t, StrategyLenient, child.Strategy)
	assert.True(t, child.CaseInsensitive)
	assert.True(t, child.TrimWhitespace)

	// a child's own strategy overrides the inherited one
	childOverride := ExtractFieldRules(map[string]any{"x-migration-strategy": "strict"}, &parent)
	assert.Equal(t, StrategyStrict, childOverride.Strategy)
}

func TestExtractFieldRulesCompositeArrayKey(t *testing.T) {
	node := map[string]any{"x-migration-array-key": []any{"tenant", "sku"}}
	rules := ExtractFieldRules(node, nil)
	assert.Equal(t, []string{"tenant", "sku"}, rules.ArrayKey)
}

func TestExtractGlobalRules(t *testing.T) {
	schema := map[string]any{
		"x-migration-global-ignores":         []any{"$..updatedAt", "$..metadata"},
		"x-migration-allow-null-as-missing":  true,
		"x-migration-empty-string-as-null":   true,
	}

	rules := ExtractGlobalRules(schema)

	assert.Equal(t, []string{"$..updatedAt", "$..metadata"}, rules.GlobalIgnores)
	assert.True(t, rules.AllowNullAsMissing)
	assert.True(t, rules.EmptyStringAsNull)
}

func TestExtractGlobalRulesUnwrapsComponents(t *testing.T) {
	schema := map[string]any{
		"components": map[string]any{
			"schemas": map[string]any{
				"Order": map[string]any{
					"x-migration-allow-null-as-missing": true,
				},
			},
		},
	}

	rules := ExtractGlobalRules(schema)
	assert.True(t, rules.AllowNullAsMissing)
}
