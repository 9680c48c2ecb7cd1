package shadowdiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func conditionRoot() Document {
	return map[string]any{
		"old": map[string]any{"tier": "gold", "score": 42.0},
		"new": map[string]any{"tier": "silver"},
	}
}

func TestEvaluateConditionEquality(t *testing.T) {
	assert.True(t, evaluateCondition(conditionRoot(), "$.old.tier=='gold'"))
	assert.False(t, evaluateCondition(conditionRoot(), "$.old.tier=='silver'"))
	assert.True(t, evaluateCondition(conditionRoot(), "$.new.tier!='gold'"))
}

func TestEvaluateConditionNumericComparisons(t *testing.T) {
	assert.True(t, evaluateCondition(conditionRoot(), "$.old.score>10"))
	assert.False(t, evaluateCondition(conditionRoot(), "$.old.score<10"))
	assert.True(t, evaluateCondition(conditionRoot(), "$.old.score>=42"))
}

func TestEvaluateConditionMissingPathIsFalse(t *testing.T) {
	assert.False(t, evaluateCondition(conditionRoot(), "$.old.missing=='x'"))
}

func TestEvaluateConditionEmptyIsTrue(t *testing.T) {
	assert.True(t, evaluateCondition(conditionRoot(), ""))
}

func TestParseConditionLiteral(t *testing.T) {
	assert.Equal(t, "gold", parseConditionLiteral("'gold'"))
	assert.Equal(t, true, parseConditionLiteral("true"))
	assert.Equal(t, nil, parseConditionLiteral("null"))
	assert.Equal(t, 42.0, parseConditionLiteral("42"))
	assert.Equal(t, 4.5, parseConditionLiteral("4.5"))
}
