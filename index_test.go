package shadowdiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status": map[string]any{
				"type":                  "string",
				"x-migration-enum-map": map[string]any{"PAID": "paid"},
			},
			"items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"sku": map[string]any{"type": "string"},
						"qty": map[string]any{"type": "number", "x-migration-precision": 0.01},
					},
				},
			},
		},
	}
}

func TestSchemaIndexSchemaForPath(t *testing.T) {
	idx := NewSchemaIndex(sampleSchema())

	statusNode := idx.SchemaForPath("$.status")
	require.NotNil(t, statusNode)
	assert.Equal(t, "string", statusNode["type"])

	qtyNode := idx.SchemaForPath("$.items[0].qty")
	require.NotNil(t, qtyNode)
	assert.Equal(t, 0.01, qtyNode["x-migration-precision"])

	assert.Nil(t, idx.SchemaForPath("$.unknown"))
}

func TestSchemaIndexMemoizesLookups(t *testing.T) {
	idx := NewSchemaIndex(sampleSchema())

	first := idx.SchemaForPath("$.status")
	second := idx.SchemaForPath("$.status")

	assert.Equal(t, first, second)
}

func TestSchemaIndexRulesForPath(t *testing.T) {
	idx := NewSchemaIndex(sampleSchema())

	rules := idx.RulesForPath("$.items[0].qty", nil)
	require.NotNil(t, rules.Precision)
	assert.InDelta(t, 0.01, *rules.Precision, 1e-9)

	defaults := idx.RulesForPath("$.unknown.path", nil)
	assert.Equal(t, StrategyStrict, defaults.Strategy)
}
