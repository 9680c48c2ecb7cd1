package shadowdiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskerStripsIgnoredSubtree(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":       map[string]any{"type": "string"},
			"internal": map[string]any{"type": "object", "x-migration-strategy": "ignore"},
		},
	}
	idx := NewSchemaIndex(schema)
	masker := NewMasker(idx)

	old := map[string]any{"id": "1", "internal": map[string]any{"secret": "x"}}
	new_ := map[string]any{"id": "1", "internal": map[string]any{"secret": "y"}}

	maskedOld, maskedNew, ignored := masker.Mask(old, new_)

	_, hasInternalOld := maskedOld.(map[string]any)["internal"]
	_, hasInternalNew := maskedNew.(map[string]any)["internal"]
	assert.False(t, hasInternalOld)
	assert.False(t, hasInternalNew)
	assert.Equal(t, 2, ignored)
	assert.Equal(t, "1", maskedOld.(map[string]any)["id"])
}

func TestMaskerDoesNotMutateInputs(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"internal": map[string]any{"type": "string", "x-migration-strategy": "ignore"},
		},
	}
	idx := NewSchemaIndex(schema)
	masker := NewMasker(idx)

	old := map[string]any{"internal": "secret"}
	_, _, _ = masker.Mask(old, map[string]any{"internal": "secret"})

	assert.Equal(t, "secret", old["internal"])
}

func TestMaskerLeavesNonIgnoredFieldsUntouched(t *testing.T) {
	schema := map[string]any{"type": "object", "properties": map[string]any{}}
	idx := NewSchemaIndex(schema)
	masker := NewMasker(idx)

	old := map[string]any{"a": 1.0, "b": []any{1.0, 2.0}}
	maskedOld, _, ignored := masker.Mask(old, old)

	assert.Equal(t, 0, ignored)
	assert.Equal(t, old, maskedOld)
}
