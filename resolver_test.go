package shadowdiff

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaResolverInlinesRef(t *testing.T) {
	root := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"order": map[string]any{"$ref": "#/components/schemas/Order"},
		},
		"components": map[string]any{
			"schemas": map[string]any{
				"Order": map[string]any{
					"type":       "object",
					"properties": map[string]any{"id": map[string]any{"type": "string"}},
				},
			},
		},
	}

	resolver := NewSchemaResolver(root, 10)
	resolved, err := resolver.Resolve()
	require.NoError(t, err)

	order := resolved["properties"].(map[string]any)["order"].(map[string]any)
	_, hasRef := order["$ref"]
	assert.False(t, hasRef)
	assert.Equal(t, "object", order["type"])
}

func TestSchemaResolverRejectsExternalRef(t *testing.T) {
	root := map[string]any{"$ref": "https://example.com/schema.json"}
	resolver := NewSchemaResolver(root, 10)
	_, err := resolver.Resolve()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExternalRef))
}

func TestSchemaResolverDetectsCircularRef(t *testing.T) {
	root := map[string]any{
		"components": map[string]any{
			"schemas": map[string]any{
				"A": map[string]any{"$ref": "#/components/schemas/B"},
				"B": map[string]any{"$ref": "#/components/schemas/A"},
			},
		},
		"$ref": "#/components/schemas/A",
	}

	resolver := NewSchemaResolver(root, 50)
	_, err := resolver.Resolve()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCircularRef))
}

func TestSchemaResolverLeavesDeepSubtreeUnresolvedBeyondMaxDepth(t *testing.T) {
	root := map[string]any{
		"type": "object",
		"components": map[string]any{
			"schemas": map[string]any{
				"Target": map[string]any{"type": "string"},
			},
		},
		"child": map[string]any{"$ref": "#/components/schemas/Target"},
	}

	resolver := NewSchemaResolver(root, 0)
	resolved, err := resolver.Resolve()
	require.NoError(t, err)

	child := resolved["child"].(map[string]any)
	_, hasRef := child["$ref"]
	assert.True(t, hasRef, "sub-tree beyond max depth should be left unresolved, not inlined")
}

func TestSchemaResolverUnresolvablePointer(t *testing.T) {
	root := map[string]any{"$ref": "#/components/schemas/Missing"}
	resolver := NewSchemaResolver(root, 10)
	_, err := resolver.Resolve()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrJSONPointerSegment))
}
