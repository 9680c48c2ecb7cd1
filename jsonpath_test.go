package shadowdiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPath(t *testing.T) {
	assert.Equal(t, "$.status", buildPath("$", "status"))
	assert.Equal(t, "$.items[0]", buildPath("$.items", 0))
	assert.Equal(t, "$['weird key']", buildPath("$", "weird key"))
}

func TestParsePathSegments(t *testing.T) {
	segments := parsePathSegments("$.user.tags[2]")
	assert.Equal(t, []pathSegment{
		{name: "user"},
		{name: "tags"},
		{index: 2, isIndex: true},
	}, segments)
}

func TestMatchesPatternRecursiveDescent(t *testing.T) {
	assert.True(t, matchesPattern("$.updatedAt", "$..updatedAt"))
	assert.True(t, matchesPattern("$.meta.updatedAt", "$..updatedAt"))
	assert.False(t, matchesPattern("$.updatedAtSomethingElse", "$..updatedAt"))
}

func TestMatchesPatternWildcard(t *testing.T) {
	assert.True(t, matchesPattern("$.items[3].name", "$.items[*].name"))
	assert.False(t, matchesPattern("$.items[3].sku", "$.items[*].name"))
}

func TestDeleteGlobalIgnoreRecursive(t *testing.T) {
	data := map[string]any{
		"updatedAt": "x",
		"nested": map[string]any{
			"updatedAt": "y",
			"keep":      "z",
		},
	}

	result, removed := deleteGlobalIgnore(data, "$..updatedAt")
	obj := result.(map[string]any)

	assert.Equal(t, 2, removed)
	_, hasTop := obj["updatedAt"]
	assert.False(t, hasTop)
	nested := obj["nested"].(map[string]any)
	_, hasNested := nested["updatedAt"]
	assert.False(t, hasNested)
	assert.Equal(t, "z", nested["keep"])
}

func TestDeleteGlobalIgnoreConcretePath(t *testing.T) {
	data := map[string]any{"a": map[string]any{"b": "gone", "c": "stays"}}

	result, removed := deleteGlobalIgnore(data, "$.a.b")
	obj := result.(map[string]any)["a"].(map[string]any)

	assert.Equal(t, 1, removed)
	_, hasB := obj["b"]
	assert.False(t, hasB)
	assert.Equal(t, "stays", obj["c"])
}

func TestDeleteGlobalIgnoreNoMatchReportsZero(t *testing.T) {
	data := map[string]any{"a": "b"}
	_, removed := deleteGlobalIgnore(data, "$..nope")
	assert.Equal(t, 0, removed)
}
