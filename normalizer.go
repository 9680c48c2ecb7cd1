package shadowdiff

import "sort"

// Normalizer applies the "scrub" transformations to both payloads ahead of
// masking and diffing, in the fixed order the baseline implementation
// relies on: global ignores, then aliasing, then null/empty-string
// coercions, then default injection, then enum remap, then array sorting.
type Normalizer struct {
	globalRules  GlobalRules
	index        *SchemaIndex
	ignoredCount int
}

// NewNormalizer builds a Normalizer bound to a resolved schema's index and
// its extracted global rules.
func NewNormalizer(globalRules GlobalRules, index *SchemaIndex) *Normalizer {
	return &Normalizer{globalRules: globalRules, index: index}
}

// Normalize transforms both payloads and returns the normalized pair plus
// the number of fields x-migration-global-ignores removed. Only the
// baseline document is aliased and enum-mapped: the candidate is the new
// system's own output and is assumed to already use the new shape.
func (n *Normalizer) Normalize(oldDoc, newDoc Document) (Document, Document, int) {
	n.ignoredCount = 0
	old := deepCopyJSON(oldDoc)
	new_ := deepCopyJSON(newDoc)

	old = n.applyGlobalIgnores(old)
	new_ = n.applyGlobalIgnores(new_)

	old = n.applyAliases(old, "$")

	if n.globalRules.AllowNullAsMissing {
		old = normalizeNulls(old)
		new_ = normalizeNulls(new_)
	}

	if n.globalRules.EmptyStringAsNull {
		old = normalizeEmptyStrings(old)
		new_ = normalizeEmptyStrings(new_)
	}

	old = n.applyDefaults(old, "$")
	new_ = n.applyDefaults(new_, "$")

	old = n.applyEnumMapping(old, "$")

	old = n.applyArraySorting(old, "$")
	new_ = n.applyArraySorting(new_, "$")

	return old, new_, n.ignoredCount
}

func (n *Normalizer) applyGlobalIgnores(data Document) Document {
	for _, pattern := range n.globalRules.GlobalIgnores {
		var removed int
		data, removed = deleteGlobalIgnore(data, pattern)
		n.ignoredCount += removed
	}
	return data
}

// applyAliases renames keys in the baseline payload to their new-schema
// name wherever a sibling property declares x-migration-alias pointing at
// the old key.
func (n *Normalizer) applyAliases(data Document, path string) Document {
	obj, ok := data.(map[string]any)
	if !ok {
		if arr, ok := data.([]any); ok {
			for i, item := range arr {
				arr[i] = n.applyAliases(item, buildPath(path, i))
			}
			return arr
		}
		return data
	}

	result := make(map[string]any, len(obj))
	for key, value := range obj {
		childPath := buildPath(path, key)
		newKey := key

		if n.index.SchemaForPath(childPath) == nil {
			if parent := n.index.SchemaForPath(path); parent != nil {
				if props, ok := parent["properties"].(map[string]any); ok {
					for propName, propSchema := range props {
						if ps, ok := propSchema.(map[string]any); ok {
							if alias, _ := ps["x-migration-alias"].(string); alias == key {
								newKey = propName
								break
							}
						}
					}
				}
			}
		}

		result[newKey] = n.applyAliases(value, childPath)
	}
	return result
}

func normalizeNulls(data Document) Document {
	switch v := data.(type) {
	case map[string]any:
		result := make(map[string]any, len(v))
		for k, val := range v {
			if val == nil {
				continue
			}
			result[k] = normalizeNulls(val)
		}
		return result
	case []any:
		for i, item := range v {
			v[i] = normalizeNulls(item)
		}
		return v
	default:
		return data
	}
}

func normalizeEmptyStrings(data Document) Document {
	switch v := data.(type) {
	case map[string]any:
		for k, val := range v {
			v[k] = normalizeEmptyStrings(val)
		}
		return v
	case []any:
		for i, item := range v {
			v[i] = normalizeEmptyStrings(item)
		}
		return v
	case string:
		if v == "" {
			return nil
		}
		return v
	default:
		return data
	}
}

func (n *Normalizer) applyDefaults(data Document, path string) Document {
	node := n.index.SchemaForPath(path)

	switch v := data.(type) {
	case map[string]any:
		if node != nil {
			if props, ok := node["properties"].(map[string]any); ok {
				for propName, propSchema := range props {
					if _, exists := v[propName]; exists {
						continue
					}
					if ps, ok := propSchema.(map[string]any); ok {
						if def, ok := ps["x-migration-default"]; ok {
							v[propName] = def
						}
					}
				}
			}
		}
		result := make(map[string]any, len(v))
		for key, value := range v {
			result[key] = n.applyDefaults(value, buildPath(path, key))
		}
		return result

	case []any:
		for i, item := range v {
			v[i] = n.applyDefaults(item, buildPath(path, i))
		}
		return v

	default:
		return data
	}
}

func (n *Normalizer) applyEnumMapping(data Document, path string) Document {
	switch v := data.(type) {
	case map[string]any:
		result := make(map[string]any, len(v))
		for key, value := range v {
			result[key] = n.applyEnumMapping(value, buildPath(path, key))
		}
		return result

	case []any:
		for i, item := range v {
			v[i] = n.applyEnumMapping(item, buildPath(path, i))
		}
		return v

	default:
		node := n.index.SchemaForPath(path)
		if node == nil {
			return data
		}
		enumMap, ok := node["x-migration-enum-map"].(map[string]any)
		if !ok {
			return data
		}
		key, ok := scalarMapKey(data)
		if !ok {
			return data
		}
		if mapped, ok := enumMap[key]; ok {
			return mapped
		}
		return data
	}
}

// scalarMapKey returns the enum-map lookup key for a scalar value. Only
// string values have a key; numbers, booleans and null are never remapped.
func scalarMapKey(v Document) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	default:
		return "", false
	}
}

func (n *Normalizer) applyArraySorting(data Document, path string) Document {
	switch v := data.(type) {
	case []any:
		node := n.index.SchemaForPath(path)
		var orderBy []string
		if node != nil {
			orderBy = stringList(node["x-migration-order-by"])
		}
		if len(orderBy) > 0 {
			v = sortArray(v, orderBy)
		}
		for i, item := range v {
			v[i] = n.applyArraySorting(item, buildPath(path, i))
		}
		return v

	case map[string]any:
		for key, value := range v {
			v[key] = n.applyArraySorting(value, buildPath(path, key))
		}
		return v

	default:
		return data
	}
}

// sortArray orders an array of objects by the fields named in orderBy, each
// optionally prefixed with "-" for descending order. Arrays that are not
// entirely objects, or whose sort keys aren't comparable, are returned
// unsorted.
func sortArray(array []any, orderBy []string) []any {
	for _, item := range array {
		if _, ok := item.(map[string]any); !ok {
			return array
		}
	}

	sort.SliceStable(array, func(i, j int) bool {
		a := array[i].(map[string]any)
		b := array[j].(map[string]any)
		for _, field := range orderBy {
			descending := false
			name := field
			if len(field) > 0 && field[0] == '-' {
				descending = true
				name = field[1:]
			}
			cmp := compareSortValues(a[name], b[name])
			if cmp == 0 {
				continue
			}
			if descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})

	return array
}

func compareSortValues(a, b any) int {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		default:
			return 0
		}
	}
	return 0
}
