package shadowdiff

// SchemaIndex traverses a resolved schema and a document path in lockstep
// to find the schema node, and thus the FieldRules, governing that path. It
// memoizes by path string the way the teacher's compiler caches compiled
// subschemas by $ref.
type SchemaIndex struct {
	root  map[string]any
	cache map[string]map[string]any
}

// NewSchemaIndex builds an index over an already-$ref-resolved schema.
func NewSchemaIndex(resolved map[string]any) *SchemaIndex {
	return &SchemaIndex{root: resolved, cache: make(map[string]map[string]any)}
}

// SchemaForPath returns the schema node governing path, or nil if the
// schema says nothing about it.
func (idx *SchemaIndex) SchemaForPath(path string) map[string]any {
	if cached, ok := idx.cache[path]; ok {
		return cached
	}
	node := idx.traverse(path)
	idx.cache[path] = node
	return node
}

// RulesForPath resolves the FieldRules for path, honoring inheritance from
// parentRules when the governing schema node requests it.
func (idx *SchemaIndex) RulesForPath(path string, parentRules *FieldRules) FieldRules {
	node := idx.SchemaForPath(path)
	if node == nil {
		return defaultFieldRules()
	}
	return ExtractFieldRules(node, parentRules)
}

func (idx *SchemaIndex) traverse(path string) map[string]any {
	current := idx.rootSchema()
	if path == "$" || path == "" {
		return current
	}

	segments := parsePathSegments(path)
	for _, seg := range segments {
		if current == nil {
			return nil
		}
		if seg.isIndex {
			if t, _ := current["type"].(string); t == "array" {
				if items, ok := current["items"].(map[string]any); ok {
					current = items
					continue
				}
			}
			return nil
		}

		t, _ := current["type"].(string)
		props, hasProps := current["properties"].(map[string]any)
		if t == "object" || hasProps {
			if hasProps {
				if child, ok := props[seg.name].(map[string]any); ok {
					current = child
					continue
				}
			}
			if ap, ok := current["additionalProperties"].(map[string]any); ok {
				current = ap
				continue
			}
			return nil
		}
		return nil
	}

	return current
}

func (idx *SchemaIndex) rootSchema() map[string]any {
	return unwrapComponents(idx.root)
}
