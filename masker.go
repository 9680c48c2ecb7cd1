package shadowdiff

// Masker strips subtrees whose governing schema node carries
// x-migration-strategy: ignore, and counts how many fields it removed for
// Summary.FieldsIgnored.
type Masker struct {
	index        *SchemaIndex
	ignoredCount int
}

// NewMasker builds a Masker bound to a schema index.
func NewMasker(index *SchemaIndex) *Masker {
	return &Masker{index: index}
}

// Mask filters both payloads and returns the masked pair plus the number of
// fields removed.
func (m *Masker) Mask(oldDoc, newDoc Document) (Document, Document, int) {
	m.ignoredCount = 0
	old := m.maskRecursive(deepCopyJSON(oldDoc), "$", nil)
	new_ := m.maskRecursive(deepCopyJSON(newDoc), "$", nil)
	return old, new_, m.ignoredCount
}

func (m *Masker) maskRecursive(data Document, path string, parentRules *FieldRules) Document {
	rules := m.index.RulesForPath(path, parentRules)

	if rules.Strategy == StrategyIgnore {
		m.ignoredCount++
		return nil
	}

	switch v := data.(type) {
	case map[string]any:
		result := make(map[string]any, len(v))
		for key, value := range v {
			childPath := buildPath(path, key)
			childRules := m.index.RulesForPath(childPath, &rules)
			masked := m.maskRecursive(value, childPath, &rules)
			if masked != nil || childRules.Strategy != StrategyIgnore {
				result[key] = masked
			}
		}
		return result

	case []any:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = m.maskRecursive(item, buildPath(path, i), &rules)
		}
		return result

	default:
		return data
	}
}
