package shadowdiff

// Strategy is the x-migration-strategy value for a field.
type Strategy string

const (
	StrategyStrict  Strategy = "strict"
	StrategyIgnore  Strategy = "ignore"
	StrategyExists  Strategy = "exists"
	StrategyLenient Strategy = "lenient"
)

// ArrayMode is the x-migration-array-mode value for an array field.
type ArrayMode string

const (
	ArrayModeStrict    ArrayMode = "strict"
	ArrayModeUnordered ArrayMode = "unordered"
	ArrayModeKeyed     ArrayMode = "keyed"
)

// DuplicateHandling is the x-migration-duplicate-handling value for a
// keyed array field.
type DuplicateHandling string

const (
	DuplicateError DuplicateHandling = "error"
	DuplicateFirst DuplicateHandling = "first"
	DuplicateLast  DuplicateHandling = "last"
	DuplicateMerge DuplicateHandling = "merge"
)

// CastType is the x-migration-cast value for a field.
type CastType string

const (
	CastInt     CastType = "int"
	CastFloat   CastType = "float"
	CastString  CastType = "string"
	CastBoolean CastType = "boolean"
)

// FieldRules is the set of migration rules resolved for a single schema
// node, after any inheritance from an ancestor with x-migration-inherit-rules.
type FieldRules struct {
	Strategy          Strategy
	Alias             string
	Precision         *float64
	CaseInsensitive   bool
	TrimWhitespace    bool
	Cast              CastType
	Pattern           string
	DatetimeFormat    string
	DatetimeTolerance string
	Default           Document
	HasDefault        bool
	EnumMap           map[string]Document

	ArrayMode           ArrayMode
	ArrayKey            []string
	OrderBy             []string
	IgnoreExtraItems    bool
	IgnoreMissingItems  bool
	ArraySubset         bool
	DuplicateHandling   DuplicateHandling

	InheritRules  bool
	WhenCondition string
}

// defaultFieldRules returns the strict, non-inheriting baseline every
// schema node starts from before its own x-migration-* extensions apply.
func defaultFieldRules() FieldRules {
	return FieldRules{
		Strategy:          StrategyStrict,
		ArrayMode:         ArrayModeStrict,
		DuplicateHandling: DuplicateError,
	}
}

// GlobalRules is the set of root-only x-migration-* extensions.
type GlobalRules struct {
	GlobalIgnores       []string
	AllowNullAsMissing  bool
	EmptyStringAsNull   bool
}

// ExtractFieldRules reads the x-migration-* extensions off a single schema
// node, applying inheritance from parentRules when the node's ancestor set
// x-migration-inherit-rules.
func ExtractFieldRules(node map[string]any, parentRules *FieldRules) FieldRules {
	rules := defaultFieldRules()

	if parentRules != nil && parentRules.InheritRules {
		rules.Strategy = parentRules.Strategy
		rules.CaseInsensitive = parentRules.CaseInsensitive
		rules.TrimWhitespace = parentRules.TrimWhitespace
		rules.InheritRules = true
	}

	if node == nil {
		return rules
	}

	if s, ok := stringField(node, "x-migration-strategy"); ok {
		switch Strategy(s) {
		case StrategyStrict, StrategyIgnore, StrategyExists, StrategyLenient:
			rules.Strategy = Strategy(s)
		}
	}

	if s, ok := stringField(node, "x-migration-alias"); ok {
		rules.Alias = s
	}

	if p, ok := numberField(node, "x-migration-precision"); ok {
		rules.Precision = &p
	}

	if b, ok := boolField(node, "x-migration-case-insensitive"); ok {
		rules.CaseInsensitive = b
	}

	if b, ok := boolField(node, "x-migration-trim-whitespace"); ok {
		rules.TrimWhitespace = b
	}

	if s, ok := stringField(node, "x-migration-cast"); ok {
		switch CastType(s) {
		case CastInt, CastFloat, CastString, CastBoolean:
			rules.Cast = CastType(s)
		}
	}

	if s, ok := stringField(node, "x-migration-pattern"); ok {
		rules.Pattern = s
	}

	if s, ok := stringField(node, "x-migration-datetime-format"); ok {
		rules.DatetimeFormat = s
	}

	if s, ok := stringField(node, "x-migration-datetime-tolerance"); ok {
		rules.DatetimeTolerance = s
	}

	if v, ok := node["x-migration-default"]; ok {
		rules.Default = v
		rules.HasDefault = true
	}

	if m, ok := node["x-migration-enum-map"]; ok {
		if asMap, ok := m.(map[string]any); ok {
			rules.EnumMap = asMap
		}
	}

	if s, ok := stringField(node, "x-migration-array-mode"); ok {
		switch ArrayMode(s) {
		case ArrayModeStrict, ArrayModeUnordered, ArrayModeKeyed:
			rules.ArrayMode = ArrayMode(s)
		}
	}

	rules.ArrayKey = arrayKeySpec(node["x-migration-array-key"])

	if ob, ok := node["x-migration-order-by"]; ok {
		rules.OrderBy = stringList(ob)
	}

	if b, ok := boolField(node, "x-migration-ignore-extra-items"); ok {
		rules.IgnoreExtraItems = b
	}

	if b, ok := boolField(node, "x-migration-ignore-missing-items"); ok {
		rules.IgnoreMissingItems = b
	}

	if b, ok := boolField(node, "x-migration-array-subset"); ok {
		rules.ArraySubset = b
	}

	if s, ok := stringField(node, "x-migration-duplicate-handling"); ok {
		switch DuplicateHandling(s) {
		case DuplicateError, DuplicateFirst, DuplicateLast, DuplicateMerge:
			rules.DuplicateHandling = DuplicateHandling(s)
		}
	}

	if b, ok := boolField(node, "x-migration-inherit-rules"); ok {
		rules.InheritRules = b
	}

	if s, ok := stringField(node, "x-migration-when"); ok {
		rules.WhenCondition = s
	}

	return rules
}

// ExtractGlobalRules reads the root-only x-migration-* extensions,
// unwrapping an OpenAPI components/schemas envelope if present.
func ExtractGlobalRules(schema map[string]any) GlobalRules {
	root := unwrapComponents(schema)

	var rules GlobalRules
	if ignores, ok := root["x-migration-global-ignores"]; ok {
		rules.GlobalIgnores = stringList(ignores)
	}
	if b, ok := boolField(root, "x-migration-allow-null-as-missing"); ok {
		rules.AllowNullAsMissing = b
	}
	if b, ok := boolField(root, "x-migration-empty-string-as-null"); ok {
		rules.EmptyStringAsNull = b
	}
	return rules
}

// unwrapComponents returns the first schema under components/schemas if the
// document is wrapped that way, otherwise the document itself.
func unwrapComponents(schema map[string]any) map[string]any {
	if components, ok := schema["components"].(map[string]any); ok {
		if schemas, ok := components["schemas"].(map[string]any); ok {
			for _, v := range schemas {
				if s, ok := v.(map[string]any); ok {
					return s
				}
			}
		}
	}
	return schema
}

func stringField(node map[string]any, key string) (string, bool) {
	v, ok := node[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func boolField(node map[string]any, key string) (bool, bool) {
	v, ok := node[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

func numberField(node map[string]any, key string) (float64, bool) {
	v, ok := node[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

// arrayKeySpec normalizes x-migration-array-key, which may be a single
// field name or a JSON array of field names forming a composite key.
func arrayKeySpec(v any) []string {
	switch val := v.(type) {
	case string:
		if val == "" {
			return nil
		}
		return []string{val}
	case []any:
		return stringList(val)
	}
	return nil
}

func stringList(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
