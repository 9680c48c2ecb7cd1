package shadowdiff

import (
	"fmt"
	"strings"
)

// Differ walks a normalized, masked baseline/candidate pair and produces the
// list of diffs and warnings the schema's rules consider significant. One
// Differ is built per Engine.Compare call; it is not safe for concurrent use.
type Differ struct {
	index      *SchemaIndex
	translator *Translator
	config     EngineConfig

	conditionRoot Document
	diffs         []DiffEntry
	warnings      []WarningEntry
	trace         []TraceEntry
	fieldsChecked int
	aborted       bool
}

// NewDiffer builds a Differ bound to a schema index, message translator, and
// engine configuration (for FailFast and TraceRuleApplication).
func NewDiffer(index *SchemaIndex, translator *Translator, config EngineConfig) *Differ {
	return &Differ{index: index, translator: translator, config: config}
}

// Diff compares the normalized, masked old and new documents and returns the
// accumulated diffs, warnings, trace entries, and the number of fields
// actually visited.
func (d *Differ) Diff(old, new_ Document) ([]DiffEntry, []WarningEntry, []TraceEntry, int) {
	d.diffs = nil
	d.warnings = nil
	d.trace = nil
	d.fieldsChecked = 0
	d.aborted = false
	d.conditionRoot = map[string]any{"old": old, "new": new_}

	d.diff(old, new_, "$", nil)

	return d.diffs, d.warnings, d.trace, d.fieldsChecked
}

func (d *Differ) diff(old, new_ Document, path string, parentRules *FieldRules) {
	if d.aborted {
		return
	}
	rules := d.index.RulesForPath(path, parentRules)

	if rules.WhenCondition != "" && !evaluateCondition(d.conditionRoot, rules.WhenCondition) {
		d.traceEntry(path, "x-migration-when", "skipped", map[string]any{"condition": rules.WhenCondition})
		return
	}
	if rules.Strategy == StrategyIgnore {
		d.traceEntry(path, "x-migration-strategy", "ignore", nil)
		return
	}
	d.fieldsChecked++

	if rules.Strategy == StrategyExists {
		d.traceEntry(path, "x-migration-strategy", "exists", nil)
		d.diffExistence(old, new_, path, rules)
		return
	}

	if old == nil || new_ == nil {
		if old == nil && new_ == nil {
			return
		}
		d.diffMissing(old, new_, path, rules)
		return
	}

	oldObj, oldIsObj := old.(map[string]any)
	newObj, newIsObj := new_.(map[string]any)
	if oldIsObj || newIsObj {
		if oldIsObj && newIsObj {
			d.diffObjects(oldObj, newObj, path, &rules)
			return
		}
		d.addDiff(path, DiffTypeMismatch, old, new_,
			d.translator.message("type_mismatch", map[string]any{"oldType": typeName(old), "newType": typeName(new_)}), rules)
		return
	}

	oldArr, oldIsArr := old.([]any)
	newArr, newIsArr := new_.([]any)
	if oldIsArr || newIsArr {
		if oldIsArr && newIsArr {
			d.diffArrays(oldArr, newArr, path, rules)
			return
		}
		d.addDiff(path, DiffTypeMismatch, old, new_,
			d.translator.message("type_mismatch", map[string]any{"oldType": typeName(old), "newType": typeName(new_)}), rules)
		return
	}

	if rules.Cast == "" && !scalarTypesCompatible(old, new_) {
		d.addDiff(path, DiffTypeMismatch, old, new_,
			d.translator.message("type_mismatch", map[string]any{"oldType": typeName(old), "newType": typeName(new_)}), rules)
		return
	}

	if rules.Cast != "" {
		d.traceEntry(path, "x-migration-cast", "applied", map[string]any{"cast": string(rules.Cast)})
	}
	d.diffScalar(old, new_, path, rules)
}

// scalarTypesCompatible reports whether two non-null, non-object, non-array
// values are of the same JSON scalar type, so a TYPE_MISMATCH can be raised
// before a numeric/string comparator has a chance to coerce and mask it.
func scalarTypesCompatible(a, b Document) bool {
	_, aIsStr := a.(string)
	_, bIsStr := b.(string)
	if aIsStr || bIsStr {
		return aIsStr && bIsStr
	}
	_, aIsBool := a.(bool)
	_, bIsBool := b.(bool)
	if aIsBool || bIsBool {
		return aIsBool && bIsBool
	}
	_, aIsNum := toFloat(a)
	_, bIsNum := toFloat(b)
	if aIsNum || bIsNum {
		return aIsNum && bIsNum
	}
	return true
}

func (d *Differ) diffObjects(old, new_ map[string]any, path string, parentRules *FieldRules) {
	seen := make(map[string]bool, len(old)+len(new_))
	for key := range old {
		seen[key] = true
	}
	for key := range new_ {
		seen[key] = true
	}

	for key := range seen {
		if d.aborted {
			return
		}
		childPath := buildPath(path, key)
		childRules := d.index.RulesForPath(childPath, parentRules)

		if childRules.WhenCondition != "" && !evaluateCondition(d.conditionRoot, childRules.WhenCondition) {
			d.traceEntry(childPath, "x-migration-when", "skipped", map[string]any{"condition": childRules.WhenCondition})
			continue
		}
		if childRules.Strategy == StrategyIgnore {
			continue
		}

		oldVal, oldOK := old[key]
		newVal, newOK := new_[key]

		switch {
		case oldOK && newOK:
			d.diff(oldVal, newVal, childPath, parentRules)
		case oldOK && !newOK:
			d.fieldsChecked++
			msg := d.translator.message("missing_field_in_new", map[string]any{"key": key})
			d.addDiff(childPath, DiffMissingInNew, oldVal, nil, msg, childRules)
		case !oldOK && newOK:
			d.fieldsChecked++
			msg := d.translator.message("extra_in_new", map[string]any{"key": key})
			d.addDiff(childPath, DiffExtraInNew, nil, newVal, msg, childRules)
		}
	}
}

func (d *Differ) diffArrays(old, new_ []any, path string, rules FieldRules) {
	switch rules.ArrayMode {
	case ArrayModeUnordered:
		d.diffUnorderedArrays(old, new_, path, rules)
	case ArrayModeKeyed:
		if len(rules.ArrayKey) == 0 {
			d.diffStrictArrays(old, new_, path, rules)
			return
		}
		d.diffKeyedArrays(old, new_, path, rules)
	default:
		d.diffStrictArrays(old, new_, path, rules)
	}
}

func (d *Differ) diffStrictArrays(old, new_ []any, path string, rules FieldRules) {
	if len(old) != len(new_) {
		switch {
		case len(new_) > len(old) && rules.IgnoreExtraItems:
			d.addWarning(path, DiffArrayLengthMismatch,
				d.translator.message("array_extra_items_warning", map[string]any{"count": len(new_) - len(old)}))
		case len(new_) < len(old) && rules.IgnoreMissingItems:
			// fewer items in new is explicitly tolerated
		default:
			d.addDiff(path, DiffArrayLengthMismatch, len(old), len(new_),
				d.translator.message("array_length_mismatch", map[string]any{"oldLen": len(old), "newLen": len(new_)}), rules)
			if d.config.FailFast {
				return
			}
		}
	}

	minLen := len(old)
	if len(new_) < minLen {
		minLen = len(new_)
	}
	for i := 0; i < minLen; i++ {
		d.diff(old[i], new_[i], buildPath(path, i), &rules)
		if d.aborted {
			return
		}
	}

	if len(new_) > len(old) && !rules.IgnoreExtraItems {
		for i := len(old); i < len(new_); i++ {
			d.addDiff(buildPath(path, i), DiffArrayItemExtra, nil, new_[i],
				d.translator.message("array_item_extra_index", map[string]any{"index": i}), rules)
		}
	}
	if len(old) > len(new_) && !rules.IgnoreMissingItems {
		for i := len(new_); i < len(old); i++ {
			d.addDiff(buildPath(path, i), DiffArrayItemMissing, old[i], nil,
				d.translator.message("array_item_missing_index", map[string]any{"index": i}), rules)
		}
	}
}

func (d *Differ) diffUnorderedArrays(old, new_ []any, path string, rules FieldRules) {
	usedNew := make([]bool, len(new_))

	for _, oldItem := range old {
		matched := false
		for j, newItem := range new_ {
			if usedNew[j] {
				continue
			}
			if deepEqualJSON(oldItem, newItem) {
				usedNew[j] = true
				matched = true
				break
			}
		}
		if !matched {
			if rules.IgnoreMissingItems {
				d.addWarning(path, DiffArrayItemMissing, d.translator.message("array_item_missing_unordered", nil))
				continue
			}
			d.addDiff(path, DiffArrayItemMissing, oldItem, nil, d.translator.message("array_item_missing_unordered", nil), rules)
		}
	}

	for j, newItem := range new_ {
		if usedNew[j] {
			continue
		}
		if rules.IgnoreExtraItems {
			d.addWarning(path, DiffArrayItemExtra, d.translator.message("array_item_extra_warning_unordered", nil))
			continue
		}
		d.addDiff(path, DiffArrayItemExtra, nil, newItem, d.translator.message("array_item_extra_unordered", nil), rules)
	}
}

type keyedDuplicate struct {
	key     string
	indices []int
}

func (d *Differ) diffKeyedArrays(old, new_ []any, path string, rules FieldRules) {
	oldMap, oldDupes := indexByKey(old, rules)
	newMap, newDupes := indexByKey(new_, rules)

	for _, dup := range oldDupes {
		d.handleDuplicate(path, dup, rules)
	}
	for _, dup := range newDupes {
		d.handleDuplicate(path, dup, rules)
	}

	for key, oldItem := range oldMap {
		childPath := keyedChildPath(path, rules.ArrayKey, key)
		if newItem, ok := newMap[key]; ok {
			d.diff(oldItem, newItem, childPath, &rules)
			continue
		}
		if rules.IgnoreMissingItems {
			d.addWarning(childPath, DiffArrayItemMissing, d.translator.message("keyed_missing_warning", map[string]any{"key": key}))
			continue
		}
		d.addDiff(childPath, DiffArrayItemMissing, oldItem, nil, d.translator.message("keyed_missing", map[string]any{"key": key}), rules)
	}

	for key, newItem := range newMap {
		if _, ok := oldMap[key]; ok {
			continue
		}
		childPath := keyedChildPath(path, rules.ArrayKey, key)
		if rules.ArraySubset {
			continue
		}
		if rules.IgnoreExtraItems {
			d.addWarning(childPath, DiffArrayItemExtra, d.translator.message("keyed_extra_warning", map[string]any{"key": key}))
			continue
		}
		d.addDiff(childPath, DiffArrayItemExtra, nil, newItem, d.translator.message("keyed_extra", map[string]any{"key": key}), rules)
	}
}

func (d *Differ) handleDuplicate(path string, dup keyedDuplicate, rules FieldRules) {
	msg := d.translator.message("duplicate_key", map[string]any{"key": dup.key, "indices": fmt.Sprint(dup.indices)})
	d.addDiff(path, DiffDuplicateKey, nil, nil, msg, rules)
}

// indexByKey groups a keyed array's object items by their array-key value,
// applying the field's x-migration-duplicate-handling policy to any
// collisions and reporting the ones that policy calls an error.
func indexByKey(items []any, rules FieldRules) (map[string]any, []keyedDuplicate) {
	result := make(map[string]any, len(items))
	firstIndex := make(map[string]int, len(items))
	var dupes []keyedDuplicate

	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		key := compositeKey(obj, rules.ArrayKey)

		existing, seen := result[key]
		if !seen {
			result[key] = item
			firstIndex[key] = i
			continue
		}

		switch rules.DuplicateHandling {
		case DuplicateFirst:
			// keep the first occurrence, drop this one
		case DuplicateLast:
			result[key] = item
		case DuplicateMerge:
			merged := make(map[string]any, len(existing.(map[string]any))+len(obj))
			for k, v := range existing.(map[string]any) {
				merged[k] = v
			}
			for k, v := range obj {
				merged[k] = v
			}
			result[key] = merged
		default:
			dupes = append(dupes, keyedDuplicate{key: key, indices: []int{firstIndex[key], i}})
		}
	}

	return result, dupes
}

func compositeKey(obj map[string]any, fields []string) string {
	if len(fields) == 0 {
		return ""
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = formatValue(obj[f])
	}
	return strings.Join(parts, "\x1f")
}

// keyedChildPath renders a JSONPath-like path for one item of a keyed array,
// of the form "arr[?(@.<key>==<value>)]", naming the actual array-key
// field(s) rather than a literal "key".
func keyedChildPath(path string, fields []string, key string) string {
	if len(fields) == 0 {
		return path
	}
	values := strings.Split(key, "\x1f")
	if len(fields) == 1 {
		return fmt.Sprintf("%s[?(@.%s==%s)]", path, fields[0], keyedFieldValue(values, 0))
	}

	clauses := make([]string, len(fields))
	for i, f := range fields {
		clauses[i] = fmt.Sprintf("@.%s==%s", f, keyedFieldValue(values, i))
	}
	return fmt.Sprintf("%s[?(%s)]", path, strings.Join(clauses, " and "))
}

func keyedFieldValue(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

// diffExistence implements x-migration-strategy: exists — only presence
// (null counts as absent) is compared, never the value itself.
func (d *Differ) diffExistence(old, new_ Document, path string, rules FieldRules) {
	oldPresent := old != nil
	newPresent := new_ != nil
	if oldPresent == newPresent {
		return
	}

	oldState, newState := "absent", "absent"
	if oldPresent {
		oldState = "present"
	}
	if newPresent {
		newState = "present"
	}
	message := d.translator.message("existence_mismatch", map[string]any{"oldState": oldState, "newState": newState})
	d.addDiff(path, DiffValueMismatch, old, new_, message, rules)
}

// diffMissing handles the exactly-one-side-is-null case: it always reports
// MISSING_IN_NEW, with a message distinguishing which side held the value.
func (d *Differ) diffMissing(old, new_ Document, path string, rules FieldRules) {
	if old == nil {
		message := d.translator.message("missing_in_new_added", map[string]any{"new": formatValue(new_)})
		d.addDiff(path, DiffMissingInNew, old, new_, message, rules)
		return
	}
	message := d.translator.message("missing_in_new_removed", map[string]any{"old": formatValue(old)})
	d.addDiff(path, DiffMissingInNew, old, new_, message, rules)
}

func (d *Differ) diffScalar(old, new_ Document, path string, rules FieldRules) {
	match, code, params := compareWithRules(old, new_, rules)
	if match {
		return
	}
	message := d.translator.message(code, params)
	d.addDiff(path, diffTypeForCode(code), old, new_, message, rules)
}

func diffTypeForCode(code string) DiffType {
	switch code {
	case "precision_exceeded":
		return DiffPrecisionExceeded
	case "string_pattern_neither", "string_pattern_old", "string_pattern_new":
		return DiffPatternMismatch
	case "datetime_exceeded":
		return DiffDatetimeExceeded
	default:
		return DiffValueMismatch
	}
}

func typeName(v Document) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return "unknown"
	}
}

func deepEqualJSON(a, b Document) bool {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bvv, ok := bv[k]
			if !ok || !deepEqualJSON(v, bvv) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !deepEqualJSON(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		if af, aok := toFloat(a); aok {
			if bf, bok := toFloat(b); bok {
				return af == bf
			}
		}
		return a == b
	}
}

// addDiff records a confirmed mismatch, downgrading it to a warning when the
// governing field uses x-migration-strategy: lenient, and tripping the
// fail-fast abort flag when the engine is configured for it.
func (d *Differ) addDiff(path string, diffType DiffType, old, new_ Document, message string, rules FieldRules) {
	if rules.Strategy == StrategyLenient {
		d.warnings = append(d.warnings, WarningEntry{Path: path, Type: diffType, Severity: SeverityWarning, Message: message})
		return
	}

	entry := DiffEntry{Path: path, Type: diffType, Severity: SeverityError, OldValue: old, NewValue: new_, Message: message}
	entry.RuleApplied = ruleCitation(diffType, rules)
	d.diffs = append(d.diffs, entry)

	if d.config.FailFast {
		d.aborted = true
	}
}

// ruleCitation names the x-migration-* extension responsible for a diff, in
// the "key: value" form callers surface to explain why a mismatch counts.
func ruleCitation(diffType DiffType, rules FieldRules) string {
	switch {
	case diffType == DiffValueMismatch && rules.Strategy == StrategyExists:
		return "x-migration-strategy: exists"
	case diffType == DiffPrecisionExceeded && rules.Precision != nil:
		return fmt.Sprintf("x-migration-precision: %s", formatNumber(*rules.Precision))
	case diffType == DiffDuplicateKey && len(rules.ArrayKey) > 0:
		return fmt.Sprintf("x-migration-array-key: %s", strings.Join(rules.ArrayKey, ","))
	case rules.Alias != "":
		return fmt.Sprintf("x-migration-alias: %s", rules.Alias)
	default:
		return ""
	}
}

func (d *Differ) addWarning(path string, diffType DiffType, message string) {
	d.warnings = append(d.warnings, WarningEntry{Path: path, Type: diffType, Severity: SeverityWarning, Message: message})
}

func (d *Differ) traceEntry(path, rule, action string, details map[string]any) {
	if !d.config.TraceRuleApplication {
		return
	}
	d.trace = append(d.trace, TraceEntry{Path: path, Rule: rule, Action: action, Details: details})
}
