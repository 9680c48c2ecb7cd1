package shadowdiff

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-json-experiment/json"
)

// EngineVersion is reported in every DiffReport.Execution so a consumer can
// tell which comparison semantics produced a given report.
const EngineVersion = "1.0.0"

// Compare runs the full resolve, normalize, mask, and diff pipeline over a
// baseline and candidate document against a single OpenAPI-style schema
// fragment. Exactly one of the two return values is non-nil: a DiffReport on
// success, or an ErrorResponse describing why the comparison could not run
// to completion (the response may still carry a PartialResult if the
// pipeline failed after producing one).
func (e *Engine) Compare(ctx context.Context, baseline, candidate Document, schemaFragment map[string]any) (*DiffReport, *ErrorResponse) {
	start := time.Now()

	if err := e.validateInput(baseline, candidate, schemaFragment); err != nil {
		return nil, e.errorResponse(err, nil)
	}

	type outcome struct {
		report *DiffReport
		err    error
	}
	resultCh := make(chan outcome, 1)

	go func() {
		report, err := e.compare(baseline, candidate, schemaFragment, start)
		resultCh <- outcome{report, err}
	}()

	timeout := time.Duration(e.config.TimeoutSeconds) * time.Second

	select {
	case <-ctx.Done():
		return nil, e.errorResponse(fmt.Errorf("%w: %v", ErrTimeout, ctx.Err()), nil)
	case <-time.After(timeout):
		return nil, e.errorResponse(fmt.Errorf("%w: exceeded %ds", ErrTimeout, e.config.TimeoutSeconds), nil)
	case out := <-resultCh:
		if out.err != nil {
			return nil, e.errorResponse(out.err, out.report)
		}
		return out.report, nil
	}
}

func (e *Engine) compare(baseline, candidate Document, schemaFragment map[string]any, start time.Time) (*DiffReport, error) {
	resolver := NewSchemaResolver(schemaFragment, e.config.MaxDepth)
	resolved, err := resolver.Resolve()
	if err != nil {
		return nil, err
	}

	index := NewSchemaIndex(resolved)
	globalRules := ExtractGlobalRules(resolved)

	normalizer := NewNormalizer(globalRules, index)
	normOld, normNew, globallyIgnored := normalizer.Normalize(baseline, candidate)

	masker := NewMasker(index)
	maskedOld, maskedNew, maskedCount := masker.Mask(normOld, normNew)
	ignoredCount := globallyIgnored + maskedCount

	differ := NewDiffer(index, e.translator, e.config)
	diffs, warnings, trace, fieldsChecked := differ.Diff(maskedOld, maskedNew)

	report := &DiffReport{
		IsMatch: len(diffs) == 0,
		Execution: ExecutionInfo{
			DurationMS:    time.Since(start).Milliseconds(),
			Timestamp:     start.UTC().Format(time.RFC3339),
			EngineVersion: EngineVersion,
		},
		Summary: Summary{
			TotalFieldsChecked: fieldsChecked,
			MismatchesFound:    len(diffs),
			WarningsCount:      len(warnings),
			FieldsIgnored:      ignoredCount,
		},
		Diffs:    diffs,
		Warnings: warnings,
	}

	if e.config.CollectStatistics {
		report.Coverage = computeCoverage(index, maskedOld, maskedNew)
	}
	if e.config.TraceRuleApplication {
		report.Trace = trace
	}

	return report, nil
}

func (e *Engine) validateInput(baseline, candidate Document, schemaFragment map[string]any) error {
	if baseline == nil || candidate == nil {
		return fmt.Errorf("%w: baseline and candidate documents are required", ErrValidation)
	}
	if schemaFragment == nil {
		return fmt.Errorf("%w: schema fragment is required", ErrValidation)
	}

	if e.config.StrictSchemaValidation {
		root := unwrapComponents(schemaFragment)
		_, hasProps := root["properties"]
		_, hasType := root["type"]
		_, hasRef := root["$ref"]
		if !hasProps && !hasType && !hasRef {
			return fmt.Errorf("%w: schema fragment does not look like a schema object", ErrSchemaParse)
		}
	}

	baselineMB, err := documentSizeMB(baseline)
	if err != nil {
		return err
	}
	if baselineMB > e.config.MaxPayloadSizeMB {
		return fmt.Errorf("%w: baseline payload is %.2fMB, exceeds limit of %.2fMB", ErrPayloadSize, baselineMB, e.config.MaxPayloadSizeMB)
	}

	candidateMB, err := documentSizeMB(candidate)
	if err != nil {
		return err
	}
	if candidateMB > e.config.MaxPayloadSizeMB {
		return fmt.Errorf("%w: candidate payload is %.2fMB, exceeds limit of %.2fMB", ErrPayloadSize, candidateMB, e.config.MaxPayloadSizeMB)
	}

	return nil
}

func documentSizeMB(doc Document) (float64, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return float64(len(data)) / (1024 * 1024), nil
}

// errorResponse classifies err against the package's sentinel errors into
// one of the six documented error codes.
func (e *Engine) errorResponse(err error, partial *DiffReport) *ErrorResponse {
	code := CodeProcessingError
	switch {
	case errors.Is(err, ErrValidation):
		code = CodeValidationError
	case errors.Is(err, ErrSchemaParse), errors.Is(err, ErrExternalRef), errors.Is(err, ErrCircularRef), errors.Is(err, ErrJSONPointerSegment):
		code = CodeSchemaParseError
	case errors.Is(err, ErrPayloadSize):
		code = CodePayloadSizeError
	case errors.Is(err, ErrMaxDepth):
		code = CodeMaxDepthError
	case errors.Is(err, ErrTimeout):
		code = CodeTimeoutError
	}

	return &ErrorResponse{
		Success:       false,
		Error:         &ErrorDetail{Code: code, Message: err.Error()},
		PartialResult: partial,
	}
}

// computeCoverage reports how much of the schema's declared fields were
// exercised by the comparison, and which payload paths on one side have no
// counterpart on the other, capping each unmatched list to keep reports
// bounded on very wide documents.
func computeCoverage(index *SchemaIndex, old, new_ Document) *Coverage {
	fieldsInSchema := countSchemaFields(index.rootSchema())

	oldPaths := collectPaths(old, "$")
	newPaths := collectPaths(new_, "$")
	newPathSet := make(map[string]bool, len(newPaths))
	for _, p := range newPaths {
		newPathSet[p] = true
	}
	oldPathSet := make(map[string]bool, len(oldPaths))
	for _, p := range oldPaths {
		oldPathSet[p] = true
	}

	var unmatchedOld, unmatchedNew []string
	for _, p := range oldPaths {
		if len(unmatchedOld) >= 10 {
			break
		}
		if !newPathSet[p] {
			unmatchedOld = append(unmatchedOld, p)
		}
	}
	for _, p := range newPaths {
		if len(unmatchedNew) >= 10 {
			break
		}
		if !oldPathSet[p] {
			unmatchedNew = append(unmatchedNew, p)
		}
	}

	fieldsInPayload := len(oldPaths)
	if len(newPaths) > fieldsInPayload {
		fieldsInPayload = len(newPaths)
	}

	return &Coverage{
		FieldsInSchema:  fieldsInSchema,
		FieldsInPayload: fieldsInPayload,
		UnmatchedInOld:  unmatchedOld,
		UnmatchedInNew:  unmatchedNew,
	}
}

func countSchemaFields(node map[string]any) int {
	if node == nil {
		return 0
	}
	count := 0
	if props, ok := node["properties"].(map[string]any); ok {
		for _, v := range props {
			count++
			if child, ok := v.(map[string]any); ok {
				count += countSchemaFields(child)
			}
		}
	}
	if items, ok := node["items"].(map[string]any); ok {
		count += countSchemaFields(items)
	}
	return count
}

func collectPaths(doc Document, path string) []string {
	var paths []string
	switch v := doc.(type) {
	case map[string]any:
		for k, val := range v {
			childPath := buildPath(path, k)
			paths = append(paths, childPath)
			paths = append(paths, collectPaths(val, childPath)...)
		}
	case []any:
		for i, val := range v {
			paths = append(paths, collectPaths(val, buildPath(path, i))...)
		}
	}
	return paths
}
