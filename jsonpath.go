package shadowdiff

import (
	"regexp"
	"strconv"
	"strings"
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// buildPath appends a property key or array index to an existing path,
// quoting the key when it is not a bare identifier.
func buildPath(parent string, key any) string {
	switch k := key.(type) {
	case int:
		return parent + "[" + strconv.Itoa(k) + "]"
	case string:
		if identifierPattern.MatchString(k) {
			return parent + "." + k
		}
		return parent + "['" + k + "']"
	default:
		return parent
	}
}

// pathSegment is one component of a parsed path: either a property name or
// an array index.
type pathSegment struct {
	name    string
	index   int
	isIndex bool
}

// parsePathSegments splits a path string like "$.user.tags[0]" into its
// ordered segments, the way the baseline Python implementation's
// SchemaTraverser._parse_path_segments does.
func parsePathSegments(path string) []pathSegment {
	if path == "$" || path == "" {
		return nil
	}
	if strings.HasPrefix(path, "$.") {
		path = path[2:]
	} else if strings.HasPrefix(path, "$") {
		path = path[1:]
	}

	var segments []pathSegment
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			segments = append(segments, pathSegment{name: current.String()})
			current.Reset()
		}
	}

	i := 0
	for i < len(path) {
		c := path[i]
		switch c {
		case '.':
			flush()
			i++
		case '[':
			flush()
			j := i + 1
			for j < len(path) && path[j] != ']' {
				j++
			}
			content := path[i+1 : j]
			segments = append(segments, parseBracketSegment(content))
			i = j + 1
		default:
			current.WriteByte(c)
			i++
		}
	}
	flush()

	return segments
}

func parseBracketSegment(content string) pathSegment {
	if n, err := strconv.Atoi(content); err == nil {
		return pathSegment{index: n, isIndex: true}
	}
	if len(content) >= 2 {
		if (content[0] == '\'' && content[len(content)-1] == '\'') ||
			(content[0] == '"' && content[len(content)-1] == '"') {
			return pathSegment{name: content[1 : len(content)-1]}
		}
	}
	return pathSegment{name: content}
}

// matchesPattern reports whether a concrete path matches a global-ignore or
// alias pattern, supporting exact match, recursive descent ("$..field"),
// and single-level wildcards ("$.items[*].name").
func matchesPattern(concretePath, pattern string) bool {
	if strings.Contains(pattern, "..") {
		field := pattern[strings.LastIndex(pattern, "..")+2:]
		return concretePath == "$."+field || strings.HasSuffix(concretePath, "."+field)
	}

	if strings.Contains(pattern, "[*]") || strings.Contains(pattern, ".*") {
		var b strings.Builder
		b.WriteByte('^')
		for i := 0; i < len(pattern); i++ {
			switch {
			case strings.HasPrefix(pattern[i:], "[*]"):
				b.WriteString(`\[\d+\]`)
				i += 2
			case pattern[i] == '.':
				b.WriteString(`\.`)
			case pattern[i] == '*':
				b.WriteString(`[^.]+`)
			default:
				b.WriteString(regexp.QuoteMeta(string(pattern[i])))
			}
		}
		b.WriteByte('$')
		re, err := regexp.Compile(b.String())
		if err != nil {
			return false
		}
		return re.MatchString(concretePath)
	}

	return concretePath == pattern
}

// deleteGlobalIgnore removes every node matching a global-ignore pattern
// from data, returning the (possibly) modified value. Recursive-descent
// patterns ("$..field") delete the named field at every depth; all other
// patterns delete only the single concrete path they name.
func deleteGlobalIgnore(data Document, pattern string) (Document, int) {
	if strings.Contains(pattern, "..") {
		field := pattern[strings.LastIndex(pattern, "..")+2:]
		field = strings.TrimPrefix(field, ".")
		field = strings.TrimPrefix(field, "['")
		field = strings.TrimSuffix(field, "']")
		return deleteFieldRecursive(data, field)
	}
	removed := 0
	data = deleteAtPath(data, parsePathSegments(pattern), &removed)
	return data, removed
}

func deleteFieldRecursive(data Document, field string) (Document, int) {
	count := 0
	switch v := data.(type) {
	case map[string]any:
		if _, ok := v[field]; ok {
			delete(v, field)
			count++
		}
		for k, child := range v {
			var n int
			v[k], n = deleteFieldRecursive(child, field)
			count += n
		}
		return v, count
	case []any:
		for i, item := range v {
			var n int
			v[i], n = deleteFieldRecursive(item, field)
			count += n
		}
		return v, count
	default:
		return data, 0
	}
}

// deleteAtPath removes the value at the exact segment path, if present,
// incrementing *removed when it does.
func deleteAtPath(data Document, segments []pathSegment, removed *int) Document {
	if len(segments) == 0 {
		return data
	}

	parent := data
	for _, seg := range segments[:len(segments)-1] {
		if seg.isIndex {
			arr, ok := parent.([]any)
			if !ok || seg.index < 0 || seg.index >= len(arr) {
				return data
			}
			parent = arr[seg.index]
		} else {
			obj, ok := parent.(map[string]any)
			if !ok {
				return data
			}
			next, ok := obj[seg.name]
			if !ok {
				return data
			}
			parent = next
		}
	}

	last := segments[len(segments)-1]
	if last.isIndex {
		if arr, ok := parent.([]any); ok && last.index >= 0 && last.index < len(arr) {
			parent.([]any)[last.index] = nil
			*removed++
		}
	} else if obj, ok := parent.(map[string]any); ok {
		if _, ok := obj[last.name]; ok {
			delete(obj, last.name)
			*removed++
		}
	}

	return data
}
