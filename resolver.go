package shadowdiff

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/kaptinlin/jsonpointer"
)

// SchemaResolver inlines every $ref in an OpenAPI schema fragment, the way
// the teacher's Schema.resolveJSONPointer walks a compiled schema tree —
// except here the "schema" is still a plain decoded document, so resolution
// produces a new document rather than linking *Schema nodes.
type SchemaResolver struct {
	root  map[string]any
	depth int

	stack map[string]bool
}

// NewSchemaResolver creates a resolver bound to the given root schema
// document and descent bound.
func NewSchemaResolver(root map[string]any, maxDepth int) *SchemaResolver {
	return &SchemaResolver{root: root, depth: maxDepth, stack: map[string]bool{}}
}

// Resolve returns a copy of the schema with every $ref inlined.
func (r *SchemaResolver) Resolve() (map[string]any, error) {
	resolved, err := r.resolveNode(r.root, 0)
	if err != nil {
		return nil, err
	}
	out, ok := resolved.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: root schema did not resolve to an object", ErrSchemaParse)
	}
	return out, nil
}

// resolveNode recursively inlines $ref within node. Beyond the configured
// max depth the sub-tree is returned unresolved rather than raising, per
// the resolver's descent-bound contract.
func (r *SchemaResolver) resolveNode(node any, depth int) (any, error) {
	if depth > r.depth {
		return node, nil
	}

	switch n := node.(type) {
	case map[string]any:
		if ref, ok := n["$ref"].(string); ok {
			return r.resolveRef(ref, depth)
		}
		out := make(map[string]any, len(n))
		for k, v := range n {
			resolved, err := r.resolveNode(v, depth+1)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil

	case []any:
		out := make([]any, len(n))
		for i, v := range n {
			resolved, err := r.resolveNode(v, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil

	default:
		return node, nil
	}
}

func (r *SchemaResolver) resolveRef(ref string, depth int) (any, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return nil, fmt.Errorf("%w: %s", ErrExternalRef, ref)
	}
	if !strings.HasPrefix(ref, "#/") {
		return nil, fmt.Errorf("%w: %s", ErrExternalRef, ref)
	}
	if r.stack[ref] {
		return nil, fmt.Errorf("%w: %s", ErrCircularRef, ref)
	}

	r.stack[ref] = true
	defer delete(r.stack, ref)

	target, err := r.resolvePointer(ref)
	if err != nil {
		return nil, err
	}
	return r.resolveNode(deepCopyJSON(target), depth+1)
}

// resolvePointer walks the root schema via the JSON-pointer segments of a
// "#/a/b/c" reference, unescaping "~0"/"~1" the same way the teacher's
// Schema.resolveJSONPointer does with kaptinlin/jsonpointer.
func (r *SchemaResolver) resolvePointer(ref string) (any, error) {
	pointer := strings.TrimPrefix(ref, "#")
	segments := jsonpointer.Parse(pointer)

	var current any = r.root
	for _, segment := range segments {
		decoded, err := url.PathUnescape(segment)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot decode segment %q", ErrSchemaParse, segment)
		}
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: cannot resolve %s: %q is not an object", ErrSchemaParse, ref, decoded)
		}
		next, ok := obj[decoded]
		if !ok {
			return nil, fmt.Errorf("%w: cannot resolve %s: path component %q not found", ErrJSONPointerSegment, ref, decoded)
		}
		current = next
	}
	return current, nil
}

// deepCopyJSON copies a decoded JSON value so resolving the same $ref twice
// never lets one call site's mutation leak into another's.
func deepCopyJSON(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = deepCopyJSON(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = deepCopyJSON(child)
		}
		return out
	default:
		return val
	}
}
