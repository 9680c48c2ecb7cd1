package shadowdiff

import "errors"

// === Input Validation Errors ===
var (
	// ErrValidation is returned when the inputs to Compare fail basic
	// validation (nil payloads, non-object schema fragment, and similar).
	ErrValidation = errors.New("validation error")

	// ErrPayloadSize is returned when a payload exceeds EngineConfig.MaxPayloadSizeMB.
	ErrPayloadSize = errors.New("payload size error")
)

// === Schema Resolution Errors ===
var (
	// ErrSchemaParse is returned when the schema fragment cannot be parsed
	// or a $ref cannot be resolved within it.
	ErrSchemaParse = errors.New("schema parse error")

	// ErrExternalRef is returned when a $ref points outside the schema
	// fragment (an absolute URL, or anything not rooted at "#/").
	ErrExternalRef = errors.New("external $ref not allowed")

	// ErrCircularRef is returned when a $ref chain revisits a reference
	// already on the resolution stack.
	ErrCircularRef = errors.New("circular reference detected")

	// ErrJSONPointerSegment is returned when a $ref's JSON pointer path
	// component cannot be found in the schema.
	ErrJSONPointerSegment = errors.New("json pointer segment not found")
)

// === Resource Limit Errors ===
var (
	// ErrMaxDepth is classified as MAX_DEPTH_ERROR by Engine.Compare. No
	// stage of the pipeline returns it: schema resolution leaves sub-trees
	// deeper than EngineConfig.MaxDepth unresolved, and the differ does not
	// check document depth.
	ErrMaxDepth = errors.New("maximum depth exceeded")

	// ErrTimeout is returned when a comparison exceeds EngineConfig.TimeoutSeconds.
	ErrTimeout = errors.New("processing timeout exceeded")
)

// === Processing Errors ===
var (
	// ErrProcessing is the catch-all sentinel for unexpected failures during
	// comparison that do not fall into a more specific category.
	ErrProcessing = errors.New("processing error")
)
