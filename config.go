package shadowdiff

// EngineConfig holds the resource limits and behavioral switches for a
// comparison run.
type EngineConfig struct {
	// MaxDepth bounds $ref and document recursion during schema resolution.
	MaxDepth int

	// MaxPayloadSizeMB rejects baseline/candidate documents whose encoded
	// size exceeds this many megabytes before any comparison work begins.
	MaxPayloadSizeMB float64

	// TimeoutSeconds bounds the wall-clock time a single Compare call may run.
	TimeoutSeconds int

	// StrictSchemaValidation requires the schema fragment to be a JSON
	// object with a recognizable root (either a bare schema or an OpenAPI
	// components/schemas envelope).
	StrictSchemaValidation bool

	// CollectStatistics enables Coverage computation in the returned report.
	CollectStatistics bool

	// TraceRuleApplication enables per-field rule-application tracing in
	// the returned report. Off by default: it roughly doubles report size.
	TraceRuleApplication bool

	// FailFast stops the differ at the first confirmed mismatch instead of
	// collecting every diff in the documents.
	FailFast bool
}

// defaultEngineConfig returns the configuration a bare NewEngine() starts
// from.
func defaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxDepth:               100,
		MaxPayloadSizeMB:       50,
		TimeoutSeconds:         30,
		StrictSchemaValidation: true,
		CollectStatistics:      true,
		TraceRuleApplication:   false,
		FailFast:               false,
	}
}

// Engine runs the full resolve/normalize/mask/diff pipeline for a single
// schema's worth of comparisons. It caches nothing across Compare calls
// beyond its configuration and locale, so the same Engine can be reused
// concurrently across goroutines as long as each call supplies its own
// documents.
type Engine struct {
	config     EngineConfig
	translator *Translator
}

// NewEngine creates an Engine with default resource limits, rendering
// messages in the given locale ("en" or "zh-Hans").
func NewEngine(locale string) (*Engine, error) {
	translator, err := NewTranslator(locale)
	if err != nil {
		return nil, err
	}
	return &Engine{config: defaultEngineConfig(), translator: translator}, nil
}

// WithMaxDepth overrides the $ref/document recursion bound.
func (e *Engine) WithMaxDepth(depth int) *Engine {
	e.config.MaxDepth = depth
	return e
}

// WithMaxPayloadSizeMB overrides the payload size limit, in megabytes.
func (e *Engine) WithMaxPayloadSizeMB(mb float64) *Engine {
	e.config.MaxPayloadSizeMB = mb
	return e
}

// WithTimeout overrides the per-call wall-clock bound, in seconds.
func (e *Engine) WithTimeout(seconds int) *Engine {
	e.config.TimeoutSeconds = seconds
	return e
}

// WithFailFast enables or disables stopping at the first confirmed mismatch.
func (e *Engine) WithFailFast(enabled bool) *Engine {
	e.config.FailFast = enabled
	return e
}

// WithTrace enables or disables per-field rule-application tracing.
func (e *Engine) WithTrace(enabled bool) *Engine {
	e.config.TraceRuleApplication = enabled
	return e
}

// WithCollectStatistics enables or disables Coverage computation.
func (e *Engine) WithCollectStatistics(enabled bool) *Engine {
	e.config.CollectStatistics = enabled
	return e
}

// WithStrictSchemaValidation enables or disables upfront schema-shape
// validation.
func (e *Engine) WithStrictSchemaValidation(enabled bool) *Engine {
	e.config.StrictSchemaValidation = enabled
	return e
}
