package output

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"
)

// RenderOptions are the per-request shaping parameters.
type RenderOptions struct {
	// FilterExpression is a JMESPath expression applied before encoding.
	FilterExpression string

	// OutputFormat selects the encoding. Empty uses the configured default.
	OutputFormat Format

	// MaxChars overrides the configured character budget when positive.
	MaxChars int

	// RawResponsePath is cited in truncation guidance when set.
	RawResponsePath string
}

// RenderResult contains the rendered text and what happened on the way.
type RenderResult struct {
	// Text is the final response body
	Text string `json:"text"`

	// Format is the format actually produced
	Format Format `json:"format"`

	// FilterError is set when the filter expression could not be applied
	FilterError *FilterError `json:"filterError,omitempty"`

	// CompactFallback indicates compact output was requested but JSON was produced
	CompactFallback bool `json:"compactFallback,omitempty"`

	// Warning is set when the body was truncated
	Warning *TruncationWarning `json:"warning,omitempty"`

	// EncodedChars is the body length before truncation
	EncodedChars int `json:"encodedChars"`

	// Duration is how long rendering took
	Duration time.Duration `json:"duration"`
}

// Truncated reports whether the body was cut.
func (r *RenderResult) Truncated() bool {
	return r.Warning != nil
}

// RenderObserver is notified after every render.
type RenderObserver func(ctx context.Context, result *RenderResult)

// Processor runs the response-shaping pipeline: filter, encode, truncate.
type Processor struct {
	config   *Config
	encoder  *EncoderHandle
	logger   *slog.Logger
	observer RenderObserver
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithEncoderHandle shares an existing compact encoder handle.
func WithEncoderHandle(h *EncoderHandle) ProcessorOption {
	return func(p *Processor) {
		p.encoder = h
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithObserver registers a callback invoked after every render.
func WithObserver(o RenderObserver) ProcessorOption {
	return func(p *Processor) {
		p.observer = o
	}
}

// NewProcessor creates a new processor with the given configuration.
// A nil config selects DefaultConfig.
func NewProcessor(config *Config, opts ...ProcessorOption) *Processor {
	if config == nil {
		config = DefaultConfig()
	}
	p := &Processor{
		config: config.Validate(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.encoder == nil {
		p.encoder = NewEncoderHandle(nil, p.logger)
	}
	return p
}

// Config returns the processor's configuration.
func (p *Processor) Config() *Config {
	return p.config
}

// Encoder returns the processor's compact encoder handle.
func (p *Processor) Encoder() *EncoderHandle {
	return p.encoder
}

// Render shapes data into response text. It never fails.
func (p *Processor) Render(ctx context.Context, data any, opts RenderOptions) string {
	return p.RenderResult(ctx, data, opts).Text
}

// RenderResult shapes data and reports what each stage did.
// The compact encoder is loaded on first use.
func (p *Processor) RenderResult(ctx context.Context, data any, opts RenderOptions) *RenderResult {
	return p.render(ctx, data, opts, func(v any, f Format) EncodeResult {
		return p.encoder.Encode(ctx, v, f)
	})
}

// RenderSync is Render without loading the compact encoder. Until another
// call has loaded it, compact requests produce JSON.
func (p *Processor) RenderSync(data any, opts RenderOptions) string {
	return p.render(context.Background(), data, opts, p.encoder.EncodeSync).Text
}

func (p *Processor) render(ctx context.Context, data any, opts RenderOptions, encode func(any, Format) EncodeResult) *RenderResult {
	start := time.Now()

	filtered := ApplyFilter(data, opts.FilterExpression)
	result := &RenderResult{}
	if filtered.Failed() {
		result.FilterError = filtered.Err()
		p.logger.Warn("filter expression rejected",
			slog.String("expression", opts.FilterExpression),
			slog.String("detail", filtered.Err().Detail))
	}

	format := opts.OutputFormat
	if format == "" {
		format = p.config.DefaultFormat
	}

	encoded := encode(filtered.Data(), format)
	result.Format = encoded.Format
	result.CompactFallback = encoded.Fallback
	result.EncodedChars = utf8.RuneCountInString(encoded.Text)

	maxChars := EffectiveMaxChars(opts.MaxChars, p.config.MaxResponseChars)
	result.Text, result.Warning = truncate(encoded.Text, maxChars, p.config.NewlineLookback, opts.RawResponsePath)
	if result.Warning != nil {
		p.logger.Debug("response truncated",
			slog.Int("shown", result.Warning.Shown),
			slog.Int("total", result.Warning.Total))
	}

	result.Duration = time.Since(start)
	if p.observer != nil {
		p.observer(ctx, result)
	}
	return result
}
