package output

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/giantswarm/mcp-jira/internal/toon"
)

// EncoderState is the lifecycle state of an EncoderHandle.
type EncoderState int32

const (
	// EncoderUninitialized means no load has been attempted yet.
	EncoderUninitialized EncoderState = iota

	// EncoderReady means the compact encoder is loaded and usable.
	EncoderReady

	// EncoderFailed means loading failed. The state is terminal.
	EncoderFailed
)

// String implements fmt.Stringer.
func (s EncoderState) String() string {
	switch s {
	case EncoderUninitialized:
		return "uninitialized"
	case EncoderReady:
		return "ready"
	case EncoderFailed:
		return "failed"
	default:
		return fmt.Sprintf("EncoderState(%d)", int32(s))
	}
}

// CompactEncoder renders a value in the compact tabular format.
type CompactEncoder interface {
	Encode(v any) (string, error)
}

// EncoderLoader produces the compact encoder on first use.
type EncoderLoader func(ctx context.Context) (CompactEncoder, error)

// ErrInvalidCompactOutput is reported when the compact encoder returns text
// that cannot be used as a response body.
var ErrInvalidCompactOutput = errors.New("compact encoder produced unusable output")

// DefaultEncoderLoader loads the built-in tabular encoder.
func DefaultEncoderLoader(_ context.Context) (CompactEncoder, error) {
	return toon.Default(), nil
}

// EncoderHandle owns the lazily-loaded compact encoder.
//
// It moves from EncoderUninitialized to EncoderReady or EncoderFailed exactly
// once. The loaded encoder is never replaced afterwards, so a handle may be
// shared process-wide and used from concurrent requests.
type EncoderHandle struct {
	loader EncoderLoader
	logger *slog.Logger

	mu      sync.Mutex
	state   atomic.Int32
	encoder CompactEncoder
	loadErr error
}

// NewEncoderHandle creates a handle in the uninitialized state.
// A nil loader selects DefaultEncoderLoader.
func NewEncoderHandle(loader EncoderLoader, logger *slog.Logger) *EncoderHandle {
	if loader == nil {
		loader = DefaultEncoderLoader
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EncoderHandle{loader: loader, logger: logger}
}

// State returns the current lifecycle state.
func (h *EncoderHandle) State() EncoderState {
	return EncoderState(h.state.Load())
}

// EnsureLoaded loads the compact encoder if no load has been attempted yet.
// It is idempotent and safe for concurrent callers; only one load ever runs.
// The returned error is the load error, if loading failed now or earlier.
func (h *EncoderHandle) EnsureLoaded(ctx context.Context) error {
	// Fast path: already resolved
	switch h.State() {
	case EncoderReady:
		return nil
	case EncoderFailed:
		return h.lastLoadErr()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// Double-check after acquiring the lock
	switch h.State() {
	case EncoderReady:
		return nil
	case EncoderFailed:
		return h.loadErr
	}

	enc, err := h.loader(ctx)
	if err == nil && enc == nil {
		err = errors.New("compact encoder loader returned nil")
	}
	if err != nil {
		h.loadErr = err
		h.state.Store(int32(EncoderFailed))
		h.logger.Warn("compact encoder unavailable, responses will use JSON", slog.String("error", err.Error()))
		return err
	}

	h.encoder = enc
	h.state.Store(int32(EncoderReady))
	return nil
}

func (h *EncoderHandle) lastLoadErr() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loadErr
}

// loaded returns the encoder when the handle is ready. The atomic state store
// in EnsureLoaded happens after the encoder is written.
func (h *EncoderHandle) loaded() CompactEncoder {
	if h.State() != EncoderReady {
		return nil
	}
	return h.encoder
}

// EncodeResult describes one encoding.
type EncodeResult struct {
	// Text is the encoded body.
	Text string

	// Format is the format actually produced.
	Format Format

	// Fallback is set when compact output was requested but verbose was produced.
	Fallback bool

	// FallbackReason explains the fallback.
	FallbackReason error
}

// Encode renders data in the requested format, loading the compact encoder
// if needed. It never fails: any compact encoding problem yields verbose
// output instead.
func (h *EncoderHandle) Encode(ctx context.Context, data any, format Format) EncodeResult {
	if format != FormatVerbose {
		// A load failure is recorded on the handle and handled below.
		_ = h.EnsureLoaded(ctx)
	}
	return h.EncodeSync(data, format)
}

// EncodeSync renders data without ever triggering a load. Compact output is
// produced only if the encoder is already loaded; otherwise verbose output
// is returned.
func (h *EncoderHandle) EncodeSync(data any, format Format) EncodeResult {
	if format == FormatVerbose {
		return EncodeResult{Text: EncodeVerbose(data), Format: FormatVerbose}
	}

	enc := h.loaded()
	if enc == nil {
		reason := fmt.Errorf("compact encoder %s", h.State())
		return h.fallback(data, reason)
	}

	text, err := encodeCompact(enc, data)
	if err != nil {
		return h.fallback(data, err)
	}
	return EncodeResult{Text: text, Format: FormatCompact}
}

func (h *EncoderHandle) fallback(data any, reason error) EncodeResult {
	h.logger.Debug("falling back to JSON output", slog.String("reason", reason.Error()))
	return EncodeResult{
		Text:           EncodeVerbose(data),
		Format:         FormatVerbose,
		Fallback:       true,
		FallbackReason: reason,
	}
}

func encodeCompact(enc CompactEncoder, data any) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("compact encoder panicked: %v", r)
		}
	}()

	text, err = enc.Encode(data)
	if err != nil {
		return "", err
	}
	if text == "" || !utf8.ValidString(text) {
		return "", ErrInvalidCompactOutput
	}
	return text, nil
}

// EncodeVerbose renders data as two-space indented JSON with sorted object
// keys. Values JSON cannot represent are rendered with fmt as a last resort.
func EncodeVerbose(data any) string {
	out, err := json.Marshal(data,
		jsontext.WithIndent("  "),
		jsontext.AllowInvalidUTF8(true),
		json.Deterministic(true),
	)
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(out)
}
