package output

import (
	"fmt"
	"strings"
)

// Default limits for response shaping.
// These are tuned for typical LLM context windows.
const (
	// DefaultMaxResponseChars is the default character budget for a rendered body.
	DefaultMaxResponseChars = 40000

	// AbsoluteMaxResponseChars is the largest budget a caller can request.
	AbsoluteMaxResponseChars = 2_000_000

	// DefaultNewlineLookback is how far before the limit a line break is searched for.
	DefaultNewlineLookback = 500

	// CharsPerToken is the rough character-to-token ratio used in guidance text.
	CharsPerToken = 4
)

// Format selects how shaped data is serialised.
type Format string

const (
	// FormatCompact is the token-efficient tabular encoding.
	FormatCompact Format = "toon"

	// FormatVerbose is two-space indented JSON.
	FormatVerbose Format = "json"
)

// Descriptive aliases accepted by ParseFormat.
const (
	compactAlias = "compact"
	verboseAlias = "verbose"
)

// FormatNames lists every spelling ParseFormat accepts, wire names first.
func FormatNames() []string {
	return []string{string(FormatCompact), string(FormatVerbose), compactAlias, verboseAlias}
}

// ParseFormat maps user input to a Format. Empty input selects FormatCompact.
// Both the wire names ("toon", "json") and the descriptive names
// ("compact", "verbose") are accepted, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(FormatCompact), compactAlias:
		return FormatCompact, nil
	case string(FormatVerbose), verboseAlias:
		return FormatVerbose, nil
	default:
		return "", fmt.Errorf("unsupported output format %q: expected \"toon\" or \"json\"", s)
	}
}

// String implements fmt.Stringer.
func (f Format) String() string {
	return string(f)
}

// Config holds configuration for response shaping.
type Config struct {
	// MaxResponseChars is the character budget for the rendered body.
	// Guidance appended on truncation is not counted against it.
	// Default: 40000, Absolute max: 2000000
	MaxResponseChars int `json:"maxResponseChars" yaml:"maxResponseChars"`

	// NewlineLookback is the window before the limit searched for a line break.
	// Default: 500
	NewlineLookback int `json:"newlineLookback" yaml:"newlineLookback"`

	// DefaultFormat is used when a request names no format.
	// Default: toon
	DefaultFormat Format `json:"defaultFormat" yaml:"defaultFormat"`
}

// DefaultConfig returns a Config with the standard budget.
func DefaultConfig() *Config {
	return &Config{
		MaxResponseChars: DefaultMaxResponseChars,
		NewlineLookback:  DefaultNewlineLookback,
		DefaultFormat:    FormatCompact,
	}
}

// Validate returns a copy with out-of-range values replaced or capped.
func (c *Config) Validate() *Config {
	validated := *c

	if validated.MaxResponseChars <= 0 {
		validated.MaxResponseChars = DefaultMaxResponseChars
	}
	if validated.MaxResponseChars > AbsoluteMaxResponseChars {
		validated.MaxResponseChars = AbsoluteMaxResponseChars
	}
	if validated.NewlineLookback <= 0 {
		validated.NewlineLookback = DefaultNewlineLookback
	}
	if validated.DefaultFormat != FormatVerbose {
		validated.DefaultFormat = FormatCompact
	}

	return &validated
}

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// EffectiveMaxChars resolves a per-request budget against the configured one.
// A non-positive request falls back to the configured budget; every result is
// capped at AbsoluteMaxResponseChars.
func EffectiveMaxChars(requestMax, configMax int) int {
	if requestMax <= 0 {
		if configMax <= 0 {
			return DefaultMaxResponseChars
		}
		return min(configMax, AbsoluteMaxResponseChars)
	}
	return min(requestMax, AbsoluteMaxResponseChars)
}
