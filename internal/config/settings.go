package config

import (
	"github.com/giantswarm/mcp-jira/internal/jira"
	"github.com/giantswarm/mcp-jira/internal/tools/output"
)

// Configuration keys.
const (
	KeySiteName         = "ATLASSIAN_SITE_NAME"
	KeyBaseURL          = "ATLASSIAN_BASE_URL"
	KeyUserEmail        = "ATLASSIAN_USER_EMAIL"
	KeyAPIToken         = "ATLASSIAN_API_TOKEN"
	KeyOAuthAccessToken = "ATLASSIAN_OAUTH_ACCESS_TOKEN"
	KeyDebug            = "DEBUG"
	KeyRawResponseDir   = "MCP_RAW_RESPONSE_DIR"
	KeyMaxResponseChars = "MCP_MAX_RESPONSE_CHARS"
	KeyReadOnly         = "MCP_READ_ONLY"
)

// Settings are the resolved application settings.
type Settings struct {
	Credentials jira.Credentials

	Debug bool

	// RawResponseDir is where complete responses are saved. Empty selects
	// jira.DefaultRawResponseDir.
	RawResponseDir string

	// MaxResponseChars is the default response budget.
	MaxResponseChars int

	// ReadOnly refuses POST, PUT, PATCH and DELETE.
	ReadOnly bool
}

// Settings resolves the application settings from s.
func (s *Store) Settings() Settings {
	return Settings{
		Credentials:      s.Credentials(),
		Debug:            s.Bool(KeyDebug, false),
		RawResponseDir:   s.Get(KeyRawResponseDir, ""),
		MaxResponseChars: s.Int(KeyMaxResponseChars, output.DefaultMaxResponseChars),
		ReadOnly:         s.Bool(KeyReadOnly, false),
	}
}

// Credentials resolves the Jira credentials from s.
func (s *Store) Credentials() jira.Credentials {
	return jira.Credentials{
		SiteName:    s.Get(KeySiteName, ""),
		BaseURL:     s.Get(KeyBaseURL, ""),
		UserEmail:   s.Get(KeyUserEmail, ""),
		APIToken:    s.Get(KeyAPIToken, ""),
		AccessToken: s.Get(KeyOAuthAccessToken, ""),
	}
}

// OutputConfig returns the response pipeline configuration for these
// settings.
func (s Settings) OutputConfig() *output.Config {
	cfg := output.DefaultConfig()
	cfg.MaxResponseChars = s.MaxResponseChars
	return cfg.Validate()
}
