package jira

import (
	"fmt"
	"net/url"
	"strings"
)

// Credentials identify the Jira site and the account used to call it.
type Credentials struct {
	// SiteName is the Atlassian site, e.g. "acme" for acme.atlassian.net.
	SiteName string

	// BaseURL overrides the URL derived from SiteName. Used for tests,
	// proxies and the api.atlassian.com gateway.
	BaseURL string

	// UserEmail and APIToken enable basic authentication.
	UserEmail string
	APIToken  string

	// AccessToken enables OAuth 2.0 bearer authentication and takes
	// precedence over basic authentication.
	AccessToken string
}

// AuthMode reports which authentication scheme the credentials select.
func (c Credentials) AuthMode() string {
	switch {
	case c.AccessToken != "":
		return "oauth"
	case c.UserEmail != "" && c.APIToken != "":
		return "basic"
	default:
		return "none"
	}
}

// Validate checks that the credentials name a site and an auth scheme.
func (c Credentials) Validate() error {
	if c.SiteName == "" && c.BaseURL == "" {
		return fmt.Errorf("%w: ATLASSIAN_SITE_NAME is not set", ErrCredentialsMissing)
	}
	if c.AuthMode() == "none" {
		return fmt.Errorf("%w: set ATLASSIAN_USER_EMAIL and ATLASSIAN_API_TOKEN, or ATLASSIAN_OAUTH_ACCESS_TOKEN", ErrCredentialsMissing)
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid base URL %q", c.BaseURL)
		}
	}
	return nil
}

// ResolvedBaseURL returns the API root without a trailing slash.
func (c Credentials) ResolvedBaseURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	site := strings.TrimSpace(c.SiteName)
	if strings.Contains(site, ".") {
		// already a host name
		return "https://" + strings.TrimRight(site, "/")
	}
	return "https://" + site + ".atlassian.net"
}
