// Package jira provides a thin REST client for the Jira Cloud API.
//
// The client deliberately knows nothing about Jira resources: callers pass an
// API path such as "/rest/api/3/search" together with query parameters and an
// optional JSON body, and receive the decoded JSON payload. Authentication is
// either HTTP basic (account email plus API token) or an OAuth 2.0 bearer
// token.
//
// Every successful response can be persisted verbatim by a [RawResponseStore].
// The returned file path lets a caller recover the complete payload after the
// response text has been filtered or truncated for an LLM.
package jira
