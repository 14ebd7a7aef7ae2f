package jira

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/google/uuid"
)

// RawRecord is one request/response exchange as written to disk.
type RawRecord struct {
	Method       string
	URL          string
	StatusCode   int
	Duration     time.Duration
	RequestBody  []byte
	ResponseBody []byte
}

// rawFile is the on-disk layout of a RawRecord.
type rawFile struct {
	Timestamp string      `json:"timestamp"`
	Request   rawRequest  `json:"request"`
	Response  rawResponse `json:"response"`
}

type rawRequest struct {
	Method string         `json:"method"`
	URL    string         `json:"url"`
	Body   jsontext.Value `json:"body,omitzero"`
}

type rawResponse struct {
	Status     int            `json:"status"`
	DurationMS int64          `json:"durationMs"`
	Body       jsontext.Value `json:"body,omitzero"`
	Text       string         `json:"text,omitzero"`
}

// DefaultRawResponseDir returns the directory used when none is configured.
func DefaultRawResponseDir() string {
	return filepath.Join(os.TempDir(), "mcp", "mcp-jira")
}

// RawResponseStore writes complete API exchanges to files so that callers can
// recover data that was filtered or truncated away.
type RawResponseStore struct {
	dir string
	now func() time.Time
}

// NewRawResponseStore creates a store rooted at dir.
// An empty dir selects DefaultRawResponseDir.
func NewRawResponseStore(dir string) *RawResponseStore {
	if dir == "" {
		dir = DefaultRawResponseDir()
	}
	return &RawResponseStore{dir: dir, now: time.Now}
}

// Dir returns the directory files are written to.
func (s *RawResponseStore) Dir() string {
	return s.dir
}

// Save writes rec and returns the absolute file path.
func (s *RawResponseStore) Save(rec RawRecord) (string, error) {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create raw response directory: %w", err)
	}

	ts := s.now().UTC()
	doc := rawFile{
		Timestamp: ts.Format(time.RFC3339Nano),
		Request: rawRequest{
			Method: rec.Method,
			URL:    rec.URL,
			Body:   validJSON(rec.RequestBody),
		},
		Response: rawResponse{
			Status:     rec.StatusCode,
			DurationMS: rec.Duration.Milliseconds(),
			Body:       validJSON(rec.ResponseBody),
		},
	}
	if doc.Response.Body == nil && len(rec.ResponseBody) > 0 {
		doc.Response.Text = string(rec.ResponseBody)
	}

	data, err := json.Marshal(doc, jsontext.WithIndent("  "))
	if err != nil {
		return "", fmt.Errorf("failed to encode raw response: %w", err)
	}

	name := fmt.Sprintf("%s-%s.json", ts.Format("20060102T150405.000Z"), uuid.NewString()[:8])
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write raw response: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}
	return abs, nil
}

func validJSON(b []byte) jsontext.Value {
	if len(b) == 0 {
		return nil
	}
	v := jsontext.Value(b).Clone()
	if !v.IsValid() {
		return nil
	}
	return v
}
