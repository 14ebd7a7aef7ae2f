package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/joho/godotenv"
)

// PackageNames are the keys looked up in the global config file. The first
// match wins.
var PackageNames = []string{"mcp-jira", "@aashari/mcp-server-atlassian-jira"}

// DefaultEnvFile is the dotenv file read from the working directory.
const DefaultEnvFile = ".env"

// Source identifies where a value came from.
type Source string

const (
	SourceEnv     Source = "env"
	SourceDotEnv  Source = "dotenv"
	SourceGlobal  Source = "global"
	SourceDefault Source = "default"
)

// Store holds the merged configuration.
type Store struct {
	env    func(string) (string, bool)
	dotenv map[string]string
	global map[string]string
}

// Option configures Load.
type Option func(*loader)

type loader struct {
	envFile      string
	globalPath   string
	packageNames []string
	lookupEnv    func(string) (string, bool)
	logger       *slog.Logger
}

// WithEnvFile overrides the dotenv path. An empty path disables it.
func WithEnvFile(path string) Option {
	return func(l *loader) {
		l.envFile = path
	}
}

// WithGlobalConfigPath overrides the global config path. An empty path
// disables it.
func WithGlobalConfigPath(path string) Option {
	return func(l *loader) {
		l.globalPath = path
	}
}

// WithPackageNames overrides the keys looked up in the global config file.
func WithPackageNames(names ...string) Option {
	return func(l *loader) {
		l.packageNames = names
	}
}

// WithLookupEnv replaces os.LookupEnv. Used by tests.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(l *loader) {
		l.lookupEnv = fn
	}
}

// WithLogger sets the logger used to report skipped sources.
func WithLogger(logger *slog.Logger) Option {
	return func(l *loader) {
		l.logger = logger
	}
}

// DefaultGlobalConfigPath returns ~/.mcp/configs.json, or "" when the home
// directory is unknown.
func DefaultGlobalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".mcp", "configs.json")
}

// Load reads every configured source. It only fails when a file exists but
// cannot be parsed.
func Load(opts ...Option) (*Store, error) {
	l := &loader{
		envFile:      DefaultEnvFile,
		globalPath:   DefaultGlobalConfigPath(),
		packageNames: PackageNames,
		lookupEnv:    os.LookupEnv,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}

	s := &Store{env: l.lookupEnv}

	if l.globalPath != "" {
		global, err := readGlobal(l.globalPath, l.packageNames)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			l.logger.Debug("global config file not found", slog.String("path", l.globalPath))
		case err != nil:
			return nil, err
		case global == nil:
			l.logger.Debug("no mcp-jira entry in global config file", slog.String("path", l.globalPath))
		default:
			s.global = global
		}
	}

	if l.envFile != "" {
		values, err := godotenv.Read(l.envFile)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			l.logger.Debug("no .env file found", slog.String("path", l.envFile))
		case err != nil:
			return nil, fmt.Errorf("failed to read %s: %w", l.envFile, err)
		default:
			s.dotenv = values
		}
	}

	return s, nil
}

type globalEntry struct {
	Environments map[string]any `json:"environments"`
}

// readGlobal returns the environments map of the first matching package
// entry, or nil when none matches.
func readGlobal(path string, names []string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entries map[string]jsontext.Value
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for _, name := range names {
		raw, ok := entries[name]
		if !ok {
			continue
		}
		var entry globalEntry
		if err := json.Unmarshal(raw, &entry); err != nil || entry.Environments == nil {
			continue
		}
		out := make(map[string]string, len(entry.Environments))
		for k, v := range entry.Environments {
			if v == nil {
				continue
			}
			out[k] = fmt.Sprint(v)
		}
		return out, nil
	}
	return nil, nil
}

// Lookup returns the value for key and where it came from. Empty values are
// treated as unset.
func (s *Store) Lookup(key string) (string, Source, bool) {
	if s == nil {
		return "", SourceDefault, false
	}
	if v, ok := s.env(key); ok && v != "" {
		return v, SourceEnv, true
	}
	if v := s.dotenv[key]; v != "" {
		return v, SourceDotEnv, true
	}
	if v := s.global[key]; v != "" {
		return v, SourceGlobal, true
	}
	return "", SourceDefault, false
}

// Get returns the value for key or def.
func (s *Store) Get(key, def string) string {
	if v, _, ok := s.Lookup(key); ok {
		return v
	}
	return def
}

// Bool returns true only for a case-insensitive "true".
func (s *Store) Bool(key string, def bool) bool {
	v, _, ok := s.Lookup(key)
	if !ok {
		return def
	}
	return strings.EqualFold(strings.TrimSpace(v), "true")
}

// Int returns the integer value for key, or def when unset or malformed.
func (s *Store) Int(key string, def int) int {
	v, _, ok := s.Lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

// Sources lists the sources that contributed to the store, highest priority
// first.
func (s *Store) Sources() []Source {
	out := []Source{SourceEnv}
	if s.dotenv != nil {
		out = append(out, SourceDotEnv)
	}
	if s.global != nil {
		out = append(out, SourceGlobal)
	}
	return out
}
