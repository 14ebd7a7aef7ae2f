package toon

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Encoder defaults.
const (
	// DefaultIndent is the number of spaces per nesting level.
	DefaultIndent = 2

	// DefaultDelimiter separates inline array values and table cells.
	DefaultDelimiter = ','

	// DefaultMaxDepth bounds nesting to guard against cyclic pointer graphs.
	DefaultMaxDepth = 128
)

var (
	// ErrUnsupportedValue is returned for values with no JSON representation.
	ErrUnsupportedValue = errors.New("toon: unsupported value")

	// ErrMaxDepth is returned when a value nests deeper than the configured limit.
	ErrMaxDepth = errors.New("toon: maximum nesting depth exceeded")

	// ErrInvalidOptions is returned by New for unusable options.
	ErrInvalidOptions = errors.New("toon: invalid options")
)

// Options configures an Encoder. Zero values select the defaults.
type Options struct {
	// Indent is the number of spaces per nesting level.
	Indent int

	// Delimiter separates inline array values and table cells.
	// Supported: ',', '\t' and '|'.
	Delimiter rune

	// MaxDepth limits nesting of maps and slices.
	MaxDepth int
}

// Encoder renders values in compact tabular notation.
// An Encoder is immutable and safe for concurrent use.
type Encoder struct {
	indent    string
	delimiter string
	maxDepth  int
}

var defaultEncoder = &Encoder{
	indent:    strings.Repeat(" ", DefaultIndent),
	delimiter: string(DefaultDelimiter),
	maxDepth:  DefaultMaxDepth,
}

// New creates an Encoder from opts.
func New(opts Options) (*Encoder, error) {
	if opts.Indent < 0 || opts.MaxDepth < 0 {
		return nil, fmt.Errorf("%w: negative indent or depth", ErrInvalidOptions)
	}
	if opts.Indent == 0 {
		opts.Indent = DefaultIndent
	}
	if opts.MaxDepth == 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	switch opts.Delimiter {
	case 0:
		opts.Delimiter = DefaultDelimiter
	case ',', '\t', '|':
	default:
		return nil, fmt.Errorf("%w: unsupported delimiter %q", ErrInvalidOptions, opts.Delimiter)
	}

	return &Encoder{
		indent:    strings.Repeat(" ", opts.Indent),
		delimiter: string(opts.Delimiter),
		maxDepth:  opts.MaxDepth,
	}, nil
}

// Default returns the shared Encoder with two-space indentation and comma
// delimiters.
func Default() *Encoder {
	return defaultEncoder
}

// Encode renders v. The result has no trailing newline.
func (e *Encoder) Encode(v any) (string, error) {
	normalized, err := e.normalize(v, 0)
	if err != nil {
		return "", err
	}

	s := &encodeState{enc: e}
	switch val := normalized.(type) {
	case map[string]any:
		s.writeObject(val, 0)
	case []any:
		s.writeArray("", val, 0)
	default:
		s.lines = append(s.lines, e.primitive(val))
	}

	return strings.Join(s.lines, "\n"), nil
}

type encodeState struct {
	enc   *Encoder
	lines []string
}

func (s *encodeState) line(depth int, text string) {
	s.lines = append(s.lines, strings.Repeat(s.enc.indent, depth)+text)
}

func (s *encodeState) writeObject(obj map[string]any, depth int) {
	for _, k := range sortedKeys(obj) {
		s.writeField(formatKey(k), obj[k], depth)
	}
}

func (s *encodeState) writeField(key string, v any, depth int) {
	switch val := v.(type) {
	case map[string]any:
		s.line(depth, key+":")
		s.writeObject(val, depth+1)
	case []any:
		s.writeArray(key, val, depth)
	default:
		s.line(depth, key+": "+s.enc.primitive(val))
	}
}

func (s *encodeState) writeArray(key string, arr []any, depth int) {
	header := key + s.enc.lengthMarker(len(arr))

	if len(arr) == 0 {
		s.line(depth, header+":")
		return
	}

	if allPrimitive(arr) {
		cells := make([]string, len(arr))
		for i, item := range arr {
			cells[i] = s.enc.primitive(item)
		}
		s.line(depth, header+": "+strings.Join(cells, s.enc.delimiter))
		return
	}

	if fields, ok := tabularFields(arr); ok {
		names := make([]string, len(fields))
		for i, f := range fields {
			names[i] = formatKey(f)
		}
		s.line(depth, header+"{"+strings.Join(names, s.enc.delimiter)+"}:")

		cells := make([]string, len(fields))
		for _, item := range arr {
			row := item.(map[string]any)
			for i, f := range fields {
				cells[i] = s.enc.primitive(row[f])
			}
			s.line(depth+1, strings.Join(cells, s.enc.delimiter))
		}
		return
	}

	s.line(depth, header+":")
	for _, item := range arr {
		s.writeListItem(item, depth+1)
	}
}

// writeListItem renders item one level deeper and then hoists its first line
// onto the "- " marker, so sibling fields stay aligned under the first one.
func (s *encodeState) writeListItem(item any, depth int) {
	switch val := item.(type) {
	case map[string]any:
		if len(val) == 0 {
			s.line(depth, "-")
			return
		}
		sub := &encodeState{enc: s.enc}
		sub.writeObject(val, depth+1)
		s.hoist(sub.lines, depth)
	case []any:
		sub := &encodeState{enc: s.enc}
		sub.writeArray("", val, depth+1)
		s.hoist(sub.lines, depth)
	default:
		s.line(depth, "- "+s.enc.primitive(val))
	}
}

func (s *encodeState) hoist(lines []string, depth int) {
	prefix := strings.Repeat(s.enc.indent, depth+1)
	s.line(depth, "- "+strings.TrimPrefix(lines[0], prefix))
	s.lines = append(s.lines, lines[1:]...)
}

func (e *Encoder) lengthMarker(n int) string {
	if e.delimiter == string(DefaultDelimiter) {
		return "[" + strconv.Itoa(n) + "]"
	}
	return "[" + strconv.Itoa(n) + e.delimiter + "]"
}

func (e *Encoder) primitive(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(val)
	case string:
		return quoteString(val, e.delimiter)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float64:
		return formatFloat(val)
	default:
		// normalize guarantees the cases above
		return quoteString(fmt.Sprint(val), e.delimiter)
	}
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "null"
	}
	if f == 0 {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func allPrimitive(arr []any) bool {
	for _, item := range arr {
		if !isPrimitive(item) {
			return false
		}
	}
	return true
}

func isPrimitive(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return false
	default:
		return true
	}
}

// tabularFields reports the shared sorted field list when every element is a
// non-empty object with identical keys and only primitive values.
func tabularFields(arr []any) ([]string, bool) {
	first, ok := arr[0].(map[string]any)
	if !ok || len(first) == 0 {
		return nil, false
	}
	fields := sortedKeys(first)

	for _, item := range arr {
		obj, ok := item.(map[string]any)
		if !ok || len(obj) != len(fields) {
			return nil, false
		}
		for _, f := range fields {
			v, exists := obj[f]
			if !exists || !isPrimitive(v) {
				return nil, false
			}
		}
	}
	return fields, true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
