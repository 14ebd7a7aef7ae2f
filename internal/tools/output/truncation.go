package output

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// TruncationHeading marks the start of the guidance block.
const TruncationHeading = "## Response Truncated"

// maxCombiningBackoff bounds how far a hard cut moves back to avoid splitting
// a base character from its combining marks.
const maxCombiningBackoff = 32

// TruncationWarning contains information about response truncation.
type TruncationWarning struct {
	// Shown is the number of characters kept
	Shown int `json:"shown"`

	// Total is the number of characters before truncation
	Total int `json:"total"`

	// Message is a human-readable size summary
	Message string `json:"message"`

	// RawResponsePath points at the persisted full payload, if any
	RawResponsePath string `json:"rawResponsePath,omitempty"`

	// SuggestFilters lists ways to request a smaller result
	SuggestFilters []string `json:"suggestFilters,omitempty"`
}

// DefaultRecourse returns the suggestions appended to every truncated response.
func DefaultRecourse() []string {
	return []string{
		"Consider refining your request with more specific filters or selecting fewer fields",
		"For paginated data, use smaller page sizes or specific identifiers",
		"When searching, use more targeted queries to reduce result sets",
	}
}

// Guidance renders the block appended after a truncated body.
func (w *TruncationWarning) Guidance() string {
	lines := []string{
		"",
		"---",
		TruncationHeading,
		"",
		w.Message,
		"",
		"**To access the complete data:**",
	}
	if w.RawResponsePath != "" {
		lines = append(lines, fmt.Sprintf("- The full raw API response is saved at: `%s`", w.RawResponsePath))
	}
	for _, s := range w.SuggestFilters {
		lines = append(lines, "- "+s)
	}
	return strings.Join(lines, "\n")
}

// Truncate limits text to maxChars characters and appends recovery guidance
// when anything was cut. Text within the budget is returned unchanged with a
// nil warning. A non-positive maxChars selects DefaultMaxResponseChars.
//
// Lengths are counted in Unicode code points. The budget applies to the kept
// body only; the guidance block comes on top of it.
func Truncate(text string, maxChars int, rawResponsePath string) (string, *TruncationWarning) {
	return truncate(text, maxChars, DefaultNewlineLookback, rawResponsePath)
}

func truncate(text string, maxChars, lookback int, rawResponsePath string) (string, *TruncationWarning) {
	if maxChars <= 0 {
		maxChars = DefaultMaxResponseChars
	}

	total := utf8.RuneCountInString(text)
	if total <= maxChars {
		return text, nil
	}

	body := text[:cutPoint(text, maxChars, lookback)]
	shown := utf8.RuneCountInString(body)

	warning := &TruncationWarning{
		Shown:           shown,
		Total:           total,
		Message:         sizeMessage(shown, total),
		RawResponsePath: rawResponsePath,
		SuggestFilters:  DefaultRecourse(),
	}

	return body + warning.Guidance(), warning
}

// cutPoint returns the byte offset at which to cut text so that at most
// maxChars characters remain. A line break within lookback characters before
// the limit is preferred; otherwise the cut is made at the limit, moved back
// past any combining marks.
func cutPoint(text string, maxChars, lookback int) int {
	limit := byteOffset(text, maxChars)
	searchFrom := byteOffset(text, max(0, maxChars-lookback))

	// a line break exactly at the limit counts as found
	end := limit
	if end < len(text) && text[end] == '\n' {
		end++
	}
	if nl := strings.LastIndexByte(text[:end], '\n'); nl > searchFrom {
		return nl
	}

	return boundaryBefore(text, limit)
}

// byteOffset returns the byte index of the n-th rune of s, or len(s).
func byteOffset(s string, n int) int {
	for i := range s {
		if n == 0 {
			return i
		}
		n--
	}
	return len(s)
}

func boundaryBefore(text string, limit int) int {
	cut := limit
	for range maxCombiningBackoff {
		if cut <= 0 {
			break
		}
		if norm.NFC.PropertiesString(text[cut:]).BoundaryBefore() {
			return cut
		}
		_, size := utf8.DecodeLastRuneInString(text[:cut])
		cut -= size
	}
	return limit
}

func sizeMessage(shown, total int) string {
	percent := int(math.Round(float64(shown) / float64(total) * 100))
	return fmt.Sprintf("This response was truncated to ~%s (%d%% of original %s).",
		approx(shown/CharsPerToken, "tokens"), percent, approx(total, "chars"))
}

// approx renders n as "12k unit" for large values and "n unit" otherwise.
func approx(n int, unit string) string {
	if n < 1000 {
		return strconv.Itoa(n) + " " + unit
	}
	k := math.Round(float64(n)/100) / 10
	return strconv.FormatFloat(k, 'f', -1, 64) + "k " + unit
}
