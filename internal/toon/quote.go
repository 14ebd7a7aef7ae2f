package toon

import (
	"strconv"
	"strings"
)

var escaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// quoteString returns s unchanged when it reads back unambiguously as a
// string, and a double-quoted escaped form otherwise.
func quoteString(s, delimiter string) string {
	if needsQuotes(s, delimiter) {
		return `"` + escaper.Replace(s) + `"`
	}
	return s
}

func needsQuotes(s, delimiter string) bool {
	if s == "" || s != strings.TrimSpace(s) {
		return true
	}
	switch s {
	case "true", "false", "null":
		return true
	}
	if looksNumeric(s) {
		return true
	}
	if strings.HasPrefix(s, "-") {
		return true
	}
	if strings.ContainsAny(s, ":\"\\[]{}\n\r\t") {
		return true
	}
	return strings.Contains(s, delimiter)
}

func looksNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// formatKey leaves identifier-like keys bare and quotes everything else.
func formatKey(k string) string {
	if isIdentifier(k) {
		return k
	}
	return `"` + escaper.Replace(k) + `"`
}

func isIdentifier(k string) bool {
	if k == "" {
		return false
	}
	for i, r := range k {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && (r == '.' || (r >= '0' && r <= '9')):
		default:
			return false
		}
	}
	return true
}
