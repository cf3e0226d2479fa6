// Package sanitize turns free-form model output into plain text.
//
// The pipeline is heuristic. It does not parse Markdown or JSON grammars and
// may misread input that mixes literal braces with prose.
package sanitize

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

// EmailPlaceholder replaces redacted email addresses.
const EmailPlaceholder = "[redacted]"

var (
	codeFencePattern  = regexp.MustCompile("(?s)```.*?```")
	braceSpanPattern  = regexp.MustCompile(`(?s)\{.*\}`)
	emailPattern      = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	boldStarPattern   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	boldUnderPattern  = regexp.MustCompile(`__(.+?)__`)
	italicPattern     = regexp.MustCompile(`\*(.+?)\*`)
	inlineCodePattern = regexp.MustCompile("`([^`]*)`")
	blankRunPattern   = regexp.MustCompile(`\n{3,}`)
)

// Clean applies every step in order and returns the result.
func Clean(text string) string {
	text = StripCodeFences(text)
	text = ExtractJSON(text)
	text = RedactEmails(text)
	text = StripEmphasis(text)
	text = UnescapeNewlines(text)
	return NormalizeWhitespace(text)
}

// StripCodeFences removes triple-backtick blocks including their content.
func StripCodeFences(text string) string {
	return codeFencePattern.ReplaceAllString(text, "")
}

// ExtractJSON replaces text with the payload of its first-to-last brace span.
//
// A decoded string is used as is, an object with a string "data" field yields
// that field, and any other value is re-encoded with two-space indentation.
// When the span does not decode, the span itself is kept.
func ExtractJSON(text string) string {
	span := braceSpanPattern.FindString(text)
	if span == "" {
		return text
	}

	dec := json.NewDecoder(strings.NewReader(span))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil || dec.More() {
		return span
	}

	switch v := value.(type) {
	case string:
		return v
	case map[string]any:
		if data, ok := v["data"].(string); ok {
			return data
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return span
	}
	return strings.TrimRight(buf.String(), "\n")
}

// RedactEmails masks email-address-shaped substrings.
func RedactEmails(text string) string {
	return emailPattern.ReplaceAllString(text, EmailPlaceholder)
}

// StripEmphasis unwraps bold, italic and inline code markers and decodes
// the &quot; entity.
func StripEmphasis(text string) string {
	text = boldStarPattern.ReplaceAllString(text, "$1")
	text = boldUnderPattern.ReplaceAllString(text, "$1")
	text = italicPattern.ReplaceAllString(text, "$1")
	text = inlineCodePattern.ReplaceAllString(text, "$1")
	return strings.ReplaceAll(text, "&quot;", `"`)
}

// UnescapeNewlines turns literal \n sequences into line breaks and drops any
// backslash left afterwards.
func UnescapeNewlines(text string) string {
	text = strings.ReplaceAll(text, `\n`, "\n")
	return strings.ReplaceAll(text, `\`, "")
}

// NormalizeWhitespace unifies line endings, collapses runs of blank lines to
// a single blank line and trims the ends.
func NormalizeWhitespace(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = blankRunPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
