package output

import (
	"bytes"
	"encoding/json"
	"strings"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

// Format renders a result as JSON.
func (f *JSONFormatter) Format(result *Result) (string, error) {
	if result == nil {
		return "", nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if f.Indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
