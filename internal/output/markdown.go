package output

// MarkdownFormatter renders results as a markdown table.
type MarkdownFormatter struct{}

// Format renders a result as Markdown.
func (f *MarkdownFormatter) Format(result *Result) (string, error) {
	if result == nil {
		return "", nil
	}
	return newTable(result).RenderMarkdown(), nil
}
