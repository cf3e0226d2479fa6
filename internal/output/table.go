package output

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// maxCellWidth wraps long values such as 1000-term sequences or AI answers.
const maxCellWidth = 100

// TableFormatter renders results as an ASCII table.
type TableFormatter struct{}

// Format renders a result as a two-column table.
func (f *TableFormatter) Format(result *Result) (string, error) {
	if result == nil {
		return "", nil
	}
	return newTable(result).Render(), nil
}

func newTable(result *Result) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Field", "Value"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: maxCellWidth, WidthMaxEnforcer: text.WrapSoft},
	})

	t.AppendRow(table.Row{"Operation", result.Operation})
	t.AppendRow(table.Row{"Input", cellValue(result.Input)})
	if result.Error != "" {
		t.AppendRow(table.Row{"Error", result.Error})
	} else {
		t.AppendRow(table.Row{"Result", cellValue(result.Data)})
	}
	return t
}
