package executor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/boginw/jsonapi/queryable/plan"
)

// TableFormatter formats result records as tables.
type TableFormatter struct {
	// MaxWidth is the maximum width for a column
	MaxWidth int
	// TruncateString is the string to append when truncating
	TruncateString string
}

// NewTableFormatter creates a new table formatter with default settings
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{
		MaxWidth:       50,
		TruncateString: "...",
	}
}

// FormatRecords formats records as a markdown table. Columns are the union
// of scalar properties across the records, sorted, with type and id first.
func (tf *TableFormatter) FormatRecords(records []*Record) string {
	if len(records) == 0 {
		return "_No records_"
	}

	columnSet := make(map[string]bool)
	for _, rec := range records {
		for prop := range rec.Attrs {
			columnSet[prop] = true
		}
	}
	columns := make([]string, 0, len(columnSet))
	for prop := range columnSet {
		columns = append(columns, prop)
	}
	sort.Strings(columns)
	columns = append([]string{"type"}, columns...)

	tableString := &strings.Builder{}

	alignment := make([]tw.Align, len(columns))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}

	table := tablewriter.NewTable(tableString,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(columns)

	for _, rec := range records {
		row := make([]string, len(columns))
		row[0] = rec.Storage
		for i, col := range columns[1:] {
			if v, ok := rec.Attr(col); ok {
				row[i+1] = tf.truncate(v.String())
			}
		}
		table.Append(row)
	}
	table.Render()

	tableString.WriteString(fmt.Sprintf("\n_%d records_\n", len(records)))
	return tableString.String()
}

func (tf *TableFormatter) truncate(s string) string {
	if tf.MaxWidth > 0 && len(s) > tf.MaxWidth {
		return s[:tf.MaxWidth-len(tf.TruncateString)] + tf.TruncateString
	}
	return s
}

// PrintRecords prints records to stdout.
func PrintRecords(records []*Record) {
	formatter := NewTableFormatter()
	fmt.Println(formatter.FormatRecords(records))
}

// FormatPlan renders a plan as an indented tree, optionally colorized:
// operator names in yellow, sources in blue.
func FormatPlan(n plan.Node, useColor bool) string {
	rendered := plan.Render(n)
	if !useColor {
		return rendered
	}

	lines := strings.Split(rendered, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		indent := line[:len(line)-len(trimmed)]
		open := strings.IndexByte(trimmed, '(')
		if open < 0 {
			continue
		}
		name := trimmed[:open]
		rest := trimmed[open:]
		if name == "Scan" || name == "Bind" {
			lines[i] = indent + color.BlueString(name) + rest
		} else {
			lines[i] = indent + color.YellowString(name) + rest
		}
	}
	return strings.Join(lines, "\n")
}
