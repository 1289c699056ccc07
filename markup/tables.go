package markup

import (
	"regexp"
	"strings"
)

var tableRule = Rule{
	Name:   "table",
	Match:  tagIs("table"),
	Block:  true,
	Raw:    true,
	Render: renderTable,
}

var cellLineBreaks = regexp.MustCompile(`[ \t]*\n+[ \t]*`)

// renderTable emits a GFM table. The first row is the header, whether it is
// made of th or td cells. Rows are not padded to the header width.
func renderTable(c *Context, n *Node, _ string) string {
	rows := tableRows(n)
	if len(rows) == 0 {
		return ""
	}

	var lines []string
	header := rowCells(c, rows[0])
	if len(header) > 0 {
		lines = append(lines, formatRow(header))
		separator := make([]string, len(header))
		for i := range separator {
			separator[i] = "---"
		}
		lines = append(lines, formatRow(separator))
	}

	for _, row := range rows[1:] {
		cells := rowCells(c, row)
		if len(cells) == 0 {
			continue
		}
		lines = append(lines, formatRow(cells))
	}

	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n\n"
}

// tableRows collects the rows of this table, looking through row groups but
// not into nested tables.
func tableRows(table *Node) []*Node {
	var rows []*Node
	for _, child := range table.ChildElements("tr", "thead", "tbody", "tfoot") {
		if child.Tag == "tr" {
			rows = append(rows, child)
			continue
		}
		rows = append(rows, child.ChildElements("tr")...)
	}
	return rows
}

func rowCells(c *Context, row *Node) []string {
	cells := row.ChildElements("th", "td")
	out := make([]string, len(cells))
	for i, cell := range cells {
		content := strings.TrimSpace(c.TransformChildren(cell))
		content = cellLineBreaks.ReplaceAllString(content, " ")
		out[i] = strings.ReplaceAll(content, "|", `\|`)
	}
	return out
}

func formatRow(cells []string) string {
	return "| " + strings.Join(cells, " | ") + " |"
}
