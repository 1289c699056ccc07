package markup

import (
	"strconv"
	"strings"
)

var listRule = Rule{
	Name:   "list",
	Match:  tagIs("ul", "ol"),
	Block:  true,
	Raw:    true,
	Render: renderList,
}

// renderList renders the direct li children of a list. Item content is
// indented by three spaces after every line break; a nested list has already
// been indented for its own level when it was rendered as part of the item.
func renderList(c *Context, n *Node, _ string) string {
	ordered := n.Tag == "ol"
	items := n.ChildElements("li")
	if len(items) == 0 {
		return ""
	}

	lines := make([]string, 0, len(items))
	for i, item := range items {
		prefix := "- "
		if ordered {
			prefix = strconv.Itoa(i+1) + ". "
		}
		content := strings.ReplaceAll(c.TransformChildren(item), "\n", "\n   ")
		lines = append(lines, prefix+content)
	}
	return strings.Join(lines, "\n") + "\n\n"
}
