package markup

import (
	"strings"
)

func standardRules() []Rule {
	return []Rule{
		{
			Name:   "macro-parameter",
			Match:  tagIs("ac:parameter"),
			Raw:    true,
			Render: func(*Context, *Node, string) string { return "" },
		},
		{
			Name:   "plain-text-body",
			Match:  tagIs("ac:plain-text-body", "pre"),
			Block:  true,
			Raw:    true,
			Render: renderPreformatted,
		},
		{
			Name:   "heading",
			Match:  tagIs("h1", "h2", "h3", "h4", "h5", "h6"),
			Block:  true,
			Render: renderHeading,
		},
		{
			Name:   "paragraph",
			Match:  tagIs("p"),
			Block:  true,
			Render: func(_ *Context, _ *Node, content string) string { return strings.TrimSpace(content) },
		},
		{
			Name:   "blockquote",
			Match:  tagIs("blockquote"),
			Block:  true,
			Render: renderBlockquote,
		},
		{
			Name:   "horizontal-rule",
			Match:  tagIs("hr"),
			Block:  true,
			Render: func(*Context, *Node, string) string { return "---" },
		},
		{
			Name:   "line-break",
			Match:  tagIs("br"),
			Render: func(*Context, *Node, string) string { return "  \n" },
		},
		{
			Name:   "strong",
			Match:  tagIs("strong", "b"),
			Render: delimited("**"),
		},
		{
			Name:   "emphasis",
			Match:  tagIs("em", "i"),
			Render: delimited("_"),
		},
		{
			Name:   "strikethrough",
			Match:  tagIs("del", "s", "strike"),
			Render: delimited("~~"),
		},
		{
			Name:   "inline-code",
			Match:  tagIs("code"),
			Render: renderInlineCode,
		},
		{
			Name:   "link",
			Match:  tagIs("a"),
			Render: renderLink,
		},
		{
			Name:   "html-image",
			Match:  tagIs("img"),
			Render: renderHTMLImage,
		},
	}
}

func renderPreformatted(_ *Context, n *Node, _ string) string {
	return "```\n" + strings.TrimRight(n.TextContent(), "\n") + "\n```"
}

func renderHeading(_ *Context, n *Node, content string) string {
	text := strings.TrimSpace(cellLineBreaks.ReplaceAllString(content, " "))
	if text == "" {
		return ""
	}
	level := int(n.Tag[1] - '0')
	return strings.Repeat("#", level) + " " + text
}

func renderBlockquote(_ *Context, _ *Node, content string) string {
	content = strings.Trim(content, "\n")
	if strings.TrimSpace(content) == "" {
		return ""
	}
	return "> " + strings.ReplaceAll(content, "\n", "\n> ")
}

// delimited wraps inline content in delim, keeping surrounding whitespace
// outside the delimiters so the emphasis stays valid Markdown.
func delimited(delim string) RenderFunc {
	return func(_ *Context, _ *Node, content string) string {
		trimmed := strings.TrimSpace(content)
		if trimmed == "" {
			return content
		}
		start := strings.Index(content, trimmed)
		return content[:start] + delim + trimmed + delim + content[start+len(trimmed):]
	}
}

func renderInlineCode(_ *Context, _ *Node, content string) string {
	if content == "" {
		return ""
	}
	if strings.Contains(content, "`") {
		return "`` " + content + " ``"
	}
	return "`" + content + "`"
}

func renderLink(_ *Context, n *Node, content string) string {
	href, _ := n.Attr("href")
	text := strings.TrimSpace(content)
	if href == "" {
		return content
	}
	if text == "" {
		text = href
	}
	return "[" + text + "](" + href + ")"
}

func renderHTMLImage(_ *Context, n *Node, _ string) string {
	src, _ := n.Attr("src")
	if src == "" {
		return ""
	}
	alt, _ := n.Attr("alt")
	return "![" + alt + "](" + src + ")"
}
