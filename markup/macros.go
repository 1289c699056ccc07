package markup

import "strings"

var userMentionRule = Rule{
	Name: "user-mention",
	Match: func(n *Node) bool {
		return n.IsElement("ac:link") && n.Find("ri:user") != nil
	},
	Raw:    true,
	Render: renderUserMention,
}

func renderUserMention(_ *Context, n *Node, _ string) string {
	user := n.Find("ri:user")
	for _, key := range []string{"ri:userkey", "ri:account-id", "ri:username"} {
		if v, ok := user.Attr(key); ok && v != "" {
			return "@[" + v + "]"
		}
	}
	return "[user]"
}

var codeMacroRule = Rule{
	Name:   "code-macro",
	Match:  macroIs("code"),
	Block:  true,
	Raw:    true,
	Render: renderCodeMacro,
}

func renderCodeMacro(_ *Context, n *Node, _ string) string {
	language, _ := n.Parameter("language")
	var body string
	if b := n.Child("ac:plain-text-body"); b != nil {
		body = b.TextContent()
	}
	return "```" + strings.TrimSpace(language) + "\n" + body + "\n```"
}

type panelStyle struct {
	icon  string
	title string
}

var panelStyles = map[string]panelStyle{
	"info":    {icon: "ℹ️", title: "Info"},
	"note":    {icon: "📝", title: "Note"},
	"warning": {icon: "⚠️", title: "Warning"},
	"tip":     {icon: "💡", title: "Tip"},
}

var panelRule = Rule{
	Name:   "panel",
	Match:  macroIs("info", "note", "warning", "tip"),
	Block:  true,
	Raw:    true,
	Render: renderPanel,
}

func renderPanel(c *Context, n *Node, _ string) string {
	style, ok := panelStyles[n.MacroName()]
	if !ok {
		style = panelStyles["info"]
	}
	body := c.TransformChildren(n.Child("ac:rich-text-body"))
	return "> **" + style.icon + " " + style.title + "**\n> " + strings.ReplaceAll(body, "\n", "\n> ") + "\n"
}

var expandRule = Rule{
	Name:   "expand",
	Match:  macroIs("expand"),
	Block:  true,
	Raw:    true,
	Render: renderExpand,
}

func renderExpand(c *Context, n *Node, _ string) string {
	title, _ := n.Parameter("title")
	if title == "" {
		title = "Details"
	}
	body := c.TransformChildren(n.Child("ac:rich-text-body"))
	return "<details>\n<summary>" + title + "</summary>\n\n" + body + "\n</details>\n"
}

var imageRule = Rule{
	Name: "image",
	Match: func(n *Node) bool {
		return n.IsElement("ac:image") || macroIs("image")(n)
	},
	Raw:    true,
	Render: renderImage,
}

func renderImage(_ *Context, n *Node, _ string) string {
	if attachment := n.Find("ri:attachment"); attachment != nil {
		filename := attachment.AttrOr("ri:filename", "image")
		return "![" + filename + "](attachment:" + filename + ")"
	}

	var url string
	if n.IsElement("ac:image") {
		if ref := n.Find("ri:url"); ref != nil {
			url, _ = ref.Attr("ri:value")
		}
	} else {
		url, _ = n.Parameter("url")
	}
	if url = strings.TrimSpace(url); url != "" {
		return "![Image](" + url + ")"
	}
	return "[Image]"
}
