package markup

import (
	"bytes"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

type Transformer struct {
	registry *Registry
	logger   *zap.Logger
}

type Option func(t *Transformer)

func WithRegistry(registry *Registry) Option {
	return func(t *Transformer) {
		if registry != nil {
			t.registry = registry
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(t *Transformer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

func New(opts ...Option) *Transformer {
	t := &Transformer{
		registry: DefaultRegistry(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transform converts a storage-format document to Markdown. It does not fail:
// when the source cannot be parsed or rendered, the result is an error
// comment followed by the untouched source.
func (t *Transformer) Transform(source string) (markdown string) {
	if source == "" {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("failed to render storage markup", zap.Any("panic", r))
			markdown = failedConversion(fmt.Sprint(r), source)
		}
	}()

	doc, err := Parse(source)
	if err != nil {
		t.logger.Error("failed to parse storage markup", zap.Error(err))
		return failedConversion(err.Error(), source)
	}
	return t.TransformNode(doc)
}

// TransformNode renders an already parsed tree.
func (t *Transformer) TransformNode(n *Node) string {
	c := &Context{registry: t.registry}
	return c.render(n).text
}

func failedConversion(msg, source string) string {
	return "<!-- Error converting content: " + msg + " -->\n\n" + source
}

// Context is handed to renderers so they can transform nested content.
type Context struct {
	registry *Registry
}

// Transform renders nodes as a standalone fragment without surrounding
// newlines, the way macro bodies, list items and table cells are rendered.
func (c *Context) Transform(nodes ...*Node) string {
	frags := make([]fragment, 0, len(nodes))
	for _, n := range nodes {
		frags = append(frags, c.render(n))
	}
	return strings.Trim(join(frags).text, "\n")
}

func (c *Context) TransformChildren(n *Node) string {
	if n == nil {
		return ""
	}
	return c.Transform(n.Children...)
}

type fragment struct {
	text  string
	block bool
}

func (c *Context) render(n *Node) fragment {
	switch n.Kind {
	case TextNode:
		return fragment{text: collapseWhitespace(n.Text)}
	case DocumentNode:
		return c.renderChildren(n)
	}

	rule, ok := c.registry.match(n)
	if !ok {
		return c.renderChildren(n)
	}
	if rule.Raw {
		return fragment{text: rule.Render(c, n, ""), block: rule.Block}
	}
	content := c.renderChildren(n)
	return fragment{text: rule.Render(c, n, content.text), block: rule.Block}
}

func (c *Context) renderChildren(n *Node) fragment {
	frags := make([]fragment, 0, len(n.Children))
	for _, child := range n.Children {
		frags = append(frags, c.render(child))
	}
	return join(frags)
}

// join concatenates fragments in order, putting a blank line between a block
// and whatever sits next to it.
func join(frags []fragment) fragment {
	var out joined
	var block, prevBlock bool
	for _, f := range frags {
		text := f.text
		if text == "" {
			continue
		}
		if prevBlock && !f.block {
			text = strings.TrimLeft(text, " \t")
			if text == "" {
				continue
			}
		}
		if f.block || prevBlock {
			out.blankLine()
		}
		out.write(text)
		prevBlock = f.block
		block = block || f.block
	}
	return fragment{text: string(out.buf), block: block}
}

// joined is the output of join. content records whether anything but
// whitespace has been written.
type joined struct {
	buf     []byte
	content bool
}

func (j *joined) write(text string) {
	j.buf = append(j.buf, text...)
	j.content = j.content || strings.TrimSpace(text) != ""
}

// blankLine ends the buffer with exactly one empty line, dropping trailing
// spaces and tabs. A buffer holding only whitespace is emptied.
func (j *joined) blankLine() {
	if !j.content {
		j.buf = j.buf[:0]
		return
	}
	j.buf = bytes.TrimRight(j.buf, " \t")
	switch {
	case bytes.HasSuffix(j.buf, []byte("\n\n")):
	case bytes.HasSuffix(j.buf, []byte("\n")):
		j.buf = append(j.buf, '\n')
	default:
		j.buf = append(j.buf, '\n', '\n')
	}
}

// collapseWhitespace folds whitespace runs into one space. Text made only of
// whitespace across a line break is layout between tags and is dropped.
func collapseWhitespace(s string) string {
	if strings.TrimSpace(s) == "" {
		if strings.ContainsAny(s, "\n\r") {
			return ""
		}
		if s == "" {
			return ""
		}
		return " "
	}
	var sb strings.Builder
	sb.Grow(len(s))
	space := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			if !space {
				sb.WriteByte(' ')
			}
			space = true
		default:
			sb.WriteRune(r)
			space = false
		}
	}
	return sb.String()
}
