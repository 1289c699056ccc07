package markup

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// Elements HTML allows to be left open. They are closed implicitly by an
// ancestor's end tag or by the end of input.
var implicitlyClosed = map[string]bool{
	"p": true, "li": true, "dt": true, "dd": true, "tr": true, "td": true,
	"th": true, "thead": true, "tbody": true, "tfoot": true, "option": true,
}

type ParseError struct {
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("markup parse error at offset %d: %s", e.Offset, e.Msg)
}

// Parse reads a storage-format document into a Node tree. Unknown and
// namespaced tags are accepted as they are; an end tag without a matching
// open element, or an element left open at the end of input, is an error.
func Parse(source string) (*Node, error) {
	z := html.NewTokenizer(strings.NewReader(source))
	z.AllowCDATA(true)

	root := &Node{Kind: DocumentNode}
	stack := []*Node{root}
	offset := 0

	for {
		tt := z.Next()
		raw := z.Raw()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return nil, &ParseError{Offset: offset, Msg: err.Error()}
			}
			for i := len(stack) - 1; i > 0; i-- {
				if !implicitlyClosed[stack[i].Tag] {
					return nil, &ParseError{Offset: offset, Msg: fmt.Sprintf("unclosed element <%s>", stack[i].Tag)}
				}
			}
			return root, nil

		case html.TextToken:
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, &Node{Kind: TextNode, Text: textOf(z, raw)})

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			el := &Node{Kind: ElementNode, Tag: tok.Data}
			for _, a := range tok.Attr {
				key := a.Key
				if a.Namespace != "" {
					key = a.Namespace + ":" + key
				}
				el.Attrs = append(el.Attrs, Attr{Key: key, Val: a.Val})
			}
			if top := stack[len(stack)-1]; closesSibling(top.Tag, el.Tag) {
				stack = stack[:len(stack)-1]
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, el)
			if tt == html.StartTagToken && !voidElements[el.Tag] {
				stack = append(stack, el)
			}

		case html.EndTagToken:
			tok := z.Token()
			open := -1
			for i := len(stack) - 1; i > 0; i-- {
				if stack[i].Tag == tok.Data {
					open = i
					break
				}
			}
			if open < 0 {
				if voidElements[tok.Data] {
					break
				}
				return nil, &ParseError{Offset: offset, Msg: fmt.Sprintf("unexpected end tag </%s>", tok.Data)}
			}
			stack = stack[:open]
		}
		offset += len(raw)
	}
}

// textOf returns a text token's content. CDATA sections are literal, so
// their bytes are taken as they are instead of being entity-decoded.
func textOf(z *html.Tokenizer, raw []byte) string {
	if bytes.HasPrefix(raw, cdataOpen) {
		return string(bytes.TrimSuffix(raw[len(cdataOpen):], cdataClose))
	}
	return string(z.Text())
}

var (
	cdataOpen  = []byte("<![CDATA[")
	cdataClose = []byte("]]>")
)

// closesSibling reports whether opening next ends an implicitly closed open
// element, as a new li ends the previous one.
func closesSibling(open, next string) bool {
	if !implicitlyClosed[open] {
		return false
	}
	switch open {
	case "td", "th":
		return next == "td" || next == "th" || next == "tr"
	case "dt", "dd":
		return next == "dt" || next == "dd"
	default:
		return open == next
	}
}
