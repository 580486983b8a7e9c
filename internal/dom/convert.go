package dom

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var voidElementRe = regexp.MustCompile(`<(area|base|br|col|embed|hr|img|input|keygen|link|meta|param|source|track|wbr)((?:\s[^<>]*?)?)/>`)

// FromHTML converts an x/net/html element (or document) node into a tree.
// Comments, doctypes and processing instructions are dropped.
func FromHTML(n *html.Node) *Element {
	var root *Element
	if n.Type == html.ElementNode {
		root = &Element{Tag: n.Data}
		copyAttrs(root, n)
	} else {
		root = &Element{}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		appendHTML(root, c)
	}
	return root
}

func appendHTML(parent *Element, n *html.Node) {
	switch n.Type {
	case html.ElementNode:
		el := &Element{Tag: n.Data}
		copyAttrs(el, n)
		parent.AppendChild(el)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			appendHTML(el, c)
		}
	case html.TextNode:
		parent.AppendChild(NewText(n.Data))
	case html.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			appendHTML(parent, c)
		}
	}
}

func copyAttrs(el *Element, n *html.Node) {
	for _, a := range n.Attr {
		key := a.Key
		if a.Namespace != "" {
			key = a.Namespace + ":" + key
		}
		el.SetAttr(key, a.Val)
	}
}

// ToHTML converts the tree back into x/net/html nodes.
func ToHTML(e *Element) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     e.Tag,
		DataAtom: atom.Lookup([]byte(e.Tag)),
	}
	for _, a := range e.attrs {
		n.Attr = append(n.Attr, html.Attribute{Key: a.Key, Val: a.Val})
	}
	for _, c := range e.children {
		switch v := c.(type) {
		case *Element:
			n.AppendChild(ToHTML(v))
		case *Text:
			n.AppendChild(&html.Node{Type: html.TextNode, Data: v.Value})
		}
	}
	return n
}

// ParseBody parses a fragment in <body> context and returns it wrapped in a
// body element.
func ParseBody(r io.Reader) (*Element, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(r, context)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fragment: %w", err)
	}
	body := NewElement("body")
	for _, n := range nodes {
		appendHTML(body, n)
	}
	return body, nil
}

// ParseBodyString is ParseBody for a string.
func ParseBodyString(s string) (*Element, error) {
	return ParseBody(strings.NewReader(s))
}

// Render writes e and its subtree as HTML.
func Render(w io.Writer, e *Element) error {
	var buf bytes.Buffer
	if err := html.Render(&buf, ToHTML(e)); err != nil {
		return fmt.Errorf("failed to render %s: %w", e.Tag, err)
	}
	_, err := io.WriteString(w, FixMarkup(buf.String()))
	return err
}

// RenderString renders e to a string.
func RenderString(e *Element) (string, error) {
	var sb strings.Builder
	if err := Render(&sb, e); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// InnerHTML renders the children of e.
func InnerHTML(e *Element) (string, error) {
	var sb strings.Builder
	for _, c := range e.children {
		switch v := c.(type) {
		case *Element:
			if err := Render(&sb, v); err != nil {
				return "", err
			}
		case *Text:
			var buf bytes.Buffer
			if err := html.Render(&buf, &html.Node{Type: html.TextNode, Data: v.Value}); err != nil {
				return "", fmt.Errorf("failed to render text: %w", err)
			}
			sb.WriteString(FixMarkup(buf.String()))
		}
	}
	return sb.String(), nil
}

// FixMarkup rewrites x/net/html output into legacy HTML conventions: void
// elements without the XML slash and non-breaking spaces as entities.
func FixMarkup(s string) string {
	s = voidElementRe.ReplaceAllString(s, "<$1$2>")
	return strings.ReplaceAll(s, string(NBSP), "&nbsp;")
}
