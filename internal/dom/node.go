// Package dom is a small mutable HTML tree with parent back-references.
//
// Unlike golang.org/x/net/html, every mutation here keeps the tree free of
// adjacent text siblings, which is what the whitespace passes rely on.
package dom

import (
	"errors"
	"slices"
	"strings"
)

// NBSP is the non-breaking space as it appears in parsed text.
const NBSP = '\u00a0'

// ErrNotFound is returned when a node cannot be located in its own parent.
// It indicates a broken tree and is not meant to be recovered from.
var ErrNotFound = errors.New("node not found in its parent")

// Node is either an *Element or a *Text.
type Node interface {
	Parent() *Element
	setParent(p *Element)
}

// Attribute is a single element attribute. Keys are always lower case.
type Attribute struct {
	Key string
	Val string
}

// Element is a tag with ordered attributes and children.
type Element struct {
	Tag      string
	attrs    []Attribute
	children []Node
	parent   *Element
}

// Text is a run of character data.
type Text struct {
	Value  string
	parent *Element
}

// NewElement creates a detached element.
func NewElement(tag string, attrs ...Attribute) *Element {
	e := &Element{Tag: strings.ToLower(tag)}
	for _, a := range attrs {
		e.SetAttr(a.Key, a.Val)
	}
	return e
}

// NewText creates a detached text node.
func NewText(s string) *Text {
	return &Text{Value: s}
}

func (e *Element) Parent() *Element     { return e.parent }
func (e *Element) setParent(p *Element) { e.parent = p }
func (t *Text) Parent() *Element        { return t.parent }
func (t *Text) setParent(p *Element)    { t.parent = p }

// SetValue replaces the text. Setting it to "" removes the node from the tree.
func (t *Text) SetValue(s string) {
	t.Value = s
	if s == "" {
		Extract(t)
	}
}

// Len returns the number of children.
func (e *Element) Len() int { return len(e.children) }

// Child returns the i-th child, or nil when i is out of range.
func (e *Element) Child(i int) Node {
	if i < 0 || i >= len(e.children) {
		return nil
	}
	return e.children[i]
}

// Children returns a snapshot of the child list.
func (e *Element) Children() []Node { return slices.Clone(e.children) }

func (e *Element) FirstChild() Node { return e.Child(0) }
func (e *Element) LastChild() Node  { return e.Child(len(e.children) - 1) }

// ChildElements returns the element children, skipping text.
func (e *Element) ChildElements() []*Element {
	var out []*Element
	for _, c := range e.children {
		if ce, ok := c.(*Element); ok {
			out = append(out, ce)
		}
	}
	return out
}

// Attr looks an attribute up by case-insensitive name.
func (e *Element) Attr(key string) (string, bool) {
	key = strings.ToLower(key)
	for _, a := range e.attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Get returns the attribute value or "".
func (e *Element) Get(key string) string {
	v, _ := e.Attr(key)
	return v
}

func (e *Element) Has(key string) bool {
	_, ok := e.Attr(key)
	return ok
}

// SetAttr sets an attribute, keeping its position if it already exists.
func (e *Element) SetAttr(key, val string) {
	key = strings.ToLower(key)
	for i := range e.attrs {
		if e.attrs[i].Key == key {
			e.attrs[i].Val = val
			return
		}
	}
	e.attrs = append(e.attrs, Attribute{Key: key, Val: val})
}

func (e *Element) RemoveAttr(key string) {
	key = strings.ToLower(key)
	e.attrs = slices.DeleteFunc(e.attrs, func(a Attribute) bool { return a.Key == key })
}

// Attrs returns a copy of the attributes in document order.
func (e *Element) Attrs() []Attribute { return slices.Clone(e.attrs) }

func (e *Element) HasAttrs() bool { return len(e.attrs) > 0 }
