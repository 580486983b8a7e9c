package cleanup

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"fptidy/internal/css"
	"fptidy/internal/dom"
)

// CSS keywords for <font size> 1 to 7
var fontSizeKeywords = []string{"x-small", "small", "medium", "large", "x-large", "xx-large", "xxx-large"}

// fontSize translates a <font size> value. Relative sizes count from the
// default size 3. Anything else is passed on unchanged.
func fontSize(value string) string {
	value = strings.TrimSpace(value)
	n, err := strconv.Atoi(value)
	if err != nil {
		return value
	}
	if strings.HasPrefix(value, "+") || strings.HasPrefix(value, "-") {
		n += 3
	}
	n = max(1, min(n, len(fontSizeKeywords)))
	return fontSizeKeywords[n-1]
}

// fontStyles moves the attributes of a <font> into a style. Attributes
// matching the removal table are dropped.
func (c *Cleaner) fontStyles(el *dom.Element) (*css.Style, error) {
	style := css.NewStyle()
	for _, attr := range el.Attrs() {
		name := strings.ToLower(attr.Key)
		if c.removeAttrs.Matches("font", name, attr.Val) {
			el.RemoveAttr(attr.Key)
			continue
		}
		switch name {
		case "color":
			style.Set("color", attr.Val)
		case "face":
			style.Set("font-family", attr.Val)
		case "size":
			style.Set("font-size", fontSize(attr.Val))
		case "style":
			for _, d := range c.styles.ParseInline(attr.Val).Declarations() {
				style.SetDeclaration(d)
			}
		default:
			continue
		}
		el.RemoveAttr(attr.Key)
	}

	if el.HasAttrs() {
		keys := make([]string, 0, len(el.Attrs()))
		for _, a := range el.Attrs() {
			keys = append(keys, a.Key)
		}
		return nil, structuralf("font tag has unknown attributes %v", keys)
	}
	return style, nil
}

// idClash reports whether merging el into other would lose an id.
// An anchor's name becomes an id, so anchors count as having one.
func idClash(el, other *dom.Element) bool {
	return (el.Tag == "a" || el.Get("id") != "") && other.Get("id") != ""
}

// findDestination picks the element that takes over the attributes of el:
// its only child element, or else its parent when el is the only child
// element there. A block is never merged into an inline element.
func (c *Cleaner) findDestination(el *dom.Element) (*dom.Element, bool) {
	fits := func(other *dom.Element) bool {
		return slices.Contains(mergeableTags, other.Tag) &&
			!idClash(el, other) &&
			(c.IsInlineTag(el.Tag) || !c.IsInlineTag(other.Tag))
	}

	if !dom.HasNonWhitespaceText(el) {
		if kids := el.ChildElements(); len(kids) == 1 && fits(kids[0]) {
			return kids[0], true
		}
	}

	parent := el.Parent()
	if parent == nil || len(parent.ChildElements()) != 1 {
		return nil, false
	}
	// anchors may sit in the middle of text
	if el.Tag != "a" && dom.HasNonWhitespaceText(parent) {
		return nil, false
	}
	if !fits(parent) {
		return nil, false
	}
	return parent, false
}

// MangleTag removes the element el, which only exists to carry attributes,
// by merging its attributes into an adjoining element. A <font> without
// such a neighbour becomes a <span>. Other elements without one are only
// removed when nothing is left on them.
//
// Anchors are only handled when they are plain link targets: a name, no
// href and no id.
func (c *Cleaner) MangleTag(el *dom.Element) error {
	if el.Tag == "a" && (el.Get("name") == "" || el.Get("id") != "" || el.Get("href") != "") {
		return nil
	}

	isFont := el.Tag == "font"
	var mergeStyle *css.Style
	if isFont {
		s, err := c.fontStyles(el)
		if err != nil {
			return err
		}
		mergeStyle = s
	}

	dest, destIsChild := c.findDestination(el)
	destIsNew := false
	if dest == nil {
		if !isFont {
			c.MangleAttributes(el)
			if !el.HasAttrs() && (el.Tag == "span" || el.Tag == "div") {
				if err := dom.Unwrap(el); err != nil {
					return fmt.Errorf("failed to unwrap <%s>: %w", el.Tag, err)
				}
				c.stats.WrappersCollapsed++
			}
			return nil
		}

		dest = dom.NewElement("span")
		if err := dom.InsertBefore(el, dest); err != nil {
			return fmt.Errorf("failed to insert span for font: %w", err)
		}
		destIsNew = true
		c.stats.SpansCreated++
	}

	c.MangleAttributes(dest)
	var mergeClass string
	if !isFont {
		c.MangleAttributes(el)
		if dest.Get("style") != "" {
			mergeStyle = c.styles.StyleOf(el)
		}
		if dest.Get("class") != "" {
			mergeClass = el.Get("class")
		}
	}

	// the child's own values win
	for _, attr := range el.Attrs() {
		key := attr.Key
		if el.Tag == "a" && key == "name" {
			key = "id"
		}
		if dest.Get(key) != "" && (destIsChild || key == "style" || key == "class") {
			continue
		}
		dest.SetAttr(key, attr.Val)
	}
	if mergeClass != "" {
		dest.SetAttr("class", unionClasses(dest.Get("class"), mergeClass))
	}
	if mergeStyle != nil && mergeStyle.Len() > 0 {
		style := c.styles.StyleOf(dest)
		for _, d := range mergeStyle.Declarations() {
			if _, ok := style.Get(d.Property); ok && destIsChild {
				continue
			}
			style.SetDeclaration(d)
		}
		css.Apply(dest, style)
	}

	if destIsNew {
		dom.MoveContentsInto(el, dest, 0, 0)
	} else if err := dom.MoveContentsBefore(el, el); err != nil {
		return fmt.Errorf("failed to move contents of <%s>: %w", el.Tag, err)
	}
	dom.Extract(el)

	// translated font styles can be redundant
	if isFont {
		c.MangleAttributes(dest)
	}
	c.stats.WrappersCollapsed++
	return nil
}
