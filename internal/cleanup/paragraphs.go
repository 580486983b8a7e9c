package cleanup

import (
	"strings"

	"fptidy/internal/dom"
)

func isBlankText(n dom.Node) bool {
	t, ok := n.(*dom.Text)
	return ok && dom.IsBlank(t.Value)
}

// normalizeStrongLinks rewrites <a><strong>x</strong></a> to
// <strong><a>x</a></strong>, so the link is the innermost element and its
// surroundings can be cleaned like other inline text.
func (c *Cleaner) normalizeStrongLinks(root *dom.Element) {
	for _, a := range dom.FindAll(root, "a") {
		kids := a.ChildElements()
		if len(kids) == 0 || dom.HasNonWhitespaceText(a) || !dom.Attached(root, a) {
			continue
		}
		plain := true
		for _, k := range kids {
			if k.Tag != "strong" || k.HasAttrs() {
				plain = false
				break
			}
		}
		if !plain {
			continue
		}

		for _, k := range kids {
			mustUpdate(dom.Unwrap(k))
		}
		strong := dom.NewElement("strong")
		mustUpdate(dom.InsertBefore(a, strong))
		strong.AppendChild(a)
	}
}

// removeEmptyParagraphs drops an empty paragraph following a table or list,
// and the empty paragraphs ending the page
func (c *Cleaner) removeEmptyParagraphs(root *dom.Element) {
	for _, el := range dom.FindAll(root, "table", "ul") {
		if !dom.Attached(root, el) {
			continue
		}
		n := dom.NextSibling(el)
		for isBlankText(n) {
			n = dom.NextSibling(n)
		}
		if p, ok := n.(*dom.Element); ok && p.Tag == "p" && p.Len() == 0 {
			c.extractEmpty(p)
		}
	}

	container := root
	for {
		n := container.LastChild()
		for isBlankText(n) {
			n = dom.PrevSibling(n)
		}
		el, ok := n.(*dom.Element)
		switch {
		case !ok:
			return
		case el.Tag == "div":
			container = el
		case el.Tag == "p" && el.Len() == 0:
			c.extractEmpty(el)
		default:
			return
		}
	}
}

// extractEmpty removes p. Line breaks around it that end up in one text
// node are folded into a single one.
func (c *Cleaner) extractEmpty(p *dom.Element) {
	prev, ok := dom.PrevSibling(p).(*dom.Text)
	dom.Extract(p)
	c.stats.EmptyParagraphs++

	if ok && prev.Parent() != nil && strings.TrimLeftFunc(prev.Value, dom.IsSpace) == "" &&
		strings.Count(prev.Value, "\n") > 1 {
		prev.SetValue("\n")
	}
}
