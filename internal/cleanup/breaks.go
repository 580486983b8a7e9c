package cleanup

import (
	"fptidy/internal/dom"
)

// isLineFeed matches the single newline left between breaks by the
// whitespace passes
func isLineFeed(n dom.Node) bool {
	t, ok := n.(*dom.Text)
	return ok && t.Value == "\n"
}

// stripAroundBreaks removes whitespace next to <br>, where it renders nothing
func (c *Cleaner) stripAroundBreaks(root *dom.Element) {
	for _, br := range dom.FindAll(root, "br") {
		if !dom.Attached(root, br) {
			continue
		}
		if t, ok := dom.PrevSibling(br).(*dom.Text); ok {
			c.StripTrailingWhitespace(t, NewlineKeep)
		}
		if t, ok := dom.NextSibling(br).(*dom.Text); ok {
			c.StripLeadingWhitespace(t, NewlineKeep)
		}
	}
}

// SplitDoubleBreaks turns exactly two consecutive <br> directly inside a
// <p> into a paragraph boundary. The new paragraph copies the attributes of
// the old one, except for its identity. Two breaks ending a paragraph are
// moved out after it. It returns the number of paragraphs split.
func (c *Cleaner) SplitDoubleBreaks(root *dom.Element) int {
	split := 0
	for _, br := range dom.FindAll(root, "br") {
		if !dom.Attached(root, br) || !dom.IsElement(br.Parent(), "p") {
			continue
		}
		p := br.Parent()

		prev := dom.PrevSibling(br)
		if isLineFeed(prev) {
			prev = dom.PrevSibling(prev)
		}
		if prev == nil || dom.IsElement(prev, "br") {
			continue
		}

		var lf dom.Node
		br2 := dom.NextSibling(br)
		if isLineFeed(br2) {
			lf, br2 = br2, dom.NextSibling(br2)
		}
		if !dom.IsElement(br2, "br") {
			continue
		}

		var nextLF dom.Node
		next := dom.NextSibling(br2)
		if isLineFeed(next) {
			nextLF, next = next, dom.NextSibling(next)
		}
		if dom.IsElement(next, "br") {
			continue
		}

		if next == nil {
			// trailing pair: move it out, keeping its order. The line feed
			// goes last so it never merges with text left in p.
			if lf != nil {
				dom.Extract(lf)
			}
			mustUpdate(dom.InsertAfter(p, br2))
			mustUpdate(dom.InsertAfter(p, br))
			if lf != nil {
				mustUpdate(dom.InsertAfter(br, lf))
			}
			continue
		}

		p2 := dom.NewElement("p")
		for _, a := range p.Attrs() {
			if a.Key != "id" && a.Key != "name" {
				p2.SetAttr(a.Key, a.Val)
			}
		}
		mustUpdate(dom.InsertAfter(p, p2))
		mustUpdate(dom.InsertAfter(p, dom.NewText("\n")))

		if nextLF != nil {
			dom.Extract(nextLF)
		}
		at, err := dom.IndexInParent(br2)
		mustUpdate(err)
		dom.MoveContentsInto(p, p2, 0, at+1)
		dom.Extract(br2)
		if lf != nil {
			dom.Extract(lf)
		}
		dom.Extract(br)

		split++
		c.stats.ParagraphsSplit++
	}
	return split
}
