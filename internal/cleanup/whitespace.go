package cleanup

import (
	"slices"
	"strings"
	"unicode/utf8"

	"fptidy/internal/dom"
)

// NewlineMode says what happens to line breaks when whitespace is stripped
type NewlineMode int

const (
	// NewlineKeep keeps at most one line break where one was stripped
	NewlineKeep NewlineMode = iota
	// NewlineStrip never keeps a line break
	NewlineStrip
	// NewlineAdd always leaves exactly one line break
	NewlineAdd
)

// IsInlineTag reports membership in the configured inline set
func (c *Cleaner) IsInlineTag(name string) bool {
	return c.inline[name]
}

// StartsRenderedLine reports whether n begins a visual line: walking out of
// inline parents for as long as n is their first child, the first node
// found before it is a block element or there is none.
func (c *Cleaner) StartsRenderedLine(n dom.Node) bool {
	prev := dom.PrevSibling(n)
	for prev == nil {
		parent := n.Parent()
		if parent == nil || !c.IsInlineTag(parent.Tag) {
			return true
		}
		n = parent
		prev = dom.PrevSibling(n)
	}
	if el, ok := prev.(*dom.Element); ok {
		return !c.IsInlineTag(el.Tag)
	}
	return false
}

// DedupeWhitespace merges the text siblings following t into it and
// collapses whitespace runs to a single space. A run at the very start
// becomes a line break instead when t starts a rendered line and the run
// contained one. Single non-breaking spaces next to other whitespace are
// folded in when configured, except at the start of a rendered line.
func (c *Cleaner) DedupeWhitespace(t *dom.Text) {
	atLineStart := c.StartsRenderedLine(t)
	dom.MergeFollowingText(t)
	if s := c.dedupe(t.Value, atLineStart); s != t.Value {
		t.SetValue(s)
	}
}

func (c *Cleaner) dedupe(s string, atLineStart bool) string {
	runes := []rune(s)

	withNBSP := c.cfg.DedupeNBSP && !atLineStart
	if n := runLength(runes, 0, withNBSP); n >= 2 {
		repl := ' '
		if atLineStart && slices.Contains(runes[:n], '\n') {
			repl = '\n'
		}
		runes = slices.Replace(runes, 0, n, repl)
	}

	if c.cfg.DedupeNBSP && atLineStart {
		// leave the leading run alone; its nbsp indents the line
		runes = collapseRuns(runes, true, true)
	} else {
		runes = collapseRuns(runes, c.cfg.DedupeNBSP, false)
	}
	return string(runes)
}

// singleNBSP is a non-breaking space with no other one next to it. Runs of
// several are intentional spacing and never touched.
func singleNBSP(runes []rune, i int) bool {
	return runes[i] == dom.NBSP &&
		(i == 0 || runes[i-1] != dom.NBSP) &&
		(i+1 == len(runes) || runes[i+1] != dom.NBSP)
}

func inRun(runes []rune, i int, withNBSP bool) bool {
	return dom.IsSpace(runes[i]) || (withNBSP && singleNBSP(runes, i))
}

func runLength(runes []rune, start int, withNBSP bool) int {
	n := 0
	for start+n < len(runes) && inRun(runes, start+n, withNBSP) {
		n++
	}
	return n
}

// collapseRuns replaces runs of two or more whitespace characters with one
// space. With afterText only runs directly following visible text count.
func collapseRuns(runes []rune, withNBSP, afterText bool) []rune {
	out := make([]rune, 0, len(runes))
	for i := 0; i < len(runes); {
		n := runLength(runes, i, withNBSP)
		if n == 0 {
			out = append(out, runes[i])
			i++
			continue
		}
		if n >= 2 && (!afterText || (i > 0 && !dom.IsBlankRune(runes[i-1]))) {
			out = append(out, ' ')
		} else {
			out = append(out, runes[i:i+n]...)
		}
		i += n
	}
	return out
}

func leadingSpace(s string) int {
	i := 0
	for i < len(s) && dom.IsSpace(rune(s[i])) {
		i++
	}
	return i
}

func leadingBlank(s string) int {
	i := 0
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !dom.IsBlankRune(r) {
			break
		}
		i += size
	}
	return i
}

func trailingBlank(s string) int {
	end := len(s)
	for end > 0 {
		r, size := utf8.DecodeLastRuneInString(s[:end])
		if !dom.IsBlankRune(r) {
			break
		}
		end -= size
	}
	return len(s) - end
}

// StripLeadingWhitespace removes whitespace from the start of n. Text
// consisting only of whitespace is removed and stripping continues with the
// next sibling; it stops at any element, <br> included. Non-breaking spaces
// are kept since they indent the line.
func (c *Cleaner) StripLeadingWhitespace(n dom.Node, mode NewlineMode) {
	parent := n.Parent()
	readd := mode == NewlineAdd
	cur := n
	for {
		t, ok := cur.(*dom.Text)
		if !ok {
			break
		}
		k := leadingSpace(t.Value)
		if k == 0 {
			break
		}
		ws := t.Value[:k]
		replacement := ""
		if mode != NewlineStrip && strings.Contains(ws, "\n") {
			replacement = "\n"
		}

		if k == len(t.Value) {
			cur = dom.NextSibling(t)
			dom.Extract(t)
			if replacement != "" {
				readd = true
			}
			continue
		}
		if replacement != ws {
			if readd {
				replacement = "\n"
			}
			t.SetValue(replacement + t.Value[k:])
		}
		readd = false
		break
	}

	if !readd || mode == NewlineStrip {
		return
	}
	nl := dom.NewText("\n")
	switch v := cur.(type) {
	case nil:
		if parent != nil {
			parent.AppendChild(nl)
		}
	case *dom.Element:
		mustUpdate(dom.InsertBefore(v, nl))
	case *dom.Text:
		v.SetValue("\n" + v.Value)
	}
}

// StripTrailingWhitespace removes whitespace, non-breaking spaces included,
// from the end of n, continuing backwards over whitespace-only text.
func (c *Cleaner) StripTrailingWhitespace(n dom.Node, mode NewlineMode) {
	readd := mode == NewlineAdd
	cur := n
	for {
		t, ok := cur.(*dom.Text)
		if !ok {
			break
		}
		k := trailingBlank(t.Value)
		if k == 0 {
			break
		}
		ws := t.Value[len(t.Value)-k:]
		replacement := ""
		if mode != NewlineStrip && strings.Contains(ws, "\n") {
			replacement = "\n"
		}

		if k == len(t.Value) {
			cur = dom.PrevSibling(t)
			dom.Extract(t)
			if replacement != "" {
				readd = true
			}
			continue
		}
		if replacement != ws {
			if readd {
				replacement = "\n"
			}
			t.SetValue(t.Value[:len(t.Value)-k] + replacement)
		}
		readd = false
		break
	}

	// nothing left to attach a line break to
	if !readd || mode == NewlineStrip || cur == nil {
		return
	}
	switch v := cur.(type) {
	case *dom.Element:
		mustUpdate(dom.InsertAfter(v, dom.NewText("\n")))
	case *dom.Text:
		if !strings.HasSuffix(v.Value, "\n") {
			v.SetValue(v.Value + "\n")
		}
	}
}

// closesBreakPair reports whether the <br> n follows another <br> with at
// most ASCII whitespace between them. Such a pair renders a blank line even
// at the end of a block.
func closesBreakPair(n dom.Node) bool {
	prev := dom.PrevSibling(n)
	if t, ok := prev.(*dom.Text); ok && strings.TrimFunc(t.Value, dom.IsSpace) == "" {
		prev = dom.PrevSibling(t)
	}
	return dom.IsElement(prev, "br")
}

// StripNonInlineWhitespace trims the content of a block element: a final
// <br> (with blank text after it) renders nothing and is removed, unless it
// closes a pair of breaks. Then both edges are stripped. Empty blocks are
// left in place.
func (c *Cleaner) StripNonInlineWhitespace(el *dom.Element, mode NewlineMode) {
	if el.Len() == 0 {
		return
	}

	readd := false
	switch last := el.LastChild().(type) {
	case *dom.Element:
		if last.Tag == "br" && !closesBreakPair(last) {
			dom.Extract(last)
		}
	case *dom.Text:
		br := el.Child(el.Len() - 2)
		if dom.IsBlank(last.Value) && dom.IsElement(br, "br") && !closesBreakPair(br) {
			readd = strings.Contains(last.Value, "\n")
			dom.Extract(last)
			dom.Extract(br)
		}
	}

	if el.Len() == 0 {
		return
	}
	trailing := mode
	if mode == NewlineKeep && readd {
		trailing = NewlineAdd
	}
	c.StripTrailingWhitespace(el.LastChild(), trailing)
	if el.Len() > 0 {
		c.StripLeadingWhitespace(el.FirstChild(), mode)
	}
}

// edgeAnchor climbs from el through inline ancestors for as long as el sits
// at their leading (or trailing) edge, so whitespace moved out of el never
// lands on the edge of another inline element.
func (c *Cleaner) edgeAnchor(el *dom.Element, leading bool) dom.Node {
	var anchor dom.Node = el
	for {
		var sib dom.Node
		if leading {
			sib = dom.PrevSibling(anchor)
		} else {
			sib = dom.NextSibling(anchor)
		}
		p := anchor.Parent()
		if sib != nil || p == nil || p.Parent() == nil || !c.IsInlineTag(p.Tag) {
			return anchor
		}
		anchor = p
	}
}

// MoveWhitespaceToParent moves whitespace (including <br> and non-breaking
// spaces) at the edges of the inline element el to just outside it. An
// element left without content is removed when removeIfEmpty is set.
func (c *Cleaner) MoveWhitespaceToParent(el *dom.Element, removeIfEmpty bool) {
	if el.Parent() == nil {
		return
	}

	for el.Len() > 0 && dom.IsWhitespaceOnly(el.FirstChild()) {
		mustUpdate(dom.InsertBefore(c.edgeAnchor(el, true), el.FirstChild()))
	}
	if el.Len() == 0 {
		if removeIfEmpty {
			dom.Extract(el)
		}
		return
	}

	if t, ok := el.FirstChild().(*dom.Text); ok {
		if k := leadingBlank(t.Value); k > 0 {
			mustUpdate(dom.InsertBefore(c.edgeAnchor(el, true), dom.NewText(t.Value[:k])))
			t.SetValue(t.Value[k:])
		}
	}

	// the first child is not whitespace, so el cannot run empty here
	for dom.IsWhitespaceOnly(el.LastChild()) {
		mustUpdate(dom.InsertAfter(c.edgeAnchor(el, false), el.LastChild()))
	}

	if t, ok := el.LastChild().(*dom.Text); ok {
		if k := trailingBlank(t.Value); k > 0 {
			mustUpdate(dom.InsertAfter(c.edgeAnchor(el, false), dom.NewText(t.Value[len(t.Value)-k:])))
			t.SetValue(t.Value[:len(t.Value)-k])
		}
	}
}

// mustUpdate panics when a tree update fails. Every target is attached when
// it is updated, so a failure means the tree links are broken.
func mustUpdate(err error) {
	if err != nil {
		panic(err)
	}
}
