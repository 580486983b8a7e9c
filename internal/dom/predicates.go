package dom

// IsSpace reports ASCII whitespace. NBSP is not included.
func IsSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

// IsBlankRune reports whitespace or a non-breaking space.
func IsBlankRune(r rune) bool {
	return IsSpace(r) || r == NBSP
}

// IsBlank reports whether s is non-empty and consists of whitespace and
// non-breaking spaces only.
func IsBlank(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !IsBlankRune(r) {
			return false
		}
	}
	return true
}

// IsWhitespaceOnly is true for a blank text node and for a <br>.
func IsWhitespaceOnly(n Node) bool {
	switch v := n.(type) {
	case *Text:
		return IsBlank(v.Value)
	case *Element:
		return v.Tag == "br"
	}
	return false
}

// HasNonWhitespaceText reports direct text children with visible content.
func HasNonWhitespaceText(e *Element) bool {
	for _, c := range e.children {
		if t, ok := c.(*Text); ok && !IsBlank(t.Value) {
			return true
		}
	}
	return false
}

// IsElement reports whether n is an element with one of the given tags.
func IsElement(n Node, tags ...string) bool {
	e, ok := n.(*Element)
	if !ok {
		return false
	}
	for _, t := range tags {
		if e.Tag == t {
			return true
		}
	}
	return len(tags) == 0
}
