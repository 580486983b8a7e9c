package dom

import (
	"fmt"
	"slices"
)

// IndexInParent returns the position of n in its parent's child list.
func IndexInParent(n Node) (int, error) {
	p := n.Parent()
	if p == nil {
		return -1, fmt.Errorf("%w: node is detached", ErrNotFound)
	}
	return p.indexOf(n)
}

func (e *Element) indexOf(n Node) (int, error) {
	for i, c := range e.children {
		if c == n {
			return i, nil
		}
	}
	return -1, ErrNotFound
}

// mustIndex panics on a broken parent link; no caller can continue safely.
func mustIndex(n Node) int {
	i, err := IndexInParent(n)
	if err != nil {
		panic(err)
	}
	return i
}

// PrevSibling returns the node before n, or nil.
func PrevSibling(n Node) Node {
	if n == nil || n.Parent() == nil {
		return nil
	}
	return n.Parent().Child(mustIndex(n) - 1)
}

// NextSibling returns the node after n, or nil.
func NextSibling(n Node) Node {
	if n == nil || n.Parent() == nil {
		return nil
	}
	return n.Parent().Child(mustIndex(n) + 1)
}

// detach unlinks n without merging the neighbours it leaves behind.
func detach(n Node) (*Element, int) {
	p := n.Parent()
	if p == nil {
		return nil, -1
	}
	i := mustIndex(n)
	p.children = slices.Delete(p.children, i, i+1)
	n.setParent(nil)
	return p, i
}

// mergeAt joins children i-1 and i when both are text. The left one survives.
func (e *Element) mergeAt(i int) bool {
	if i <= 0 || i >= len(e.children) {
		return false
	}
	left, ok := e.children[i-1].(*Text)
	if !ok {
		return false
	}
	right, ok := e.children[i].(*Text)
	if !ok {
		return false
	}
	left.Value += right.Value
	e.children = slices.Delete(e.children, i, i+1)
	right.setParent(nil)
	return true
}

// Extract detaches n from its parent. Text nodes left adjacent are merged.
func Extract(n Node) {
	if p, i := detach(n); p != nil {
		p.mergeAt(i)
	}
}

// InsertAt inserts n as the i-th child, detaching it from any previous
// parent first, and returns the index just after the inserted content.
//
// An inserted text node is merged into an adjacent text node instead of
// being linked; the node already in the tree survives. Empty text is dropped.
func (e *Element) InsertAt(i int, n Node) int {
	if old, oi := detach(n); old != nil {
		if old == e && oi < i {
			i--
		}
		if old != e || oi != i {
			if old.mergeAt(oi) && old == e && oi < i {
				i--
			}
		}
	}
	i = max(0, min(i, len(e.children)))

	if t, ok := n.(*Text); ok {
		if t.Value == "" {
			return i
		}
		if prev, ok := e.Child(i - 1).(*Text); ok {
			prev.Value += t.Value
			return i
		}
		if next, ok := e.Child(i).(*Text); ok {
			next.Value = t.Value + next.Value
			return i + 1
		}
	}
	e.children = slices.Insert(e.children, i, n)
	n.setParent(e)
	return i + 1
}

// AppendChild inserts n as the last child.
func (e *Element) AppendChild(n Node) {
	e.InsertAt(len(e.children), n)
}

// InsertBefore inserts n just before target.
func InsertBefore(target, n Node) error {
	p := target.Parent()
	if p == nil {
		return fmt.Errorf("failed to insert before detached node: %w", ErrNotFound)
	}
	i, err := p.indexOf(target)
	if err != nil {
		return err
	}
	p.InsertAt(i, n)
	return nil
}

// InsertAfter inserts n just after target.
func InsertAfter(target, n Node) error {
	p := target.Parent()
	if p == nil {
		return fmt.Errorf("failed to insert after detached node: %w", ErrNotFound)
	}
	i, err := p.indexOf(target)
	if err != nil {
		return err
	}
	p.InsertAt(i+1, n)
	return nil
}

// MoveContentsInto relocates from's children starting at index start into
// into at index at, preserving their order. from keeps the prefix.
func MoveContentsInto(from, into *Element, at, start int) {
	if start < 0 {
		start = 0
	}
	if start >= len(from.children) {
		return
	}
	moved := slices.Clone(from.children[start:])
	from.children = slices.Clone(from.children[:start])
	for _, c := range moved {
		c.setParent(nil)
	}

	at = max(0, min(at, len(into.children)))
	into.children = slices.Insert(into.children, at, moved...)
	for _, c := range moved {
		c.setParent(into)
	}

	// right seam first so the left index stays valid
	into.mergeAt(at + len(moved))
	into.mergeAt(at)
}

// MoveContentsBefore moves all of from's children to just before target.
// Passing from as target unwraps it in place.
func MoveContentsBefore(from *Element, target Node) error {
	p := target.Parent()
	if p == nil {
		return fmt.Errorf("failed to move contents before detached node: %w", ErrNotFound)
	}
	i, err := p.indexOf(target)
	if err != nil {
		return err
	}
	MoveContentsInto(from, p, i, 0)
	return nil
}

// Unwrap replaces e by its children.
func Unwrap(e *Element) error {
	if err := MoveContentsBefore(e, e); err != nil {
		return err
	}
	Extract(e)
	return nil
}

// MergeFollowingText concatenates any text siblings following t into t.
func MergeFollowingText(t *Text) {
	for {
		next, ok := NextSibling(t).(*Text)
		if !ok {
			return
		}
		t.Value += next.Value
		detach(next)
	}
}

// Attached reports whether n is root or one of its descendants.
func Attached(root *Element, n Node) bool {
	if e, ok := n.(*Element); ok && e == root {
		return true
	}
	for p := n.Parent(); p != nil; p = p.parent {
		if p == root {
			return true
		}
	}
	return false
}

// FindAll returns the descendants of root with one of the given tags, in
// document order. With no tags every descendant element is returned. The
// result is a snapshot and stays valid while the tree is rewritten.
func FindAll(root *Element, tags ...string) []*Element {
	var out []*Element
	var walk func(e *Element)
	walk = func(e *Element) {
		for _, c := range e.children {
			ce, ok := c.(*Element)
			if !ok {
				continue
			}
			if len(tags) == 0 || slices.Contains(tags, ce.Tag) {
				out = append(out, ce)
			}
			walk(ce)
		}
	}
	walk(root)
	return out
}
