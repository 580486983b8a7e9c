// Package resolver works out which explicit alignment declarations a
// subtree needs, dropping those that repeat the inherited alignment and
// hoisting a uniform child alignment onto the parent.
package resolver

import (
	"strings"

	"fptidy/internal/css"
	"fptidy/internal/dom"

	"go.uber.org/zap"
)

// Alignment values. An empty string means no explicit alignment.
const (
	AlignLeft   = "left"
	AlignCenter = "center"
	AlignRight  = "right"
)

// Values for the allow argument of Check.
const (
	AllowNone = ""
	AllowAny  = "any"
)

// Resolver handles alignment resolution for a tree
type Resolver struct {
	parser *css.Parser
	log    *zap.Logger
}

// New creates a new alignment resolver
func New(parser *css.Parser, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	if parser == nil {
		parser = css.NewParser(log)
	}
	return &Resolver{
		parser: parser,
		log:    log.Named("resolver"),
	}
}

// Result is what Check learned about the children of an element
type Result struct {
	// Seen holds explicit child alignments that differ from the parent's
	Seen map[string]bool
	// Inherit is set when some content depends on the parent's alignment
	Inherit bool
	// Change, when not empty, is the alignment the parent should take over
	Change string
}

// boxAligned elements use align for their own position, not their content's
func boxAligned(tag string) bool {
	return tag == "img" || tag == "table"
}

// GetAlignment returns the alignment of el from its align attribute or,
// failing that, its text-align style. "middle" is reported as center.
func (r *Resolver) GetAlignment(el *dom.Element) string {
	alignment := el.Get("align")
	if alignment == "" {
		alignment, _ = r.parser.StyleOf(el).Get("text-align")
	}
	alignment = strings.ToLower(strings.TrimSpace(alignment))
	if alignment == "middle" {
		alignment = AlignCenter
	}
	return alignment
}

// SetAlignment sets (or with "" deletes) the alignment of el. Text
// alignment goes into the style attribute and the deprecated align
// attribute is dropped; images and tables keep align since there it
// positions the element itself.
func (r *Resolver) SetAlignment(el *dom.Element, value string) {
	if boxAligned(el.Tag) {
		if value != "" {
			el.SetAttr("align", value)
		} else {
			el.RemoveAttr("align")
		}
		return
	}

	style := r.parser.StyleOf(el)
	_, had := style.Get("text-align")
	if value != "" || had {
		style.Set("text-align", value)
		css.Apply(el, style)
	}
	el.RemoveAttr("align")
}

// Check resolves the alignments of the children of el, whose effective
// alignment is parentAlign. allow says whether the caller may change el's
// alignment: AllowAny, AllowNone, or one specific alignment value.
//
// Explicit child alignments equal to parentAlign are removed. When all
// children share one other alignment and nothing relies on inheriting
// parentAlign, their declarations are removed and Result.Change tells the
// caller to put that alignment on el instead.
func (r *Resolver) Check(el *dom.Element, parentAlign, allow string) Result {
	res := Result{Seen: map[string]bool{}}

	// <center> inside centered content does nothing
	if parentAlign == AlignCenter {
		for _, child := range el.ChildElements() {
			if child.Tag == "center" {
				r.unwrap(child)
			}
		}
	}

	// plain text always renders with the parent's alignment
	if dom.HasNonWhitespaceText(el) {
		res.Inherit = true
	}

	var lastSeen string
	for _, child := range el.ChildElements() {
		if child.Parent() != el {
			continue
		}

		if boxAligned(child.Tag) {
			// the content of a table cell starts out left aligned
			if child.Tag == "table" {
				r.Check(child, AlignLeft, AllowNone)
			}
			res.Inherit = true
			continue
		}

		explicit := r.GetAlignment(child)
		current, childAllow := explicit, AllowAny
		switch {
		case explicit != "":
		case child.Tag == "center":
			current, childAllow = AlignCenter, parentAlign
		default:
			current, childAllow = parentAlign, AllowNone
			if child.Tag == "p" {
				childAllow = AllowAny
			}
		}

		sub := r.Check(child, current, childAllow)

		if child.Tag == "center" {
			if sub.Change != "" {
				// the content now inherits what the wrapper used to force
				r.unwrap(child)
				res.Inherit = true
			}
			continue
		}

		if sub.Change != "" {
			r.SetAlignment(child, sub.Change)
			explicit = sub.Change
		}

		switch {
		case explicit == "":
			res.Inherit = true
		case explicit == parentAlign:
			r.SetAlignment(child, "")
			res.Inherit = true
		default:
			lastSeen = explicit
			res.Seen[explicit] = true
		}
	}

	if len(res.Seen) == 1 && !res.Inherit && (allow == AllowAny || allow == lastSeen) {
		res.Change = lastSeen
		for _, child := range el.ChildElements() {
			if !boxAligned(child.Tag) && r.GetAlignment(child) == lastSeen {
				r.SetAlignment(child, "")
			}
		}
		r.log.Debug("Hoisting alignment", zap.String("tag", el.Tag), zap.String("align", lastSeen))
	}

	return res
}

func (r *Resolver) unwrap(el *dom.Element) {
	if err := dom.Unwrap(el); err != nil {
		r.log.Warn("Failed to unwrap element", zap.String("tag", el.Tag), zap.Error(err))
	}
}
