package cleanup

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"fptidy/internal/css"
	"fptidy/internal/dom"
)

// legacy class FrontPage puts on every paragraph
const msoNormalClass = "msonormal"

// MangleAttributes drops configured and useless attributes and style
// properties from el, and turns align into text-align. Running it twice
// changes nothing the second time.
func (c *Cleaner) MangleAttributes(el *dom.Element) {
	for _, attr := range el.Attrs() {
		name := strings.ToLower(attr.Key)
		switch {
		case c.removeAttrs.Matches(el.Tag, name, attr.Val):
			el.RemoveAttr(attr.Key)
		case name == "align":
			c.align.SetAlignment(el, normalizeAlign(el.Tag, attr.Val))
		case name == "class":
			mangleClass(el, attr.Val)
		case name == "style":
			// align may have rewritten the style already
			c.mangleStyle(el)
		}
	}
}

func normalizeAlign(tag, value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "middle" && tag != "img" {
		return "center"
	}
	return value
}

func mangleClass(el *dom.Element, value string) {
	classes := strings.Fields(value)
	kept := slices.DeleteFunc(slices.Clone(classes), func(s string) bool {
		return strings.EqualFold(s, msoNormalClass)
	})
	switch {
	case len(kept) == 0:
		el.RemoveAttr("class")
	case len(kept) != len(classes):
		el.SetAttr("class", strings.Join(kept, " "))
	}
}

func (c *Cleaner) mangleStyle(el *dom.Element) {
	style := c.styles.StyleOf(el)
	dropped := false
	for _, d := range style.Declarations() {
		if c.dropDeclaration(el.Tag, d) {
			style.Delete(d.Property)
			dropped = true
		}
	}
	if dropped || style.Len() == 0 {
		css.Apply(el, style)
	}
}

func (c *Cleaner) dropDeclaration(tag string, d css.Declaration) bool {
	switch {
	case c.cfg.RemoveStyles.Matches(tag, d.Property, d.Value):
		return true
	case css.HasVendorPrefix(d.Property, c.cfg.VendorPrefixes):
		return true
	case strings.HasPrefix(d.Property, "margin"):
		// only unitless values; "0.01cm" is left alone
		v, err := strconv.ParseFloat(strings.TrimSpace(d.Value), 64)
		return err == nil && math.Abs(v) < c.cfg.MarginThreshold
	}
	return false
}

// unionClasses joins two class lists, lower cased, without duplicates
func unionClasses(a, b string) string {
	var out []string
	for _, cls := range strings.Fields(a + " " + b) {
		cls = strings.ToLower(cls)
		if !slices.Contains(out, cls) {
			out = append(out, cls)
		}
	}
	return strings.Join(out, " ")
}
