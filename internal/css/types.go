package css

import (
	"slices"
	"strings"
)

// Declaration represents a single CSS property declaration
type Declaration struct {
	Property  string // CSS property name (lower case)
	Value     string // CSS property value, original casing
	Important bool   // !important flag
}

func (d Declaration) String() string {
	if d.Important {
		return d.Property + ": " + d.Value + " !important"
	}
	return d.Property + ": " + d.Value
}

// Style is the ordered content of a style attribute. Property names are
// unique; setting an existing property keeps its position.
type Style struct {
	decls []Declaration
}

// NewStyle returns an empty style.
func NewStyle() *Style {
	return &Style{}
}

// Len returns the number of declarations
func (s *Style) Len() int { return len(s.decls) }

// Declarations returns a copy of the declarations in order
func (s *Style) Declarations() []Declaration { return slices.Clone(s.decls) }

// Get returns the value of a property
func (s *Style) Get(property string) (string, bool) {
	if d, ok := s.Lookup(property); ok {
		return d.Value, true
	}
	return "", false
}

// Lookup returns the full declaration of a property
func (s *Style) Lookup(property string) (Declaration, bool) {
	property = NormalizePropertyName(property)
	for _, d := range s.decls {
		if d.Property == property {
			return d, true
		}
	}
	return Declaration{}, false
}

// Set sets a property value; an empty value deletes the property
func (s *Style) Set(property, value string) {
	s.SetDeclaration(Declaration{Property: property, Value: value})
}

// SetDeclaration adds or replaces a declaration
func (s *Style) SetDeclaration(d Declaration) {
	d.Property = NormalizePropertyName(d.Property)
	d.Value = strings.TrimSpace(d.Value)
	if d.Value == "" {
		s.Delete(d.Property)
		return
	}
	for i := range s.decls {
		if s.decls[i].Property == d.Property {
			s.decls[i] = d
			return
		}
	}
	s.decls = append(s.decls, d)
}

// Delete removes a property, reporting whether it was present
func (s *Style) Delete(property string) bool {
	property = NormalizePropertyName(property)
	n := len(s.decls)
	s.decls = slices.DeleteFunc(s.decls, func(d Declaration) bool { return d.Property == property })
	return len(s.decls) != n
}

// String serializes the style the way it is written back into markup:
// "name: value" pairs joined by "; ".
func (s *Style) String() string {
	parts := make([]string, 0, len(s.decls))
	for _, d := range s.decls {
		parts = append(parts, d.String())
	}
	return strings.Join(parts, "; ")
}

// NormalizePropertyName normalizes CSS property names
func NormalizePropertyName(property string) string {
	return strings.ToLower(strings.TrimSpace(property))
}

// HasVendorPrefix reports whether property starts with one of prefixes
func HasVendorPrefix(property string, prefixes []string) bool {
	property = NormalizePropertyName(property)
	for _, p := range prefixes {
		if strings.HasPrefix(property, p) {
			return true
		}
	}
	return false
}
