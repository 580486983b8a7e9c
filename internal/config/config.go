package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds configuration options for the tidy process
type Config struct {
	// InlineTags are elements whose surrounding whitespace does not affect
	// block layout; whitespace is moved out of them and they never start a
	// rendered line
	InlineTags []string `yaml:"inline_tags"`

	// DedupeNBSP folds a single &nbsp; that sits next to ordinary whitespace
	// into that whitespace, unless it starts a rendered line
	DedupeNBSP bool `yaml:"dedupe_nbsp"`

	// BulletImagePattern matches the src of images used as list bullets in
	// two-column layout tables
	BulletImagePattern string `yaml:"bullet_image_pattern"`

	// RemoveEmptyParagraphs drops empty <p> directly after tables and lists
	// and at the end of the document
	RemoveEmptyParagraphs bool `yaml:"remove_empty_paragraphs"`

	// FontFacesToRemove lists face attribute values whose <font> tags are
	// stripped before parsing (and whose face is dropped afterwards)
	FontFacesToRemove []string `yaml:"font_faces_to_remove"`

	// StripTags are removed from the raw markup before parsing, keeping
	// their content
	StripTags []string `yaml:"strip_tags"`

	// RemoveAttributes is keyed by tag name (or "*") and attribute name
	RemoveAttributes RemovalTable `yaml:"remove_attributes"`

	// RemoveStyles is keyed by tag name (or "*") and style property
	RemoveStyles RemovalTable `yaml:"remove_styles"`

	// VendorPrefixes mark style properties that are always dropped
	VendorPrefixes []string `yaml:"vendor_prefixes"`

	// MarginThreshold drops unitless margin properties closer to zero than this
	MarginThreshold float64 `yaml:"margin_threshold"`
}

// Default returns a configuration tuned for MS FrontPage output
func Default() Config {
	return Config{
		InlineTags:            []string{"strong", "em", "font", "span", "a"},
		DedupeNBSP:            true,
		BulletImagePattern:    `(rom|exp)bul.?.?\.gif$`,
		RemoveEmptyParagraphs: true,
		FontFacesToRemove: []string{
			"Book Antiqua, Times New Roman, Times",
			"Book Antiqua",
		},
		StripTags: []string{"o:p"},
		RemoveAttributes: RemovalTable{
			"*": {"lang": {"*"}},
		},
		RemoveStyles: RemovalTable{
			"*": {
				"line-height":    {"100%", "normal", "15.1 pt"},
				"color":          {"black", "#000", "#000000"},
				"text-autospace": {"none"},
			},
			"h2": {"color": {"#996600"}},
			"h3": {"color": {"#999900"}},
		},
		VendorPrefixes:  []string{"mso-", "-webkit-", "-moz-", "-ms-", "-o-"},
		MarginThreshold: 0.02,
	}
}

// Load reads a YAML file on top of the defaults
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of the defaults. Lists replace the default
// lists; table entries replace the default entry of the same tag.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Dump serializes the configuration as YAML
func Dump(cfg Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Validate checks the configuration for values the cleaner cannot use
func (c Config) Validate() error {
	if len(c.InlineTags) == 0 {
		return errors.New("inline_tags must not be empty")
	}
	if _, err := c.BulletImageRegexp(); err != nil {
		return err
	}
	if c.MarginThreshold < 0 {
		return fmt.Errorf("margin_threshold must not be negative, got %v", c.MarginThreshold)
	}
	return nil
}

// BulletImageRegexp compiles BulletImagePattern. An empty pattern turns
// list conversion off and yields nil.
func (c Config) BulletImageRegexp() (*regexp.Regexp, error) {
	if c.BulletImagePattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(c.BulletImagePattern)
	if err != nil {
		return nil, fmt.Errorf("invalid bullet_image_pattern %q: %w", c.BulletImagePattern, err)
	}
	return re, nil
}

// AttributeRemovals returns RemoveAttributes with the font faces to remove
// added under font/face.
func (c Config) AttributeRemovals() RemovalTable {
	table := c.RemoveAttributes.Clone()
	if len(c.FontFacesToRemove) == 0 {
		return table
	}
	if table == nil {
		table = RemovalTable{}
	}
	if table["font"] == nil {
		table["font"] = map[string]ValueSet{}
	}
	table["font"]["face"] = append(table["font"]["face"], c.FontFacesToRemove...)
	return table
}

// ValueSet is a list of values; in YAML it may be written as a single scalar
type ValueSet []string

// UnmarshalYAML accepts both a scalar and a sequence
func (v *ValueSet) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*v = ValueSet{node.Value}
		return nil
	case yaml.SequenceNode:
		var values []string
		if err := node.Decode(&values); err != nil {
			return err
		}
		*v = values
		return nil
	}
	return fmt.Errorf("line %d: expected a value or a list of values", node.Line)
}

// MarshalYAML writes single values as scalars
func (v ValueSet) MarshalYAML() (any, error) {
	if len(v) == 1 {
		return v[0], nil
	}
	return []string(v), nil
}

// Matches compares case-insensitively; "*" matches anything
func (v ValueSet) Matches(value string) bool {
	value = strings.TrimSpace(value)
	for _, s := range v {
		if s == "*" || strings.EqualFold(s, value) {
			return true
		}
	}
	return false
}

// RemovalTable maps tag name (or "*") to name to values to remove
type RemovalTable map[string]map[string]ValueSet

// Matches reports whether name=value should be removed from tag. A tag
// entry that mentions name shadows the "*" entry for that name.
func (t RemovalTable) Matches(tag, name, value string) bool {
	tag, name = strings.ToLower(tag), strings.ToLower(name)
	if set, ok := t[tag][name]; ok {
		return set.Matches(value)
	}
	if set, ok := t["*"][name]; ok {
		return set.Matches(value)
	}
	return false
}

// Clone returns a deep copy
func (t RemovalTable) Clone() RemovalTable {
	if t == nil {
		return nil
	}
	out := make(RemovalTable, len(t))
	for tag, byName := range t {
		m := make(map[string]ValueSet, len(byName))
		for name, values := range byName {
			m[name] = append(ValueSet(nil), values...)
		}
		out[tag] = m
	}
	return out
}
