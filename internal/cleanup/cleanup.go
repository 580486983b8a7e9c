// Package cleanup rewrites a parsed body into compact markup that renders
// the same: whitespace is normalized, presentational wrappers are folded
// into neighbouring elements, alignment is resolved and a few layout table
// idioms are turned into their structural equivalents.
//
// A Cleaner owns no tree state; Run mutates the tree it is handed and must
// not be called concurrently on the same tree.
package cleanup

import (
	"errors"
	"fmt"
	"regexp"
	"slices"

	"fptidy/internal/config"
	"fptidy/internal/css"
	"fptidy/internal/dom"
	"fptidy/internal/resolver"

	"go.uber.org/zap"
)

// ErrStructuralAssumption is returned when the input has a shape that a
// rewrite cannot reason about safely. The document must not be used.
var ErrStructuralAssumption = errors.New("structural assumption violated")

func structuralf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStructuralAssumption, fmt.Sprintf(format, args...))
}

var (
	// elements that can receive the attributes of a collapsed wrapper
	mergeableTags = []string{"a", "p", "span", "div", "h2", "h3", "h4", "li", "blockquote"}

	// order in which wrappers are collapsed
	collapseOrder = []string{"font", "div", "span", "a", "p"}

	// blocks holding running text
	textBlockTags = []string{"p", "h1", "h2", "h3", "h4", "h5", "h6", "li", "blockquote"}
)

// Stats counts what a run changed
type Stats struct {
	TablesElided      int
	ListsCreated      int
	WrappersCollapsed int
	SpansCreated      int
	ParagraphsSplit   int
	EmptyParagraphs   int
}

// Add accumulates other into s
func (s *Stats) Add(other Stats) {
	s.TablesElided += other.TablesElided
	s.ListsCreated += other.ListsCreated
	s.WrappersCollapsed += other.WrappersCollapsed
	s.SpansCreated += other.SpansCreated
	s.ParagraphsSplit += other.ParagraphsSplit
	s.EmptyParagraphs += other.EmptyParagraphs
}

// Cleaner applies the rewrites configured by a config.Config
type Cleaner struct {
	cfg         config.Config
	inline      map[string]bool
	bullet      *regexp.Regexp
	removeAttrs config.RemovalTable
	styles      *css.Parser
	align       *resolver.Resolver
	log         *zap.Logger

	stats Stats
}

// New creates a cleaner for cfg
func New(cfg config.Config, log *zap.Logger) (*Cleaner, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}
	bullet, err := cfg.BulletImageRegexp()
	if err != nil {
		return nil, err
	}

	inline := make(map[string]bool, len(cfg.InlineTags))
	for _, t := range cfg.InlineTags {
		inline[t] = true
	}

	styles := css.NewParser(log)
	return &Cleaner{
		cfg:         cfg,
		inline:      inline,
		bullet:      bullet,
		removeAttrs: cfg.AttributeRemovals(),
		styles:      styles,
		align:       resolver.New(styles, log),
		log:         log.Named("cleanup"),
	}, nil
}

// Run applies all rewrites to body in the order they depend on each other.
func (c *Cleaner) Run(body *dom.Element) (Stats, error) {
	c.stats = Stats{}

	// Step 1: layout tables
	for _, table := range dom.FindAll(body, "table") {
		if dom.Attached(body, table) {
			c.RemoveSingleCellTable(table)
		}
	}
	for _, table := range dom.FindAll(body, "table") {
		if c.bullet == nil || !dom.Attached(body, table) {
			continue
		}
		if _, err := c.ConvertTableToList(table, c.bullet); err != nil {
			return c.stats, fmt.Errorf("failed to convert table to list: %w", err)
		}
	}
	c.log.Debug("Tables done",
		zap.Int("elided", c.stats.TablesElided), zap.Int("lists", c.stats.ListsCreated))

	// Step 2: alignment
	c.align.Check(body, resolver.AlignLeft, resolver.AllowNone)

	// Step 3: inline wrappers
	c.normalizeStrongLinks(body)
	for _, tag := range c.cfg.InlineTags {
		for _, el := range dom.FindAll(body, tag) {
			if dom.Attached(body, el) {
				c.MoveWhitespaceToParent(el, tag != "a")
			}
		}
	}
	for _, tag := range collapseOrder {
		for _, el := range dom.FindAll(body, tag) {
			if !dom.Attached(body, el) {
				continue
			}
			if err := c.MangleTag(el); err != nil {
				return c.stats, fmt.Errorf("failed to collapse <%s>: %w", tag, err)
			}
		}
	}
	for _, el := range dom.FindAll(body, textBlockTags...) {
		c.MangleAttributes(el)
	}
	c.log.Debug("Wrappers collapsed",
		zap.Int("collapsed", c.stats.WrappersCollapsed), zap.Int("spans", c.stats.SpansCreated))

	// Step 4: whitespace
	for _, el := range dom.FindAll(body, slices.Concat(c.cfg.InlineTags, textBlockTags)...) {
		for _, n := range el.Children() {
			if t, ok := n.(*dom.Text); ok && t.Parent() == el {
				c.DedupeWhitespace(t)
			}
		}
	}
	for _, el := range dom.FindAll(body, append(slices.Clone(textBlockTags), "div")...) {
		mode := NewlineKeep
		if el.Tag == "li" {
			mode = NewlineStrip
		}
		c.StripNonInlineWhitespace(el, mode)
	}
	c.StripNonInlineWhitespace(body, NewlineKeep)
	c.stripAroundBreaks(body)

	// Step 5: paragraphs
	c.SplitDoubleBreaks(body)
	if c.cfg.RemoveEmptyParagraphs {
		c.removeEmptyParagraphs(body)
	}

	c.log.Debug("Cleanup finished", zap.Any("stats", c.stats))
	return c.stats, nil
}
