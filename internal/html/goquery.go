package html

import (
	"fmt"
	"strings"

	"fptidy/internal/dom"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parser parses complete HTML pages
type Parser struct {
	log *zap.Logger
}

// NewParser creates a goquery based page parser
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("html")}
}

// Document is a parsed page
type Document struct {
	doc *goquery.Document
	log *zap.Logger
}

// Parse parses an HTML string into a Document
func (p *Parser) Parse(src string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Document{doc: doc, log: p.log}, nil
}

// PrepareStats counts what Prepare changed
type PrepareStats struct {
	Scripts  int
	Comments int
	Renamed  int
}

// renames maps presentational tags to their semantic equivalents
var renames = map[string]atom.Atom{
	"b": atom.Strong,
	"i": atom.Em,
}

// Prepare removes scripts and comments and renames <b> and <i> to <strong>
// and <em>, so the cleanup only ever sees one spelling of each.
func (d *Document) Prepare() PrepareStats {
	var stats PrepareStats

	scripts := d.doc.Find("script")
	stats.Scripts = scripts.Length()
	scripts.Remove()

	comments := d.doc.Find("*").AddSelection(d.doc.Selection).Contents().
		FilterFunction(func(_ int, s *goquery.Selection) bool {
			return s.Get(0).Type == html.CommentNode
		})
	stats.Comments = comments.Length()
	comments.Remove()

	for tag, to := range renames {
		d.doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
			n := s.Get(0)
			n.Data = to.String()
			n.DataAtom = to
			stats.Renamed++
		})
	}

	d.log.Debug("Document prepared",
		zap.Int("scripts", stats.Scripts),
		zap.Int("comments", stats.Comments),
		zap.Int("renamed", stats.Renamed))
	return stats
}

func (d *Document) bodyNode() (*html.Node, error) {
	body := d.doc.Find("body").First()
	if body.Length() == 0 {
		return nil, fmt.Errorf("no body element found")
	}
	return body.Get(0), nil
}

// Body returns a copy of the body as a dom tree
func (d *Document) Body() (*dom.Element, error) {
	n, err := d.bodyNode()
	if err != nil {
		return nil, err
	}
	return dom.FromHTML(n), nil
}

// SetBody replaces the content and attributes of the body with body
func (d *Document) SetBody(body *dom.Element) error {
	n, err := d.bodyNode()
	if err != nil {
		return err
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}

	converted := dom.ToHTML(body)
	for c := converted.FirstChild; c != nil; {
		next := c.NextSibling
		converted.RemoveChild(c)
		n.AppendChild(c)
		c = next
	}
	n.Attr = converted.Attr
	return nil
}

// Title returns the trimmed page title
func (d *Document) Title() string {
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

// HTML returns the complete document
func (d *Document) HTML() (string, error) {
	out, err := d.doc.Html()
	if err != nil {
		return "", fmt.Errorf("failed to serialize HTML: %w", err)
	}
	return dom.FixMarkup(out), nil
}

// BodyHTML returns the content of the body only
func (d *Document) BodyHTML() (string, error) {
	out, err := d.doc.Find("body").First().Html()
	if err != nil {
		return "", fmt.Errorf("failed to serialize body: %w", err)
	}
	return dom.FixMarkup(out), nil
}
