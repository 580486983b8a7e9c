package css

import (
	"errors"
	"io"
	"regexp"
	"strings"

	"fptidy/internal/dom"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses style attributes into ordered declarations
type Parser struct {
	log *zap.Logger

	importantRegex *regexp.Regexp
}

// NewParser creates a new style attribute parser
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{
		log:            log.Named("css"),
		importantRegex: regexp.MustCompile(`(?i)!\s*important\s*$`),
	}
}

// ParseInline parses the content of a style attribute. Declarations the
// tokenizer rejects fall back to a plain split on ';' and ':', so markup
// written by old editors is never lost.
func (p *Parser) ParseInline(styleAttr string) *Style {
	style := NewStyle()
	if strings.TrimSpace(styleAttr) == "" {
		return style
	}

	parser := css.NewParser(parse.NewInputString(styleAttr), true)
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				p.log.Debug("Style tokenizer failed, falling back to split",
					zap.String("style", styleAttr), zap.Error(err))
				return p.parseDeclarations(styleAttr)
			}
			return style

		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			property := NormalizePropertyName(string(data))
			value, important := p.splitImportant(joinTokens(parser.Values()))
			if property == "" || value == "" {
				continue
			}
			style.SetDeclaration(Declaration{Property: property, Value: value, Important: important})

		case css.CommentGrammar:
			continue

		default:
			// anything other than declarations means this is not a plain
			// declaration list
			p.log.Debug("Unexpected grammar in style attribute",
				zap.String("style", styleAttr), zap.String("grammar", gt.String()))
			return p.parseDeclarations(styleAttr)
		}
	}
}

// joinTokens rebuilds a value from tokens, collapsing whitespace runs
func joinTokens(tokens []css.Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		if t.TokenType == css.WhitespaceToken {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			continue
		}
		sb.Write(t.Data)
	}
	return strings.TrimSpace(sb.String())
}

func (p *Parser) splitImportant(value string) (string, bool) {
	if p.importantRegex.MatchString(value) {
		return strings.TrimSpace(p.importantRegex.ReplaceAllString(value, "")), true
	}
	return value, false
}

// parseDeclarations is the tolerant fallback parser. It scans the text once,
// ending a declaration at each ';' and splitting it at its first ':', both
// only outside quotes and parentheses.
func (p *Parser) parseDeclarations(text string) *Style {
	style := NewStyle()

	var (
		quote rune
		depth int
		start int
		colon = -1
	)
	emit := func(end int) {
		if colon >= 0 {
			property := NormalizePropertyName(text[start:colon])
			value, important := p.splitImportant(strings.TrimSpace(text[colon+1 : end]))
			if property != "" && value != "" {
				style.SetDeclaration(Declaration{Property: property, Value: value, Important: important})
			}
		}
		start, colon = end+1, -1
	}

	for i, r := range text {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(':
			depth++
		case r == ')' && depth > 0:
			depth--
		case depth > 0:
		case r == ':' && colon < 0:
			colon = i
		case r == ';':
			emit(i)
		}
	}
	emit(len(text))

	return style
}

// StyleOf parses the style attribute of an element
func (p *Parser) StyleOf(el *dom.Element) *Style {
	return p.ParseInline(el.Get("style"))
}

// Apply writes style back into the element. An empty style removes the
// attribute altogether.
func Apply(el *dom.Element, style *Style) {
	if style.Len() == 0 {
		el.RemoveAttr("style")
		return
	}
	el.SetAttr("style", style.String())
}
