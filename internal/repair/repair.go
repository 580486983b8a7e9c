// Package repair fixes markup that an HTML parser would otherwise "correct"
// into the wrong structure. It works on the raw source, before parsing.
package repair

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"fptidy/internal/config"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrUnbalanced is returned when start and end tags cannot be paired up
var ErrUnbalanced = errors.New("unbalanced tags")

// <b><p> ... </b> ... </p>: a parser closes the paragraph at </b>
var boldParagraphRe = regexp.MustCompile(`(?s)<b>(\s*<p.*?>)(.*?)</b>`)

// Repairer applies the source level fixes configured in a config.Config
type Repairer struct {
	cfg config.Config
	log *zap.Logger
}

// New creates a repairer
func New(cfg config.Config, log *zap.Logger) *Repairer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repairer{cfg: cfg, log: log.Named("repair")}
}

// Repair normalizes line endings, strips the configured font and other
// tags, and moves <b> inside paragraphs it wraps the start of.
func (r *Repairer) Repair(src string) (string, error) {
	src = strings.ReplaceAll(src, "\r\n", "\n")

	var errs error
	if len(r.cfg.FontFacesToRemove) > 0 {
		contents := make([]string, 0, len(r.cfg.FontFacesToRemove))
		for _, face := range r.cfg.FontFacesToRemove {
			contents = append(contents, `face="`+face+`"`)
		}
		out, err := RemoveTags(src, "font", contents)
		if err != nil {
			errs = multierr.Append(errs, err)
		} else {
			src = out
		}
	}

	for _, tag := range r.cfg.StripTags {
		out, err := RemoveTags(src, tag, nil)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		src = out
	}
	if errs != nil {
		return "", errs
	}

	src, swapped := SwapBoldParagraphs(src)
	if swapped > 0 {
		r.log.Debug("Moved bold into paragraphs", zap.Int("count", swapped))
	}
	return src, nil
}

// SwapBoldParagraphs rewrites <b><p ...>text</b> to <p ...><b>text</b>
// when the bold text does not end the paragraph itself.
func SwapBoldParagraphs(src string) (string, int) {
	matches := boldParagraphRe.FindAllStringSubmatchIndex(src, -1)
	if len(matches) == 0 {
		return src, 0
	}

	var sb strings.Builder
	last, swapped := 0, 0
	for _, m := range matches {
		if strings.Contains(src[m[4]:m[5]], "/p>") {
			continue
		}
		sb.WriteString(src[last:m[0]])
		sb.WriteString(src[m[2]:m[3]])
		sb.WriteString("<b>")
		last = m[4]
		swapped++
	}
	sb.WriteString(src[last:])
	return sb.String(), swapped
}

// span is a byte range to cut from the source
type span struct{ start, end int }

// RemoveTags removes tags named tag from src but keeps their content. End
// tags are paired with the closest unpaired start tag before them, so
// nested tags are handled.
//
// With contents, only start tags that read exactly "<tag " + content + ">"
// (or "<tag>" for an empty content) are removed, along with their end tag.
// Without contents every tag is removed, unpaired start tags included.
// Matching ignores ASCII case.
func RemoveTags(src, tag string, contents []string) (string, error) {
	lower := asciiLower(src)
	tag = asciiLower(tag)

	var wanted []string
	for _, c := range contents {
		if c == "" {
			wanted = append(wanted, "<"+tag+">")
		} else {
			wanted = append(wanted, "<"+tag+" "+asciiLower(c)+">")
		}
	}

	var (
		stack []int
		cuts  []span
	)
	for pos := 0; pos < len(lower); {
		next, isEnd := nextTag(lower, tag, pos)
		if next < 0 {
			break
		}
		if !isEnd {
			stack = append(stack, next)
			pos = next + 1
			continue
		}

		endLen := strings.IndexByte(lower[next:], '>') + 1
		if endLen == 0 {
			return "", fmt.Errorf("%w: unterminated </%s> at offset %d", ErrUnbalanced, tag, next)
		}
		if len(stack) == 0 {
			return "", fmt.Errorf("%w: </%s> without start tag at offset %d", ErrUnbalanced, tag, next)
		}
		start := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := startTagLen(lower[start:], wanted)
		if n < 0 {
			return "", fmt.Errorf("%w: cannot find end of <%s> start tag at offset %d", ErrUnbalanced, tag, start)
		}
		if n > 0 {
			cuts = append(cuts, span{start, start + n}, span{next, next + endLen})
		}
		pos = next + endLen
	}

	if len(contents) == 0 {
		for _, start := range stack {
			n := startTagLen(lower[start:], nil)
			if n < 0 {
				return "", fmt.Errorf("%w: cannot find end of <%s> start tag at offset %d", ErrUnbalanced, tag, start)
			}
			cuts = append(cuts, span{start, start + n})
		}
	}
	if len(cuts) == 0 {
		return src, nil
	}

	slices.SortFunc(cuts, func(a, b span) int { return a.start - b.start })
	var sb strings.Builder
	last := 0
	for _, c := range cuts {
		sb.WriteString(src[last:c.start])
		last = c.end
	}
	sb.WriteString(src[last:])
	return sb.String(), nil
}

// nextTag finds the next start or end tag named tag at or after pos
func nextTag(s, tag string, pos int) (int, bool) {
	for {
		i := strings.IndexByte(s[pos:], '<')
		if i < 0 {
			return -1, false
		}
		i += pos
		rest := s[i+1:]
		isEnd := strings.HasPrefix(rest, "/")
		if isEnd {
			rest = rest[1:]
		}
		if strings.HasPrefix(rest, tag) && len(rest) > len(tag) {
			switch rest[len(tag)] {
			case '>', ' ', '\t', '\n':
				return i, isEnd
			}
		}
		pos = i + 1
	}
}

// startTagLen returns the length of the start tag at the beginning of s.
// With wanted, only exact matches count and 0 means no match. Without, the
// tag runs up to the first '>', and -1 means no sane end was found.
func startTagLen(s string, wanted []string) int {
	if wanted != nil {
		for _, w := range wanted {
			if strings.HasPrefix(s, w) {
				return len(w)
			}
		}
		return 0
	}

	end := strings.IndexByte(s, '>')
	if end < 0 {
		return -1
	}
	t := s[:end+1]
	// a '>' inside a quoted value or a missing '>' is not handled
	if strings.Count(t, `"`)%2 != 0 || strings.Count(t, "'")%2 != 0 || strings.Count(t, "<") > 1 {
		return -1
	}
	return len(t)
}

func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}
