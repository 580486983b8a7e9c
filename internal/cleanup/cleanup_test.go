package cleanup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"fptidy/internal/config"
	"fptidy/internal/dom"
)

func newTestCleaner(t *testing.T, mutate ...func(*config.Config)) *Cleaner {
	t.Helper()
	cfg := config.Default()
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := New(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	return c
}

func parseBody(t *testing.T, s string) *dom.Element {
	t.Helper()
	body, err := dom.ParseBodyString(s)
	require.NoError(t, err)
	return body
}

func render(t *testing.T, body *dom.Element) string {
	t.Helper()
	s, err := dom.InnerHTML(body)
	require.NoError(t, err)
	return s
}

func first(t *testing.T, body *dom.Element, tag string) *dom.Element {
	t.Helper()
	els := dom.FindAll(body, tag)
	require.NotEmpty(t, els, "no <%s> found", tag)
	return els[0]
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(config.Config{}, nil)
	assert.Error(t, err)

	cfg := config.Default()
	cfg.BulletImagePattern = "("
	_, err = New(cfg, nil)
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "font becomes span and whitespace is deduped",
			input:    `<p align="right"><font color="#ff0000">Hello</font>  <strong>world</strong> </p>`,
			expected: `<p style="text-align: right"><span style="color: #ff0000">Hello</span> <strong>world</strong></p>`,
		},
		{
			name:     "removed font face leaves no wrapper",
			input:    `<p>a <font face="Book Antiqua">b</font></p>`,
			expected: `<p>a b</p>`,
		},
		{
			name:     "font merges into its paragraph",
			input:    `<p><font size="2" face="Arial">x</font></p>`,
			expected: `<p style="font-size: small; font-family: Arial">x</p>`,
		},
		{
			name:     "double break splits paragraph",
			input:    `<p>A<br><br>B</p>`,
			expected: "<p>A</p>\n<p>B</p>",
		},
		{
			name:     "trailing break pair moves out of paragraph",
			input:    `<p>A<br><br></p>`,
			expected: `<p>A</p><br><br>`,
		},
		{
			name:     "trailing break pair with line feeds",
			input:    "<p>a<br>\n<br>\n</p>",
			expected: "<p>a\n</p><br>\n<br>",
		},
		{
			name:     "single trailing break is dropped",
			input:    `<p>A<br></p>`,
			expected: `<p>A</p>`,
		},
		{
			name:     "break pair ending a list item stays",
			input:    `<ul><li>A<br><br></li></ul>`,
			expected: `<ul><li>A<br><br></li></ul>`,
		},
		{
			name:     "left aligned single cell table disappears",
			input:    `<table><tr><td>X</td></tr></table>`,
			expected: `X`,
		},
		{
			name:     "centered single cell table keeps alignment",
			input:    `<table><tr><td align="center">X</td></tr></table>`,
			expected: `<div style="text-align: center">X</div>`,
		},
		{
			name:     "block keeps style of inline child",
			input:    `<div style="color: red"><span>x</span></div>`,
			expected: `<div style="color: red">x</div>`,
		},
		{
			name:     "link target becomes id",
			input:    `<p>Intro <a name="top"></a>text</p>`,
			expected: `<p id="top">Intro text</p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCleaner(t)
			body := parseBody(t, tt.input)
			_, err := c.Run(body)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, render(t, body))
		})
	}
}

func TestRunIsIdempotent(t *testing.T) {
	inputs := []string{
		`<p align="right"><font color="#ff0000">Hello</font>  <strong>world</strong> </p>`,
		`<p>A<br><br>B</p>`,
		`<p class="MsoNormal" style="margin-top: 0; mso-list: l0">Text <span lang="en-us">here</span>&nbsp; there</p>`,
		`<div align="center"><p align="center">a</p><p>b</p></div>`,
		`<p>A<br><br></p>`,
		"<p>a<br>\n<br>\n</p>",
		`<div><p>A<br><br></p></div>`,
		`<ul><li>A<br><br></li></ul>`,
		"<ul><li>a<br>\n<br>\n</li></ul>",
		`<blockquote>A<br><br></blockquote>`,
		"<blockquote>A<br>\n<br>\n</blockquote>",
	}
	for _, input := range inputs {
		c := newTestCleaner(t)
		body := parseBody(t, input)
		_, err := c.Run(body)
		require.NoError(t, err)
		once := render(t, body)

		again := parseBody(t, once)
		_, err = c.Run(again)
		require.NoError(t, err)
		assert.Equal(t, once, render(t, again), "input %q", input)
	}
}

func TestRunStats(t *testing.T) {
	c := newTestCleaner(t)
	body := parseBody(t, `<p>a <font face="Book Antiqua">b</font></p><p>A<br><br>B</p>`)
	stats, err := c.Run(body)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SpansCreated)
	assert.Equal(t, 2, stats.WrappersCollapsed)
	assert.Equal(t, 1, stats.ParagraphsSplit)

	var total Stats
	total.Add(stats)
	total.Add(stats)
	assert.Equal(t, 2, total.ParagraphsSplit)
}

func TestRunStructuralError(t *testing.T) {
	c := newTestCleaner(t)
	body := parseBody(t, `<p>a <font class="big">b</font></p>`)
	_, err := c.Run(body)
	assert.ErrorIs(t, err, ErrStructuralAssumption)
}

func TestSplitDoubleBreaks(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		split    int
	}{
		{
			name:     "simple",
			input:    `<p>A<br><br>B</p>`,
			expected: "<p>A</p>\n<p>B</p>",
			split:    1,
		},
		{
			name:     "line feeds around breaks",
			input:    "<p>A<br>\n<br>B</p>",
			expected: "<p>A</p>\n<p>B</p>",
			split:    1,
		},
		{
			name:     "attributes copied except identity",
			input:    `<p id="x" class="c">A<br><br>B</p>`,
			expected: "<p id=\"x\" class=\"c\">A</p>\n<p class=\"c\">B</p>",
			split:    1,
		},
		{
			name:     "three breaks are left alone",
			input:    `<p>A<br><br><br>B</p>`,
			expected: `<p>A<br><br><br>B</p>`,
		},
		{
			name:     "breaks inside inline element are left alone",
			input:    `<p>A<em>x<br><br>y</em></p>`,
			expected: `<p>A<em>x<br><br>y</em></p>`,
		},
		{
			name:     "trailing pair moves out",
			input:    `<p>A<br><br></p>`,
			expected: `<p>A</p><br><br>`,
		},
		{
			name:     "trailing pair keeps its line feed outside",
			input:    "<p>a<br>\n<br>\n</p>",
			expected: "<p>a\n</p><br>\n<br>",
		},
		{
			name:     "two splits",
			input:    `<p>A<br><br>B<br><br>C</p>`,
			expected: "<p>A</p>\n<p>B</p>\n<p>C</p>",
			split:    2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCleaner(t)
			body := parseBody(t, tt.input)
			assert.Equal(t, tt.split, c.SplitDoubleBreaks(body))
			assert.Equal(t, tt.expected, render(t, body))
		})
	}
}

func TestNormalizeStrongLinks(t *testing.T) {
	c := newTestCleaner(t)
	body := parseBody(t, `<p><a href="u"><strong>x</strong></a> <a href="v"><strong>y</strong>z</a></p>`)
	c.normalizeStrongLinks(body)
	assert.Equal(t, `<p><strong><a href="u">x</a></strong> <a href="v"><strong>y</strong>z</a></p>`, render(t, body))
}

func TestRemoveEmptyParagraphs(t *testing.T) {
	c := newTestCleaner(t)
	body := parseBody(t, "<ul><li>x</li></ul>\n<p></p><p>after</p><div><p>y</p><p></p></div>")
	c.removeEmptyParagraphs(body)
	assert.Equal(t, "<ul><li>x</li></ul>\n<p>after</p><div><p>y</p></div>", render(t, body))
	assert.Equal(t, 2, c.stats.EmptyParagraphs)
}

func TestRunKeepsEmptyParagraphsWhenDisabled(t *testing.T) {
	c := newTestCleaner(t, func(cfg *config.Config) { cfg.RemoveEmptyParagraphs = false })
	body := parseBody(t, "<p>x</p><p></p>")
	_, err := c.Run(body)
	require.NoError(t, err)
	assert.Equal(t, "<p>x</p><p></p>", render(t, body))
}
