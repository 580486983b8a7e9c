package cleanup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fptidy/internal/dom"
)

func TestMangleAttributes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		tag      string
		expected string
	}{
		{
			name:     "paragraph",
			input:    `<p align="Right" lang="en-us" class="MsoNormal" style="margin-top: 0; mso-bidi-font-size: 12pt; line-height: 100%; color: navy">x</p>`,
			tag:      "p",
			expected: `<p style="color: navy; text-align: right">x</p>`,
		},
		{
			name:     "image keeps align",
			input:    `<img align="Middle" src="a.gif">`,
			tag:      "img",
			expected: `<img align="middle" src="a.gif">`,
		},
		{
			name:     "middle is center for text",
			input:    `<div align="middle">x</div>`,
			tag:      "div",
			expected: `<div style="text-align: center">x</div>`,
		},
		{
			name:     "class tokens",
			input:    `<p class="intro MsoNormal">x</p>`,
			tag:      "p",
			expected: `<p class="intro">x</p>`,
		},
		{
			name:     "untouched style keeps formatting",
			input:    `<p style="color:Navy">x</p>`,
			tag:      "p",
			expected: `<p style="color:Navy">x</p>`,
		},
		{
			name:     "per tag style removal",
			input:    `<h2 style="color: #996600">x</h2>`,
			tag:      "h2",
			expected: `<h2>x</h2>`,
		},
		{
			name:     "margins with units kept",
			input:    `<p style="margin-top: 0cm; margin-bottom: 0.01">x</p>`,
			tag:      "p",
			expected: `<p style="margin-top: 0cm">x</p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCleaner(t)
			body := parseBody(t, tt.input)
			el := first(t, body, tt.tag)
			c.MangleAttributes(el)
			assert.Equal(t, tt.expected, render(t, body))

			// second run is a no-op
			c.MangleAttributes(el)
			assert.Equal(t, tt.expected, render(t, body))
		})
	}
}

func TestMangleTag(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		tag      string
		expected string
	}{
		{
			name:     "span into anchor child",
			input:    `<span style="color:red"><a id="x">text</a></span>`,
			tag:      "span",
			expected: `<a id="x" style="color:red">text</a>`,
		},
		{
			name:     "span into parent",
			input:    `<p><span style="color: red">x</span></p>`,
			tag:      "span",
			expected: `<p style="color: red">x</p>`,
		},
		{
			name:     "class merged case insensitively",
			input:    `<p class="Intro"><span class="MsoNormal Big intro">x</span></p>`,
			tag:      "span",
			expected: `<p class="intro big">x</p>`,
		},
		{
			name:     "child style wins over parent",
			input:    `<p style="color: blue"><span style="color: green; font-weight: bold">x</span></p>`,
			tag:      "span",
			expected: `<p style="color: green; font-weight: bold">x</p>`,
		},
		{
			name:     "span into link child",
			input:    `<p>go <span class="note"><a href="/u">here</a></span></p>`,
			tag:      "span",
			expected: `<p>go <a href="/u" class="note">here</a></p>`,
		},
		{
			name:     "anchor name becomes id",
			input:    `<p>Intro <a name="top"></a>text</p>`,
			tag:      "a",
			expected: `<p id="top">Intro text</p>`,
		},
		{
			name:     "anchor with href untouched",
			input:    `<p><a href="/x" name="top">x</a></p>`,
			tag:      "a",
			expected: `<p><a href="/x" name="top">x</a></p>`,
		},
		{
			name:     "anchor refused by id",
			input:    `<p id="p1"><a name="top">x</a></p>`,
			tag:      "a",
			expected: `<p id="p1"><a name="top">x</a></p>`,
		},
		{
			name:     "ids on both block merge",
			input:    `<div id="a"><p id="b">x</p></div>`,
			tag:      "div",
			expected: `<div id="a"><p id="b">x</p></div>`,
		},
		{
			name:     "block never merges into inline child",
			input:    `<div style="color: red"><span>x</span></div>`,
			tag:      "div",
			expected: `<div style="color: red"><span>x</span></div>`,
		},
		{
			name:     "font without neighbour becomes span",
			input:    `<p>a <font color="#ff0000">b</font> c</p>`,
			tag:      "font",
			expected: `<p>a <span style="color: #ff0000">b</span> c</p>`,
		},
		{
			name:     "font relative size",
			input:    `<p>a <font size="+1">b</font></p>`,
			tag:      "font",
			expected: `<p>a <span style="font-size: large">b</span></p>`,
		},
		{
			name:     "font black color dropped",
			input:    `<p><font color="black">b</font></p>`,
			tag:      "font",
			expected: `<p>b</p>`,
		},
		{
			name:     "bare span unwrapped",
			input:    `<p>a <span lang="en-us">b</span> c</p>`,
			tag:      "span",
			expected: `<p>a b c</p>`,
		},
		{
			name:     "span with class kept",
			input:    `<p>a <span class="x">b</span> c</p>`,
			tag:      "span",
			expected: `<p>a <span class="x">b</span> c</p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCleaner(t)
			body := parseBody(t, tt.input)
			require.NoError(t, c.MangleTag(first(t, body, tt.tag)))
			assert.Equal(t, tt.expected, render(t, body))
		})
	}
}

func TestMangleTagChildStyleWins(t *testing.T) {
	c := newTestCleaner(t)
	body := dom.NewElement("body")
	span := dom.NewElement("span", dom.Attribute{Key: "style", Val: "color: green; font-style: italic"})
	p := dom.NewElement("p", dom.Attribute{Key: "style", Val: "color: blue"})
	p.AppendChild(dom.NewText("x"))
	span.AppendChild(p)
	body.AppendChild(span)

	require.NoError(t, c.MangleTag(span))
	assert.Equal(t, `<p style="color: blue; font-style: italic">x</p>`, render(t, body))
}

func TestMangleTagUnknownFontAttribute(t *testing.T) {
	c := newTestCleaner(t)
	body := parseBody(t, `<p><font class="big" color="red">x</font></p>`)
	err := c.MangleTag(first(t, body, "font"))
	assert.ErrorIs(t, err, ErrStructuralAssumption)
}

func TestFontSize(t *testing.T) {
	assert.Equal(t, "x-small", fontSize("1"))
	assert.Equal(t, "medium", fontSize(" 3 "))
	assert.Equal(t, "xxx-large", fontSize("9"))
	assert.Equal(t, "small", fontSize("-1"))
	assert.Equal(t, "x-small", fontSize("-4"))
	assert.Equal(t, "12pt", fontSize("12pt"))
}
