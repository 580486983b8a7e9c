package css

import (
	"testing"

	"fptidy/internal/dom"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestParseInline(t *testing.T) {
	p := NewParser(zaptest.NewLogger(t))

	tests := []struct {
		name  string
		input string
		want  []Declaration
	}{
		{
			name:  "simple",
			input: "color:red",
			want:  []Declaration{{Property: "color", Value: "red"}},
		},
		{
			name:  "order and case are kept",
			input: "Text-Align: Center; COLOR: #FF0000;",
			want: []Declaration{
				{Property: "text-align", Value: "Center"},
				{Property: "color", Value: "#FF0000"},
			},
		},
		{
			name:  "multi token value",
			input: "line-height: 15.1 pt; font-family: 'Book Antiqua', Times",
			want: []Declaration{
				{Property: "line-height", Value: "15.1 pt"},
				{Property: "font-family", Value: "'Book Antiqua', Times"},
			},
		},
		{
			name:  "important",
			input: "margin-top: 0 !important",
			want:  []Declaration{{Property: "margin-top", Value: "0", Important: true}},
		},
		{
			name:  "vendor properties",
			input: "mso-bidi-font-size: 12.0pt; color: blue",
			want: []Declaration{
				{Property: "mso-bidi-font-size", Value: "12.0pt"},
				{Property: "color", Value: "blue"},
			},
		},
		{
			name:  "empty",
			input: "  ",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.ParseInline(tt.input)
			assert.Equal(t, tt.want, got.Declarations())
		})
	}
}

func TestParseDeclarationsFallback(t *testing.T) {
	p := NewParser(zaptest.NewLogger(t))
	got := p.parseDeclarations(`font-family: "a;b"; broken; color : red`)
	assert.Equal(t, []Declaration{
		{Property: "font-family", Value: `"a;b"`},
		{Property: "color", Value: "red"},
	}, got.Declarations())
}

func TestParseDeclarationsParentheses(t *testing.T) {
	p := NewParser(zaptest.NewLogger(t))
	got := p.parseDeclarations(`background: url(a;b:c.png) no-repeat;margin:0`)
	assert.Equal(t, []Declaration{
		{Property: "background", Value: "url(a;b:c.png) no-repeat"},
		{Property: "margin", Value: "0"},
	}, got.Declarations())
}

func TestStyle(t *testing.T) {
	s := NewStyle()
	s.Set("Color", "red")
	s.Set("text-align", "left")
	s.Set("color", "blue")
	assert.Equal(t, "color: blue; text-align: left", s.String())

	v, ok := s.Get("COLOR")
	assert.True(t, ok)
	assert.Equal(t, "blue", v)

	s.Set("color", "")
	assert.Equal(t, "text-align: left", s.String())
	assert.False(t, s.Delete("color"))
	assert.True(t, s.Delete("text-align"))
	assert.Equal(t, 0, s.Len())
}

func TestApply(t *testing.T) {
	p := NewParser(nil)
	el := dom.NewElement("p", dom.Attribute{Key: "style", Val: "color: red"})

	st := p.StyleOf(el)
	st.Set("text-align", "right")
	Apply(el, st)
	assert.Equal(t, "color: red; text-align: right", el.Get("style"))

	Apply(el, NewStyle())
	require.False(t, el.Has("style"))
}

func TestHasVendorPrefix(t *testing.T) {
	prefixes := []string{"mso-", "-webkit-"}
	assert.True(t, HasVendorPrefix("MSO-fareast", prefixes))
	assert.True(t, HasVendorPrefix("-webkit-box-shadow", prefixes))
	assert.False(t, HasVendorPrefix("margin", prefixes))
}
