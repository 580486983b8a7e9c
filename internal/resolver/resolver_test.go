package resolver

import (
	"testing"

	"fptidy/internal/css"
	"fptidy/internal/dom"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newResolver(t *testing.T) *Resolver {
	log := zaptest.NewLogger(t)
	return New(css.NewParser(log), log)
}

func parse(t *testing.T, s string) *dom.Element {
	t.Helper()
	body, err := dom.ParseBodyString(s)
	require.NoError(t, err)
	return body
}

func render(t *testing.T, e *dom.Element) string {
	t.Helper()
	s, err := dom.InnerHTML(e)
	require.NoError(t, err)
	return s
}

func TestGetAlignment(t *testing.T) {
	r := newResolver(t)
	tests := []struct {
		in   string
		want string
	}{
		{`<p align="Right">x</p>`, AlignRight},
		{`<p style="color: red; text-align: center">x</p>`, AlignCenter},
		{`<p align="left" style="text-align: right">x</p>`, AlignLeft},
		{`<img align="middle" src="a.gif">`, AlignCenter},
		{`<p>x</p>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			el := parse(t, tt.in).ChildElements()[0]
			assert.Equal(t, tt.want, r.GetAlignment(el))
		})
	}
}

func TestSetAlignment(t *testing.T) {
	r := newResolver(t)

	t.Run("text alignment moves into style", func(t *testing.T) {
		body := parse(t, `<p align="right" style="color:red">x</p>`)
		p := body.ChildElements()[0]
		r.SetAlignment(p, AlignCenter)
		assert.Equal(t, `<p style="color: red; text-align: center">x</p>`, render(t, body))

		r.SetAlignment(p, "")
		assert.Equal(t, `<p style="color: red">x</p>`, render(t, body))
	})

	t.Run("images keep align", func(t *testing.T) {
		body := parse(t, `<img src="a.gif">`)
		img := body.ChildElements()[0]
		r.SetAlignment(img, AlignRight)
		assert.Equal(t, "right", img.Get("align"))
		assert.False(t, img.Has("style"))

		r.SetAlignment(img, "")
		assert.False(t, img.Has("align"))
	})

	t.Run("deleting absent alignment leaves style alone", func(t *testing.T) {
		body := parse(t, `<p style="color:red">x</p>`)
		p := body.ChildElements()[0]
		r.SetAlignment(p, "")
		assert.Equal(t, "color:red", p.Get("style"))
	})
}

func TestCheckHoist(t *testing.T) {
	r := newResolver(t)
	body := parse(t, `<div><p align="right">a</p><p align="right">b</p><p style="text-align: right">c</p></div>`)
	div := body.ChildElements()[0]

	res := r.Check(div, AlignLeft, AllowAny)

	assert.Equal(t, AlignRight, res.Change)
	assert.False(t, res.Inherit)
	for _, p := range div.ChildElements() {
		assert.Empty(t, r.GetAlignment(p))
		assert.False(t, p.Has("align"))
		assert.False(t, p.Has("style"))
	}
}

func TestCheckHoistNotAllowed(t *testing.T) {
	r := newResolver(t)
	body := parse(t, `<div><p align="right">a</p><p align="right">b</p></div>`)
	div := body.ChildElements()[0]

	res := r.Check(div, AlignLeft, AllowNone)

	assert.Empty(t, res.Change)
	assert.Equal(t, map[string]bool{AlignRight: true}, res.Seen)
	for _, p := range div.ChildElements() {
		assert.Equal(t, AlignRight, r.GetAlignment(p))
	}
}

func TestCheckNoHoist(t *testing.T) {
	r := newResolver(t)
	body := parse(t, `<div>text<p align="right">a</p><p align="left">b</p><p align="right">c</p></div>`)
	div := body.ChildElements()[0]

	res := r.Check(div, AlignLeft, AllowAny)

	assert.Empty(t, res.Change)
	assert.True(t, res.Inherit)
	ps := div.ChildElements()
	assert.Equal(t, "right", ps[0].Get("align"))
	assert.False(t, ps[1].Has("align"), "alignment equal to the parent's is redundant")
	assert.Equal(t, "right", ps[2].Get("align"))
}

func TestCheckNested(t *testing.T) {
	r := newResolver(t)
	body := parse(t, `<div align="center"><p><span align="center">a</span></p><p align="center">b</p></div>`)

	r.Check(body, AlignLeft, AllowNone)

	assert.Equal(t, `<div align="center"><p><span>a</span></p><p>b</p></div>`, render(t, body))
}

func TestCheckCenter(t *testing.T) {
	r := newResolver(t)

	t.Run("center inside centered content is unwrapped", func(t *testing.T) {
		body := parse(t, `<center><p>x</p></center>`)
		r.Check(body, AlignCenter, AllowNone)
		assert.Equal(t, `<p>x</p>`, render(t, body))
	})

	t.Run("center inside left content stays", func(t *testing.T) {
		body := parse(t, `<div><center><p align="center">x</p></center></div>`)
		r.Check(body, AlignLeft, AllowNone)
		assert.Equal(t, `<div><center><p>x</p></center></div>`, render(t, body))
	})
}

func TestCheckBoxAligned(t *testing.T) {
	r := newResolver(t)
	body := parse(t, `<p align="center"><img align="middle" src="a.gif"></p><table><tr><td align="left">x</td></tr></table>`)

	res := r.Check(body, AlignLeft, AllowAny)

	assert.Empty(t, res.Change)
	img := dom.FindAll(body, "img")[0]
	assert.Equal(t, "middle", img.Get("align"))
	td := dom.FindAll(body, "td")[0]
	assert.False(t, td.Has("align"))
}
