package repair

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"fptidy/internal/config"
)

func TestRemoveTags(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		tag      string
		contents []string
		expected string
	}{
		{
			name:     "all tags",
			src:      `a<o:p>b</o:p>c<o:p></o:p>`,
			tag:      "o:p",
			expected: `abc`,
		},
		{
			name:     "unpaired start tag",
			src:      `a<o:p>b<o:p class="x">c</o:p>`,
			tag:      "o:p",
			expected: `abc`,
		},
		{
			name:     "only matching start tags",
			src:      `<font face="Book Antiqua">x <font color="red">y</font></font>`,
			tag:      "font",
			contents: []string{`face="Book Antiqua"`},
			expected: `x <font color="red">y</font>`,
		},
		{
			name:     "misnested font",
			src:      `<font face="Book Antiqua"><center>x</font></center>`,
			tag:      "font",
			contents: []string{`face="Book Antiqua"`},
			expected: `<center>x</center>`,
		},
		{
			name:     "case insensitive",
			src:      `<FONT face="book antiqua">x</FONT>`,
			tag:      "font",
			contents: []string{`face="Book Antiqua"`},
			expected: `x`,
		},
		{
			name:     "bare start tag content",
			src:      `<font>x</font><font size="2">y</font>`,
			tag:      "font",
			contents: []string{""},
			expected: `x<font size="2">y</font>`,
		},
		{
			name:     "longer tag names untouched",
			src:      `<fontx>a</fontx>`,
			tag:      "font",
			expected: `<fontx>a</fontx>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := RemoveTags(tt.src, tt.tag, tt.contents)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestRemoveTagsUnbalanced(t *testing.T) {
	_, err := RemoveTags(`a</font>`, "font", nil)
	assert.ErrorIs(t, err, ErrUnbalanced)

	_, err = RemoveTags(`<o:p a=">">x`, "o:p", nil)
	assert.ErrorIs(t, err, ErrUnbalanced)
}

func TestSwapBoldParagraphs(t *testing.T) {
	out, n := SwapBoldParagraphs("<b>\n<p align=\"center\">Title</b> rest</p>")
	assert.Equal(t, 1, n)
	assert.Equal(t, "\n<p align=\"center\"><b>Title</b> rest</p>", out)

	src := `<b><p>whole</p></b>`
	out, n = SwapBoldParagraphs(src)
	assert.Zero(t, n)
	assert.Equal(t, src, out)
}

func TestRepair(t *testing.T) {
	r := New(config.Default(), zaptest.NewLogger(t))
	out, err := r.Repair("<p>a<o:p></o:p>\r\n<font face=\"Book Antiqua\">b</font></p>\r\n")
	require.NoError(t, err)
	assert.Equal(t, "<p>a\nb</p>\n", out)
}

func TestRepairCollectsErrors(t *testing.T) {
	cfg := config.Default()
	cfg.StripTags = []string{"o:p", "st1:place"}
	r := New(cfg, nil)
	_, err := r.Repair("</o:p> </st1:place>")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnbalanced)
	assert.Contains(t, err.Error(), "o:p")
	assert.Contains(t, err.Error(), "st1:place")
}
