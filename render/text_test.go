package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"paragraphs", "<p>one</p><p>two</p>", "one\n\ntwo"},
		{"br", "a<br>b<br/>c", "a\nb\nc"},
		{"entities", "fish &amp; chips", "fish & chips"},
		{"link", `<a href="https://x.io">go</a>`, "go (https://x.io)"},
		{"script dropped", "<script>var x = 1;</script>ok", "ok"},
		{"style dropped", "<style>p{}</style><p>ok</p>", "ok"},
		{"whitespace collapsed", "<p>  a   b  </p>", "a b"},
		{"list", "<ul><li>a</li><li>b</li></ul>", "a\n\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainText(tt.in))
		})
	}
}

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank(""))
	assert.True(t, IsBlank("   "))
	assert.True(t, IsBlank("<p></p>"))
	assert.True(t, IsBlank("<p>&nbsp;</p><p><br></p>"))
	assert.True(t, IsBlank("<div> &nbsp; &nbsp;</div>"))
	assert.False(t, IsBlank("<p>hi</p>"))
	assert.False(t, IsBlank("**markdown**"))
	assert.True(t, IsBlank("<script>alert(1)</script><style>p{}</style>"))
	assert.True(t, IsBlank(`<img alt="logo">`), "an image without src shows nothing")
	assert.False(t, IsBlank(`<p><img src="https://acme.test/banner.png"></p>`))
	assert.False(t, IsBlank(`<img src="cid:banner"/>`))
	assert.False(t, IsBlank(`<iframe src="https://acme.test/video"></iframe>`))
}
