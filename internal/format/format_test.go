package format

import (
	stdhtml "html"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-docchat/internal/domain"
)

var hrefPattern = regexp.MustCompile(`href="([^"]*)"`)

func copyHrefs(t *testing.T, markup string) []string {
	t.Helper()
	var out []string
	for _, m := range hrefPattern.FindAllStringSubmatch(markup, -1) {
		out = append(out, stdhtml.UnescapeString(m[1]))
	}
	return out
}

func TestFormatMessageText(t *testing.T) {
	f := NewFormatter(PlainHighlighter{})

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"escapes markup", "a < b & <i>c</i>", "a &lt; b &amp; &lt;i&gt;c&lt;/i&gt;"},
		{"line breaks", "one\ntwo\r\nthree", "one<br>two<br>three"},
		{"emphasis after escaping", "**<x>** *y*", "<b>&lt;x&gt;</b> <i>y</i>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.FormatMessage(tt.in))
		})
	}
}

func TestFormatMessageCodeBlock(t *testing.T) {
	f := NewFormatter(PlainHighlighter{})
	code := "if a < b {\n\treturn \"**x**\"\n}"

	out := f.FormatMessage("Look:\n```go\n" + code + "\n```")

	assert.True(t, strings.HasPrefix(out, "Look:<br>"))
	assert.Contains(t, out, `<pre style="`)
	assert.Contains(t, out, stdhtml.EscapeString(code), "code is escaped but otherwise verbatim")
	assert.NotContains(t, out, "<b>x</b>", "emphasis never reaches code")

	hrefs := copyHrefs(t, out)
	require.Len(t, hrefs, 1)
	decoded, err := DecodeCopyAction(hrefs[0])
	require.NoError(t, err)
	assert.Equal(t, code, decoded)
}

func TestFormatMessageInlineAnswer(t *testing.T) {
	out := FormatMessage("It says: ```hello()```")

	assert.True(t, strings.HasPrefix(out, "It says: "))
	assert.Contains(t, out, blockOpen)

	hrefs := copyHrefs(t, out)
	require.Len(t, hrefs, 1)
	decoded, err := DecodeCopyAction(hrefs[0])
	require.NoError(t, err)
	assert.Equal(t, "hello()", decoded)
}

func TestFormatMessageIdempotent(t *testing.T) {
	inputs := []string{
		"Hello **world**",
		"```python\nprint('hi')\n```",
		"```no-such-language\n<>&\n```",
		"mixed *a* ```x``` **b**\nnext",
		"",
	}
	for _, in := range inputs {
		first := FormatMessage(in)
		second := FormatMessage(in)
		assert.Equal(t, first, second)
	}
}

func TestChromaHighlighter(t *testing.T) {
	h := NewChromaHighlighter(DefaultStyle)

	out := h.Highlight("package main", "go")
	assert.Contains(t, out, "<span")
	assert.NotContains(t, out, "<pre", "surrounding pre is left to the caller")

	unknown := h.Highlight("a<b", "definitely-not-a-language")
	assert.Contains(t, unknown, "a&lt;b")
	assert.NotContains(t, unknown, "a<b")

	untagged := h.Highlight("x := 1", "")
	assert.Contains(t, untagged, "x := 1")
}

func TestPlainHighlighter(t *testing.T) {
	assert.Equal(t, "&lt;tag&gt;", PlainHighlighter{}.Highlight("<tag>", "html"))
}

func TestRenderMessage(t *testing.T) {
	r := NewRenderer(NewFormatter(PlainHighlighter{}))

	user := r.RenderMessage(domain.RoleUser, "What is this?")
	assert.Equal(t, "You", user.Label)
	assert.Contains(t, user.HTML, `align="right"`)
	assert.Contains(t, user.HTML, "<b>You:</b> What is this?")

	assistant := r.RenderMessage(domain.RoleAssistant, "An answer.")
	assert.Equal(t, domain.RoleAssistant, assistant.Role)
	assert.Contains(t, assistant.HTML, "<b>Assistant:</b> An answer.")
	assert.NotContains(t, assistant.HTML, `align="right"`)

	system := r.RenderMessage(domain.RoleSystem, "A greeting.")
	assert.Contains(t, system.HTML, "<b>System:</b> A greeting.")
}

func TestRenderConversationKeepsOrder(t *testing.T) {
	r := NewRenderer(nil)
	messages := []domain.Message{
		{Sender: domain.RoleSystem, Content: "summary"},
		{Sender: domain.RoleUser, Content: "q"},
		{Sender: domain.RoleAssistant, Content: "a"},
	}

	first := r.RenderConversation(messages)
	second := r.RenderConversation(messages)
	require.Len(t, first, 3)
	assert.Equal(t, first, second)
	for i, m := range messages {
		assert.Equal(t, m.Sender, first[i].Role)
	}
	assert.Empty(t, r.RenderConversation(nil))
}
