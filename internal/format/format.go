// Package format turns raw message text into display markup: escaped prose
// with bold and italic emphasis, and highlighted code blocks that carry a
// copy action for their original code.
package format

import (
	"html"
	"strings"

	"github.com/iyunix/go-docchat/internal/domain"
)

const (
	copyLabel = "Copy"

	blockOpen  = `<div style="position: relative;">`
	copyStyle  = `position: absolute; right: 5px; top: 5px; background: #555; color: white; border-radius: 3px; padding: 2px 5px; cursor: pointer; font-size: 12px;`
	codeStyle  = `background-color: #2d2d2d; color: #f8f8f2; padding: 10px; border-radius: 5px; font-family: monospace; white-space: pre-wrap; margin: 10px 0;`
	blockClose = `</div>`
)

// Formatter is safe for concurrent use; it holds no mutable state.
type Formatter struct {
	highlighter Highlighter
}

func NewFormatter(h Highlighter) *Formatter {
	if h == nil {
		h = PlainHighlighter{}
	}
	return &Formatter{highlighter: h}
}

var defaultFormatter = NewFormatter(NewChromaHighlighter(DefaultStyle))

// FormatMessage formats raw with the default chroma highlighter.
func FormatMessage(raw string) string {
	return defaultFormatter.FormatMessage(raw)
}

// FormatMessage is a pure function of raw: the same input always yields
// byte-identical output.
func (f *Formatter) FormatMessage(raw string) string {
	var b strings.Builder
	for _, seg := range Tokenize(raw) {
		switch seg.Kind {
		case SegmentCode:
			f.writeCodeBlock(&b, seg)
		default:
			text := emphasize(html.EscapeString(seg.Text))
			text = strings.ReplaceAll(text, "\r\n", "\n")
			b.WriteString(strings.ReplaceAll(text, "\n", "<br>"))
		}
	}
	return b.String()
}

func (f *Formatter) writeCodeBlock(b *strings.Builder, seg Segment) {
	b.WriteString(blockOpen)
	b.WriteString(`<a href="`)
	b.WriteString(html.EscapeString(EncodeCopyAction(seg.Text)))
	b.WriteString(`" style="text-decoration:none; color:white;">`)
	b.WriteString(`<span style="` + copyStyle + `">` + copyLabel + `</span></a>`)
	b.WriteString(`<pre style="` + codeStyle + `">`)
	b.WriteString(f.highlighter.Highlight(seg.Text, seg.Lang))
	b.WriteString(`</pre>`)
	b.WriteString(blockClose)
}

// RenderedMessage is one message ready for display.
type RenderedMessage struct {
	Role  domain.Role `json:"role"`
	Label string      `json:"label"`
	HTML  string      `json:"html"`
}

// Renderer wraps formatted messages in their sender's frame: user turns in a
// right-aligned bubble, everything else in a plain block.
type Renderer struct {
	formatter *Formatter
}

func NewRenderer(f *Formatter) *Renderer {
	if f == nil {
		f = defaultFormatter
	}
	return &Renderer{formatter: f}
}

func (r *Renderer) RenderMessage(role domain.Role, content string) RenderedMessage {
	label := role.Label()
	body := r.formatter.FormatMessage(content)

	var b strings.Builder
	if role == domain.RoleUser {
		b.WriteString(`<table align="right" cellspacing="0" cellpadding="8" style="display: inline-block; background-color: #f0f0f0; border: 1px solid #ccc; max-width: 80%; word-wrap: break-word; margin: 20px 0;"><tr><td>`)
		b.WriteString("<b>" + label + ":</b> " + body)
		b.WriteString(`</td></tr></table>`)
	} else {
		b.WriteString(`<div style="margin:10px 0; padding:8px;">`)
		b.WriteString("<b>" + label + ":</b> " + body)
		b.WriteString(`</div>`)
	}
	return RenderedMessage{Role: role, Label: label, HTML: b.String()}
}

// RenderConversation renders messages in the order given.
func (r *Renderer) RenderConversation(messages []domain.Message) []RenderedMessage {
	out := make([]RenderedMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, r.RenderMessage(m.Sender, m.Content))
	}
	return out
}
