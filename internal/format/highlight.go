package format

import (
	"bytes"
	"html"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultStyle is the chroma style used for code blocks.
const DefaultStyle = "monokai"

// Highlighter turns code into styled markup. Implementations must not fail:
// an unusable language tag or an internal error yields escaped plain code.
type Highlighter interface {
	Highlight(code, lang string) string
}

// ChromaHighlighter renders code with inline styles and no surrounding <pre>,
// so the caller controls the container.
type ChromaHighlighter struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

func NewChromaHighlighter(styleName string) *ChromaHighlighter {
	return &ChromaHighlighter{
		style: styles.Get(styleName),
		formatter: chromahtml.New(
			chromahtml.WithClasses(false),
			chromahtml.PreventSurroundingPre(true),
		),
	}
}

func (h *ChromaHighlighter) Highlight(code, lang string) (out string) {
	defer func() {
		if recover() != nil {
			out = html.EscapeString(code)
		}
	}()

	iterator, err := h.lexer(lang).Tokenise(nil, code)
	if err != nil {
		return html.EscapeString(code)
	}
	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, h.style, iterator); err != nil {
		return html.EscapeString(code)
	}
	return buf.String()
}

func (h *ChromaHighlighter) lexer(lang string) chroma.Lexer {
	var lexer chroma.Lexer
	if lang = strings.TrimSpace(lang); lang != "" {
		lexer = lexers.Get(lang)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

// PlainHighlighter escapes code without styling.
type PlainHighlighter struct{}

func (PlainHighlighter) Highlight(code, _ string) string {
	return html.EscapeString(code)
}
