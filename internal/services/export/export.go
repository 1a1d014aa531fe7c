// Package export renders a stored conversation as a Markdown transcript or a
// standalone HTML page.
package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/iyunix/go-docchat/internal/domain"
)

const (
	FormatMarkdown = "md"
	FormatHTML     = "html"
)

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	policy   = bluemonday.UGCPolicy()
)

// Markdown writes the conversation header followed by one section per
// message. Message content is copied verbatim.
func Markdown(conv *domain.Conversation, messages []domain.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", conv.Title)
	if ref := conv.SourceRef(); ref != "" {
		fmt.Fprintf(&b, "- Source: `%s`\n", ref)
	}
	fmt.Fprintf(&b, "- Created: %s\n", conv.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- Messages: %d\n", len(messages))

	for _, m := range messages {
		fmt.Fprintf(&b, "\n## %s\n\n", m.Sender.Label())
		b.WriteString(strings.TrimRight(m.Content, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}

// HTML converts the Markdown transcript with GitHub-flavoured extensions and
// sanitizes the result.
func HTML(conv *domain.Conversation, messages []domain.Message) (string, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(Markdown(conv, messages)), &body); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(conv.Title))
	b.WriteString("</head>\n<body>\n")
	b.Write(policy.SanitizeBytes(body.Bytes()))
	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}

// Normalize maps a user-supplied format name onto FormatMarkdown or
// FormatHTML. An empty name means Markdown.
func Normalize(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatMarkdown, "markdown":
		return FormatMarkdown, nil
	case FormatHTML, "htm":
		return FormatHTML, nil
	default:
		return "", domain.NewInvalidArgumentError("export", fmt.Sprintf("unsupported export format %q", format))
	}
}

// Render dispatches on format and returns the document with its MIME type.
func Render(format string, conv *domain.Conversation, messages []domain.Message) (string, string, error) {
	kind, err := Normalize(format)
	if err != nil {
		return "", "", err
	}
	if kind == FormatHTML {
		out, err := HTML(conv, messages)
		return out, "text/html; charset=utf-8", err
	}
	return Markdown(conv, messages), "text/markdown; charset=utf-8", nil
}
