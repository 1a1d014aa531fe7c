package ingest

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

func extractPlain(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("file is not valid UTF-8")
	}
	return string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))), nil
}

// extractMarkdown drops a leading YAML front matter block when it parses.
func extractMarkdown(path string) (string, error) {
	text, err := extractPlain(path)
	if err != nil {
		return "", err
	}
	return stripFrontMatter(text), nil
}

func stripFrontMatter(text string) string {
	const delim = "---\n"
	if !strings.HasPrefix(text, delim) {
		return text
	}
	rest := text[len(delim):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return text
	}

	var meta map[string]any
	if err := yaml.Unmarshal([]byte(rest[:end]), &meta); err != nil {
		return text
	}
	body := rest[end+len("\n---"):]
	if len(body) > 0 && body[0] == '\n' {
		body = body[1:]
	}
	return body
}
