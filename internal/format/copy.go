package format

import (
	"fmt"
	"net/url"
	"strings"
)

// CopyScheme prefixes the pseudo-link carried by every code block's copy
// control. Hrefs with this prefix are intercepted and never navigated.
const CopyScheme = "copy:"

// EncodeCopyAction percent-encodes every byte outside A-Za-z0-9-_.~ so the
// payload survives any href handling. Spaces become %20.
func EncodeCopyAction(code string) string {
	return CopyScheme + strings.ReplaceAll(url.QueryEscape(code), "+", "%20")
}

// DecodeCopyAction returns the exact code embedded in a copy action.
func DecodeCopyAction(href string) (string, error) {
	if !IsCopyAction(href) {
		return "", fmt.Errorf("not a copy action: %q", truncateForError(href))
	}
	code, err := url.PathUnescape(strings.TrimPrefix(href, CopyScheme))
	if err != nil {
		return "", fmt.Errorf("decode copy action: %w", err)
	}
	return code, nil
}

func IsCopyAction(href string) bool {
	return strings.HasPrefix(href, CopyScheme)
}

// CodeBlock is a fenced block of a stored message, numbered from 1.
type CodeBlock struct {
	Index  int    `json:"index"`
	Lang   string `json:"lang,omitempty"`
	Code   string `json:"code"`
	Action string `json:"action"`
}

// ExtractCodeBlocks lists the fenced blocks of raw in order of appearance.
func ExtractCodeBlocks(raw string) []CodeBlock {
	blocks := []CodeBlock{}
	for _, seg := range Tokenize(raw) {
		if seg.Kind != SegmentCode {
			continue
		}
		blocks = append(blocks, CodeBlock{
			Index:  len(blocks) + 1,
			Lang:   seg.Lang,
			Code:   seg.Text,
			Action: EncodeCopyAction(seg.Text),
		})
	}
	return blocks
}

func truncateForError(s string) string {
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}
