package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []Segment
	}{
		{
			name: "plain text",
			raw:  "just words",
			want: []Segment{{Kind: SegmentText, Text: "just words", Raw: "just words"}},
		},
		{
			name: "empty",
			raw:  "",
			want: nil,
		},
		{
			name: "tagged block",
			raw:  "see:\n```go\nfmt.Println(\"hi\")\n```\ndone",
			want: []Segment{
				{Kind: SegmentText, Text: "see:\n", Raw: "see:\n"},
				{Kind: SegmentCode, Lang: "go", Text: "fmt.Println(\"hi\")", Raw: "```go\nfmt.Println(\"hi\")\n```"},
				{Kind: SegmentText, Text: "\ndone", Raw: "\ndone"},
			},
		},
		{
			name: "untagged block",
			raw:  "```\nls -la\n```",
			want: []Segment{{Kind: SegmentCode, Text: "ls -la", Raw: "```\nls -la\n```"}},
		},
		{
			name: "inline block",
			raw:  "It says: ```hello()```",
			want: []Segment{
				{Kind: SegmentText, Text: "It says: ", Raw: "It says: "},
				{Kind: SegmentCode, Text: "hello()", Raw: "```hello()```"},
			},
		},
		{
			name: "crlf after tag",
			raw:  "```c++\r\nint x;\r\n```",
			want: []Segment{{Kind: SegmentCode, Lang: "c++", Text: "int x;", Raw: "```c++\r\nint x;\r\n```"}},
		},
		{
			name: "unterminated fence stays text",
			raw:  "```go\nfunc main() {",
			want: []Segment{{Kind: SegmentText, Text: "```go\nfunc main() {", Raw: "```go\nfunc main() {"}},
		},
		{
			name: "first closing fence ends the block",
			raw:  "```\na\n```x```\nb\n```",
			want: []Segment{
				{Kind: SegmentCode, Text: "a", Raw: "```\na\n```"},
				{Kind: SegmentText, Text: "x", Raw: "x"},
				{Kind: SegmentCode, Text: "b", Raw: "```\nb\n```"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.raw))
		})
	}
}

func TestTokenizePreservesInnerWhitespace(t *testing.T) {
	code := "def f():\n    return  1\n\n\tpass"
	segs := Tokenize("```python\n" + code + "\n```")
	require.Len(t, segs, 1)
	assert.Equal(t, code, segs[0].Text)
	assert.Equal(t, "python", segs[0].Lang)
}

func TestTokenizeRawReassembles(t *testing.T) {
	inputs := []string{
		"a ```go\nx\n``` b ```y``` c",
		"no code at all",
		"``` open only",
		"```\n```",
	}
	for _, raw := range inputs {
		var joined string
		for _, seg := range Tokenize(raw) {
			joined += seg.Raw
		}
		assert.Equal(t, raw, joined)
	}
}
