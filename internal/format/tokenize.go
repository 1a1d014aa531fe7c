package format

import "strings"

const fence = "```"

// SegmentKind distinguishes prose from fenced code.
type SegmentKind int

const (
	SegmentText SegmentKind = iota
	SegmentCode
)

// Segment is one span of a raw message. For code segments Text holds the
// captured code and Raw the fenced source it came from; for text segments
// both are equal.
type Segment struct {
	Kind SegmentKind
	Lang string
	Text string
	Raw  string
}

// Tokenize splits raw into text and fenced code segments. Fences are located
// before any emphasis handling so code content is never rewritten.
//
// An opening fence may carry a language tag followed by a line break. When the
// fence is followed by anything else the code starts immediately, which
// accepts the inline form ```code```. The block ends at the next fence; a
// fence with no closing partner is left as text.
func Tokenize(raw string) []Segment {
	var segments []Segment
	rest := raw
	for {
		start := strings.Index(rest, fence)
		if start < 0 {
			break
		}
		body := rest[start+len(fence):]
		lang, offset := fenceHeader(body)
		end := strings.Index(body[offset:], fence)
		if end < 0 {
			break
		}

		if start > 0 {
			segments = append(segments, textSegment(rest[:start]))
		}
		blockEnd := start + len(fence) + offset + end + len(fence)
		segments = append(segments, Segment{
			Kind: SegmentCode,
			Lang: lang,
			Text: strings.Trim(body[offset:offset+end], "\r\n"),
			Raw:  rest[start:blockEnd],
		})
		rest = rest[blockEnd:]
	}
	if rest != "" {
		segments = append(segments, textSegment(rest))
	}
	return segments
}

func textSegment(s string) Segment {
	return Segment{Kind: SegmentText, Text: s, Raw: s}
}

// fenceHeader returns the language tag and the offset at which code starts.
func fenceHeader(body string) (string, int) {
	i := 0
	for i < len(body) && isTagByte(body[i]) {
		i++
	}
	switch {
	case strings.HasPrefix(body[i:], "\r\n"):
		return body[:i], i + 2
	case strings.HasPrefix(body[i:], "\n"):
		return body[:i], i + 1
	default:
		return "", 0
	}
}

func isTagByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.IndexByte("_+#.-", c) >= 0
}
