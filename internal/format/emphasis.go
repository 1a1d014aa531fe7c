package format

import "strings"

// Emphasize rewrites **bold** and *italic* markers in the text segments of
// raw and leaves fenced code untouched. No escaping is applied, so the result
// is suitable for prompt text but not for display.
func Emphasize(raw string) string {
	var b strings.Builder
	for _, seg := range Tokenize(raw) {
		if seg.Kind == SegmentCode {
			b.WriteString(seg.Raw)
			continue
		}
		b.WriteString(emphasize(seg.Text))
	}
	return b.String()
}

func emphasize(s string) string {
	return italic(bold(s))
}

// bold pairs each ** with the nearest following ** on the same line.
func bold(s string) string {
	var b strings.Builder
	i := 0
	for i < len(s) {
		open := strings.Index(s[i:], "**")
		if open < 0 {
			break
		}
		open += i
		inner := s[open+2:]
		if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
			inner = inner[:nl]
		}
		closeAt := strings.Index(inner, "**")
		if closeAt < 0 {
			b.WriteString(s[i : open+1])
			i = open + 1
			continue
		}
		b.WriteString(s[i:open])
		b.WriteString("<b>")
		b.WriteString(inner[:closeAt])
		b.WriteString("</b>")
		i = open + 2 + closeAt + 2
	}
	b.WriteString(s[i:])
	return b.String()
}

// italic pairs a lone * with the nearest following * that is not followed
// by another *. Spans may cross line breaks.
func italic(s string) string {
	var b strings.Builder
	last := 0
	for p := 0; p < len(s); p++ {
		if !isLoneStar(s, p) {
			continue
		}
		q := p + 1
		for q < len(s) && !(s[q] == '*' && (q+1 == len(s) || s[q+1] != '*')) {
			q++
		}
		if q == len(s) {
			continue
		}
		b.WriteString(s[last:p])
		b.WriteString("<i>")
		b.WriteString(s[p+1 : q])
		b.WriteString("</i>")
		last = q + 1
		p = q
	}
	b.WriteString(s[last:])
	return b.String()
}

func isLoneStar(s string, p int) bool {
	if s[p] != '*' {
		return false
	}
	if p > 0 && s[p-1] == '*' {
		return false
	}
	return p+1 == len(s) || s[p+1] != '*'
}
