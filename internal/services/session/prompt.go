package session

import (
    "fmt"
    "strings"
    "unicode/utf8"

    "github.com/iyunix/go-docchat/internal/domain"
    "github.com/iyunix/go-docchat/internal/format"
)

// TruncateText safely truncates a UTF-8 string to maxLen runes, preserving character integrity
func TruncateText(input string, maxLen int) string {
    if input == "" || maxLen <= 0 {
        return ""
    }
    if utf8.RuneCountInString(input) <= maxLen {
        return input
    }

    var b strings.Builder
    count := 0
    for _, r := range input {
        if count >= maxLen {
            break
        }
        b.WriteRune(r)
        count++
    }
    return b.String()
}

func TitlePrompt(text string, maxChars int) string {
    return "Suggest the most fitting short title for this text, write only the title:\n" +
        TruncateText(text, maxChars)
}

// SummaryPrompt emphasizes the whole text first and truncates the result.
func SummaryPrompt(text string, maxChars int) string {
    return "Summarize this text. Preserve the headings and important emphasis in the text:\n" +
        TruncateText(format.Emphasize(text), maxChars)
}

// AnswerPrompt grounds question in the truncated source text and the given
// history, which callers pass oldest first.
func AnswerPrompt(history []domain.Message, source, question string, sourceChars int) string {
    lines := make([]string, 0, len(history))
    for _, m := range history {
        lines = append(lines, fmt.Sprintf("%s: %s", m.Sender, m.Content))
    }

    var b strings.Builder
    b.WriteString("Previous conversation:\n")
    b.WriteString(strings.Join(lines, "\n"))
    b.WriteString("\n\nText:\n")
    b.WriteString(format.Emphasize(TruncateText(source, sourceChars)))
    b.WriteString("\n\nQuestion: ")
    b.WriteString(question)
    b.WriteString("\n\nPreserve code blocks exactly as they are and show them with ```.")
    return b.String()
}

// cleanTitle keeps the first non-blank line of a model reply and strips
// markdown decoration models tend to add.
func cleanTitle(reply string, maxRunes int) string {
    for _, line := range strings.Split(reply, "\n") {
        line = strings.Trim(strings.TrimSpace(line), "#*\"'` ")
        if line != "" {
            return TruncateText(line, maxRunes)
        }
    }
    return ""
}
