package session

import "fmt"

// Config holds the size ceilings applied to prompts and user input. The
// character counts are placeholders for token budgets and are measured in
// runes.
type Config struct {
    TitleChars       int // raw text sent for title generation
    SummaryChars     int // emphasized text sent for summarization
    SourceChars      int // source text included with every question
    HistoryWindow    int // stored messages included as prior conversation
    MaxQuestionRunes int
    MaxTitleRunes    int
}

func (c *Config) Validate() error {
    if c.TitleChars <= 0 || c.SummaryChars <= 0 || c.SourceChars <= 0 {
        return fmt.Errorf("prompt character limits must be positive")
    }
    if c.HistoryWindow < 0 {
        return fmt.Errorf("history window must not be negative")
    }
    if c.MaxQuestionRunes <= 0 {
        return fmt.Errorf("max question length must be positive")
    }
    if c.MaxTitleRunes <= 0 {
        return fmt.Errorf("max title length must be positive")
    }
    return nil
}

func DefaultConfig() *Config {
    return &Config{
        TitleChars:       500,
        SummaryChars:     4000,
        SourceChars:      4000,
        HistoryWindow:    5,
        MaxQuestionRunes: 8000,
        MaxTitleRunes:    200,
    }
}
