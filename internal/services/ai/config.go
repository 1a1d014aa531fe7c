// File: internal/services/ai/config.go
package ai

import (
    "fmt"
    "strings"
    "time"
)

const (
    ProviderGemini = "gemini"
    ProviderOpenAI = "openai"

    DefaultFallbackText = "Unknown Topic"
)

type Config struct {
    // Provider Configuration
    Provider string
    APIKey   string
    BaseURL  string
    Model    string

    // Performance Configuration
    Timeout    time.Duration
    MaxRetries int
    RetryDelay time.Duration

    // Model Parameters
    Temperature float32
    TopP        float32

    // FallbackText is returned whenever the backend cannot produce a reply.
    FallbackText string
}

func (c *Config) Validate() error {
    switch c.Provider {
    case ProviderGemini, ProviderOpenAI:
    default:
        return fmt.Errorf("unsupported AI provider %q", c.Provider)
    }
    if c.APIKey == "" {
        return fmt.Errorf("API key is required for provider %s", c.Provider)
    }
    if c.Model == "" {
        return fmt.Errorf("model is required")
    }
    if c.Timeout <= 0 {
        return fmt.Errorf("timeout must be positive")
    }
    if c.MaxRetries < 1 {
        return fmt.Errorf("max retries must be at least 1")
    }
    if c.RetryDelay < 0 {
        return fmt.Errorf("retry delay must not be negative")
    }
    if strings.TrimSpace(c.FallbackText) == "" {
        return fmt.Errorf("fallback text must not be empty")
    }
    return nil
}

func DefaultConfig() *Config {
    return &Config{
        Provider:     ProviderGemini,
        Model:        "gemini-2.0-flash",
        Timeout:      60 * time.Second,
        MaxRetries:   2,
        RetryDelay:   time.Second,
        Temperature:  0.2,
        TopP:         0.9,
        FallbackText: DefaultFallbackText,
    }
}
