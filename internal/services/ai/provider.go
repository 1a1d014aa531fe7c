package ai

import (
    "context"
    "fmt"
)

// NewProvider builds the backend selected by config.Provider. The returned
// closer releases provider resources and is never nil.
func NewProvider(ctx context.Context, config *Config) (CompletionProvider, func() error, error) {
    if err := config.Validate(); err != nil {
        return nil, nil, NewConfigError(err.Error())
    }

    switch config.Provider {
    case ProviderOpenAI:
        return NewOpenAIProvider(config), func() error { return nil }, nil
    case ProviderGemini:
        p, err := NewGeminiProvider(ctx, config)
        if err != nil {
            return nil, nil, err
        }
        return p, p.Close, nil
    default:
        return nil, nil, NewConfigError(fmt.Sprintf("unsupported provider %q", config.Provider))
    }
}
