// File: internal/services/ai/gemini_provider.go
package ai

import (
    "context"
    "strings"

    "github.com/google/generative-ai-go/genai"
    "google.golang.org/api/option"
)

// GeminiProvider keeps one client for its lifetime; call Close on shutdown.
type GeminiProvider struct {
    config *Config
    client *genai.Client
    model  *genai.GenerativeModel
}

func NewGeminiProvider(ctx context.Context, config *Config) (*GeminiProvider, error) {
    opts := []option.ClientOption{option.WithAPIKey(config.APIKey)}
    if config.BaseURL != "" {
        opts = append(opts, option.WithEndpoint(config.BaseURL))
    }
    client, err := genai.NewClient(ctx, opts...)
    if err != nil {
        return nil, NewProviderError("init", "failed to create gemini client", err)
    }

    model := client.GenerativeModel(config.Model)
    if config.Temperature > 0 {
        model.SetTemperature(config.Temperature)
    }
    if config.TopP > 0 {
        model.SetTopP(config.TopP)
    }
    return &GeminiProvider{config: config, client: client, model: model}, nil
}

func (p *GeminiProvider) Name() string { return ProviderGemini }

func (p *GeminiProvider) GetCompletion(ctx context.Context, prompt string) (string, error) {
    resp, err := p.model.GenerateContent(ctx, genai.Text(prompt))
    if err != nil {
        return "", classifyGeminiError(p.config.Model, err)
    }

    text := candidateText(resp)
    if text == "" {
        return "", NewEmptyResponseError("completion", p.config.Model)
    }
    return text, nil
}

func (p *GeminiProvider) Close() error {
    return p.client.Close()
}

// candidateText joins the text parts of the first candidate that has content.
func candidateText(resp *genai.GenerateContentResponse) string {
    if resp == nil {
        return ""
    }
    for _, cand := range resp.Candidates {
        if cand == nil || cand.Content == nil {
            continue
        }
        var b strings.Builder
        for _, part := range cand.Content.Parts {
            if t, ok := part.(genai.Text); ok {
                b.WriteString(string(t))
            }
        }
        if b.Len() > 0 {
            return b.String()
        }
    }
    return ""
}
