// File: internal/services/ai/openai_provider.go
package ai

import (
    "context"

    openai "github.com/sashabaranov/go-openai"
)

type OpenAIProvider struct {
    config *Config
    client *openai.Client
}

func NewOpenAIProvider(config *Config) *OpenAIProvider {
    clientConfig := openai.DefaultConfig(config.APIKey)
    if config.BaseURL != "" {
        clientConfig.BaseURL = config.BaseURL
    }
    return &OpenAIProvider{
        config: config,
        client: openai.NewClientWithConfig(clientConfig),
    }
}

func (p *OpenAIProvider) Name() string { return ProviderOpenAI }

func (p *OpenAIProvider) GetCompletion(ctx context.Context, prompt string) (string, error) {
    resp, err := p.client.CreateChatCompletion(
        ctx,
        openai.ChatCompletionRequest{
            Model: p.config.Model,
            Messages: []openai.ChatCompletionMessage{
                {
                    Role:    openai.ChatMessageRoleUser,
                    Content: prompt,
                },
            },
            Temperature: p.config.Temperature,
            TopP:        p.config.TopP,
        },
    )
    if err != nil {
        return "", classifyOpenAIError(p.config.Model, err)
    }

    if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
        return "", NewEmptyResponseError("completion", p.config.Model)
    }
    return resp.Choices[0].Message.Content, nil
}
