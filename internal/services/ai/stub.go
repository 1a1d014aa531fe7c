package ai

import (
    "context"
    "strings"
    "sync"
)

// FuncProvider adapts a function to CompletionProvider.
type FuncProvider struct {
    ProviderName string
    Fn           func(ctx context.Context, prompt string) (string, error)
}

func (p FuncProvider) Name() string {
    if p.ProviderName == "" {
        return "func"
    }
    return p.ProviderName
}

func (p FuncProvider) GetCompletion(ctx context.Context, prompt string) (string, error) {
    return p.Fn(ctx, prompt)
}

// Rule answers prompts that contain Match.
type Rule struct {
    Match string
    Reply string
}

// StaticProvider replies with the first rule whose Match occurs in the
// prompt, or Default. It records every prompt it receives.
type StaticProvider struct {
    Rules   []Rule
    Default string
    Err     error

    mu      sync.Mutex
    prompts []string
}

func (p *StaticProvider) Name() string { return "static" }

func (p *StaticProvider) GetCompletion(_ context.Context, prompt string) (string, error) {
    p.mu.Lock()
    p.prompts = append(p.prompts, prompt)
    p.mu.Unlock()

    if p.Err != nil {
        return "", p.Err
    }
    for _, r := range p.Rules {
        if strings.Contains(prompt, r.Match) {
            return r.Reply, nil
        }
    }
    return p.Default, nil
}

func (p *StaticProvider) Prompts() []string {
    p.mu.Lock()
    defer p.mu.Unlock()
    return append([]string(nil), p.prompts...)
}
