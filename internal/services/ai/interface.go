// File: internal/services/ai/interface.go
package ai

import "context"

// CompletionProvider handles single-prompt completions against one backend.
type CompletionProvider interface {
    GetCompletion(ctx context.Context, prompt string) (string, error)
    Name() string
}

// Completer never fails: backend problems surface as a degraded Result.
type Completer interface {
    Complete(ctx context.Context, prompt string) Result
}

// Logger defines the logging interface used by the client
type Logger interface {
    Info(msg string, keysAndValues ...interface{})
    Error(msg string, keysAndValues ...interface{})
    Debug(msg string, keysAndValues ...interface{})
    Warn(msg string, keysAndValues ...interface{})
}
