// File: internal/services/ai/errors.go
package ai

import (
    "context"
    "errors"
    "fmt"
    "net/http"

    "github.com/google/generative-ai-go/genai"
    openai "github.com/sashabaranov/go-openai"
)

type ErrorType string

const (
    ErrTypeConfig     ErrorType = "CONFIG"
    ErrTypeNetwork    ErrorType = "NETWORK"
    ErrTypeProvider   ErrorType = "PROVIDER"
    ErrTypeRateLimit  ErrorType = "RATE_LIMIT"
    ErrTypeModel      ErrorType = "MODEL"
    ErrTypeValidation ErrorType = "VALIDATION"
    ErrTypeEmpty      ErrorType = "EMPTY_RESPONSE"
)

type AIError struct {
    Type      ErrorType
    Code      int
    Message   string
    Model     string
    Operation string
    Cause     error
}

func (e *AIError) Error() string {
    if e.Cause != nil {
        return fmt.Sprintf("AI %s error in %s: %s (caused by: %v)",
            e.Type, e.Operation, e.Message, e.Cause)
    }
    return fmt.Sprintf("AI %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *AIError) Unwrap() error { return e.Cause }

func NewConfigError(msg string) *AIError {
    return &AIError{Type: ErrTypeConfig, Message: msg, Operation: "config"}
}

func NewProviderError(operation, msg string, cause error) *AIError {
    return &AIError{Type: ErrTypeProvider, Operation: operation, Message: msg, Cause: cause}
}

func NewEmptyResponseError(operation, model string) *AIError {
    return &AIError{Type: ErrTypeEmpty, Operation: operation, Model: model, Message: "empty completion response"}
}

// classifyOpenAIError maps HTTP status codes from the OpenAI API onto error types.
func classifyOpenAIError(model string, err error) *AIError {
    var apiErr *openai.APIError
    if !errors.As(err, &apiErr) {
        return &AIError{Type: ErrTypeNetwork, Operation: "completion", Model: model, Message: "request failed", Cause: err}
    }

    e := &AIError{Code: apiErr.HTTPStatusCode, Operation: "completion", Model: model, Message: apiErr.Message, Cause: err}
    switch apiErr.HTTPStatusCode {
    case http.StatusTooManyRequests:
        e.Type = ErrTypeRateLimit
    case http.StatusUnauthorized, http.StatusForbidden:
        e.Type = ErrTypeConfig
    case http.StatusNotFound:
        e.Type = ErrTypeModel
    case http.StatusBadRequest:
        e.Type = ErrTypeValidation
    default:
        e.Type = ErrTypeProvider
    }
    return e
}

// classifyGeminiError treats blocked prompts as final; everything else may be retried.
func classifyGeminiError(model string, err error) *AIError {
    var blocked *genai.BlockedError
    if errors.As(err, &blocked) {
        return &AIError{Type: ErrTypeValidation, Operation: "completion", Model: model, Message: "content blocked by safety settings", Cause: err}
    }
    return NewProviderError("completion", "failed to generate content", err)
}

// retryable reports whether another attempt could succeed.
func retryable(err error) bool {
    if errors.Is(err, context.Canceled) {
        return false
    }
    var aiErr *AIError
    if errors.As(err, &aiErr) {
        switch aiErr.Type {
        case ErrTypeConfig, ErrTypeValidation, ErrTypeModel:
            return false
        }
    }
    return true
}
