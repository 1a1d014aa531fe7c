package ai

import (
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/google/generative-ai-go/genai"
    openai "github.com/sashabaranov/go-openai"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func newOpenAIServer(t *testing.T, status int, body any) *httptest.Server {
    t.Helper()
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        assert.Equal(t, "/v1/chat/completions", r.URL.Path)
        assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

        var req openai.ChatCompletionRequest
        require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
        assert.Equal(t, "gpt-4o-mini", req.Model)
        require.Len(t, req.Messages, 1)
        assert.Equal(t, openai.ChatMessageRoleUser, req.Messages[0].Role)

        w.Header().Set("Content-Type", "application/json")
        w.WriteHeader(status)
        _ = json.NewEncoder(w).Encode(body)
    }))
    t.Cleanup(srv.Close)
    return srv
}

func openAIConfig(baseURL string) *Config {
    cfg := DefaultConfig()
    cfg.Provider = ProviderOpenAI
    cfg.APIKey = "test-key"
    cfg.BaseURL = baseURL + "/v1"
    cfg.Model = "gpt-4o-mini"
    return cfg
}

func TestOpenAIProviderCompletion(t *testing.T) {
    srv := newOpenAIServer(t, http.StatusOK, map[string]any{
        "id": "chatcmpl-1",
        "choices": []map[string]any{
            {"index": 0, "message": map[string]any{"role": "assistant", "content": "Greeting"}},
        },
    })

    p := NewOpenAIProvider(openAIConfig(srv.URL))
    got, err := p.GetCompletion(context.Background(), "Suggest a title")
    require.NoError(t, err)
    assert.Equal(t, "Greeting", got)
    assert.Equal(t, ProviderOpenAI, p.Name())
}

func TestOpenAIProviderEmptyChoices(t *testing.T) {
    srv := newOpenAIServer(t, http.StatusOK, map[string]any{"id": "chatcmpl-2", "choices": []any{}})

    _, err := NewOpenAIProvider(openAIConfig(srv.URL)).GetCompletion(context.Background(), "x")
    var aiErr *AIError
    require.True(t, errors.As(err, &aiErr))
    assert.Equal(t, ErrTypeEmpty, aiErr.Type)
}

func TestOpenAIProviderRateLimited(t *testing.T) {
    srv := newOpenAIServer(t, http.StatusTooManyRequests, map[string]any{
        "error": map[string]any{"message": "slow down", "type": "rate_limit_exceeded"},
    })

    _, err := NewOpenAIProvider(openAIConfig(srv.URL)).GetCompletion(context.Background(), "x")
    var aiErr *AIError
    require.True(t, errors.As(err, &aiErr))
    assert.Equal(t, ErrTypeRateLimit, aiErr.Type)
    assert.Equal(t, http.StatusTooManyRequests, aiErr.Code)
    assert.True(t, retryable(err))
}

func TestClassifyOpenAIError(t *testing.T) {
    tests := []struct {
        status    int
        want      ErrorType
        retryable bool
    }{
        {http.StatusUnauthorized, ErrTypeConfig, false},
        {http.StatusNotFound, ErrTypeModel, false},
        {http.StatusBadRequest, ErrTypeValidation, false},
        {http.StatusInternalServerError, ErrTypeProvider, true},
    }
    for _, tt := range tests {
        err := classifyOpenAIError("m", &openai.APIError{HTTPStatusCode: tt.status, Message: "x"})
        assert.Equal(t, tt.want, err.Type)
        assert.Equal(t, tt.retryable, retryable(err))
    }

    network := classifyOpenAIError("m", errors.New("dial tcp: refused"))
    assert.Equal(t, ErrTypeNetwork, network.Type)
}

func TestClassifyGeminiBlocked(t *testing.T) {
    err := classifyGeminiError("gemini-2.0-flash", &genai.BlockedError{})
    assert.Equal(t, ErrTypeValidation, err.Type)
    assert.False(t, retryable(err))

    other := classifyGeminiError("gemini-2.0-flash", errors.New("unavailable"))
    assert.Equal(t, ErrTypeProvider, other.Type)
}

func TestCandidateText(t *testing.T) {
    resp := &genai.GenerateContentResponse{
        Candidates: []*genai.Candidate{
            {Content: nil},
            {Content: &genai.Content{Parts: []genai.Part{genai.Text("It says: "), genai.Text("```hello()```")}}},
        },
    }
    assert.Equal(t, "It says: ```hello()```", candidateText(resp))
    assert.Equal(t, "", candidateText(nil))
    assert.Equal(t, "", candidateText(&genai.GenerateContentResponse{}))
}

func TestNewProviderRejectsInvalidConfig(t *testing.T) {
    cfg := DefaultConfig()
    _, _, err := NewProvider(context.Background(), cfg)
    var aiErr *AIError
    require.True(t, errors.As(err, &aiErr))
    assert.Equal(t, ErrTypeConfig, aiErr.Type)
}

func TestNewProviderOpenAI(t *testing.T) {
    p, closer, err := NewProvider(context.Background(), openAIConfig("http://localhost"))
    require.NoError(t, err)
    assert.Equal(t, ProviderOpenAI, p.Name())
    assert.NoError(t, closer())
}
