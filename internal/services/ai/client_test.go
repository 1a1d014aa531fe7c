package ai

import (
    "context"
    "errors"
    "sync/atomic"
    "testing"
    "time"

    "github.com/prometheus/client_golang/prometheus/testutil"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iyunix/go-docchat/internal/metrics"
)

func testConfig() *Config {
    cfg := DefaultConfig()
    cfg.APIKey = "test-key"
    cfg.Timeout = time.Second
    cfg.MaxRetries = 3
    cfg.RetryDelay = time.Millisecond
    return cfg
}

func noSleep(context.Context, time.Duration) error { return nil }

func TestCompleteSuccessIsTrimmed(t *testing.T) {
    provider := &StaticProvider{Default: "  Greeting \n"}
    client := NewClient(provider, testConfig(), WithSleep(noSleep))

    res := client.Complete(context.Background(), "title please")

    assert.Equal(t, "Greeting", res.Text)
    assert.False(t, res.Degraded)
    assert.NoError(t, res.Err)
    assert.Equal(t, []string{"title please"}, provider.Prompts())
}

func TestCompleteRetriesThenFallsBack(t *testing.T) {
    var calls int32
    var waits []time.Duration
    provider := FuncProvider{ProviderName: "flaky-test", Fn: func(ctx context.Context, prompt string) (string, error) {
        atomic.AddInt32(&calls, 1)
        return "", NewProviderError("completion", "backend unavailable", errors.New("503"))
    }}
    client := NewClient(provider, testConfig(), WithSleep(func(_ context.Context, d time.Duration) error {
        waits = append(waits, d)
        return nil
    }))

    before := testutil.ToFloat64(metrics.CompletionsTotal.WithLabelValues("flaky-test", metrics.OutcomeDegraded))
    res := client.Complete(context.Background(), "anything")

    assert.True(t, res.Degraded)
    assert.Equal(t, DefaultFallbackText, res.Text)
    require.Error(t, res.Err)
    assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
    assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, waits)
    assert.Equal(t, before+1, testutil.ToFloat64(metrics.CompletionsTotal.WithLabelValues("flaky-test", metrics.OutcomeDegraded)))
}

func TestCompleteRecoversAfterTransientError(t *testing.T) {
    var calls int32
    provider := FuncProvider{Fn: func(ctx context.Context, prompt string) (string, error) {
        if atomic.AddInt32(&calls, 1) == 1 {
            return "", errors.New("connection reset")
        }
        return "A greeting.", nil
    }}
    client := NewClient(provider, testConfig(), WithSleep(noSleep))

    res := client.Complete(context.Background(), "summary please")
    assert.False(t, res.Degraded)
    assert.Equal(t, "A greeting.", res.Text)
    assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestCompleteDoesNotRetryConfigErrors(t *testing.T) {
    var calls int32
    provider := FuncProvider{Fn: func(ctx context.Context, prompt string) (string, error) {
        atomic.AddInt32(&calls, 1)
        return "", NewConfigError("invalid api key")
    }}
    client := NewClient(provider, testConfig(), WithSleep(noSleep))

    res := client.Complete(context.Background(), "x")
    assert.True(t, res.Degraded)
    assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestCompleteDegradedCases(t *testing.T) {
    tests := []struct {
        name     string
        provider CompletionProvider
    }{
        {"empty reply", &StaticProvider{Default: ""}},
        {"whitespace reply", &StaticProvider{Default: " \n\t "}},
        {"panicking provider", FuncProvider{Fn: func(context.Context, string) (string, error) { panic("boom") }}},
        {"no provider", nil},
    }

    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            cfg := testConfig()
            cfg.FallbackText = "Untitled"
            client := NewClient(tt.provider, cfg, WithSleep(noSleep))

            var res Result
            require.NotPanics(t, func() { res = client.Complete(context.Background(), "prompt") })
            assert.True(t, res.Degraded)
            assert.Equal(t, "Untitled", res.Text)
            assert.Error(t, res.Err)
        })
    }
}

func TestCompletePerAttemptTimeout(t *testing.T) {
    var calls int32
    provider := FuncProvider{Fn: func(ctx context.Context, prompt string) (string, error) {
        atomic.AddInt32(&calls, 1)
        <-ctx.Done()
        return "", ctx.Err()
    }}
    cfg := testConfig()
    cfg.Timeout = 10 * time.Millisecond
    cfg.MaxRetries = 2
    client := NewClient(provider, cfg, WithSleep(noSleep))

    res := client.Complete(context.Background(), "slow")
    assert.True(t, res.Degraded)
    assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
    assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestCompleteStopsWhenCallerCancels(t *testing.T) {
    ctx, cancel := context.WithCancel(context.Background())
    cancel()

    var calls int32
    provider := FuncProvider{Fn: func(ctx context.Context, prompt string) (string, error) {
        atomic.AddInt32(&calls, 1)
        return "", ctx.Err()
    }}
    client := NewClient(provider, testConfig(), WithSleep(noSleep))

    res := client.Complete(ctx, "x")
    assert.True(t, res.Degraded)
    assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestStaticProviderRules(t *testing.T) {
    p := &StaticProvider{
        Rules: []Rule{
            {Match: "title", Reply: "Greeting"},
            {Match: "Summarize", Reply: "A greeting."},
        },
        Default: "fallback",
    }

    got, err := p.GetCompletion(context.Background(), "Suggest a title")
    require.NoError(t, err)
    assert.Equal(t, "Greeting", got)

    got, err = p.GetCompletion(context.Background(), "Summarize this")
    require.NoError(t, err)
    assert.Equal(t, "A greeting.", got)

    got, err = p.GetCompletion(context.Background(), "other")
    require.NoError(t, err)
    assert.Equal(t, "fallback", got)
    assert.Len(t, p.Prompts(), 3)
}
