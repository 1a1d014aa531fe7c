// File: internal/services/ai/client.go
package ai

import (
    "context"
    "fmt"
    "strings"
    "time"

    "github.com/iyunix/go-docchat/internal/metrics"
)

// Result is the outcome of one completion. Degraded results carry the
// configured fallback text in Text and the underlying failure in Err; callers
// use Text either way.
type Result struct {
    Text     string
    Degraded bool
    Err      error
}

// Client adds retries, timeouts and the fallback contract on top of a provider.
type Client struct {
    provider CompletionProvider
    config   *Config
    logger   Logger
    sleep    func(ctx context.Context, d time.Duration) error
}

type ClientOption func(*Client)

func WithLogger(logger Logger) ClientOption {
    return func(c *Client) { c.logger = logger }
}

// WithSleep replaces the wait between attempts.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) ClientOption {
    return func(c *Client) { c.sleep = sleep }
}

func NewClient(provider CompletionProvider, config *Config, opts ...ClientOption) *Client {
    if config == nil {
        config = DefaultConfig()
    }
    c := &Client{
        provider: provider,
        config:   config,
        logger:   noopLogger{},
        sleep:    sleepContext,
    }
    for _, opt := range opts {
        opt(c)
    }
    return c
}

// Complete always returns usable text. Provider errors, blank replies and
// provider panics all produce a degraded Result.
func (c *Client) Complete(ctx context.Context, prompt string) (res Result) {
    name := c.providerName()
    start := time.Now()
    defer func() {
        if r := recover(); r != nil {
            res = c.degrade(name, fmt.Errorf("provider panic: %v", r))
        }
        metrics.CompletionDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
    }()

    if c.provider == nil {
        return c.degrade(name, NewConfigError("no completion provider configured"))
    }

    var reply string
    err := c.retryWithTimeout(ctx, func(ctx context.Context) error {
        text, err := c.provider.GetCompletion(ctx, prompt)
        if err != nil {
            return err
        }
        text = strings.TrimSpace(text)
        if text == "" {
            return NewEmptyResponseError("completion", c.config.Model)
        }
        reply = text
        return nil
    })
    if err != nil {
        return c.degrade(name, err)
    }

    metrics.CompletionsTotal.WithLabelValues(name, metrics.OutcomeOK).Inc()
    c.logger.Debug("[AIClient] completion succeeded", "provider", name, "prompt_len", len(prompt), "reply_len", len(reply))
    return Result{Text: reply}
}

func (c *Client) degrade(provider string, err error) Result {
    metrics.CompletionsTotal.WithLabelValues(provider, metrics.OutcomeDegraded).Inc()
    c.logger.Warn("[AIClient] completion degraded to fallback text", "provider", provider, "error", err)
    return Result{Text: c.fallbackText(), Degraded: true, Err: err}
}

func (c *Client) fallbackText() string {
    if strings.TrimSpace(c.config.FallbackText) == "" {
        return DefaultFallbackText
    }
    return c.config.FallbackText
}

func (c *Client) providerName() string {
    if c.provider == nil {
        return "none"
    }
    return c.provider.Name()
}

// retryWithTimeout runs call up to MaxRetries times, each attempt bounded by
// Timeout. Errors that cannot succeed on retry end the loop early.
func (c *Client) retryWithTimeout(ctx context.Context, call func(ctx context.Context) error) error {
    attempts := c.config.MaxRetries
    if attempts < 1 {
        attempts = 1
    }
    timeout := c.config.Timeout
    if timeout <= 0 {
        timeout = DefaultConfig().Timeout
    }

    var lastErr error
    for attempt := 1; attempt <= attempts; attempt++ {
        attemptCtx, cancel := context.WithTimeout(ctx, timeout)
        err := call(attemptCtx)
        cancel()
        if err == nil {
            return nil
        }
        lastErr = err
        c.logger.Warn("[AIClient] attempt failed", "attempt", attempt, "max_attempts", attempts, "error", err)
        if !retryable(err) || ctx.Err() != nil {
            break
        }
        if attempt < attempts {
            if err := c.sleep(ctx, time.Duration(attempt)*c.config.RetryDelay); err != nil {
                break
            }
        }
    }
    return lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
    if d <= 0 {
        return nil
    }
    timer := time.NewTimer(d)
    defer timer.Stop()
    select {
    case <-ctx.Done():
        return ctx.Err()
    case <-timer.C:
        return nil
    }
}

type noopLogger struct{}

func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Warn(string, ...interface{})  {}
