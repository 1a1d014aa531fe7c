// File: cmd/diagnostic/llm_diagnostic.go
package main

import (
    "context"
    "flag"
    "fmt"
    "os"
    "time"

    "github.com/iyunix/go-docchat/internal/app"
    "github.com/iyunix/go-docchat/internal/config"
    "github.com/iyunix/go-docchat/internal/services"
)

// Sends one prompt through the configured completion backend and prints
// the result, including whether the fallback text was used.
func main() {
    prompt := flag.String("prompt", "What is the answer to life, universe and everything?", "prompt to send")
    flag.Parse()

    cfg := config.Load()
    logger := services.NewLogger("docchat-diagnostic", "development", "DEBUG")
    aiConfig := app.ProvideAIConfig(cfg)

    fmt.Printf("Provider: %s\nModel:    %s\nTimeout:  %s x %d attempts\n\n",
        aiConfig.Provider, aiConfig.Model, aiConfig.Timeout, aiConfig.MaxRetries)

    provider, cleanup, err := app.ProvideCompletionProvider(aiConfig, logger)
    if err != nil {
        fmt.Fprintf(os.Stderr, "Provider setup failed: %v\n", err)
        os.Exit(1)
    }
    defer cleanup()

    start := time.Now()
    res := app.ProvideCompleter(provider, aiConfig, logger).Complete(context.Background(), *prompt)

    fmt.Printf("Elapsed:  %s\n", time.Since(start).Round(time.Millisecond))
    fmt.Printf("Degraded: %t\n", res.Degraded)
    if res.Err != nil {
        fmt.Printf("Error:    %v\n", res.Err)
    }
    fmt.Printf("Response: %s\n", res.Text)
    if res.Degraded {
        os.Exit(2)
    }
}
