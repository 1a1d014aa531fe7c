// Package app holds the provider functions shared by the server injector
// and the CLI.
package app

import (
    "context"
    "errors"
    "net/http"
    "time"

    "gorm.io/gorm"

    "github.com/iyunix/go-docchat/internal/config"
    "github.com/iyunix/go-docchat/internal/database"
    "github.com/iyunix/go-docchat/internal/format"
    "github.com/iyunix/go-docchat/internal/handlers"
    "github.com/iyunix/go-docchat/internal/ratelimit"
    "github.com/iyunix/go-docchat/internal/repository/conversation"
    "github.com/iyunix/go-docchat/internal/repository/message"
    "github.com/iyunix/go-docchat/internal/services"
    "github.com/iyunix/go-docchat/internal/services/ai"
    "github.com/iyunix/go-docchat/internal/services/ingest"
    "github.com/iyunix/go-docchat/internal/services/session"
)

func ProvideAIConfig(cfg *config.Config) *ai.Config {
    aiConfig := ai.DefaultConfig()
    aiConfig.Provider = cfg.AIProvider
    switch cfg.AIProvider {
    case config.ProviderOpenAI:
        aiConfig.APIKey = cfg.OpenAIAPIKey
        aiConfig.BaseURL = cfg.OpenAIBaseURL
        aiConfig.Model = cfg.OpenAIModel
    default:
        aiConfig.APIKey = cfg.GeminiAPIKey
        aiConfig.Model = cfg.GeminiModel
    }
    aiConfig.Timeout = cfg.AITimeout
    aiConfig.MaxRetries = cfg.AIMaxRetries
    aiConfig.FallbackText = cfg.FallbackText
    return aiConfig
}

// ProvideCompletionProvider builds the configured backend. The cleanup
// closes provider resources such as the Gemini client. A configuration
// problem (typically a missing API key) yields a nil provider: the client
// then answers every prompt with the fallback text instead of the process
// refusing to start.
func ProvideCompletionProvider(aiConfig *ai.Config, logger services.Logger) (ai.CompletionProvider, func(), error) {
    ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
    defer cancel()

    provider, closeFn, err := ai.NewProvider(ctx, aiConfig)
    var aiErr *ai.AIError
    if errors.As(err, &aiErr) && aiErr.Type == ai.ErrTypeConfig {
        logger.Warn("[App] completion backend not configured; answers will use fallback text",
            "provider", aiConfig.Provider, "error", err)
        return nil, func() {}, nil
    }
    if err != nil {
        return nil, nil, err
    }
    cleanup := func() {
        if err := closeFn(); err != nil {
            logger.Warn("[App] completion provider close failed", "error", err)
        }
    }
    return provider, cleanup, nil
}

func ProvideCompleter(provider ai.CompletionProvider, aiConfig *ai.Config, logger services.Logger) ai.Completer {
    return ai.NewClient(provider, aiConfig, ai.WithLogger(logger))
}

func ProvideExtractor(cfg *config.Config, logger services.Logger) *ingest.FileExtractor {
    return ingest.NewFileExtractor(ingest.WithLogger(logger), ingest.WithMaxBytes(cfg.MaxSourceBytes))
}

func ProvideSessionConfig(cfg *config.Config) *session.Config {
    sc := session.DefaultConfig()
    if cfg.MaxQuestionRunes > 0 {
        sc.MaxQuestionRunes = cfg.MaxQuestionRunes
    }
    return sc
}

func ProvideConversationRepository(db *gorm.DB, logger services.Logger) conversation.ConversationRepository {
    return conversation.NewConversationRepository(db, conversation.WithLogger(logger))
}

func ProvideMessageRepository(db *gorm.DB, logger services.Logger) message.MessageRepository {
    return message.NewMessageRepository(db, message.WithLogger(logger))
}

func ProvideRenderer() *format.Renderer {
    return format.NewRenderer(nil)
}

func ProvideSession(
    convs conversation.ConversationRepository,
    msgs message.MessageRepository,
    extractor *ingest.FileExtractor,
    completer ai.Completer,
    renderer *format.Renderer,
    sessionConfig *session.Config,
    logger services.Logger,
) *session.Session {
    return session.New(convs, msgs, extractor, completer, renderer, sessionConfig, logger)
}

func ProvideRateLimiter(cfg *config.Config) (*ratelimit.MemoryRateLimiter, func()) {
    limiter := ratelimit.NewMemoryRateLimiter(ratelimit.DefaultAPIConfig(cfg.RateLimitPerMinute))
    return limiter, limiter.Close
}

func ProvideConversationHandler(
    sess *session.Session,
    cfg *config.Config,
    extractor *ingest.FileExtractor,
    logger services.Logger,
) *handlers.ConversationHandler {
    return handlers.NewConversationHandler(sess, cfg.UploadDir, logger,
        handlers.WithSupportedCheck(extractor.Supported),
        handlers.WithDocsDir(cfg.DocsDir),
    )
}

func ProvideRouter(
    cfg *config.Config,
    h *handlers.ConversationHandler,
    limiter *ratelimit.MemoryRateLimiter,
    db *gorm.DB,
    logger services.Logger,
) http.Handler {
    return handlers.NewRouter(handlers.RouterDeps{
        Conversations:  h,
        Limiter:        limiter,
        Health:         func(ctx context.Context) error { return database.Ping(ctx, db) },
        Logger:         logger,
        AllowedOrigins: cfg.CORSAllowedOrigins,
    })
}

// NewSession wires a session without the HTTP layer.
func NewSession(cfg *config.Config, logger services.Logger, db *gorm.DB) (*session.Session, func(), error) {
    aiConfig := ProvideAIConfig(cfg)
    provider, cleanup, err := ProvideCompletionProvider(aiConfig, logger)
    if err != nil {
        return nil, nil, err
    }
    sess := ProvideSession(
        ProvideConversationRepository(db, logger),
        ProvideMessageRepository(db, logger),
        ProvideExtractor(cfg, logger),
        ProvideCompleter(provider, aiConfig, logger),
        ProvideRenderer(),
        ProvideSessionConfig(cfg),
        logger,
    )
    return sess, cleanup, nil
}
