//go:build wireinject
// +build wireinject

// File: cmd/server/wire.go
package main

import (
    "github.com/google/wire"
    "gorm.io/gorm"

    "github.com/iyunix/go-docchat/internal/app"
    "github.com/iyunix/go-docchat/internal/config"
    "github.com/iyunix/go-docchat/internal/services"
)

func InitializeApplication(cfg *config.Config, logger services.Logger, db *gorm.DB) (*Application, func(), error) {
    wire.Build(
        // Completion backend
        app.ProvideAIConfig,
        app.ProvideCompletionProvider,
        app.ProvideCompleter,

        // Repositories
        app.ProvideConversationRepository,
        app.ProvideMessageRepository,

        // Session
        app.ProvideExtractor,
        app.ProvideRenderer,
        app.ProvideSessionConfig,
        app.ProvideSession,

        // HTTP
        app.ProvideRateLimiter,
        app.ProvideConversationHandler,
        app.ProvideRouter,

        wire.Struct(new(Application), "*"),
    )
    return nil, nil, nil
}
