// File: cmd/server/application.go
package main

import (
    "net/http"

    "github.com/iyunix/go-docchat/internal/config"
    "github.com/iyunix/go-docchat/internal/services"
    "github.com/iyunix/go-docchat/internal/services/session"
)

// Application aggregates what main needs after wiring.
type Application struct {
    Config  *config.Config
    Logger  services.Logger
    Session *session.Session
    Router  http.Handler
}
