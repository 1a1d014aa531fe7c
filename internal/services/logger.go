package services

import (
    "io"
    "os"
    "strings"
    "time"

    "github.com/rs/zerolog"
)

// Logger defines common logging interface for all services
type Logger interface {
    Info(msg string, keysAndValues ...interface{})
    Error(msg string, keysAndValues ...interface{})
    Debug(msg string, keysAndValues ...interface{})
    Warn(msg string, keysAndValues ...interface{})
}

// ProductionLogger is a structured logger backed by zerolog
type ProductionLogger struct {
    logger zerolog.Logger
}

// NewProductionLogger creates a JSON logger writing to stdout at INFO level
func NewProductionLogger(service string) *ProductionLogger {
    return NewProductionLoggerWithWriter(service, os.Stdout, zerolog.InfoLevel)
}

// NewProductionLoggerWithWriter creates a logger on an arbitrary writer (tests, files)
func NewProductionLoggerWithWriter(service string, w io.Writer, level zerolog.Level) *ProductionLogger {
    zl := zerolog.New(w).Level(level).With().Timestamp().Str("service", service).Logger()
    return &ProductionLogger{logger: zl}
}

// SetLevel updates the logging level
func (p *ProductionLogger) SetLevel(level zerolog.Level) {
    p.logger = p.logger.Level(level)
}

// Zerolog exposes the underlying logger for libraries that take one directly
func (p *ProductionLogger) Zerolog() zerolog.Logger {
    return p.logger
}

func (p *ProductionLogger) Info(msg string, keysAndValues ...interface{}) {
    p.emit(p.logger.Info(), msg, keysAndValues...)
}

func (p *ProductionLogger) Error(msg string, keysAndValues ...interface{}) {
    p.emit(p.logger.Error(), msg, keysAndValues...)
}

func (p *ProductionLogger) Debug(msg string, keysAndValues ...interface{}) {
    p.emit(p.logger.Debug(), msg, keysAndValues...)
}

func (p *ProductionLogger) Warn(msg string, keysAndValues ...interface{}) {
    p.emit(p.logger.Warn(), msg, keysAndValues...)
}

// emit attaches key/value pairs; a trailing key without value is dropped.
func (p *ProductionLogger) emit(ev *zerolog.Event, msg string, keysAndValues ...interface{}) {
    if ev == nil {
        return
    }
    for i := 0; i < len(keysAndValues)-1; i += 2 {
        key, ok := keysAndValues[i].(string)
        if !ok {
            continue
        }
        switch v := keysAndValues[i+1].(type) {
        case error:
            ev = ev.AnErr(key, v)
        default:
            ev = ev.Interface(key, v)
        }
    }
    ev.Msg(msg)
}

// NoOpLogger is a logger that does nothing (for testing)
type NoOpLogger struct{}

func (n *NoOpLogger) Info(msg string, keysAndValues ...interface{})  {}
func (n *NoOpLogger) Error(msg string, keysAndValues ...interface{}) {}
func (n *NoOpLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (n *NoOpLogger) Warn(msg string, keysAndValues ...interface{})  {}

// ParseLevel maps LOG_LEVEL values onto zerolog levels, INFO by default
func ParseLevel(s string) zerolog.Level {
    switch strings.ToUpper(strings.TrimSpace(s)) {
    case "DEBUG":
        return zerolog.DebugLevel
    case "WARN", "WARNING":
        return zerolog.WarnLevel
    case "ERROR":
        return zerolog.ErrorLevel
    default:
        return zerolog.InfoLevel
    }
}

// Environment-based logger factory
func NewLogger(service, env, level string) Logger {
    if env == "test" {
        return &NoOpLogger{}
    }

    if strings.ToLower(env) == "production" {
        logger := NewProductionLogger(service)
        logger.SetLevel(ParseLevel(level))
        return logger
    }

    // Human-readable logging for development
    console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
    return NewProductionLoggerWithWriter(service, console, ParseLevel(level))
}
