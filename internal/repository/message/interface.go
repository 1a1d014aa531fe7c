// File: internal/repository/message/interface.go
package message

import (
	"context"
	"time"

	"github.com/iyunix/go-docchat/internal/domain"
)

type MessageRepository interface {
	Create(ctx context.Context, conversationID uint, sender domain.Role, content string) (*domain.Message, error)
	FindByConversationID(ctx context.Context, conversationID uint) ([]domain.Message, error)
	FindRecent(ctx context.Context, conversationID uint, limit int) ([]domain.Message, error)
	CountByConversationID(ctx context.Context, conversationID uint) (int64, error)
}

// Logger defines the logging interface used by the repository
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// Clock supplies message timestamps.
type Clock func() time.Time

type Option func(*gormMessageRepository)

func WithClock(clock Clock) Option {
	return func(r *gormMessageRepository) { r.now = clock }
}

func WithLogger(logger Logger) Option {
	return func(r *gormMessageRepository) { r.logger = logger }
}
