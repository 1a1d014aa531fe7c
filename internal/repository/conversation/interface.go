package conversation

import (
    "context"
    "time"

    "github.com/iyunix/go-docchat/internal/domain"
)

// ConversationRepository handles conversation data operations.
type ConversationRepository interface {
    Create(ctx context.Context, title string, sourceRef, sourceText *string) (*domain.Conversation, error)
    CreateWithMessage(ctx context.Context, title string, sourceRef, sourceText *string, sender domain.Role, content string) (*domain.Conversation, *domain.Message, error)
    List(ctx context.Context) ([]domain.ConversationSummary, error)
    FindByID(ctx context.Context, conversationID uint) (*domain.Conversation, error)
    Exists(ctx context.Context, conversationID uint) (bool, error)
    Delete(ctx context.Context, conversationID uint) (bool, error)
    SearchByTitle(ctx context.Context, pattern string, limit int) ([]domain.ConversationSummary, error)
}

// Logger defines the logging interface used by the repository
type Logger interface {
    Info(msg string, keysAndValues ...interface{})
    Error(msg string, keysAndValues ...interface{})
    Debug(msg string, keysAndValues ...interface{})
    Warn(msg string, keysAndValues ...interface{})
}

// Clock supplies creation timestamps.
type Clock func() time.Time

type Option func(*gormConversationRepository)

// WithClock overrides the timestamp source.
func WithClock(clock Clock) Option {
    return func(r *gormConversationRepository) { r.now = clock }
}

// WithLogger attaches a logger; the default discards output.
func WithLogger(logger Logger) Option {
    return func(r *gormConversationRepository) { r.logger = logger }
}
