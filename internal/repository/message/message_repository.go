package message

import (
    "context"
    "errors"
    "strings"
    "time"

    "gorm.io/gorm"

    "github.com/iyunix/go-docchat/internal/domain"
)

// errMissingConversation aborts the insert transaction when the owner is gone.
var errMissingConversation = errors.New("owning conversation does not exist")

type gormMessageRepository struct {
    db     *gorm.DB
    now    Clock
    logger Logger
}

func NewMessageRepository(db *gorm.DB, opts ...Option) MessageRepository {
    r := &gormMessageRepository{
        db:     db,
        now:    func() time.Time { return time.Now().UTC() },
        logger: noopLogger{},
    }
    for _, opt := range opts {
        opt(r)
    }
    return r
}

// Create appends a message to an existing conversation.
func (r *gormMessageRepository) Create(ctx context.Context, conversationID uint, sender domain.Role, content string) (*domain.Message, error) {
    const op = "add_message"
    if !sender.Valid() {
        return nil, domain.NewInvalidArgumentError(op, "sender must be system, user or assistant")
    }
    if strings.TrimSpace(content) == "" {
        return nil, domain.NewInvalidArgumentError(op, "message content must not be empty")
    }

    msg := &domain.Message{
        ConversationID: conversationID,
        Sender:         sender,
        Content:        content,
        Timestamp:      r.now(),
    }

    // The existence check and the insert share a transaction so the owner
    // cannot disappear in between; the foreign key backs this up.
    err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
        var count int64
        if err := tx.Model(&domain.Conversation{}).Where("id = ?", conversationID).Count(&count).Error; err != nil {
            return err
        }
        if count == 0 {
            return errMissingConversation
        }
        return tx.Create(msg).Error
    })
    if err != nil {
        if errors.Is(err, errMissingConversation) || isForeignKeyViolation(err) {
            r.logger.Warn("[MessageRepository] rejected message for missing conversation", "conversation_id", conversationID)
            return nil, domain.NewReferentialIntegrityError(op, conversationID)
        }
        r.logger.Error("[MessageRepository] database error creating message", "conversation_id", conversationID, "error", err)
        return nil, domain.NewStorageError(op, "could not save message", err)
    }

    r.logger.Debug("[MessageRepository] message created", "message_id", msg.ID, "conversation_id", conversationID, "sender", string(sender))
    return msg, nil
}

// FindByConversationID returns the full history in chronological order;
// equal timestamps keep insertion order.
func (r *gormMessageRepository) FindByConversationID(ctx context.Context, conversationID uint) ([]domain.Message, error) {
    messages := []domain.Message{}
    err := r.db.WithContext(ctx).
        Where("conversation_id = ?", conversationID).
        Order("timestamp ASC, id ASC").
        Find(&messages).Error
    if err != nil {
        r.logger.Error("[MessageRepository] database error finding messages", "conversation_id", conversationID, "error", err)
        return nil, domain.NewStorageError("list_messages", "could not load messages", err)
    }
    return messages, nil
}

// FindRecent returns the last limit messages, oldest first.
func (r *gormMessageRepository) FindRecent(ctx context.Context, conversationID uint, limit int) ([]domain.Message, error) {
    if limit <= 0 {
        return []domain.Message{}, nil
    }

    messages := []domain.Message{}
    err := r.db.WithContext(ctx).
        Where("conversation_id = ?", conversationID).
        Order("timestamp DESC, id DESC").
        Limit(limit).
        Find(&messages).Error
    if err != nil {
        r.logger.Error("[MessageRepository] database error finding recent messages", "conversation_id", conversationID, "error", err)
        return nil, domain.NewStorageError("list_recent_messages", "could not load messages", err)
    }

    for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
        messages[i], messages[j] = messages[j], messages[i]
    }
    return messages, nil
}

func (r *gormMessageRepository) CountByConversationID(ctx context.Context, conversationID uint) (int64, error) {
    var count int64
    err := r.db.WithContext(ctx).Model(&domain.Message{}).Where("conversation_id = ?", conversationID).Count(&count).Error
    if err != nil {
        r.logger.Error("[MessageRepository] database error counting messages", "conversation_id", conversationID, "error", err)
        return 0, domain.NewStorageError("count_messages", "could not count messages", err)
    }
    return count, nil
}

func isForeignKeyViolation(err error) bool {
    return errors.Is(err, gorm.ErrForeignKeyViolated) ||
        strings.Contains(strings.ToUpper(err.Error()), "FOREIGN KEY CONSTRAINT FAILED")
}

type noopLogger struct{}

func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Warn(string, ...interface{})  {}
