package conversation

import (
    "context"
    "errors"
    "strings"
    "time"

    "gorm.io/gorm"

    "github.com/iyunix/go-docchat/internal/domain"
)

type gormConversationRepository struct {
    db     *gorm.DB
    now    Clock
    logger Logger
}

func NewConversationRepository(db *gorm.DB, opts ...Option) ConversationRepository {
    r := &gormConversationRepository{
        db:     db,
        now:    func() time.Time { return time.Now().UTC() },
        logger: noopLogger{},
    }
    for _, opt := range opts {
        opt(r)
    }
    return r
}

// Create inserts a conversation with a repository-assigned creation timestamp.
func (r *gormConversationRepository) Create(ctx context.Context, title string, sourceRef, sourceText *string) (*domain.Conversation, error) {
    if err := validateTitle("create_conversation", title); err != nil {
        return nil, err
    }

    conv := &domain.Conversation{
        Title:       title,
        FilePath:    sourceRef,
        FileContent: sourceText,
        CreatedAt:   r.now(),
    }
    if err := r.db.WithContext(ctx).Create(conv).Error; err != nil {
        r.logger.Error("[ConversationRepository] database error creating conversation", "error", err)
        return nil, domain.NewStorageError("create_conversation", "could not save conversation", err)
    }

    r.logger.Info("[ConversationRepository] conversation created", "conversation_id", conv.ID)
    return conv, nil
}

// CreateWithMessage inserts a conversation and its first message in one
// transaction: either both rows exist afterwards or neither does.
func (r *gormConversationRepository) CreateWithMessage(
    ctx context.Context,
    title string,
    sourceRef, sourceText *string,
    sender domain.Role,
    content string,
) (*domain.Conversation, *domain.Message, error) {
    const op = "create_conversation"
    if err := validateTitle(op, title); err != nil {
        return nil, nil, err
    }
    if !sender.Valid() {
        return nil, nil, domain.NewInvalidArgumentError(op, "sender must be system, user or assistant")
    }
    if strings.TrimSpace(content) == "" {
        return nil, nil, domain.NewInvalidArgumentError(op, "message content must not be empty")
    }

    now := r.now()
    conv := &domain.Conversation{
        Title:       title,
        FilePath:    sourceRef,
        FileContent: sourceText,
        CreatedAt:   now,
    }
    var msg *domain.Message

    err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
        if err := tx.Create(conv).Error; err != nil {
            return err
        }
        msg = &domain.Message{
            ConversationID: conv.ID,
            Sender:         sender,
            Content:        content,
            Timestamp:      now,
        }
        return tx.Create(msg).Error
    })
    if err != nil {
        r.logger.Error("[ConversationRepository] transaction failed creating conversation with message", "error", err)
        return nil, nil, domain.NewStorageError(op, "could not save conversation", err)
    }

    r.logger.Info("[ConversationRepository] conversation created", "conversation_id", conv.ID, "message_id", msg.ID)
    return conv, msg, nil
}

// List returns conversations, most recently created first.
func (r *gormConversationRepository) List(ctx context.Context) ([]domain.ConversationSummary, error) {
    summaries := []domain.ConversationSummary{}
    err := r.db.WithContext(ctx).
        Model(&domain.Conversation{}).
        Select("id", "title", "created_at").
        Order("created_at DESC, id DESC").
        Scan(&summaries).Error
    if err != nil {
        r.logger.Error("[ConversationRepository] database error listing conversations", "error", err)
        return nil, domain.NewStorageError("list_conversations", "could not load conversations", err)
    }
    return summaries, nil
}

// FindByID loads a conversation including its source reference and text.
func (r *gormConversationRepository) FindByID(ctx context.Context, conversationID uint) (*domain.Conversation, error) {
    if conversationID == 0 {
        return nil, domain.NewNotFoundError("get_conversation", conversationID)
    }

    var conv domain.Conversation
    err := r.db.WithContext(ctx).First(&conv, conversationID).Error
    if err == nil {
        return &conv, nil
    }
    if errors.Is(err, gorm.ErrRecordNotFound) {
        return nil, domain.NewNotFoundError("get_conversation", conversationID)
    }
    r.logger.Error("[ConversationRepository] FindByID database error", "conversation_id", conversationID, "error", err)
    return nil, domain.NewStorageError("get_conversation", "could not load conversation", err)
}

// Exists checks existence without loading the (possibly large) source text.
func (r *gormConversationRepository) Exists(ctx context.Context, conversationID uint) (bool, error) {
    if conversationID == 0 {
        return false, nil
    }
    var count int64
    err := r.db.WithContext(ctx).Model(&domain.Conversation{}).Where("id = ?", conversationID).Count(&count).Error
    if err != nil {
        r.logger.Error("[ConversationRepository] database error checking existence", "conversation_id", conversationID, "error", err)
        return false, domain.NewStorageError("exists", "could not check conversation", err)
    }
    return count > 0, nil
}

// Delete removes a conversation and all of its messages atomically.
// It reports whether a conversation row was removed.
func (r *gormConversationRepository) Delete(ctx context.Context, conversationID uint) (bool, error) {
    if conversationID == 0 {
        return false, nil
    }

    var removed bool
    var messagesRemoved int64
    err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
        res := tx.Where("conversation_id = ?", conversationID).Delete(&domain.Message{})
        if res.Error != nil {
            return res.Error
        }
        messagesRemoved = res.RowsAffected

        res = tx.Delete(&domain.Conversation{}, conversationID)
        if res.Error != nil {
            return res.Error
        }
        removed = res.RowsAffected > 0
        return nil
    })
    if err != nil {
        r.logger.Error("[ConversationRepository] database error deleting conversation", "conversation_id", conversationID, "error", err)
        return false, domain.NewStorageError("delete_conversation", "could not delete conversation", err)
    }

    if removed {
        r.logger.Info("[ConversationRepository] conversation deleted", "conversation_id", conversationID, "messages_removed", messagesRemoved)
    }
    return removed, nil
}

// SearchByTitle finds conversations whose title contains pattern.
func (r *gormConversationRepository) SearchByTitle(ctx context.Context, pattern string, limit int) ([]domain.ConversationSummary, error) {
    pattern = strings.TrimSpace(pattern)
    if len(pattern) > 100 {
        return nil, domain.NewInvalidArgumentError("search_conversations", "search pattern too long")
    }
    if limit <= 0 || limit > 100 {
        limit = 20
    }

    summaries := []domain.ConversationSummary{}
    err := r.db.WithContext(ctx).
        Model(&domain.Conversation{}).
        Select("id", "title", "created_at").
        Where("title LIKE ? ESCAPE '\\'", "%"+escapeLike(pattern)+"%").
        Order("created_at DESC, id DESC").
        Limit(limit).
        Scan(&summaries).Error
    if err != nil {
        r.logger.Error("[ConversationRepository] database error searching conversations", "error", err)
        return nil, domain.NewStorageError("search_conversations", "could not search conversations", err)
    }
    return summaries, nil
}

func validateTitle(op, title string) error {
    if strings.TrimSpace(title) == "" {
        return domain.NewStorageError(op, "conversation title must not be empty", nil)
    }
    return nil
}

// escapeLike neutralizes LIKE wildcards in user input.
func escapeLike(s string) string {
    r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
    return r.Replace(s)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Warn(string, ...interface{})  {}
