// Package session orchestrates document loading and question answering
// around a single active conversation.
package session

import (
    "context"
    "errors"
    "strings"
    "sync"
    "unicode/utf8"

    "golang.org/x/sync/errgroup"

    "github.com/iyunix/go-docchat/internal/domain"
    "github.com/iyunix/go-docchat/internal/format"
    "github.com/iyunix/go-docchat/internal/repository/conversation"
    "github.com/iyunix/go-docchat/internal/repository/message"
    "github.com/iyunix/go-docchat/internal/services/ai"
    "github.com/iyunix/go-docchat/internal/services/ingest"
)

const (
    // DefaultNewTitle names conversations created without a document.
    DefaultNewTitle = "New conversation"

    warnNoActive      = "Load a document or select a conversation first."
    warnEmptyDocument = "No text could be extracted from the document."
    warnDegraded      = "The AI backend did not respond; fallback text was used."
)

// Logger defines the logging interface used by the session
type Logger interface {
    Info(msg string, keysAndValues ...interface{})
    Error(msg string, keysAndValues ...interface{})
    Debug(msg string, keysAndValues ...interface{})
    Warn(msg string, keysAndValues ...interface{})
}

// Session owns the active conversation pointer. All operations are
// serialized, so load, ask and delete never interleave.
type Session struct {
    mu    sync.Mutex
    state State

    conversations conversation.ConversationRepository
    messages      message.MessageRepository
    extractor     ingest.Extractor
    completer     ai.Completer
    renderer      *format.Renderer
    config        *Config
    logger        Logger
}

func New(
    conversations conversation.ConversationRepository,
    messages message.MessageRepository,
    extractor ingest.Extractor,
    completer ai.Completer,
    renderer *format.Renderer,
    config *Config,
    logger Logger,
) *Session {
    if config == nil {
        config = DefaultConfig()
    }
    if renderer == nil {
        renderer = format.NewRenderer(nil)
    }
    if logger == nil {
        logger = noopLogger{}
    }
    return &Session{
        conversations: conversations,
        messages:      messages,
        extractor:     extractor,
        completer:     completer,
        renderer:      renderer,
        config:        config,
        logger:        logger,
    }
}

// State returns a snapshot of the current state.
func (s *Session) State() State {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.state
}

func (s *Session) Conversations(ctx context.Context) ([]domain.ConversationSummary, error) {
    return s.conversations.List(ctx)
}

// LoadDocument extracts path, asks for a title and a summary concurrently,
// stores the conversation with its summary as the first system message and
// makes it active. On a storage failure nothing is written and the state is
// unchanged.
func (s *Session) LoadDocument(ctx context.Context, path string) (Effects, error) {
    s.mu.Lock()
    defer s.mu.Unlock()

    text := s.extractor.ExtractText(ctx, path)

    var title, summary ai.Result
    g, gctx := errgroup.WithContext(ctx)
    g.Go(func() error {
        title = s.completer.Complete(gctx, TitlePrompt(text, s.config.TitleChars))
        return nil
    })
    g.Go(func() error {
        summary = s.completer.Complete(gctx, SummaryPrompt(text, s.config.SummaryChars))
        return nil
    })
    _ = g.Wait()

    name := cleanTitle(title.Text, s.config.MaxTitleRunes)
    if name == "" {
        name = DefaultNewTitle
    }

    ref := path
    conv, msg, err := s.conversations.CreateWithMessage(ctx, name, &ref, &text, domain.RoleSystem, summary.Text)
    if err != nil {
        s.logger.Error("[Session] failed to store loaded document", "path", path, "error", err)
        return Effects{}, err
    }

    next, effects := loaded(conv, s.renderer.RenderMessage(msg.Sender, msg.Content))
    switch {
    case text == "":
        effects.Warning = warnEmptyDocument
    case title.Degraded || summary.Degraded:
        effects.Warning = warnDegraded
    }
    s.state = next

    s.logger.Info("[Session] document loaded", "conversation_id", conv.ID, "path", path,
        "text_len", len(text), "title_degraded", title.Degraded, "summary_degraded", summary.Degraded)
    return effects, nil
}

// NewConversation creates an empty conversation without a source document
// and makes it active.
func (s *Session) NewConversation(ctx context.Context, title string) (Effects, error) {
    s.mu.Lock()
    defer s.mu.Unlock()

    title = TruncateText(strings.TrimSpace(title), s.config.MaxTitleRunes)
    if title == "" {
        title = DefaultNewTitle
    }
    conv, err := s.conversations.Create(ctx, title, nil, nil)
    if err != nil {
        return Effects{}, err
    }

    next, effects := created(conv)
    s.state = next
    return effects, nil
}

// Ask appends the question, requests a grounded answer and appends it. A
// blank question is a no-op. Without an active conversation it fails with a
// precondition error and writes nothing.
func (s *Session) Ask(ctx context.Context, question string) (Effects, error) {
    s.mu.Lock()
    defer s.mu.Unlock()

    if !s.state.HasActive() {
        return Effects{Warning: warnNoActive}, domain.NewPreconditionError("ask", "no active conversation")
    }
    question = strings.TrimSpace(question)
    if question == "" {
        return Effects{}, nil
    }
    if n := utf8.RuneCountInString(question); n > s.config.MaxQuestionRunes {
        return Effects{Warning: "The question is too long."},
            domain.NewPreconditionError("ask", "question exceeds the maximum length")
    }

    active := s.state.ActiveID
    userMsg, err := s.messages.Create(ctx, active, domain.RoleUser, question)
    if err != nil {
        if errors.Is(err, domain.ErrReferentialIntegrity) {
            s.state = State{}
            return Effects{Clear: true, RefreshList: true, Warning: warnNoActive}, err
        }
        return Effects{}, err
    }
    turn := []format.RenderedMessage{s.renderer.RenderMessage(userMsg.Sender, userMsg.Content)}

    history, err := s.messages.FindRecent(ctx, active, s.config.HistoryWindow)
    if err != nil {
        return Effects{Append: turn}, err
    }

    answer := s.completer.Complete(ctx, AnswerPrompt(history, s.state.SourceText, question, s.config.SourceChars))
    assistantMsg, err := s.messages.Create(ctx, active, domain.RoleAssistant, answer.Text)
    if err != nil {
        s.logger.Error("[Session] failed to store answer", "conversation_id", active, "error", err)
        return Effects{Append: turn}, err
    }
    turn = append(turn, s.renderer.RenderMessage(assistantMsg.Sender, assistantMsg.Content))

    next, effects := asked(s.state, turn)
    if answer.Degraded {
        effects.Warning = warnDegraded
    }
    s.state = next
    return effects, nil
}

// Select makes id active and re-renders its full history in order.
func (s *Session) Select(ctx context.Context, id uint) (Effects, error) {
    s.mu.Lock()
    defer s.mu.Unlock()

    conv, err := s.conversations.FindByID(ctx, id)
    if err != nil {
        return Effects{}, err
    }
    history, err := s.messages.FindByConversationID(ctx, id)
    if err != nil {
        return Effects{}, err
    }

    next, effects := selected(conv, s.renderer.RenderConversation(history))
    s.state = next
    return effects, nil
}

// Delete removes id and its messages. Deleting the active conversation
// clears the state and the display.
func (s *Session) Delete(ctx context.Context, id uint) (Effects, error) {
    s.mu.Lock()
    defer s.mu.Unlock()

    removed, err := s.conversations.Delete(ctx, id)
    if err != nil {
        return Effects{}, err
    }
    if !removed {
        s.logger.Debug("[Session] delete of unknown conversation", "conversation_id", id)
    }

    next, effects := deleted(s.state, id, removed)
    s.state = next
    return effects, nil
}

// Transcript loads a conversation and its full history without changing
// the active pointer.
func (s *Session) Transcript(ctx context.Context, id uint) (*domain.Conversation, []domain.Message, error) {
    conv, err := s.conversations.FindByID(ctx, id)
    if err != nil {
        return nil, nil, err
    }
    history, err := s.messages.FindByConversationID(ctx, id)
    if err != nil {
        return nil, nil, err
    }
    return conv, history, nil
}

// Conversation loads one conversation without its history.
func (s *Session) Conversation(ctx context.Context, id uint) (*domain.Conversation, error) {
    return s.conversations.FindByID(ctx, id)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Warn(string, ...interface{})  {}
