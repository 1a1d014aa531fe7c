package session

import (
    "context"
    "errors"
    "html"
    "regexp"
    "strings"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "gorm.io/gorm"
    "gorm.io/gorm/logger"

    "github.com/iyunix/go-docchat/internal/database"
    "github.com/iyunix/go-docchat/internal/domain"
    "github.com/iyunix/go-docchat/internal/format"
    "github.com/iyunix/go-docchat/internal/repository/conversation"
    "github.com/iyunix/go-docchat/internal/repository/message"
    "github.com/iyunix/go-docchat/internal/services/ai"
    "github.com/iyunix/go-docchat/internal/services/ingest"
)

type harness struct {
    session  *Session
    db       *gorm.DB
    convs    conversation.ConversationRepository
    messages message.MessageRepository
    provider *ai.StaticProvider
}

func scriptedProvider() *ai.StaticProvider {
    return &ai.StaticProvider{
        Rules: []ai.Rule{
            {Match: "Suggest the most fitting short title", Reply: "Greeting"},
            {Match: "Summarize this text", Reply: "A greeting."},
            {Match: "Question: What is this?", Reply: "It says: ```hello()```"},
        },
        Default: "I don't know.",
    }
}

// documents maps paths to extracted text; unknown paths extract to "".
func newHarness(t *testing.T, provider *ai.StaticProvider, documents map[string]string, cfg *Config) *harness {
    t.Helper()
    db, err := database.OpenAndMigrate(database.MemoryPath, logger.Discard)
    require.NoError(t, err)
    t.Cleanup(func() { _ = database.Close(db) })

    aiCfg := ai.DefaultConfig()
    aiCfg.MaxRetries = 1
    client := ai.NewClient(provider, aiCfg, ai.WithSleep(func(context.Context, time.Duration) error { return nil }))

    extractor := ingest.ExtractorFunc(func(_ context.Context, path string) string { return documents[path] })
    convs := conversation.NewConversationRepository(db)
    messages := message.NewMessageRepository(db)

    return &harness{
        session:  New(convs, messages, extractor, client, format.NewRenderer(nil), cfg, nil),
        db:       db,
        convs:    convs,
        messages: messages,
        provider: provider,
    }
}

func (h *harness) rowCounts(t *testing.T) (int64, int64) {
    t.Helper()
    var convs, msgs int64
    require.NoError(t, h.db.Model(&domain.Conversation{}).Count(&convs).Error)
    require.NoError(t, h.db.Model(&domain.Message{}).Count(&msgs).Error)
    return convs, msgs
}

var hrefPattern = regexp.MustCompile(`href="([^"]*)"`)

func TestLoadDocumentEndToEnd(t *testing.T) {
    ctx := context.Background()
    h := newHarness(t, scriptedProvider(), map[string]string{"/docs/hello.pdf": "Hello **world**"}, nil)

    effects, err := h.session.LoadDocument(ctx, "/docs/hello.pdf")
    require.NoError(t, err)

    list, err := h.convs.List(ctx)
    require.NoError(t, err)
    require.Len(t, list, 1)
    assert.Equal(t, "Greeting", list[0].Title)

    history, err := h.messages.FindByConversationID(ctx, list[0].ID)
    require.NoError(t, err)
    require.Len(t, history, 1)
    assert.Equal(t, domain.RoleSystem, history[0].Sender)
    assert.Equal(t, "A greeting.", history[0].Content)

    state := h.session.State()
    assert.Equal(t, list[0].ID, state.ActiveID)
    assert.Equal(t, "Hello **world**", state.SourceText)

    assert.True(t, effects.Clear)
    assert.True(t, effects.RefreshList)
    assert.Empty(t, effects.Warning)
    require.Len(t, effects.Append, 1)
    assert.Equal(t, domain.RoleSystem, effects.Append[0].Role)
    assert.Contains(t, effects.Append[0].HTML, "A greeting.")

    conv, err := h.convs.FindByID(ctx, list[0].ID)
    require.NoError(t, err)
    assert.Equal(t, "/docs/hello.pdf", conv.SourceRef())
    assert.Equal(t, "Hello **world**", conv.SourceText())

    prompts := h.provider.Prompts()
    require.Len(t, prompts, 2)
    joined := strings.Join(prompts, "\n---\n")
    assert.Contains(t, joined, "write only the title:\nHello **world**")
    assert.Contains(t, joined, "emphasis in the text:\nHello <b>world</b>")
}

func TestAskEndToEnd(t *testing.T) {
    ctx := context.Background()
    h := newHarness(t, scriptedProvider(), map[string]string{"hello.docx": "Hello **world**"}, nil)

    _, err := h.session.LoadDocument(ctx, "hello.docx")
    require.NoError(t, err)
    active := h.session.State().ActiveID

    effects, err := h.session.Ask(ctx, "  What is this?  ")
    require.NoError(t, err)

    history, err := h.messages.FindByConversationID(ctx, active)
    require.NoError(t, err)
    require.Len(t, history, 3)
    assert.Equal(t, domain.RoleUser, history[1].Sender)
    assert.Equal(t, "What is this?", history[1].Content)
    assert.Equal(t, domain.RoleAssistant, history[2].Sender)
    assert.Equal(t, "It says: ```hello()```", history[2].Content)

    require.Len(t, effects.Append, 2)
    assert.Equal(t, domain.RoleUser, effects.Append[0].Role)
    assert.Equal(t, domain.RoleAssistant, effects.Append[1].Role)
    assert.False(t, effects.Clear)

    answer := effects.Append[1].HTML
    assert.Contains(t, answer, "<pre")
    m := hrefPattern.FindStringSubmatch(answer)
    require.Len(t, m, 2)
    code, err := format.DecodeCopyAction(html.UnescapeString(m[1]))
    require.NoError(t, err)
    assert.Equal(t, "hello()", code)

    prompts := h.provider.Prompts()
    prompt := prompts[len(prompts)-1]
    assert.Contains(t, prompt, "Previous conversation:\nsystem: A greeting.\nuser: What is this?\n\n")
    assert.Contains(t, prompt, "Text:\nHello <b>world</b>\n\n")
    assert.Contains(t, prompt, "Question: What is this?\n\n")
    assert.True(t, strings.HasSuffix(prompt, "show them with ```."))
}

func TestAskHistoryWindow(t *testing.T) {
    ctx := context.Background()
    cfg := DefaultConfig()
    cfg.HistoryWindow = 2
    h := newHarness(t, scriptedProvider(), map[string]string{"a.txt": "text"}, cfg)

    _, err := h.session.LoadDocument(ctx, "a.txt")
    require.NoError(t, err)
    _, err = h.session.Ask(ctx, "first question")
    require.NoError(t, err)
    _, err = h.session.Ask(ctx, "second question")
    require.NoError(t, err)

    prompts := h.provider.Prompts()
    last := prompts[len(prompts)-1]
    assert.Contains(t, last, "Previous conversation:\nassistant: I don't know.\nuser: second question\n\n")
    assert.NotContains(t, last, "first question")
}

func TestAskWithoutActiveConversation(t *testing.T) {
    h := newHarness(t, scriptedProvider(), nil, nil)

    effects, err := h.session.Ask(context.Background(), "What is this?")
    require.Error(t, err)
    assert.ErrorIs(t, err, domain.ErrPrecondition)
    assert.NotEmpty(t, effects.Warning)
    assert.Empty(t, effects.Append)

    convs, msgs := h.rowCounts(t)
    assert.Zero(t, convs)
    assert.Zero(t, msgs)
    assert.Empty(t, h.provider.Prompts())
}

func TestAskBlankQuestionIsNoop(t *testing.T) {
    ctx := context.Background()
    h := newHarness(t, scriptedProvider(), map[string]string{"a.txt": "text"}, nil)
    _, err := h.session.LoadDocument(ctx, "a.txt")
    require.NoError(t, err)
    _, before := h.rowCounts(t)

    effects, err := h.session.Ask(ctx, " \n\t ")
    require.NoError(t, err)
    assert.Equal(t, Effects{}, effects)

    _, after := h.rowCounts(t)
    assert.Equal(t, before, after)
}

func TestAskRejectsOverlongQuestion(t *testing.T) {
    ctx := context.Background()
    cfg := DefaultConfig()
    cfg.MaxQuestionRunes = 5
    h := newHarness(t, scriptedProvider(), map[string]string{"a.txt": "text"}, cfg)
    _, err := h.session.LoadDocument(ctx, "a.txt")
    require.NoError(t, err)
    _, before := h.rowCounts(t)

    _, err = h.session.Ask(ctx, "héllo!")
    assert.ErrorIs(t, err, domain.ErrPrecondition)

    _, after := h.rowCounts(t)
    assert.Equal(t, before, after)

    _, err = h.session.Ask(ctx, "héllo")
    assert.NoError(t, err)
}

func TestFallbackWhenBackendFails(t *testing.T) {
    ctx := context.Background()
    provider := &ai.StaticProvider{Err: errors.New("quota exceeded")}
    h := newHarness(t, provider, map[string]string{"a.pdf": "Hello **world**"}, nil)

    effects, err := h.session.LoadDocument(ctx, "a.pdf")
    require.NoError(t, err)
    assert.NotEmpty(t, effects.Warning)

    list, err := h.convs.List(ctx)
    require.NoError(t, err)
    require.Len(t, list, 1)
    assert.Equal(t, ai.DefaultFallbackText, list[0].Title)

    effects, err = h.session.Ask(ctx, "What is this?")
    require.NoError(t, err)
    assert.NotEmpty(t, effects.Warning)

    history, err := h.messages.FindByConversationID(ctx, list[0].ID)
    require.NoError(t, err)
    require.Len(t, history, 3)
    assert.Equal(t, ai.DefaultFallbackText, history[0].Content)
    assert.Equal(t, ai.DefaultFallbackText, history[2].Content)
}

func TestLoadDocumentWithNoText(t *testing.T) {
    ctx := context.Background()
    h := newHarness(t, scriptedProvider(), nil, nil)

    effects, err := h.session.LoadDocument(ctx, "unreadable.pdf")
    require.NoError(t, err)
    assert.NotEmpty(t, effects.Warning)
    assert.NotZero(t, h.session.State().ActiveID)
    assert.Equal(t, "", h.session.State().SourceText)
}

func TestLoadDocumentStorageFailure(t *testing.T) {
    ctx := context.Background()
    h := newHarness(t, scriptedProvider(), map[string]string{"b.pdf": "second"}, nil)
    require.NoError(t, database.Close(h.db))

    _, err := h.session.LoadDocument(ctx, "b.pdf")
    assert.ErrorIs(t, err, domain.ErrStorage)
    assert.Equal(t, State{}, h.session.State())
}

func TestSelectReRendersHistory(t *testing.T) {
    ctx := context.Background()
    h := newHarness(t, scriptedProvider(), map[string]string{"one.txt": "first doc", "two.txt": "second doc"}, nil)

    _, err := h.session.LoadDocument(ctx, "one.txt")
    require.NoError(t, err)
    first := h.session.State().ActiveID
    _, err = h.session.Ask(ctx, "What is this?")
    require.NoError(t, err)

    _, err = h.session.LoadDocument(ctx, "two.txt")
    require.NoError(t, err)
    require.NotEqual(t, first, h.session.State().ActiveID)

    effects, err := h.session.Select(ctx, first)
    require.NoError(t, err)
    assert.True(t, effects.Clear)
    require.Len(t, effects.Append, 3)
    assert.Equal(t, []domain.Role{domain.RoleSystem, domain.RoleUser, domain.RoleAssistant},
        []domain.Role{effects.Append[0].Role, effects.Append[1].Role, effects.Append[2].Role})

    state := h.session.State()
    assert.Equal(t, first, state.ActiveID)
    assert.Equal(t, "first doc", state.SourceText)

    again, err := h.session.Select(ctx, first)
    require.NoError(t, err)
    assert.Equal(t, effects, again, "re-rendering stored history is idempotent")
}

func TestSelectUnknownKeepsState(t *testing.T) {
    ctx := context.Background()
    h := newHarness(t, scriptedProvider(), map[string]string{"a.txt": "text"}, nil)
    _, err := h.session.LoadDocument(ctx, "a.txt")
    require.NoError(t, err)
    before := h.session.State()

    _, err = h.session.Select(ctx, before.ActiveID+100)
    assert.ErrorIs(t, err, domain.ErrNotFound)
    assert.Equal(t, before, h.session.State())
}

func TestDeleteActiveConversation(t *testing.T) {
    ctx := context.Background()
    h := newHarness(t, scriptedProvider(), map[string]string{"a.txt": "text"}, nil)
    _, err := h.session.LoadDocument(ctx, "a.txt")
    require.NoError(t, err)
    _, err = h.session.Ask(ctx, "What is this?")
    require.NoError(t, err)
    active := h.session.State().ActiveID

    effects, err := h.session.Delete(ctx, active)
    require.NoError(t, err)
    assert.True(t, effects.Clear)
    assert.True(t, effects.RefreshList)
    assert.Equal(t, State{}, h.session.State())

    convs, msgs := h.rowCounts(t)
    assert.Zero(t, convs)
    assert.Zero(t, msgs)

    _, err = h.session.Ask(ctx, "still there?")
    assert.ErrorIs(t, err, domain.ErrPrecondition)
}

func TestDeleteOtherConversationKeepsActive(t *testing.T) {
    ctx := context.Background()
    h := newHarness(t, scriptedProvider(), map[string]string{"one.txt": "1", "two.txt": "2"}, nil)
    _, err := h.session.LoadDocument(ctx, "one.txt")
    require.NoError(t, err)
    first := h.session.State().ActiveID
    _, err = h.session.LoadDocument(ctx, "two.txt")
    require.NoError(t, err)
    second := h.session.State()

    effects, err := h.session.Delete(ctx, first)
    require.NoError(t, err)
    assert.False(t, effects.Clear)
    assert.True(t, effects.RefreshList)
    assert.Equal(t, second, h.session.State())
}

func TestDeleteUnknownConversation(t *testing.T) {
    h := newHarness(t, scriptedProvider(), nil, nil)

    effects, err := h.session.Delete(context.Background(), 42)
    require.NoError(t, err)
    assert.False(t, effects.RefreshList)
    assert.False(t, effects.Clear)
}

func TestNewConversation(t *testing.T) {
    ctx := context.Background()
    h := newHarness(t, scriptedProvider(), nil, nil)

    effects, err := h.session.NewConversation(ctx, "  ")
    require.NoError(t, err)
    assert.True(t, effects.Clear)

    state := h.session.State()
    require.NotZero(t, state.ActiveID)
    conv, err := h.convs.FindByID(ctx, state.ActiveID)
    require.NoError(t, err)
    assert.Equal(t, DefaultNewTitle, conv.Title)
    assert.Nil(t, conv.FilePath)

    _, err = h.session.Ask(ctx, "anything?")
    require.NoError(t, err)
    count, err := h.messages.CountByConversationID(ctx, state.ActiveID)
    require.NoError(t, err)
    assert.EqualValues(t, 2, count)
}

func TestConcurrentAsksAreSerialized(t *testing.T) {
    ctx := context.Background()
    h := newHarness(t, scriptedProvider(), map[string]string{"a.txt": "text"}, nil)
    _, err := h.session.LoadDocument(ctx, "a.txt")
    require.NoError(t, err)
    active := h.session.State().ActiveID

    const askers = 5
    var wg sync.WaitGroup
    for i := 0; i < askers; i++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            _, err := h.session.Ask(ctx, "question")
            assert.NoError(t, err)
        }()
    }
    wg.Wait()

    history, err := h.messages.FindByConversationID(ctx, active)
    require.NoError(t, err)
    require.Len(t, history, 1+2*askers)
    for i := 1; i < len(history); i += 2 {
        assert.Equal(t, domain.RoleUser, history[i].Sender)
        assert.Equal(t, domain.RoleAssistant, history[i+1].Sender)
    }
}

func TestTranscriptDoesNotChangeState(t *testing.T) {
    ctx := context.Background()
    h := newHarness(t, scriptedProvider(), map[string]string{"a.txt": "text"}, nil)
    _, err := h.session.LoadDocument(ctx, "a.txt")
    require.NoError(t, err)
    id := h.session.State().ActiveID
    _, err = h.session.NewConversation(ctx, "other")
    require.NoError(t, err)
    before := h.session.State()

    conv, history, err := h.session.Transcript(ctx, id)
    require.NoError(t, err)
    assert.Equal(t, "Greeting", conv.Title)
    assert.Len(t, history, 1)
    assert.Equal(t, before, h.session.State())
}

func TestConversationLookup(t *testing.T) {
    ctx := context.Background()
    h := newHarness(t, scriptedProvider(), map[string]string{"a.txt": "text"}, nil)
    _, err := h.session.LoadDocument(ctx, "a.txt")
    require.NoError(t, err)
    before := h.session.State()

    conv, err := h.session.Conversation(ctx, before.ActiveID)
    require.NoError(t, err)
    assert.Equal(t, before.ActiveID, conv.ID)
    assert.NotEmpty(t, conv.SourceRef())
    assert.Equal(t, before, h.session.State())

    _, err = h.session.Conversation(ctx, 999)
    assert.ErrorIs(t, err, domain.ErrNotFound)
}
