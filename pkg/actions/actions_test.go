package actions_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/tgflow/pkg/actions"
	"github.com/aretw0/tgflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emitted struct {
	event string
	args  []any
}

// fakeBot records what actions ask of the runtime.
type fakeBot struct {
	mu       sync.Mutex
	dialogs  []string
	data     map[string]any
	sent     []string
	deleted  []int64
	events   []emitted
	waitResp domain.WaitResult
	waitOpts *domain.WaitOptions
	resets   int
}

func newFakeBot() *fakeBot { return &fakeBot{data: map[string]any{}} }

func (f *fakeBot) ChangeDialog(ctx context.Context, id domain.ConversationID, dialogID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dialogs = append(f.dialogs, dialogID)
	return nil
}
func (f *fakeBot) Reset(ctx context.Context, id domain.ConversationID) error {
	f.resets++
	return nil
}
func (f *fakeBot) StartDialogID() string { return "start" }
func (f *fakeBot) SendMessage(ctx context.Context, id domain.ConversationID, text string, opts *domain.SendOptions) (domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return domain.Message{ID: int64(len(f.sent)), Conversation: id}, nil
}
func (f *fakeBot) DeleteMessage(ctx context.Context, id domain.ConversationID, messageID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return true, nil
}
func (f *fakeBot) WaitForText(ctx context.Context, id domain.ConversationID, opts *domain.WaitOptions) (domain.WaitResult, error) {
	f.waitOpts = opts
	return f.waitResp, nil
}
func (f *fakeBot) WaitForFile(ctx context.Context, id domain.ConversationID, opts *domain.WaitOptions) (domain.WaitResult, error) {
	f.waitOpts = opts
	return f.waitResp, nil
}
func (f *fakeBot) State(id domain.ConversationID) domain.State { return *domain.NewState(id, "start") }
func (f *fakeBot) SetData(id domain.ConversationID, key string, value any) {
	f.data[key] = value
}
func (f *fakeBot) Data(id domain.ConversationID, key string) (any, bool) {
	v, ok := f.data[key]
	return v, ok
}
func (f *fakeBot) DeleteData(id domain.ConversationID, key string) bool {
	_, ok := f.data[key]
	delete(f.data, key)
	return ok
}
func (f *fakeBot) Emit(ctx context.Context, event string, id domain.ConversationID, args ...any) {
	f.events = append(f.events, emitted{event: event, args: args})
}

func run(t *testing.T, bot *fakeBot, a domain.Action) error {
	t.Helper()
	return a.Run(context.Background(), &domain.ActionContext{Conversation: 1, Bot: bot})
}

func TestGoTo(t *testing.T) {
	bot := newFakeBot()
	require.NoError(t, run(t, bot, actions.GoTo("menu")))
	require.NoError(t, run(t, bot, actions.GoToStart()))
	assert.Equal(t, []string{"menu", "start"}, bot.dialogs)

	nav, ok := actions.GoTo("menu").(domain.Navigator)
	require.True(t, ok)
	assert.Equal(t, "menu", nav.Target())
	assert.Equal(t, "goto:menu", domain.ActionName(actions.GoTo("menu")))
	assert.Equal(t, []string{"menu"}, domain.Do(actions.Named("x", actions.GoTo("menu"))).Targets())
}

func TestSequence_StopsAtError(t *testing.T) {
	bot := newFakeBot()
	boom := errors.New("boom")
	seq := actions.Sequence(
		actions.SetData("a", 1),
		domain.ActionFunc(func(ctx context.Context, ac *domain.ActionContext) error { return boom }),
		actions.SetData("b", 2),
	)

	assert.ErrorIs(t, run(t, bot, seq), boom)
	assert.Equal(t, 1, bot.data["a"])
	assert.NotContains(t, bot.data, "b")
}

func TestWhenData(t *testing.T) {
	bot := newFakeBot()
	a := actions.WhenData("role", "admin", actions.GoTo("admin"), actions.GoTo("guest"))

	require.NoError(t, run(t, bot, a))
	bot.data["role"] = "admin"
	require.NoError(t, run(t, bot, a))
	assert.Equal(t, []string{"guest", "admin"}, bot.dialogs)
}

func TestDataActions(t *testing.T) {
	bot := newFakeBot()
	require.NoError(t, run(t, bot, actions.SetDataFunc("n", func(ctx context.Context, ac *domain.ActionContext) (any, error) {
		return int(ac.Conversation) * 10, nil
	})))
	assert.Equal(t, 10, bot.data["n"])

	require.NoError(t, run(t, bot, actions.DeleteData("n")))
	assert.Empty(t, bot.data)
}

func TestDelay_HonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := actions.Delay(time.Hour).Run(ctx, &domain.ActionContext{Bot: newFakeBot()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNotify_AutoDelete(t *testing.T) {
	bot := newFakeBot()
	require.NoError(t, run(t, bot, actions.Notify("saved", 10*time.Millisecond)))
	assert.Equal(t, []string{"saved"}, bot.sent)

	assert.Eventually(t, func() bool {
		bot.mu.Lock()
		defer bot.mu.Unlock()
		return len(bot.deleted) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestWaitForText_EmitResult(t *testing.T) {
	bot := newFakeBot()
	bot.waitResp = domain.WaitResult{Status: domain.WaitSuccess, Value: "Ada"}
	require.NoError(t, run(t, bot, actions.WaitForText(domain.WaitOptions{Prompt: "Name?"}, actions.EmitResult("name"))))
	require.Len(t, bot.events, 1)
	assert.Equal(t, "name", bot.events[0].event)
	assert.Equal(t, []any{"Ada"}, bot.events[0].args)

	bot.waitResp = domain.WaitResult{Status: domain.WaitTimedOut}
	require.NoError(t, run(t, bot, actions.WaitForText(domain.WaitOptions{}, actions.EmitResult("name"))))
	assert.Equal(t, "name_timeout", bot.events[1].event)

	bot.waitResp = domain.WaitResult{Status: domain.WaitFailed, Error: "download failed", File: &domain.FileInput{FileID: "f"}}
	require.NoError(t, run(t, bot, actions.WaitForFile(domain.WaitOptions{}, actions.EmitResult("doc"))))
	assert.Equal(t, emitted{event: "doc_failed", args: []any{"download failed"}}, bot.events[2])
}

func TestWaitForPhoto_SetsKinds(t *testing.T) {
	bot := newFakeBot()
	bot.waitResp = domain.WaitResult{Status: domain.WaitCancelled}
	require.NoError(t, run(t, bot, actions.WaitForPhoto(domain.WaitOptions{}, actions.StoreResult("photo", nil))))
	assert.Equal(t, []domain.InputKind{domain.InputPhoto}, bot.waitOpts.Kinds)
	assert.NotContains(t, bot.data, "photo")
}

func TestEmit(t *testing.T) {
	bot := newFakeBot()
	require.NoError(t, run(t, bot, actions.Emit("ping", 1, "x")))
	assert.Equal(t, []emitted{{event: "ping", args: []any{1, "x"}}}, bot.events)
	assert.Equal(t, "emit:ping", domain.ActionName(actions.Emit("ping")))
}
