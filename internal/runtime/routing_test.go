package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/tgflow/internal/runtime"
	"github.com/aretw0/tgflow/internal/testutils"
	"github.com/aretw0/tgflow/pkg/actions"
	"github.com/aretw0/tgflow/pkg/domain"
	"github.com/aretw0/tgflow/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallback_StaleTokenReturnsToStart(t *testing.T) {
	eng, fake := newEngine(t, twoDialogs(&trail{}))
	ctx := context.Background()

	require.NoError(t, eng.ChangeDialog(ctx, chat, "b"))
	require.NoError(t, eng.HandleUpdate(ctx, callback("0123456789abcdef", eng.State(chat).LastMessageID)))

	assert.Equal(t, "a", eng.State(chat).CurrentDialogID)
	assert.Len(t, fake.CallsOf(testutils.OpAnswer), 1, "the callback is always acknowledged")
}

func TestCallback_SyncsLastMessage(t *testing.T) {
	eng, fake := newEngine(t, twoDialogs(&trail{}))
	ctx := context.Background()

	require.NoError(t, eng.ChangeDialog(ctx, chat, "a"))
	pressed := eng.State(chat).LastMessageID
	msg, err := eng.SendMessage(ctx, chat, "unrelated", nil)
	require.NoError(t, err)
	eng.Store().SetLastMessage(chat, msg.ID)

	require.NoError(t, eng.HandleUpdate(ctx, callback(fake.Token("Next"), pressed)))
	last := fake.LastCall()
	assert.Equal(t, testutils.OpEdit, last.Op)
	assert.Equal(t, pressed, last.MessageID, "the pressed message is the one edited")
}

func TestCallback_MiddlewareShortCircuit(t *testing.T) {
	blocked := 0
	eng, fake := newEngine(t, twoDialogs(&trail{}))
	eng.Pipeline().Use(func(ctx context.Context, mc *middleware.Context, next middleware.Next) error {
		blocked++
		return nil
	})
	ctx := context.Background()

	require.NoError(t, eng.ChangeDialog(ctx, chat, "a"))
	require.NoError(t, eng.HandleUpdate(ctx, callback(fake.Token("Next"), eng.State(chat).LastMessageID)))

	assert.Equal(t, 1, blocked)
	assert.Equal(t, "a", eng.State(chat).CurrentDialogID)
}

func TestMiddlewareError_IsReturned(t *testing.T) {
	boom := errors.New("denied")
	eng, _ := newEngine(t, twoDialogs(&trail{}), runtime.WithPipeline(middleware.New(
		func(ctx context.Context, mc *middleware.Context, next middleware.Next) error { return boom },
	)))

	err := eng.HandleUpdate(context.Background(), textUpdate("hi", 1))
	assert.ErrorIs(t, err, boom)
}

func TestActionError_RedirectsToErrorDialog(t *testing.T) {
	lc := &lifecycle{}
	boom := errors.New("backend down")
	s := twoDialogs(&trail{})
	s.ErrorDialogID = "oops"
	s.Dialogs = append(s.Dialogs, domain.Dialog{ID: "oops", Text: domain.Text("Something went wrong")})
	s.Dialogs[0].InlineButtons = domain.InlineRows(
		domain.Row(domain.InlineButton{Text: domain.Text("Fail"), Action: domain.Do(domain.ActionFunc(func(ctx context.Context, ac *domain.ActionContext) error {
			return boom
		}))}),
		domain.Row(domain.InlineButton{Text: domain.Text("Panic"), Action: domain.Do(domain.ActionFunc(func(ctx context.Context, ac *domain.ActionContext) error {
			panic("unexpected")
		}))}),
	)
	eng, fake := newEngine(t, s, runtime.WithLifecycleHooks(lc.hooks()))
	ctx := context.Background()

	require.NoError(t, eng.ChangeDialog(ctx, chat, "a"))
	fail, panicky := fake.Token("Fail"), fake.Token("Panic")

	require.NoError(t, eng.HandleUpdate(ctx, callback(fail, 0)))
	assert.Equal(t, "oops", eng.State(chat).CurrentDialogID)
	require.Len(t, lc.errs, 1)
	assert.ErrorIs(t, lc.errs[0], boom)

	require.NoError(t, eng.ChangeDialog(ctx, chat, "a"))
	require.NoError(t, eng.HandleUpdate(ctx, callback(panicky, 0)))
	assert.Equal(t, "oops", eng.State(chat).CurrentDialogID)
	assert.Len(t, lc.errs, 2)
}

func TestActionError_WithoutErrorDialogIsSwallowed(t *testing.T) {
	s := twoDialogs(&trail{})
	s.Dialogs[0].InlineButtons = domain.InlineRows(domain.Row(domain.InlineButton{
		Text:   domain.Text("Fail"),
		Action: domain.Do(domain.ActionFunc(func(ctx context.Context, ac *domain.ActionContext) error { return errors.New("nope") })),
	}))
	eng, fake := newEngine(t, s)
	ctx := context.Background()

	require.NoError(t, eng.ChangeDialog(ctx, chat, "a"))
	require.NoError(t, eng.HandleUpdate(ctx, callback(fake.Token("Fail"), 0)))
	assert.Equal(t, "a", eng.State(chat).CurrentDialogID)
}

func TestCommands(t *testing.T) {
	tr := &trail{}
	s := twoDialogs(&trail{})
	var args string
	s.Commands = []domain.Command{{
		Name: "Help",
		Action: domain.Do(domain.ActionFunc(func(ctx context.Context, ac *domain.ActionContext) error {
			args = ac.CommandArgs
			tr.add("help")
			return nil
		})),
	}}
	eng, _ := newEngine(t, s)
	ctx := context.Background()

	require.NoError(t, eng.HandleUpdate(ctx, textUpdate("/HELP@my_bot topics please", 1)))
	assert.Equal(t, []string{"help"}, tr.get())
	assert.Equal(t, "topics please", args)

	require.NoError(t, eng.HandleUpdate(ctx, textUpdate("/unknown", 2)))
	assert.Equal(t, []string{"help"}, tr.get())
}

func TestStartCommand(t *testing.T) {
	eng, fake := newEngine(t, twoDialogs(&trail{}))
	ctx := context.Background()

	require.NoError(t, eng.ChangeDialog(ctx, chat, "b"))
	previous := eng.State(chat).LastMessageID
	eng.SetData(chat, "k", 1)
	fake.ClearCalls()

	require.NoError(t, eng.HandleUpdate(ctx, &domain.Update{Kind: domain.UpdateCommand, Conversation: chat, Command: "start", Text: "/start", MessageID: 900}))

	deletes := fake.CallsOf(testutils.OpDelete)
	require.Len(t, deletes, 2)
	assert.Equal(t, int64(900), deletes[0].MessageID)
	assert.Equal(t, previous, deletes[1].MessageID)

	state := eng.State(chat)
	assert.Equal(t, "a", state.CurrentDialogID)
	_, ok := eng.Data(chat, "k")
	assert.False(t, ok)
	assert.Equal(t, testutils.OpSend, fake.LastCall().Op)
}

func TestStartCommand_Disabled(t *testing.T) {
	cfg := runtime.DefaultConfig()
	cfg.EnableStartCommand = false
	eng, fake := newEngine(t, twoDialogs(&trail{}), runtime.WithConfig(cfg))

	require.NoError(t, eng.HandleUpdate(context.Background(), textUpdate("/start", 1)))
	assert.Empty(t, fake.Calls())
}

func replySchema(tr *trail) domain.Schema {
	return domain.Schema{
		StartDialogID: "menu",
		Fallback:      domain.Do(tr.action("fallback")),
		ReplyFallback: domain.Do(tr.action("reply_fallback")),
		Dialogs: []domain.Dialog{
			{
				ID:   "menu",
				Text: domain.Text("Menu"),
				ReplyButtons: domain.ReplyRows(domain.Row(
					domain.ReplyButton{Text: domain.Text("Profile"), Action: domain.Do(actions.GoTo("profile"))},
					domain.ReplyButton{Text: domain.Text("Ping"), Action: domain.Do(tr.action("menu ping"))},
				)),
			},
			{
				ID:                  "profile",
				Text:                domain.Text("Profile"),
				RemoveReplyKeyboard: true,
			},
			{
				ID:           "other",
				Text:         domain.Text("Other"),
				ReplyButtons: domain.ReplyRows(domain.Row(domain.ReplyButton{Text: domain.Text("Ping"), Action: domain.Do(tr.action("other ping"))})),
			},
		},
	}
}

func TestReplyButtons(t *testing.T) {
	tr := &trail{}
	eng, fake := newEngine(t, replySchema(tr))
	ctx := context.Background()

	// Register both keyboards, then settle on the menu.
	require.NoError(t, eng.ChangeDialog(ctx, chat, "other"))
	require.NoError(t, eng.ChangeDialog(ctx, chat, "menu"))

	require.NoError(t, eng.HandleUpdate(ctx, textUpdate("Ping", 10)))
	assert.Equal(t, []string{"menu ping"}, tr.get(), "the current dialog wins")

	require.NoError(t, eng.HandleUpdate(ctx, textUpdate("gibberish", 11)))
	assert.Equal(t, []string{"menu ping", "reply_fallback"}, tr.get())

	require.NoError(t, eng.HandleUpdate(ctx, textUpdate("Profile", 12)))
	assert.Equal(t, "profile", eng.State(chat).CurrentDialogID)
	assert.False(t, eng.State(chat).ReplyKeyboardActive)

	var deleted []int64
	for _, c := range fake.CallsOf(testutils.OpDelete) {
		deleted = append(deleted, c.MessageID)
	}
	assert.Contains(t, deleted, int64(10))
	assert.Contains(t, deleted, int64(12))
	assert.NotContains(t, deleted, int64(11), "unmatched text is left alone")

	tr.reset()
	require.NoError(t, eng.HandleUpdate(ctx, textUpdate("gibberish", 13)))
	assert.Equal(t, []string{"fallback"}, tr.get())

	// Global match from another dialog.
	tr.reset()
	require.NoError(t, eng.HandleUpdate(ctx, textUpdate("Ping", 14)))
	assert.Len(t, tr.get(), 1)
}

func TestSharedContactAndLocation(t *testing.T) {
	eng, _ := newEngine(t, twoDialogs(&trail{}))
	ctx := context.Background()

	var contact domain.Contact
	var location domain.Location
	eng.Events().On("contact", func(ctx context.Context, conv domain.ConversationID, args ...any) {
		contact = args[0].(domain.Contact)
	})
	eng.Events().On("location", func(ctx context.Context, conv domain.ConversationID, args ...any) {
		location = args[0].(domain.Location)
	})

	require.NoError(t, eng.HandleUpdate(ctx, &domain.Update{Kind: domain.UpdateContact, Conversation: chat, Contact: &domain.Contact{PhoneNumber: "+100", FirstName: "Ada"}}))
	require.NoError(t, eng.HandleUpdate(ctx, &domain.Update{Kind: domain.UpdateLocation, Conversation: chat, Location: &domain.Location{Latitude: 1.5, Longitude: 2.5}}))

	assert.Equal(t, "+100", contact.PhoneNumber)
	assert.Equal(t, 2.5, location.Longitude)
}

func TestHandleUpdate_Unsupported(t *testing.T) {
	eng, _ := newEngine(t, twoDialogs(&trail{}))
	assert.Error(t, eng.HandleUpdate(context.Background(), &domain.Update{Kind: "sticker", Conversation: chat}))
	assert.NoError(t, eng.HandleUpdate(context.Background(), nil))
}
