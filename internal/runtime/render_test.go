package runtime_test

import (
	"context"
	"testing"

	"github.com/aretw0/tgflow/internal/runtime"
	"github.com/aretw0/tgflow/internal/testutils"
	"github.com/aretw0/tgflow/pkg/actions"
	"github.com/aretw0/tgflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_NotModifiedIsSuccess(t *testing.T) {
	lc := &lifecycle{}
	eng, fake := newEngine(t, twoDialogs(&trail{}), runtime.WithLifecycleHooks(lc.hooks()))
	ctx := context.Background()

	require.NoError(t, eng.ChangeDialog(ctx, chat, "a"))
	require.NoError(t, eng.ChangeDialog(ctx, chat, "a"))

	assert.Equal(t, domain.RenderUnchanged, lc.lastRender())
	assert.Len(t, fake.CallsOf(testutils.OpSend), 1)
}

func TestRender_EditFailureFallsBackOnce(t *testing.T) {
	lc := &lifecycle{}
	eng, fake := newEngine(t, twoDialogs(&trail{}), runtime.WithLifecycleHooks(lc.hooks()))
	ctx := context.Background()

	require.NoError(t, eng.ChangeDialog(ctx, chat, "a"))
	old := eng.State(chat).LastMessageID
	fake.ClearCalls()
	fake.FailNext(testutils.OpEdit, testutils.PlatformErr("editMessageText", "Bad Request: can't parse entities"))

	require.NoError(t, eng.ChangeDialog(ctx, chat, "b"))

	assert.Equal(t, []string{testutils.OpEdit, testutils.OpDelete, testutils.OpSend}, fake.Ops())
	assert.Equal(t, domain.RenderFallback, lc.lastRender())
	state := eng.State(chat)
	assert.NotEqual(t, old, state.LastMessageID)
	assert.Equal(t, "Dialog B", fake.Live(chat)[state.LastMessageID])
}

func TestRender_MissingMessageIsReplaced(t *testing.T) {
	eng, fake := newEngine(t, twoDialogs(&trail{}))
	ctx := context.Background()

	require.NoError(t, eng.ChangeDialog(ctx, chat, "a"))
	_, err := eng.DeleteMessage(ctx, chat, eng.State(chat).LastMessageID)
	require.NoError(t, err)

	require.NoError(t, eng.ChangeDialog(ctx, chat, "b"))
	assert.Equal(t, "Dialog B", fake.Live(chat)[eng.State(chat).LastMessageID])
}

func TestRender_BlockedIsSurfaced(t *testing.T) {
	eng, fake := newEngine(t, twoDialogs(&trail{}))
	fake.FailNext(testutils.OpSend, testutils.PlatformErr("sendMessage", "Forbidden: bot was blocked by the user"))

	err := eng.ChangeDialog(context.Background(), chat, "a")
	require.Error(t, err)
	assert.True(t, domain.IsFatalPlatformError(err))
	assert.Len(t, fake.CallsOf(testutils.OpSend), 1, "fatal errors are not retried")
	assert.Equal(t, domain.NoMessage, eng.State(chat).LastMessageID)
}

func TestRender_EmptyTextPlaceholder(t *testing.T) {
	s := domain.Schema{StartDialogID: "blank", Dialogs: []domain.Dialog{{ID: "blank"}}}
	eng, fake := newEngine(t, s)

	require.NoError(t, eng.ChangeDialog(context.Background(), chat, "blank"))
	assert.Equal(t, runtime.DefaultEmptyText, fake.LastCall().Text)
}

func TestRender_DynamicContent(t *testing.T) {
	s := domain.Schema{
		StartDialogID: "hello",
		Dialogs: []domain.Dialog{{
			ID: "hello",
			Text: domain.TextFunc(func(ctx context.Context, id domain.ConversationID) (string, error) {
				return "Hello " + string(rune('A'+id%26)), nil
			}),
		}},
	}
	eng, fake := newEngine(t, s)

	require.NoError(t, eng.ChangeDialog(context.Background(), 1, "hello"))
	assert.Equal(t, "Hello B", fake.LastCall().Text)
}

func imageSchema() domain.Schema {
	return domain.Schema{
		StartDialogID: "text",
		Dialogs: []domain.Dialog{
			{ID: "text", Text: domain.Text("Plain")},
			{
				ID:            "gallery",
				Text:          domain.Text("One picture"),
				Images:        domain.Images("p1"),
				InlineButtons: domain.InlineRows(nextButton("Back", "text")),
			},
			{
				ID:           "album",
				Text:         domain.Text("Many pictures"),
				Images:       domain.Images("p1", "p2", "p3"),
				ReplyButtons: domain.ReplyRows(domain.Row(domain.ReplyButton{Text: domain.Text("Home"), Action: domain.Do(actions.GoTo("text"))})),
			},
		},
	}
}

func TestRender_Images(t *testing.T) {
	eng, fake := newEngine(t, imageSchema())
	ctx := context.Background()

	require.NoError(t, eng.ChangeDialog(ctx, chat, "text"))
	textID := eng.State(chat).LastMessageID
	fake.ClearCalls()

	// A single image replaces the previous text message.
	require.NoError(t, eng.ChangeDialog(ctx, chat, "gallery"))
	assert.Equal(t, []string{testutils.OpDelete, testutils.OpPhoto}, fake.Ops())
	assert.NotContains(t, fake.Live(chat), textID)
	photo := fake.LastCall()
	assert.Equal(t, "One picture", photo.Text)
	require.NotNil(t, photo.Opts.Inline)
	state := eng.State(chat)
	assert.Equal(t, domain.KindPhoto, state.LastKind)
	assert.Equal(t, photo.MessageID, state.LastMessageID)
	fake.ClearCalls()

	// Several images become a media group; the reply keyboard rides in a separate message.
	require.NoError(t, eng.ChangeDialog(ctx, chat, "album"))
	assert.Equal(t, []string{testutils.OpMediaGroup, testutils.OpSend}, fake.Ops())
	group := fake.CallsOf(testutils.OpMediaGroup)[0]
	require.Len(t, group.Photos, 3)
	assert.Equal(t, "Many pictures", group.Photos[0].Caption)
	assert.Empty(t, group.Photos[1].Caption)
	carrier := fake.LastCall()
	require.NotNil(t, carrier.Opts.Reply)

	state = eng.State(chat)
	assert.Equal(t, domain.KindMediaGroup, state.LastKind)
	assert.Equal(t, group.MessageID, state.LastMessageID)
	assert.True(t, state.ReplyKeyboardActive)
	fake.ClearCalls()

	// Back to text: the previous render was not text, so no edit.
	require.NoError(t, eng.ChangeDialog(ctx, chat, "text"))
	assert.Equal(t, []string{testutils.OpDelete, testutils.OpSend}, fake.Ops())
	assert.Equal(t, domain.KindText, eng.State(chat).LastKind)
}

func TestRender_ReplyKeyboardForcesNewMessage(t *testing.T) {
	s := domain.Schema{
		StartDialogID: "plain",
		Dialogs: []domain.Dialog{
			{ID: "plain", Text: domain.Text("Plain")},
			{
				ID:           "menu",
				Text:         domain.Text("Menu"),
				ReplyButtons: domain.ReplyRows(domain.Row(domain.ReplyButton{Text: domain.Text("Help")})),
			},
			{ID: "bare", Text: domain.Text("Bare"), RemoveReplyKeyboard: true},
		},
	}
	eng, fake := newEngine(t, s)
	ctx := context.Background()

	require.NoError(t, eng.ChangeDialog(ctx, chat, "plain"))
	fake.ClearCalls()

	require.NoError(t, eng.ChangeDialog(ctx, chat, "menu"))
	assert.Equal(t, []string{testutils.OpDelete, testutils.OpSend}, fake.Ops())
	require.NotNil(t, fake.LastCall().Opts.Reply)
	assert.True(t, fake.LastCall().Opts.Reply.Resize)
	assert.True(t, eng.State(chat).ReplyKeyboardActive)
	fake.ClearCalls()

	// Keyboard already shown: the menu can be edited in place.
	require.NoError(t, eng.ChangeDialog(ctx, chat, "plain"))
	assert.Equal(t, []string{testutils.OpEdit}, fake.Ops())
	fake.ClearCalls()

	require.NoError(t, eng.ChangeDialog(ctx, chat, "bare"))
	assert.Equal(t, []string{testutils.OpDelete, testutils.OpSend}, fake.Ops())
	assert.NotNil(t, fake.LastCall().Opts.Remove)
	assert.False(t, eng.State(chat).ReplyKeyboardActive)
}
