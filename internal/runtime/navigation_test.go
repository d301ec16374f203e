package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/tgflow/internal/runtime"
	"github.com/aretw0/tgflow/internal/testutils"
	"github.com/aretw0/tgflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenario_CallbackNavigatesAndEditsInPlace(t *testing.T) {
	tr := &trail{}
	eng, fake := newEngine(t, twoDialogs(tr))
	ctx := context.Background()

	require.NoError(t, eng.ChangeDialog(ctx, chat, "a"))
	first := eng.State(chat).LastMessageID
	require.NotEqual(t, domain.NoMessage, first)
	tr.reset()

	require.NoError(t, eng.HandleUpdate(ctx, callback(fake.Token("Next"), first)))

	assert.Equal(t, []string{"leave:a:b", "enter:b:a"}, tr.get())
	state := eng.State(chat)
	assert.Equal(t, "b", state.CurrentDialogID)
	assert.Equal(t, first, state.LastMessageID)
	assert.Equal(t, domain.KindText, state.LastKind)

	assert.Equal(t, []string{testutils.OpSend, testutils.OpAnswer, testutils.OpEdit}, fake.Ops())
	edit := fake.LastCall()
	assert.Equal(t, first, edit.MessageID)
	assert.Equal(t, "Dialog B", edit.Text)
	assert.Equal(t, "HTML", edit.Opts.ParseMode)
}

func TestChangeDialog_NotFound(t *testing.T) {
	eng, fake := newEngine(t, twoDialogs(&trail{}))
	ctx := context.Background()

	require.NoError(t, eng.ChangeDialog(ctx, chat, "b"))
	fake.ClearCalls()

	err := eng.ChangeDialog(ctx, chat, "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDialogNotFound))

	var nf *domain.DialogNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "missing", nf.DialogID)

	assert.Equal(t, "b", eng.State(chat).CurrentDialogID)
	assert.Empty(t, fake.Calls())
}

func TestChangeDialog_HookErrorDoesNotBlockTransition(t *testing.T) {
	s := twoDialogs(&trail{})
	boom := errors.New("enter failed")
	s.Dialogs[1].OnEnter = func(ctx context.Context, hc *domain.HookContext) error { return boom }
	eng, _ := newEngine(t, s)

	err := eng.ChangeDialog(context.Background(), chat, "b")
	require.ErrorIs(t, err, boom)
	assert.Equal(t, "b", eng.State(chat).CurrentDialogID)
	assert.NotEqual(t, domain.NoMessage, eng.State(chat).LastMessageID, "the dialog is still rendered")
}

func TestChangeDialog_HookPanicIsRecovered(t *testing.T) {
	s := twoDialogs(&trail{})
	s.Dialogs[1].OnEnter = func(ctx context.Context, hc *domain.HookContext) error { panic("bad hook") }
	eng, _ := newEngine(t, s)

	err := eng.ChangeDialog(context.Background(), chat, "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
	assert.Equal(t, "b", eng.State(chat).CurrentDialogID)
}

func TestChangeDialog_LifecycleHooks(t *testing.T) {
	lc := &lifecycle{}
	eng, _ := newEngine(t, twoDialogs(&trail{}), runtime.WithLifecycleHooks(lc.hooks()))
	ctx := context.Background()

	require.NoError(t, eng.ChangeDialog(ctx, chat, "a"))
	require.NoError(t, eng.ChangeDialog(ctx, chat, "b"))

	assert.Equal(t, []string{"a", "b"}, lc.enters)
	assert.Equal(t, []domain.RenderMode{domain.RenderSend, domain.RenderEdit}, lc.renders)
}

func TestReset(t *testing.T) {
	eng, fake := newEngine(t, twoDialogs(&trail{}))
	ctx := context.Background()

	require.NoError(t, eng.ChangeDialog(ctx, chat, "b"))
	old := eng.State(chat).LastMessageID
	eng.SetData(chat, "k", "v")

	require.NoError(t, eng.Reset(ctx, chat))

	state := eng.State(chat)
	assert.Equal(t, "a", state.CurrentDialogID)
	assert.Empty(t, state.Data)
	assert.NotEqual(t, old, state.LastMessageID)
	assert.NotContains(t, fake.Live(chat), old, "the previous bot message is deleted")
}
