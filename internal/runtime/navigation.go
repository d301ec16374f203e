package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/tgflow/pkg/domain"
)

// ChangeDialog moves a conversation to dialogID and renders it.
//
// An unknown dialog fails with *domain.DialogNotFoundError and leaves the
// state untouched. A pending wait is cancelled. Hook errors do not undo the
// transition; they are returned together with any render error.
func (e *Engine) ChangeDialog(ctx context.Context, id domain.ConversationID, dialogID string) error {
	target, ok := e.schema.Dialog(dialogID)
	if !ok {
		return &domain.DialogNotFoundError{DialogID: dialogID, Conversation: id}
	}

	state := e.store.Snapshot(id)
	e.cancelPendingWait(id, state, "")

	previousID := state.CurrentDialogID
	var errs []error

	if previous, ok := e.schema.Dialog(previousID); ok && previous.OnLeave != nil {
		if err := e.runHook(ctx, previous.OnLeave, id, previousID, dialogID); err != nil {
			errs = append(errs, fmt.Errorf("leave hook of %q: %w", previousID, err))
		}
	}
	e.emitDialogLeave(ctx, id, previousID, dialogID)

	e.store.SetDialog(id, dialogID)
	e.logger.Debug("dialog changed", "conversation", id, "from", previousID, "to", dialogID)

	if target.OnEnter != nil {
		if err := e.runHook(ctx, target.OnEnter, id, dialogID, previousID); err != nil {
			errs = append(errs, fmt.Errorf("enter hook of %q: %w", dialogID, err))
		}
	}
	e.emitDialogEnter(ctx, id, dialogID, previousID)

	if err := e.render(ctx, id, target); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Reset deletes the last bot message, clears the conversation state and
// shows the start dialog.
func (e *Engine) Reset(ctx context.Context, id domain.ConversationID) error {
	state := e.store.Snapshot(id)
	e.cancelPendingWait(id, state, "")
	if state.HasMessage() {
		e.deleteQuiet(ctx, id, state.LastMessageID)
	}
	e.store.Reset(id)
	return e.ChangeDialog(ctx, id, e.schema.StartDialogID())
}

// cancelPendingWait cancels and clears the wait recorded in state, if any.
func (e *Engine) cancelPendingWait(id domain.ConversationID, state domain.State, reason string) {
	if state.Wait == nil {
		return
	}
	e.waits.Cancel(state.Wait.ID, reason)
	e.store.ClearWaitIf(id, state.Wait.ID)
}

func (e *Engine) runHook(ctx context.Context, hook domain.DialogHook, id domain.ConversationID, dialogID, other string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hook of dialog %q panicked: %v", dialogID, r)
		}
	}()
	hc := &domain.HookContext{
		ActionContext: *e.actionContext(id, nil),
		OtherDialogID: other,
	}
	return hook(ctx, hc)
}
