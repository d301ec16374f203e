package runtime

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/aretw0/tgflow/pkg/domain"
)

func (e *Engine) actionContext(id domain.ConversationID, u *domain.Update) *domain.ActionContext {
	ac := &domain.ActionContext{
		Conversation: id,
		Bot:          e,
		Update:       u,
		Logger:       e.logger.With("conversation", id),
	}
	if u != nil {
		ac.CommandArgs = u.CommandArgs
	}
	return ac
}

// Execute runs actions in order, stopping at the first error.
// Errors and panics are handled at this boundary: they are logged, reported
// to the OnActionError hook and, when an error dialog is configured, the
// conversation is moved there. Execute itself never fails.
func (e *Engine) Execute(ctx context.Context, as domain.Actions, ac *domain.ActionContext) {
	if len(as) == 0 {
		return
	}
	err := e.runActions(ctx, as, ac)
	if err == nil {
		return
	}
	e.handleActionError(ctx, ac.Conversation, err)
}

func (e *Engine) runActions(ctx context.Context, as domain.Actions, ac *domain.ActionContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Debug("action panic stack", "stack", string(debug.Stack()))
			err = fmt.Errorf("action panicked: %v", r)
		}
	}()
	for _, a := range as {
		if err := a.Run(ctx, ac); err != nil {
			return fmt.Errorf("action %s: %w", domain.ActionName(a), err)
		}
	}
	return nil
}

func (e *Engine) handleActionError(ctx context.Context, id domain.ConversationID, err error) {
	dialogID := e.store.Snapshot(id).CurrentDialogID
	e.logger.Error("action failed", "conversation", id, "dialog", dialogID, "err", err)
	e.emitActionError(ctx, id, dialogID, err)

	if domain.IsFatalPlatformError(err) {
		return
	}
	errorDialog := e.schema.ErrorDialogID()
	if errorDialog == "" {
		return
	}
	if navErr := e.ChangeDialog(ctx, id, errorDialog); navErr != nil {
		e.logger.Error("failed to show error dialog", "conversation", id, "dialog", errorDialog, "err", navErr)
	}
}
