package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/tgflow/pkg/domain"
	"github.com/aretw0/tgflow/pkg/middleware"
	"github.com/aretw0/tgflow/pkg/waits"
)

// HandleUpdate routes one inbound update. Action errors are handled at the
// dispatch boundary; the returned error reports middleware failures and
// platform failures that must be surfaced, such as a blocked user.
func (e *Engine) HandleUpdate(ctx context.Context, u *domain.Update) error {
	if u == nil {
		return nil
	}
	if e.stopped.Load() {
		return domain.ErrStopped
	}
	if u.Kind == domain.UpdateMessage {
		if name, args, ok := domain.ParseCommand(u.Text); ok {
			u.Kind, u.Command, u.CommandArgs = domain.UpdateCommand, name, args
		}
	}

	switch u.Kind {
	case domain.UpdateCommand:
		return e.handleCommand(ctx, u)
	case domain.UpdateCallback:
		return e.handleCallback(ctx, u)
	case domain.UpdateMessage:
		return e.handleMessage(ctx, u)
	case domain.UpdateDocument, domain.UpdatePhoto:
		return e.handleFile(ctx, u)
	case domain.UpdateContact, domain.UpdateLocation:
		return e.handleShared(ctx, u)
	}
	return fmt.Errorf("unsupported update kind %q", u.Kind)
}

func (e *Engine) runMiddleware(ctx context.Context, u *domain.Update) (bool, error) {
	completed, err := e.pipeline.Execute(ctx, middleware.NewContext(u), nil)
	if err != nil {
		return false, fmt.Errorf("middleware: %w", err)
	}
	if !completed {
		e.logger.Debug("update stopped by middleware", "conversation", u.Conversation, "kind", u.Kind)
	}
	return completed, nil
}

func (e *Engine) handleCommand(ctx context.Context, u *domain.Update) error {
	if ok, err := e.runMiddleware(ctx, u); !ok {
		return err
	}
	id := u.Conversation

	if info := e.pendingWait(id); info != nil && e.waits.IsCancelInput(info.ID, u.Text) {
		return e.handleTextInput(ctx, u, info.ID)
	}

	if u.Command == "start" && e.config.EnableStartCommand {
		e.deleteUserMessage(ctx, u)
		return e.navigate(ctx, id, func() error { return e.Reset(ctx, id) })
	}

	cmd, ok := e.schema.Command(u.Command)
	if !ok || len(cmd.Action) == 0 {
		e.logger.Debug("unknown command", "conversation", id, "command", u.Command)
		return nil
	}
	e.Execute(ctx, cmd.Action, e.actionContext(id, u))
	return nil
}

func (e *Engine) handleCallback(ctx context.Context, u *domain.Update) error {
	id := u.Conversation
	if u.CallbackID != "" {
		if err := e.platform.AnswerCallback(ctx, u.CallbackID, nil); err != nil {
			e.logger.Warn("failed to answer callback", "conversation", id, "err", err)
		}
	}
	if ok, err := e.runMiddleware(ctx, u); !ok {
		return err
	}

	if u.MessageID != 0 {
		e.store.SetLastMessage(id, u.MessageID)
	}
	if u.CallbackData == "" {
		return nil
	}

	entry, ok := e.buttons.Inline(u.CallbackData)
	if !ok {
		e.logger.Warn("unknown button token, returning to start", "conversation", id, "token", u.CallbackData)
		return e.navigate(ctx, id, func() error { return e.ChangeDialog(ctx, id, e.schema.StartDialogID()) })
	}
	if len(entry.Button.Action) == 0 {
		return nil
	}
	e.Execute(ctx, entry.Button.Action, e.actionContext(id, u))
	return nil
}

func (e *Engine) handleMessage(ctx context.Context, u *domain.Update) error {
	if ok, err := e.runMiddleware(ctx, u); !ok {
		return err
	}
	id := u.Conversation

	if info := e.pendingWait(id); info != nil {
		if domain.Accepts(info.Kinds, domain.InputText) || e.waits.IsCancelInput(info.ID, u.Text) {
			return e.handleTextInput(ctx, u, info.ID)
		}
	}

	state := e.store.Snapshot(id)
	if e.handleReplyButton(ctx, u, state.CurrentDialogID) {
		return nil
	}

	fallback := e.schema.Fallback()
	if state.ReplyKeyboardActive && len(e.schema.ReplyFallback()) > 0 {
		fallback = e.schema.ReplyFallback()
	}
	if len(fallback) == 0 {
		e.logger.Debug("unhandled message", "conversation", id)
		return nil
	}
	e.Execute(ctx, fallback, e.actionContext(id, u))
	return nil
}

// handleReplyButton runs the first reply button registered under the text,
// preferring the current dialog over other dialogs.
func (e *Engine) handleReplyButton(ctx context.Context, u *domain.Update, dialogID string) bool {
	entries := e.buttons.FindReply(u.Text, dialogID)
	if len(entries) == 0 {
		entries = e.buttons.FindReply(u.Text, "")
	}
	for _, entry := range entries {
		if len(entry.Button.Action) == 0 {
			continue
		}
		e.deleteUserMessage(ctx, u)
		e.Execute(ctx, entry.Button.Action, e.actionContext(u.Conversation, u))
		return true
	}
	return false
}

func (e *Engine) handleShared(ctx context.Context, u *domain.Update) error {
	if ok, err := e.runMiddleware(ctx, u); !ok {
		return err
	}
	id := u.Conversation

	kind, res := domain.InputContact, domain.WaitResult{Status: domain.WaitSuccess}
	var payload any
	switch {
	case u.Kind == domain.UpdateContact && u.Contact != nil:
		res.Contact, payload = u.Contact, *u.Contact
	case u.Kind == domain.UpdateLocation && u.Location != nil:
		kind, res.Location, payload = domain.InputLocation, u.Location, *u.Location
	default:
		return nil
	}

	if info := e.pendingWait(id); info != nil && domain.Accepts(info.Kinds, kind) {
		e.deleteUserMessage(ctx, u)
		e.resolveWait(id, info.ID, res)
	}
	e.Emit(ctx, string(kind), id, payload)
	return nil
}

// navigate runs a runtime-initiated transition. Fatal platform errors are
// returned; anything else is handled like an action error.
func (e *Engine) navigate(ctx context.Context, id domain.ConversationID, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	if domain.IsFatalPlatformError(err) {
		return err
	}
	e.handleActionError(ctx, id, err)
	return nil
}

// pendingWait returns the live wait of a conversation, clearing a stale
// reference left by a wait that already resolved.
func (e *Engine) pendingWait(id domain.ConversationID) *waits.Info {
	state := e.store.Snapshot(id)
	if state.Wait == nil {
		return nil
	}
	info, ok := e.waits.Get(state.Wait.ID)
	if !ok {
		e.store.ClearWaitIf(id, state.Wait.ID)
		return nil
	}
	return &info
}
