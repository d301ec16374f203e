package runtime

import (
	"context"

	"github.com/aretw0/tgflow/pkg/domain"
)

// SendMessage sends a standalone message outside the dialog flow.
// The configured parse mode applies when opts sets none.
func (e *Engine) SendMessage(ctx context.Context, id domain.ConversationID, text string, opts *domain.SendOptions) (domain.Message, error) {
	o := domain.SendOptions{}
	if opts != nil {
		o = *opts
	}
	if o.ParseMode == "" {
		o.ParseMode = e.config.ParseMode
	}
	return e.platform.SendMessage(ctx, id, text, &o)
}

// DeleteMessage deletes a message. It returns false without error when the
// message was already gone.
func (e *Engine) DeleteMessage(ctx context.Context, id domain.ConversationID, messageID int64) (bool, error) {
	if err := e.platform.DeleteMessage(ctx, id, messageID); err != nil {
		if domain.ClassifyPlatformError(err) == domain.PlatformMessageNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// State returns a snapshot of the conversation state.
func (e *Engine) State(id domain.ConversationID) domain.State {
	return e.store.Snapshot(id)
}

// SetData stores an application value for the conversation.
func (e *Engine) SetData(id domain.ConversationID, key string, value any) {
	e.store.SetData(id, key, value)
}

// Data reads an application value.
func (e *Engine) Data(id domain.ConversationID, key string) (any, bool) {
	return e.store.Data(id, key)
}

// DeleteData removes an application value.
func (e *Engine) DeleteData(id domain.ConversationID, key string) bool {
	return e.store.DeleteData(id, key)
}

// Emit publishes a named event to the handlers registered with On.
func (e *Engine) Emit(ctx context.Context, event string, id domain.ConversationID, args ...any) {
	n := e.events.Emit(ctx, event, id, args...)
	e.logger.Debug("event emitted", "event", event, "conversation", id, "handlers", n)
}

// deleteUserMessage removes a consumed user message when auto-deletion is on.
func (e *Engine) deleteUserMessage(ctx context.Context, u *domain.Update) {
	if !e.config.AutoDeleteUserMessages || u == nil || u.MessageID == 0 {
		return
	}
	e.deleteQuiet(ctx, u.Conversation, u.MessageID)
}
