package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/tgflow/pkg/domain"
)

// content is a dialog resolved for one conversation.
type content struct {
	text   string
	images []string
	inline *domain.InlineKeyboard
	reply  *domain.ReplyKeyboard
	remove *domain.RemoveKeyboard
}

// markup returns the single markup a message can carry: inline first,
// then the reply keyboard, then the removal marker.
func (c *content) markup(opts domain.SendOptions) *domain.SendOptions {
	switch {
	case c.inline != nil:
		opts.Inline = c.inline
	case c.reply != nil:
		opts.Reply = c.reply
	case c.remove != nil:
		opts.Remove = c.remove
	}
	return &opts
}

func (e *Engine) resolveContent(ctx context.Context, id domain.ConversationID, d *domain.Dialog) (*content, error) {
	c := &content{}
	var err error

	if c.text, err = d.Text.Resolve(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to resolve text: %w", err)
	}
	if c.images, err = d.Images.Resolve(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to resolve images: %w", err)
	}
	if c.inline, err = e.keyboards.BuildInline(ctx, d.ID, d.InlineButtons, id); err != nil {
		return nil, err
	}
	if d.RemoveReplyKeyboard {
		c.remove = e.keyboards.BuildRemove(false)
	} else if c.reply, err = e.keyboards.BuildReply(ctx, d.ID, d.ReplyButtons, id, d.ReplyKeyboardOptions); err != nil {
		return nil, err
	}
	return c, nil
}

// render reconciles the conversation's last message with the dialog.
// Text dialogs edit the previous text message in place when they can;
// image dialogs always send new messages. Non-fatal failures fall back once
// to deleting the stale message and sending fresh text.
func (e *Engine) render(ctx context.Context, id domain.ConversationID, d *domain.Dialog) error {
	c, err := e.resolveContent(ctx, id, d)
	if err != nil {
		return fmt.Errorf("failed to render dialog %q: %w", d.ID, err)
	}

	state := e.store.Snapshot(id)
	base := domain.SendOptions{
		ParseMode:          e.config.ParseMode,
		DisableLinkPreview: d.DisableLinkPreview,
		ProtectContent:     d.ProtectContent,
	}
	// The reply keyboard can only change with a new message.
	keyboardChange := (c.reply != nil && !state.ReplyKeyboardActive) || (c.remove != nil && state.ReplyKeyboardActive)

	var mode domain.RenderMode
	if len(c.images) > 0 {
		mode, err = e.renderImages(ctx, id, state, c, base, keyboardChange)
	} else {
		mode, err = e.renderText(ctx, id, state, c, base, keyboardChange)
	}

	if err != nil {
		if domain.IsFatalPlatformError(err) {
			return err
		}
		e.logger.Warn("render failed, sending new message", "conversation", id, "dialog", d.ID, "err", err)
		if mode, err = e.renderFallback(ctx, id, c, base, keyboardChange); err != nil {
			return fmt.Errorf("failed to render dialog %q: %w", d.ID, err)
		}
	}

	e.trackKeyboard(id, c)
	e.emitRender(ctx, id, d.ID, mode, e.store.Snapshot(id).LastMessageID)
	return nil
}

func (e *Engine) renderText(ctx context.Context, id domain.ConversationID, state domain.State, c *content, base domain.SendOptions, keyboardChange bool) (domain.RenderMode, error) {
	text := c.text
	if text == "" {
		text = e.config.EmptyText
	}

	if state.LastKind == domain.KindText && state.HasMessage() && !keyboardChange {
		opts := base
		opts.Inline = c.inline
		err := e.platform.EditMessageText(ctx, id, state.LastMessageID, text, &opts)
		switch {
		case err == nil:
			e.store.SetLastRender(id, state.LastMessageID, domain.KindText)
			return domain.RenderEdit, nil
		case domain.ClassifyPlatformError(err) == domain.PlatformNotModified:
			return domain.RenderUnchanged, nil
		default:
			return "", err
		}
	}

	if state.HasMessage() {
		e.deleteQuiet(ctx, id, state.LastMessageID)
	}
	if err := e.sendText(ctx, id, text, c, base, keyboardChange); err != nil {
		return "", err
	}
	return domain.RenderSend, nil
}

func (e *Engine) sendText(ctx context.Context, id domain.ConversationID, text string, c *content, base domain.SendOptions, keyboardChange bool) error {
	msg, err := e.platform.SendMessage(ctx, id, text, c.markup(base))
	if err != nil {
		return err
	}
	e.store.SetLastRender(id, msg.ID, domain.KindText)

	if c.inline != nil && keyboardChange {
		return e.sendKeyboardCarrier(ctx, id, c, base)
	}
	return nil
}

func (e *Engine) renderImages(ctx context.Context, id domain.ConversationID, state domain.State, c *content, base domain.SendOptions, keyboardChange bool) (domain.RenderMode, error) {
	if state.LastKind == domain.KindText && state.HasMessage() {
		e.deleteQuiet(ctx, id, state.LastMessageID)
		e.store.SetLastRender(id, domain.NoMessage, domain.KindText)
	}

	if len(c.images) == 1 {
		msg, err := e.platform.SendPhoto(ctx, id, c.images[0], c.text, c.markup(base))
		if err != nil {
			return "", err
		}
		e.store.SetLastRender(id, msg.ID, domain.KindPhoto)
		if c.inline != nil && keyboardChange {
			if err := e.sendKeyboardCarrier(ctx, id, c, base); err != nil {
				return "", err
			}
		}
		return domain.RenderPhoto, nil
	}

	photos := make([]domain.MediaPhoto, len(c.images))
	for i, ref := range c.images {
		photos[i] = domain.MediaPhoto{Ref: ref, ParseMode: base.ParseMode}
	}
	photos[0].Caption = c.text

	msgs, err := e.platform.SendMediaGroup(ctx, id, photos, &base)
	if err != nil {
		return "", err
	}
	if len(msgs) > 0 {
		e.store.SetLastRender(id, msgs[len(msgs)-1].ID, domain.KindMediaGroup)
	}
	if c.inline != nil {
		e.logger.Warn("inline buttons are not supported on media groups", "conversation", id)
	}
	if c.reply != nil || keyboardChange {
		if err := e.sendKeyboardCarrier(ctx, id, c, base); err != nil {
			return "", err
		}
	}
	return domain.RenderMediaGroup, nil
}

// sendKeyboardCarrier delivers the reply keyboard (or its removal) in a
// separate message when the main message cannot carry it.
func (e *Engine) sendKeyboardCarrier(ctx context.Context, id domain.ConversationID, c *content, base domain.SendOptions) error {
	opts := base
	opts.Reply = c.reply
	opts.Remove = c.remove
	_, err := e.platform.SendMessage(ctx, id, keyboardCarrierText, &opts)
	return err
}

func (e *Engine) renderFallback(ctx context.Context, id domain.ConversationID, c *content, base domain.SendOptions, keyboardChange bool) (domain.RenderMode, error) {
	state := e.store.Snapshot(id)
	if state.HasMessage() {
		e.deleteQuiet(ctx, id, state.LastMessageID)
	}
	text := c.text
	if text == "" {
		text = e.config.EmptyText
	}
	if err := e.sendText(ctx, id, text, c, base, keyboardChange); err != nil {
		return "", err
	}
	return domain.RenderFallback, nil
}

// trackKeyboard records the reply keyboard visibility after a render.
func (e *Engine) trackKeyboard(id domain.ConversationID, c *content) {
	switch {
	case c.reply != nil:
		e.store.SetReplyKeyboardActive(id, true)
	case c.remove != nil:
		e.store.SetReplyKeyboardActive(id, false)
	}
}

// deleteQuiet deletes a message, logging failures other than a missing message.
func (e *Engine) deleteQuiet(ctx context.Context, id domain.ConversationID, messageID int64) {
	if messageID == domain.NoMessage {
		return
	}
	err := e.platform.DeleteMessage(ctx, id, messageID)
	if err != nil && domain.ClassifyPlatformError(err) != domain.PlatformMessageNotFound {
		e.logger.Warn("failed to delete message", "conversation", id, "message_id", messageID, "err", err)
	}
}
