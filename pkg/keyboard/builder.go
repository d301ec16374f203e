// Package keyboard turns dialog button definitions into platform markup,
// registering every button in a registry as it goes.
package keyboard

import (
	"context"
	"fmt"

	"github.com/aretw0/tgflow/pkg/domain"
	"github.com/aretw0/tgflow/pkg/registry"
)

// Builder renders keyboards for a single registry.
type Builder struct {
	reg *registry.Registry
}

// NewBuilder creates a builder registering buttons into reg.
func NewBuilder(reg *registry.Registry) *Builder {
	return &Builder{reg: reg}
}

// BuildInline resolves dynamic fields for the conversation, registers each
// button and returns the markup. Positions are counted across rows so two
// identical buttons in different rows receive different tokens.
func (b *Builder) BuildInline(ctx context.Context, dialogID string, src domain.InlineSource, conv domain.ConversationID) (*domain.InlineKeyboard, error) {
	rows, err := src.Resolve(ctx, conv)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve inline buttons of %q: %w", dialogID, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	kb := &domain.InlineKeyboard{Rows: make([][]domain.InlineKey, 0, len(rows))}
	pos := 0
	for _, row := range rows {
		keys := make([]domain.InlineKey, 0, len(row))
		for _, btn := range row {
			key, err := b.inlineKey(ctx, dialogID, btn, pos, conv)
			if err != nil {
				return nil, err
			}
			keys = append(keys, key)
			pos++
		}
		if len(keys) > 0 {
			kb.Rows = append(kb.Rows, keys)
		}
	}
	if len(kb.Rows) == 0 {
		return nil, nil
	}
	return kb, nil
}

func (b *Builder) inlineKey(ctx context.Context, dialogID string, btn domain.InlineButton, pos int, conv domain.ConversationID) (domain.InlineKey, error) {
	text, err := btn.Text.Resolve(ctx, conv)
	if err != nil {
		return domain.InlineKey{}, fmt.Errorf("failed to resolve button text in %q: %w", dialogID, err)
	}
	key := domain.InlineKey{Text: text}

	switch {
	case btn.URL.IsSet():
		if key.URL, err = btn.URL.Resolve(ctx, conv); err != nil {
			return domain.InlineKey{}, fmt.Errorf("failed to resolve button url in %q: %w", dialogID, err)
		}
	case btn.WebApp.IsSet():
		if key.WebApp, err = btn.WebApp.Resolve(ctx, conv); err != nil {
			return domain.InlineKey{}, fmt.Errorf("failed to resolve button web app in %q: %w", dialogID, err)
		}
	default:
		key.CallbackData = b.reg.RegisterInline(dialogID, btn, pos)
	}
	return key, nil
}

// BuildReply resolves labels, registers them and returns a reply keyboard.
// Request flags are passed through unchanged.
func (b *Builder) BuildReply(ctx context.Context, dialogID string, src domain.ReplySource, conv domain.ConversationID, opts *domain.ReplyKeyboardOptions) (*domain.ReplyKeyboard, error) {
	rows, err := src.Resolve(ctx, conv)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve reply buttons of %q: %w", dialogID, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	o := domain.DefaultReplyKeyboardOptions()
	if opts != nil {
		o = *opts
	}
	kb := &domain.ReplyKeyboard{
		Rows:        make([][]domain.ReplyKey, 0, len(rows)),
		Resize:      o.Resize,
		OneTime:     o.OneTime,
		Placeholder: o.Placeholder,
		Selective:   o.Selective,
		Persistent:  o.Persistent,
	}
	for _, row := range rows {
		keys := make([]domain.ReplyKey, 0, len(row))
		for _, btn := range row {
			text, err := btn.Text.Resolve(ctx, conv)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve reply button text in %q: %w", dialogID, err)
			}
			b.reg.RegisterReply(dialogID, text, btn)
			keys = append(keys, domain.ReplyKey{
				Text:            text,
				RequestContact:  btn.RequestContact,
				RequestLocation: btn.RequestLocation,
				RequestPoll:     btn.RequestPoll,
			})
		}
		if len(keys) > 0 {
			kb.Rows = append(kb.Rows, keys)
		}
	}
	if len(kb.Rows) == 0 {
		return nil, nil
	}
	return kb, nil
}

// BuildRemove returns the marker hiding a persistent keyboard. Callers must
// record the keyboard as inactive.
func (b *Builder) BuildRemove(selective bool) *domain.RemoveKeyboard {
	return &domain.RemoveKeyboard{Selective: selective}
}
