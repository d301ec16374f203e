package actions

import (
	"context"
	"time"

	"github.com/aretw0/tgflow/pkg/domain"
)

// Notify sends a standalone message. With autoDelete > 0 the message is
// removed after that delay; failures to delete are ignored.
func Notify(text string, autoDelete time.Duration) domain.Action {
	return NotifyFunc(domain.Text(text), autoDelete)
}

// NotifyFunc is Notify with a per-conversation text.
func NotifyFunc(text domain.TextSource, autoDelete time.Duration) domain.Action {
	return domain.ActionFunc(func(ctx context.Context, ac *domain.ActionContext) error {
		body, err := text.Resolve(ctx, ac.Conversation)
		if err != nil {
			return err
		}
		msg, err := ac.Bot.SendMessage(ctx, ac.Conversation, body, nil)
		if err != nil {
			return err
		}
		if autoDelete > 0 {
			bot, conv := ac.Bot, ac.Conversation
			time.AfterFunc(autoDelete, func() {
				_, _ = bot.DeleteMessage(context.Background(), conv, msg.ID)
			})
		}
		return nil
	})
}
