package actions

import (
	"context"

	"github.com/aretw0/tgflow/pkg/domain"
)

// SetData stores a value in the conversation data.
func SetData(key string, value any) domain.Action {
	return domain.ActionFunc(func(ctx context.Context, ac *domain.ActionContext) error {
		ac.Bot.SetData(ac.Conversation, key, value)
		return nil
	})
}

// SetDataFunc stores a computed value in the conversation data.
func SetDataFunc(key string, fn func(ctx context.Context, ac *domain.ActionContext) (any, error)) domain.Action {
	return domain.ActionFunc(func(ctx context.Context, ac *domain.ActionContext) error {
		v, err := fn(ctx, ac)
		if err != nil {
			return err
		}
		ac.Bot.SetData(ac.Conversation, key, v)
		return nil
	})
}

// DeleteData removes a value from the conversation data.
func DeleteData(key string) domain.Action {
	return domain.ActionFunc(func(ctx context.Context, ac *domain.ActionContext) error {
		ac.Bot.DeleteData(ac.Conversation, key)
		return nil
	})
}
