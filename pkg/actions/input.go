package actions

import (
	"context"

	"github.com/aretw0/tgflow/pkg/domain"
)

// ResultHandler receives the outcome of a wait.
type ResultHandler func(ctx context.Context, ac *domain.ActionContext, res domain.WaitResult) error

// WaitForText waits for a text reply and hands the result to handle.
func WaitForText(opts domain.WaitOptions, handle ResultHandler) domain.Action {
	return domain.ActionFunc(func(ctx context.Context, ac *domain.ActionContext) error {
		res, err := ac.Bot.WaitForText(ctx, ac.Conversation, &opts)
		if err != nil {
			return err
		}
		return handle(ctx, ac, res)
	})
}

// WaitForFile waits for a document (or the kinds set in opts).
func WaitForFile(opts domain.WaitOptions, handle ResultHandler) domain.Action {
	return domain.ActionFunc(func(ctx context.Context, ac *domain.ActionContext) error {
		res, err := ac.Bot.WaitForFile(ctx, ac.Conversation, &opts)
		if err != nil {
			return err
		}
		return handle(ctx, ac, res)
	})
}

// WaitForPhoto waits for a photo.
func WaitForPhoto(opts domain.WaitOptions, handle ResultHandler) domain.Action {
	opts.Kinds = []domain.InputKind{domain.InputPhoto}
	return WaitForFile(opts, handle)
}

// EmitResult publishes the outcome as events: event on success,
// event+"_cancelled", event+"_timeout" or event+"_failed" otherwise. The
// payload is the text value, the file for file waits, or the failure cause.
func EmitResult(event string) ResultHandler {
	return func(ctx context.Context, ac *domain.ActionContext, res domain.WaitResult) error {
		switch {
		case res.Cancelled():
			ac.Bot.Emit(ctx, event+"_cancelled", ac.Conversation)
		case res.TimedOut():
			ac.Bot.Emit(ctx, event+"_timeout", ac.Conversation)
		case res.Failed():
			ac.Bot.Emit(ctx, event+"_failed", ac.Conversation, res.Error)
		case res.File != nil:
			ac.Bot.Emit(ctx, event, ac.Conversation, res.File)
		default:
			ac.Bot.Emit(ctx, event, ac.Conversation, res.Value)
		}
		return nil
	}
}

// StoreResult saves a successful text value under key.
func StoreResult(key string, then domain.Action) ResultHandler {
	return func(ctx context.Context, ac *domain.ActionContext, res domain.WaitResult) error {
		if !res.OK() {
			return nil
		}
		ac.Bot.SetData(ac.Conversation, key, res.Value)
		if then != nil {
			return then.Run(ctx, ac)
		}
		return nil
	}
}
