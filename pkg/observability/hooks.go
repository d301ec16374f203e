package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/tgflow/pkg/domain"
)

// LoggingHooks logs every lifecycle event.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnDialogEnter: func(ctx context.Context, e *domain.DialogEvent) {
			logger.InfoContext(ctx, "dialog_enter",
				"conversation", int64(e.Conversation),
				"dialog_id", e.DialogID,
				"from", e.OtherDialogID,
			)
		},
		OnDialogLeave: func(ctx context.Context, e *domain.DialogEvent) {
			logger.DebugContext(ctx, "dialog_leave",
				"conversation", int64(e.Conversation),
				"dialog_id", e.DialogID,
				"to", e.OtherDialogID,
			)
		},
		OnRender: func(ctx context.Context, e *domain.RenderEvent) {
			logger.DebugContext(ctx, "render",
				"conversation", int64(e.Conversation),
				"dialog_id", e.DialogID,
				"mode", string(e.Mode),
				"message_id", e.MessageID,
			)
		},
		OnWaitResolved: func(ctx context.Context, e *domain.WaitEvent) {
			logger.InfoContext(ctx, "wait_resolved",
				"conversation", int64(e.Conversation),
				"wait_id", e.WaitID,
				"status", e.Status.String(),
			)
		},
		OnActionError: func(ctx context.Context, e *domain.ActionErrorEvent) {
			logger.ErrorContext(ctx, "action_error",
				"conversation", int64(e.Conversation),
				"dialog_id", e.DialogID,
				"err", e.Err,
			)
		},
	}
}

// ChainHooks merges several hook sets; each callback runs in argument order.
func ChainHooks(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnDialogEnter = chain(out.OnDialogEnter, h.OnDialogEnter)
		out.OnDialogLeave = chain(out.OnDialogLeave, h.OnDialogLeave)
		out.OnRender = chain(out.OnRender, h.OnRender)
		out.OnWaitResolved = chain(out.OnWaitResolved, h.OnWaitResolved)
		out.OnActionError = chain(out.OnActionError, h.OnActionError)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
