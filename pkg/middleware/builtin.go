package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/tgflow/pkg/domain"
)

// Logging logs every inbound update at debug level.
func Logging(logger *slog.Logger) Func {
	return func(ctx context.Context, mc *Context, next Next) error {
		u := mc.Update
		logger.Debug("update received",
			"conversation", int64(u.Conversation),
			"kind", string(u.Kind),
			"user_id", u.UserID,
			"username", u.Username,
		)
		next()
		return nil
	}
}

// AllowUsers drops updates from users outside the allow-list.
// onDenied, when set, is called for every dropped update.
func AllowUsers(onDenied func(ctx context.Context, u *domain.Update), userIDs ...int64) Func {
	allowed := make(map[int64]struct{}, len(userIDs))
	for _, id := range userIDs {
		allowed[id] = struct{}{}
	}
	return func(ctx context.Context, mc *Context, next Next) error {
		if _, ok := allowed[mc.Update.UserID]; ok {
			next()
			return nil
		}
		if onDenied != nil {
			onDenied(ctx, mc.Update)
		}
		return nil
	}
}

// Throttle drops updates arriving within interval of the previous accepted
// update of the same conversation. Callback acknowledgements are not affected
// because the runtime answers them before the chain runs.
func Throttle(interval time.Duration) Func {
	var mu sync.Mutex
	last := make(map[domain.ConversationID]time.Time)

	return func(ctx context.Context, mc *Context, next Next) error {
		now := mc.Timestamp()
		if now.IsZero() {
			now = time.Now()
		}

		mu.Lock()
		prev, seen := last[mc.Conversation()]
		if seen && now.Sub(prev) < interval {
			mu.Unlock()
			return nil
		}
		last[mc.Conversation()] = now
		mu.Unlock()

		next()
		return nil
	}
}
