package actions

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/aretw0/tgflow/pkg/domain"
)

// Call runs fn with the conversation id.
func Call(fn func(ctx context.Context, id domain.ConversationID) error) domain.Action {
	return domain.ActionFunc(func(ctx context.Context, ac *domain.ActionContext) error {
		return fn(ctx, ac.Conversation)
	})
}

type sequence struct {
	steps domain.Actions
}

// Sequence runs actions in order and stops at the first error.
func Sequence(steps ...domain.Action) domain.Action {
	return sequence{steps: domain.Do(steps...)}
}

func (s sequence) Run(ctx context.Context, ac *domain.ActionContext) error {
	for _, step := range s.steps {
		if err := step.Run(ctx, ac); err != nil {
			return err
		}
	}
	return nil
}

func (s sequence) Name() string {
	names := make([]string, len(s.steps))
	for i, step := range s.steps {
		names[i] = domain.ActionName(step)
	}
	return "sequence(" + strings.Join(names, ",") + ")"
}

// Condition decides which branch of When runs.
type Condition func(ctx context.Context, ac *domain.ActionContext) (bool, error)

// When runs then if cond holds, otherwise otherwise (which may be nil).
func When(cond Condition, then, otherwise domain.Action) domain.Action {
	return domain.ActionFunc(func(ctx context.Context, ac *domain.ActionContext) error {
		ok, err := cond(ctx, ac)
		if err != nil {
			return fmt.Errorf("condition failed: %w", err)
		}
		switch {
		case ok && then != nil:
			return then.Run(ctx, ac)
		case !ok && otherwise != nil:
			return otherwise.Run(ctx, ac)
		}
		return nil
	})
}

// WhenData branches on whether the conversation value under key equals expected.
func WhenData(key string, expected any, then, otherwise domain.Action) domain.Action {
	return When(func(ctx context.Context, ac *domain.ActionContext) (bool, error) {
		v, ok := ac.Bot.Data(ac.Conversation, key)
		return ok && reflect.DeepEqual(v, expected), nil
	}, then, otherwise)
}

// Delay pauses the sequence. It returns early with the context error when ctx ends.
func Delay(d time.Duration) domain.Action {
	return domain.ActionFunc(func(ctx context.Context, ac *domain.ActionContext) error {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// Emit publishes a named event with the conversation id and args.
func Emit(event string, args ...any) domain.Action {
	return Named("emit:"+event, domain.ActionFunc(func(ctx context.Context, ac *domain.ActionContext) error {
		ac.Bot.Emit(ctx, event, ac.Conversation, args...)
		return nil
	}))
}
