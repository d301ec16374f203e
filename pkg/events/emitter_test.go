package events_test

import (
	"context"
	"testing"

	"github.com/aretw0/tgflow/pkg/domain"
	"github.com/aretw0/tgflow/pkg/events"
	"github.com/stretchr/testify/assert"
)

func TestEmitter_OnEmit(t *testing.T) {
	e := events.New()
	var got []string

	e.On("contact", func(ctx context.Context, conv domain.ConversationID, args ...any) {
		got = append(got, "first")
		assert.Equal(t, domain.ConversationID(7), conv)
		assert.Equal(t, []any{"+123"}, args)
	})
	e.On("contact", func(ctx context.Context, conv domain.ConversationID, args ...any) {
		got = append(got, "second")
	})

	n := e.Emit(context.Background(), "contact", 7, "+123")
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"first", "second"}, got)

	assert.Zero(t, e.Emit(context.Background(), "location", 7))
}

func TestEmitter_Unsubscribe(t *testing.T) {
	e := events.New()
	calls := 0
	off := e.On("ping", func(ctx context.Context, conv domain.ConversationID, args ...any) { calls++ })

	e.Emit(context.Background(), "ping", 1)
	off()
	off()
	e.Emit(context.Background(), "ping", 1)

	assert.Equal(t, 1, calls)
	assert.Empty(t, e.Events())
}

func TestEmitter_PanicIsolated(t *testing.T) {
	e := events.New()
	reached := false
	e.On("boom", func(ctx context.Context, conv domain.ConversationID, args ...any) { panic("bad handler") })
	e.On("boom", func(ctx context.Context, conv domain.ConversationID, args ...any) { reached = true })

	assert.NotPanics(t, func() { e.Emit(context.Background(), "boom", 1) })
	assert.True(t, reached)
}
