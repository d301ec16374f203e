// Package events provides a process-wide emitter for named notifications
// that fall outside the dialog and button model, such as shared contacts.
package events

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/aretw0/tgflow/pkg/domain"
)

// Handler receives an event for a conversation.
type Handler func(ctx context.Context, conv domain.ConversationID, args ...any)

// Unsubscribe removes a previously registered handler.
type Unsubscribe func()

type subscription struct {
	id int
	fn Handler
}

// Emitter dispatches events synchronously, in subscription order.
// A panicking handler is logged and does not stop the others.
type Emitter struct {
	mu       sync.RWMutex
	handlers map[string][]subscription
	nextID   int
	logger   *slog.Logger
}

// Option configures an Emitter.
type Option func(*Emitter)

// WithLogger sets the logger used to report handler panics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Emitter) {
		e.logger = logger
	}
}

// New creates an emitter.
func New(opts ...Option) *Emitter {
	e := &Emitter{
		handlers: make(map[string][]subscription),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// On subscribes fn to event.
func (e *Emitter) On(event string, fn Handler) Unsubscribe {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	e.handlers[event] = append(e.handlers[event], subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { e.remove(event, id) })
	}
}

func (e *Emitter) remove(event string, id int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	subs := e.handlers[event]
	for i, s := range subs {
		if s.id == id {
			e.handlers[event] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(e.handlers[event]) == 0 {
		delete(e.handlers, event)
	}
}

// Emit calls every handler of event and returns how many ran.
func (e *Emitter) Emit(ctx context.Context, event string, conv domain.ConversationID, args ...any) int {
	e.mu.RLock()
	subs := append([]subscription(nil), e.handlers[event]...)
	e.mu.RUnlock()

	for _, s := range subs {
		e.call(ctx, event, s.fn, conv, args)
	}
	return len(subs)
}

func (e *Emitter) call(ctx context.Context, event string, fn Handler, conv domain.ConversationID, args []any) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("event handler panicked", "event", event, "conversation", conv, "err", fmt.Errorf("%v", r))
		}
	}()
	fn(ctx, conv, args...)
}

// Events lists the events that currently have handlers.
func (e *Emitter) Events() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.handlers))
	for name := range e.handlers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
