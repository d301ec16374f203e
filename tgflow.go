package tgflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/tgflow/internal/runtime"
	"github.com/aretw0/tgflow/pkg/domain"
	"github.com/aretw0/tgflow/pkg/events"
	"github.com/aretw0/tgflow/pkg/middleware"
	"github.com/aretw0/tgflow/pkg/ports"
	"github.com/aretw0/tgflow/pkg/waits"
)

// Config tunes the dialog runtime. See DefaultConfig.
type Config = runtime.Config

// DefaultConfig returns the runtime defaults.
func DefaultConfig() Config { return runtime.DefaultConfig() }

// Bot is the high-level entry point of the library.
// It wraps the internal runtime and exposes the operations available to hosts.
type Bot struct {
	runtime *runtime.Engine
	logger  *slog.Logger
	Name    string

	store       ports.StateStore
	hooks       domain.LifecycleHooks
	config      *Config
	middlewares []middleware.Func
	handlers    []eventHandler

	evictionSpec string
	maxIdle      time.Duration
	stopJanitor  func()
}

type eventHandler struct {
	event string
	fn    events.Handler
}

// Option defines a functional option for configuring the Bot.
type Option func(*Bot)

// WithName labels the bot in logs.
func WithName(name string) Option {
	return func(b *Bot) {
		b.Name = name
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) {
		b.logger = logger
	}
}

// WithStore replaces the default in-memory state store.
func WithStore(store ports.StateStore) Option {
	return func(b *Bot) {
		b.store = store
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(b *Bot) {
		b.hooks = hooks
	}
}

// WithConfig overrides the runtime configuration.
func WithConfig(cfg Config) Option {
	return func(b *Bot) {
		b.config = &cfg
	}
}

// WithMiddleware appends middlewares to the pipeline, in order.
func WithMiddleware(mws ...middleware.Func) Option {
	return func(b *Bot) {
		b.middlewares = append(b.middlewares, mws...)
	}
}

// WithEventHandler subscribes fn to a named event before the bot starts.
func WithEventHandler(event string, fn events.Handler) Option {
	return func(b *Bot) {
		b.handlers = append(b.handlers, eventHandler{event: event, fn: fn})
	}
}

// WithIdleEviction evicts conversations idle for longer than maxIdle on the
// given cron schedule, for example "@every 10m".
func WithIdleEviction(spec string, maxIdle time.Duration) Option {
	return func(b *Bot) {
		b.evictionSpec = spec
		b.maxIdle = maxIdle
	}
}

// New compiles the schema and builds a bot bound to platform.
func New(s domain.Schema, platform ports.Platform, opts ...Option) (*Bot, error) {
	b := &Bot{}
	for _, opt := range opts {
		opt(b)
	}

	// Keep a non-nil logger so the runtime default is not overwritten with nil.
	if b.logger == nil {
		b.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if b.Name != "" {
		b.logger = b.logger.With("bot", b.Name)
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLogger(b.logger),
		runtime.WithLifecycleHooks(b.hooks),
		runtime.WithPipeline(middleware.New(b.middlewares...)),
		runtime.WithEmitter(events.New(events.WithLogger(b.logger))),
	}
	if b.store != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithStore(b.store))
	}
	if b.config != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithConfig(*b.config))
	}

	eng, err := runtime.NewEngine(s, platform, runtimeOpts...)
	if err != nil {
		return nil, err
	}
	b.runtime = eng

	for _, h := range b.handlers {
		eng.Events().On(h.event, h.fn)
	}

	if b.evictionSpec != "" {
		stop, err := eng.StartJanitor(b.evictionSpec, b.maxIdle)
		if err != nil {
			return nil, fmt.Errorf("failed to schedule idle eviction: %w", err)
		}
		b.stopJanitor = stop
	}
	return b, nil
}

// HandleUpdate routes one inbound update through middleware and the dialog graph.
func (b *Bot) HandleUpdate(ctx context.Context, u *domain.Update) error {
	return b.runtime.HandleUpdate(ctx, u)
}

// ChangeDialog moves a conversation to dialogID and renders it.
func (b *Bot) ChangeDialog(ctx context.Context, id domain.ConversationID, dialogID string) error {
	return b.runtime.ChangeDialog(ctx, id, dialogID)
}

// Reset clears a conversation and shows the start dialog.
func (b *Bot) Reset(ctx context.Context, id domain.ConversationID) error {
	return b.runtime.Reset(ctx, id)
}

func (b *Bot) SendMessage(ctx context.Context, id domain.ConversationID, text string, opts *domain.SendOptions) (domain.Message, error) {
	return b.runtime.SendMessage(ctx, id, text, opts)
}

// DeleteMessage returns false without error when the message was already gone.
func (b *Bot) DeleteMessage(ctx context.Context, id domain.ConversationID, messageID int64) (bool, error) {
	return b.runtime.DeleteMessage(ctx, id, messageID)
}

// WaitForText blocks until the conversation replies with text, cancels or times out.
func (b *Bot) WaitForText(ctx context.Context, id domain.ConversationID, opts *domain.WaitOptions) (domain.WaitResult, error) {
	return b.runtime.WaitForText(ctx, id, opts)
}

// WaitForFile blocks until the conversation sends a document, or the kinds set in opts.
func (b *Bot) WaitForFile(ctx context.Context, id domain.ConversationID, opts *domain.WaitOptions) (domain.WaitResult, error) {
	return b.runtime.WaitForFile(ctx, id, opts)
}

func (b *Bot) State(id domain.ConversationID) domain.State { return b.runtime.State(id) }

func (b *Bot) SetData(id domain.ConversationID, key string, value any) {
	b.runtime.SetData(id, key, value)
}

func (b *Bot) Data(id domain.ConversationID, key string) (any, bool) {
	return b.runtime.Data(id, key)
}

func (b *Bot) DeleteData(id domain.ConversationID, key string) bool {
	return b.runtime.DeleteData(id, key)
}

// Dialog returns a dialog definition by id.
func (b *Bot) Dialog(id string) (*domain.Dialog, bool) { return b.runtime.Dialog(id) }

// Dialogs returns every dialog in definition order.
func (b *Bot) Dialogs() []*domain.Dialog { return b.runtime.Schema().Dialogs() }

// Commands returns the compiled commands, used to publish the command menu.
func (b *Bot) Commands() []*domain.Command { return b.runtime.Schema().Commands() }

func (b *Bot) StartDialogID() string { return b.runtime.StartDialogID() }

// Conversations lists the conversations held by the store.
func (b *Bot) Conversations() []domain.ConversationID { return b.runtime.Store().List() }

// Forget removes a conversation and cancels its pending wait.
func (b *Bot) Forget(id domain.ConversationID) bool {
	if !b.runtime.Store().Exists(id) {
		return false
	}
	b.runtime.Waits().CancelConversation(id, "Conversation removed")
	b.runtime.Store().Remove(id)
	return true
}

// PendingWaits returns the number of unresolved input waits.
func (b *Bot) PendingWaits() int { return b.runtime.Waits().Len() }

// On subscribes to a named event emitted by actions or by the runtime
// ("contact", "location").
func (b *Bot) On(event string, fn events.Handler) events.Unsubscribe {
	return b.runtime.Events().On(event, fn)
}

// Emit publishes a named event.
func (b *Bot) Emit(ctx context.Context, event string, id domain.ConversationID, args ...any) {
	b.runtime.Emit(ctx, event, id, args...)
}

// Use appends middlewares to the pipeline.
func (b *Bot) Use(mws ...middleware.Func) { b.runtime.Pipeline().Use(mws...) }

// Sweep evicts conversations idle for longer than maxIdle.
func (b *Bot) Sweep(maxIdle time.Duration) int { return b.runtime.Sweep(maxIdle) }

// Stop halts the eviction schedule, cancels every pending wait and rejects
// further updates. It is safe to call more than once.
func (b *Bot) Stop() {
	if b.stopJanitor != nil {
		b.stopJanitor()
		b.stopJanitor = nil
	}
	b.runtime.Stop()
}

// Stopped reports whether Stop was called.
func (b *Bot) Stopped() bool { return b.runtime.Stopped() }

// Logger returns the bot logger.
func (b *Bot) Logger() *slog.Logger { return b.logger }

// StopReason is reported to waits cancelled by Stop.
const StopReason = runtime.DefaultStopReason

// DefaultCancelKeyword is the keyword that cancels a wait unless configured otherwise.
const DefaultCancelKeyword = waits.DefaultCancelKeyword

var _ domain.Controller = (*Bot)(nil)
