package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aretw0/tgflow/pkg/adapters/memory"
	"github.com/aretw0/tgflow/pkg/domain"
	"github.com/aretw0/tgflow/pkg/events"
	"github.com/aretw0/tgflow/pkg/keyboard"
	"github.com/aretw0/tgflow/pkg/middleware"
	"github.com/aretw0/tgflow/pkg/ports"
	"github.com/aretw0/tgflow/pkg/registry"
	"github.com/aretw0/tgflow/pkg/schema"
	"github.com/aretw0/tgflow/pkg/waits"
)

// Engine is the dialog runtime. It routes inbound updates, runs actions,
// performs dialog transitions and renders dialogs through the platform.
//
// Updates of the same conversation are not serialized: callers that need
// ordering must deliver them one at a time.
type Engine struct {
	schema    *schema.Compiled
	platform  ports.Platform
	store     ports.StateStore
	buttons   *registry.Registry
	waits     *waits.Registry
	keyboards *keyboard.Builder
	pipeline  *middleware.Pipeline
	events    *events.Emitter
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	config    Config
	stopped   atomic.Bool
}

var _ domain.Controller = (*Engine)(nil)

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithStore overrides the default in-memory state store.
func WithStore(store ports.StateStore) EngineOption {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) EngineOption {
	return func(e *Engine) {
		e.config = cfg
	}
}

// WithPipeline uses an existing middleware pipeline.
func WithPipeline(p *middleware.Pipeline) EngineOption {
	return func(e *Engine) {
		e.pipeline = p
	}
}

// WithEmitter uses an existing event emitter.
func WithEmitter(em *events.Emitter) EngineOption {
	return func(e *Engine) {
		e.events = em
	}
}

// WithButtonRegistry uses an existing button registry.
func WithButtonRegistry(r *registry.Registry) EngineOption {
	return func(e *Engine) {
		e.buttons = r
	}
}

// NewEngine compiles the schema and wires the runtime components.
func NewEngine(s domain.Schema, platform ports.Platform, opts ...EngineOption) (*Engine, error) {
	if platform == nil {
		return nil, fmt.Errorf("platform is required")
	}

	e := &Engine{
		platform: platform,
		config:   DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}

	compiled, err := schema.Compile(s, e.config.ValidateSchema)
	if err != nil {
		return nil, err
	}
	e.schema = compiled

	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if e.config.EmptyText == "" {
		e.config.EmptyText = DefaultEmptyText
	}
	if e.store == nil {
		e.store = memory.NewStore(compiled.StartDialogID())
	}
	if e.buttons == nil {
		e.buttons = registry.NewRegistry()
	}
	if e.pipeline == nil {
		e.pipeline = middleware.New()
	}
	if e.events == nil {
		e.events = events.New(events.WithLogger(e.logger))
	}
	e.keyboards = keyboard.NewBuilder(e.buttons)
	e.waits = waits.NewRegistry(
		waits.WithDefaultTimeout(e.config.InputTimeout),
		waits.WithResolveHook(e.onWaitResolved),
	)

	return e, nil
}

// Schema returns the compiled schema.
func (e *Engine) Schema() *schema.Compiled { return e.schema }

// Store returns the state store.
func (e *Engine) Store() ports.StateStore { return e.store }

// Buttons returns the button registry.
func (e *Engine) Buttons() *registry.Registry { return e.buttons }

// Waits returns the input wait registry.
func (e *Engine) Waits() *waits.Registry { return e.waits }

// Pipeline returns the middleware pipeline.
func (e *Engine) Pipeline() *middleware.Pipeline { return e.pipeline }

// Events returns the event emitter.
func (e *Engine) Events() *events.Emitter { return e.events }

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.config }

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// StartDialogID returns the start dialog of the schema.
func (e *Engine) StartDialogID() string { return e.schema.StartDialogID() }

// Dialog returns a dialog definition.
func (e *Engine) Dialog(id string) (*domain.Dialog, bool) { return e.schema.Dialog(id) }

// Stop cancels every pending wait and rejects further updates.
func (e *Engine) Stop() {
	if e.stopped.Swap(true) {
		return
	}
	n := e.waits.CancelAll(DefaultStopReason)
	e.logger.Info("runtime stopped", "cancelled_waits", n)
}

// Stopped reports whether Stop was called.
func (e *Engine) Stopped() bool { return e.stopped.Load() }

func (e *Engine) base(t domain.EventType, id domain.ConversationID) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, Conversation: id}
}

func (e *Engine) emitDialogEnter(ctx context.Context, id domain.ConversationID, dialogID, previous string) {
	if e.hooks.OnDialogEnter == nil {
		return
	}
	e.hooks.OnDialogEnter(ctx, &domain.DialogEvent{
		EventBase:     e.base(domain.EventDialogEnter, id),
		DialogID:      dialogID,
		OtherDialogID: previous,
	})
}

func (e *Engine) emitDialogLeave(ctx context.Context, id domain.ConversationID, dialogID, target string) {
	if e.hooks.OnDialogLeave == nil {
		return
	}
	e.hooks.OnDialogLeave(ctx, &domain.DialogEvent{
		EventBase:     e.base(domain.EventDialogLeave, id),
		DialogID:      dialogID,
		OtherDialogID: target,
	})
}

func (e *Engine) emitRender(ctx context.Context, id domain.ConversationID, dialogID string, mode domain.RenderMode, msgID int64) {
	if e.hooks.OnRender == nil {
		return
	}
	e.hooks.OnRender(ctx, &domain.RenderEvent{
		EventBase: e.base(domain.EventRender, id),
		DialogID:  dialogID,
		Mode:      mode,
		MessageID: msgID,
	})
}

func (e *Engine) emitActionError(ctx context.Context, id domain.ConversationID, dialogID string, err error) {
	if e.hooks.OnActionError == nil {
		return
	}
	e.hooks.OnActionError(ctx, &domain.ActionErrorEvent{
		EventBase: e.base(domain.EventActionError, id),
		DialogID:  dialogID,
		Err:       err,
	})
}

func (e *Engine) onWaitResolved(info waits.Info, res domain.WaitResult) {
	e.logger.Debug("wait resolved", "conversation", info.Conversation, "wait_id", info.ID, "status", res.Status.String())
	if e.hooks.OnWaitResolved == nil {
		return
	}
	e.hooks.OnWaitResolved(context.Background(), &domain.WaitEvent{
		EventBase: e.base(domain.EventWaitResolved, info.Conversation),
		WaitID:    info.ID,
		Status:    res.Status,
	})
}
