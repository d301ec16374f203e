package waits

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/tgflow/pkg/domain"
	"github.com/oklog/ulid/v2"
)

const (
	DefaultTimeout           = 5 * time.Minute
	DefaultCancelKeyword     = "/cancel"
	DefaultTimeoutMessage    = "Input timeout - operation cancelled"
	DefaultCancelMessage     = "Operation cancelled"
	DefaultValidationMessage = "Invalid input"
)

// Info describes a pending wait.
type Info struct {
	ID           string
	Conversation domain.ConversationID
	Kinds        []domain.InputKind
	CreatedAt    time.Time
	Deadline     time.Time
}

type pendingWait struct {
	Info
	opts   domain.WaitOptions
	timer  *time.Timer
	result chan domain.WaitResult
}

// Wait is the caller's handle on a pending wait.
type Wait struct {
	ID           string
	Conversation domain.ConversationID
	result       <-chan domain.WaitResult
	reg          *Registry
}

// Done returns a channel that receives the single result.
func (w *Wait) Done() <-chan domain.WaitResult {
	return w.result
}

// Await blocks until the wait resolves. If ctx ends first the wait is
// cancelled and the cancellation result is returned.
func (w *Wait) Await(ctx context.Context) domain.WaitResult {
	select {
	case res := <-w.result:
		return res
	case <-ctx.Done():
		w.reg.Cancel(w.ID, ctx.Err().Error())
		// Either our cancel or a concurrent resolution filled the channel.
		return <-w.result
	}
}

// Registry tracks pending waits. Safe for concurrent use.
type Registry struct {
	mu             sync.Mutex
	pending        map[string]*pendingWait
	defaultTimeout time.Duration
	onResolve      func(Info, domain.WaitResult)
}

// Option configures a Registry.
type Option func(*Registry)

// WithDefaultTimeout sets the timeout used when WaitOptions.Timeout is zero.
func WithDefaultTimeout(d time.Duration) Option {
	return func(r *Registry) {
		r.defaultTimeout = d
	}
}

// WithResolveHook registers a callback invoked once per resolved wait,
// after the result has been delivered.
func WithResolveHook(fn func(Info, domain.WaitResult)) Option {
	return func(r *Registry) {
		r.onResolve = fn
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		pending:        make(map[string]*pendingWait),
		defaultTimeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create registers a wait and arms its timer.
func (r *Registry) Create(conv domain.ConversationID, opts domain.WaitOptions) *Wait {
	if len(opts.Kinds) == 0 {
		opts.Kinds = []domain.InputKind{domain.InputText}
	}
	if len(opts.CancelKeywords) == 0 {
		opts.CancelKeywords = []string{DefaultCancelKeyword}
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = r.defaultTimeout
	}

	now := time.Now()
	p := &pendingWait{
		Info: Info{
			ID:           ulid.Make().String(),
			Conversation: conv,
			Kinds:        append([]domain.InputKind(nil), opts.Kinds...),
			CreatedAt:    now,
		},
		opts:   opts,
		result: make(chan domain.WaitResult, 1),
	}

	r.mu.Lock()
	r.pending[p.ID] = p
	if timeout > 0 {
		p.Deadline = now.Add(timeout)
		id := p.ID
		p.timer = time.AfterFunc(timeout, func() {
			r.Resolve(id, domain.WaitResult{Status: domain.WaitTimedOut, Error: timeoutMessage(opts)})
		})
	}
	r.mu.Unlock()

	return &Wait{ID: p.ID, Conversation: conv, result: p.result, reg: r}
}

// Resolve completes a wait exactly once. It returns false when the wait is
// unknown or already resolved.
func (r *Registry) Resolve(id string, res domain.WaitResult) bool {
	r.mu.Lock()
	p, ok := r.pending[id]
	if ok {
		delete(r.pending, id)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	p.result <- res
	if r.onResolve != nil {
		r.onResolve(p.Info, res)
	}
	return true
}

// Cancel resolves the wait as cancelled. An empty reason uses the wait's cancel message.
func (r *Registry) Cancel(id, reason string) bool {
	if reason == "" {
		r.mu.Lock()
		if p, ok := r.pending[id]; ok {
			reason = cancelMessage(p.opts)
		} else {
			reason = DefaultCancelMessage
		}
		r.mu.Unlock()
	}
	return r.Resolve(id, domain.WaitResult{Status: domain.WaitCancelled, Error: reason})
}

// CancelConversation cancels every wait of a conversation.
func (r *Registry) CancelConversation(conv domain.ConversationID, reason string) int {
	n := 0
	for _, id := range r.ids(func(p *pendingWait) bool { return p.Conversation == conv }) {
		if r.Cancel(id, reason) {
			n++
		}
	}
	return n
}

// CancelAll cancels every pending wait.
func (r *Registry) CancelAll(reason string) int {
	n := 0
	for _, id := range r.ids(func(*pendingWait) bool { return true }) {
		if r.Cancel(id, reason) {
			n++
		}
	}
	return n
}

func (r *Registry) ids(match func(*pendingWait) bool) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for id, p := range r.pending {
		if match(p) {
			out = append(out, id)
		}
	}
	return out
}

// IsCancelInput compares trimmed, case-insensitive text against the wait's cancel keywords.
func (r *Registry) IsCancelInput(id, text string) bool {
	r.mu.Lock()
	p, ok := r.pending[id]
	r.mu.Unlock()
	if !ok {
		return false
	}
	text = strings.TrimSpace(text)
	for _, kw := range p.opts.CancelKeywords {
		if strings.EqualFold(text, strings.TrimSpace(kw)) {
			return true
		}
	}
	return false
}

// Validate runs the wait's validator. A failure never resolves the wait;
// msg is the text to show the user.
func (r *Registry) Validate(ctx context.Context, id, input string) (ok bool, msg string) {
	r.mu.Lock()
	p, found := r.pending[id]
	r.mu.Unlock()
	if !found || p.opts.Validator == nil {
		return true, ""
	}

	if err := p.opts.Validator(ctx, input); err != nil {
		msg = err.Error()
		if msg == "" {
			msg = p.opts.ValidationMessage
		}
		if msg == "" {
			msg = DefaultValidationMessage
		}
		return false, msg
	}
	return true, ""
}

// Options returns the options a pending wait was created with.
func (r *Registry) Options(id string) (domain.WaitOptions, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[id]
	if !ok {
		return domain.WaitOptions{}, false
	}
	return p.opts, true
}

// Get returns a pending wait.
func (r *Registry) Get(id string) (Info, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[id]
	if !ok {
		return Info{}, false
	}
	return p.Info, true
}

// Len returns the number of pending waits.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func timeoutMessage(opts domain.WaitOptions) string {
	if opts.TimeoutMessage != "" {
		return opts.TimeoutMessage
	}
	return DefaultTimeoutMessage
}

func cancelMessage(opts domain.WaitOptions) string {
	if opts.CancelMessage != "" {
		return opts.CancelMessage
	}
	return DefaultCancelMessage
}
