package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/tgflow/pkg/domain"
)

// Context is the event context handed to every middleware.
type Context struct {
	Update *domain.Update

	mu     sync.Mutex
	values map[string]any
}

// NewContext wraps an update.
func NewContext(u *domain.Update) *Context {
	return &Context{Update: u}
}

// Conversation returns the conversation of the update.
func (c *Context) Conversation() domain.ConversationID { return c.Update.Conversation }

// Kind returns the update kind.
func (c *Context) Kind() domain.UpdateKind { return c.Update.Kind }

// Timestamp returns when the update was received.
func (c *Context) Timestamp() time.Time { return c.Update.Timestamp }

// Set stores a value for later middlewares and the final handler.
func (c *Context) Set(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.values == nil {
		c.values = make(map[string]any)
	}
	c.values[key] = v
}

// Get returns a value stored with Set.
func (c *Context) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

// Next lets the chain continue past the calling middleware.
type Next func()

// Func is a middleware. Returning without calling next short-circuits the chain.
type Func func(ctx context.Context, mc *Context, next Next) error

// FinalHandler runs after every middleware called next.
type FinalHandler func(ctx context.Context, mc *Context) error

// PanicError is returned when a middleware panics.
type PanicError struct {
	Index int
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("middleware %d panicked: %v", e.Index, e.Value)
}

// Pipeline is an ordered chain of middlewares driven by an index cursor.
// Safe for concurrent use; Use may be called while events are executing.
type Pipeline struct {
	mu    sync.RWMutex
	chain []Func
}

// New creates a pipeline from the given middlewares.
func New(mws ...Func) *Pipeline {
	p := &Pipeline{}
	p.Use(mws...)
	return p
}

// Use appends middlewares to the end of the chain.
func (p *Pipeline) Use(mws ...Func) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, mw := range mws {
		if mw != nil {
			p.chain = append(p.chain, mw)
		}
	}
}

// Len returns the number of middlewares.
func (p *Pipeline) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.chain)
}

// Execute runs the chain and, if every middleware continued, the final handler.
// completed reports whether the final handler was reached.
// A middleware error short-circuits the chain and is returned.
func (p *Pipeline) Execute(ctx context.Context, mc *Context, final FinalHandler) (completed bool, err error) {
	p.mu.RLock()
	chain := make([]Func, len(p.chain))
	copy(chain, p.chain)
	p.mu.RUnlock()

	for i := 0; i < len(chain); i++ {
		proceed, err := step(ctx, i, chain[i], mc)
		if err != nil {
			return false, err
		}
		if !proceed {
			return false, nil
		}
	}

	if final != nil {
		if err := final(ctx, mc); err != nil {
			return true, err
		}
	}
	return true, nil
}

func step(ctx context.Context, i int, mw Func, mc *Context) (proceed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			proceed, err = false, &PanicError{Index: i, Value: r}
		}
	}()
	err = mw(ctx, mc, func() { proceed = true })
	return proceed, err
}
