package schema

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/tgflow/pkg/actions"
	"github.com/aretw0/tgflow/pkg/domain"
)

// Registry maps action names used in declarative documents to actions.
// Besides registered names it understands "start", "goto:<dialog>" and
// "emit:<event>".
type Registry struct {
	mu      sync.RWMutex
	actions map[string]domain.Action
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		actions: make(map[string]domain.Action),
	}
}

// Register adds an action to the registry.
// If an action with the same name exists, it is overwritten.
func (r *Registry) Register(name string, a domain.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[name] = a
}

// RegisterFunc adds a function as a named action.
func (r *Registry) RegisterFunc(name string, fn func(ctx context.Context, ac *domain.ActionContext) error) {
	r.Register(name, actions.Named(name, domain.ActionFunc(fn)))
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.actions))
	for n := range r.actions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve looks up a registered action or builds a built-in one.
func (r *Registry) Resolve(name string) (domain.Action, error) {
	name = strings.TrimSpace(name)

	if r != nil {
		r.mu.RLock()
		a, ok := r.actions[name]
		r.mu.RUnlock()
		if ok {
			return a, nil
		}
	}

	kind, arg, _ := strings.Cut(name, ":")
	switch {
	case name == "start":
		return actions.GoToStart(), nil
	case kind == "goto" && arg != "":
		return actions.GoTo(arg), nil
	case kind == "emit" && arg != "":
		return actions.Emit(arg), nil
	}
	return nil, fmt.Errorf("action not found: %s", name)
}

// ResolveAll resolves a list of names into an ordered sequence.
func (r *Registry) ResolveAll(names []string) (domain.Actions, error) {
	out := make(domain.Actions, 0, len(names))
	for _, n := range names {
		a, err := r.Resolve(n)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
