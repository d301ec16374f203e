package domain

import "context"

// Resolver computes a value for a given conversation at render time.
type Resolver[T any] func(ctx context.Context, id ConversationID) (T, error)

// Source is either a static value or a per-conversation resolver.
// The zero value is an unset source.
type Source[T any] struct {
	value   T
	resolve Resolver[T]
	set     bool
}

// Static wraps a literal value.
func Static[T any](v T) Source[T] {
	return Source[T]{value: v, set: true}
}

// Dynamic wraps a resolver evaluated on every render.
func Dynamic[T any](fn Resolver[T]) Source[T] {
	return Source[T]{resolve: fn, set: fn != nil}
}

// IsSet reports whether the source carries a value or a resolver.
func (s Source[T]) IsSet() bool { return s.set }

// IsStatic reports whether the source is a literal value.
func (s Source[T]) IsStatic() bool { return s.set && s.resolve == nil }

// StaticValue returns the literal value and true for static sources.
func (s Source[T]) StaticValue() (T, bool) {
	if s.IsStatic() {
		return s.value, true
	}
	var zero T
	return zero, false
}

// Resolve returns the value for the given conversation.
// Unset sources resolve to the zero value.
func (s Source[T]) Resolve(ctx context.Context, id ConversationID) (T, error) {
	switch {
	case !s.set:
		var zero T
		return zero, nil
	case s.resolve != nil:
		return s.resolve(ctx, id)
	default:
		return s.value, nil
	}
}

type (
	TextSource   = Source[string]
	ImageSource  = Source[[]string]
	InlineSource = Source[[][]InlineButton]
	ReplySource  = Source[[][]ReplyButton]
)

// Text is a static text source.
func Text(s string) TextSource { return Static(s) }

// TextFunc is a dynamic text source.
func TextFunc(fn Resolver[string]) TextSource { return Dynamic(fn) }

// Images is a static list of photo references (file ids or URLs).
func Images(refs ...string) ImageSource { return Static(refs) }

// ImagesFunc is a dynamic image list.
func ImagesFunc(fn Resolver[[]string]) ImageSource { return Dynamic(fn) }

// InlineRows is a static inline keyboard layout.
func InlineRows(rows ...[]InlineButton) InlineSource { return Static(rows) }

// InlineFunc is a dynamic inline keyboard layout.
func InlineFunc(fn Resolver[[][]InlineButton]) InlineSource { return Dynamic(fn) }

// ReplyRows is a static reply keyboard layout.
func ReplyRows(rows ...[]ReplyButton) ReplySource { return Static(rows) }

// ReplyFunc is a dynamic reply keyboard layout.
func ReplyFunc(fn Resolver[[][]ReplyButton]) ReplySource { return Dynamic(fn) }

// Row is a convenience for building one keyboard row.
func Row[B InlineButton | ReplyButton](buttons ...B) []B { return buttons }
