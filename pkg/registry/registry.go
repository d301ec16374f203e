package registry

import (
	"encoding/hex"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/tgflow/pkg/domain"
	"github.com/zeebo/blake3"
)

const (
	// DefaultMaxCallbackBytes is the platform limit for callback payloads.
	DefaultMaxCallbackBytes = 64
	// DefaultTokenLength is the number of hex characters kept from the digest.
	DefaultTokenLength = 16

	digestHexLen = 64
)

// InlineEntry is a registered inline button.
type InlineEntry struct {
	Token    string
	DialogID string
	Button   domain.InlineButton
}

// ReplyEntry is a registered reply button, keyed by its resolved label.
type ReplyEntry struct {
	Text     string
	DialogID string
	Button   domain.ReplyButton
}

// Registry maps callback tokens and reply labels back to button definitions.
// Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	inline   map[string]InlineEntry
	reply    map[string][]ReplyEntry
	tokenLen int
	maxBytes int
}

// Option configures a Registry.
type Option func(*Registry)

// WithTokenLength sets how many digest characters a token keeps.
func WithTokenLength(n int) Option {
	return func(r *Registry) {
		r.tokenLen = n
	}
}

// WithMaxCallbackBytes sets the platform callback payload limit.
func WithMaxCallbackBytes(n int) Option {
	return func(r *Registry) {
		r.maxBytes = n
	}
}

// NewRegistry creates a new empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		inline:   make(map[string]InlineEntry),
		reply:    make(map[string][]ReplyEntry),
		tokenLen: DefaultTokenLength,
		maxBytes: DefaultMaxCallbackBytes,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.maxBytes <= 0 {
		r.maxBytes = DefaultMaxCallbackBytes
	}
	if r.tokenLen <= 0 {
		r.tokenLen = DefaultTokenLength
	}
	r.tokenLen = min(r.tokenLen, r.maxBytes, digestHexLen)
	return r
}

// Token computes the deterministic token of a button without registering it.
// A caller-supplied CallbackData is returned unchanged.
func (r *Registry) Token(dialogID string, b domain.InlineButton, position int) string {
	if b.CallbackData != "" {
		return b.CallbackData
	}

	parts := []string{"d=" + dialogID, "p=" + strconv.Itoa(position)}
	if v, ok := b.Text.StaticValue(); ok {
		parts = append(parts, "t="+v)
	}
	if v, ok := b.URL.StaticValue(); ok {
		parts = append(parts, "u="+v)
	}
	if v, ok := b.WebApp.StaticValue(); ok {
		parts = append(parts, "w="+v)
	}
	if id := b.Action.Identity(); id != "" {
		parts = append(parts, "a="+id)
	}

	sum := blake3.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])[:r.tokenLen]
}

// RegisterInline stores the button and returns its token.
// Registering the same logical button again overwrites the entry in place.
func (r *Registry) RegisterInline(dialogID string, b domain.InlineButton, position int) string {
	token := r.Token(dialogID, b, position)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.inline[token] = InlineEntry{Token: token, DialogID: dialogID, Button: b}
	return token
}

// Inline looks up a token. ok is false for unknown or stale tokens.
func (r *Registry) Inline(token string) (InlineEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.inline[token]
	return e, ok
}

// RegisterReply stores a reply button under its resolved label.
// A dialog registering the same label again replaces its previous entry.
func (r *Registry) RegisterReply(dialogID, text string, b domain.ReplyButton) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := ReplyEntry{Text: text, DialogID: dialogID, Button: b}
	entries := r.reply[text]
	for i := range entries {
		if entries[i].DialogID == dialogID {
			entries[i] = entry
			return
		}
	}
	r.reply[text] = append(entries, entry)
}

// FindReply returns the entries registered under text.
// A non-empty dialogID restricts the result to that dialog.
func (r *Registry) FindReply(text, dialogID string) []ReplyEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ReplyEntry
	for _, e := range r.reply[text] {
		if dialogID == "" || e.DialogID == dialogID {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of inline and reply registrations.
func (r *Registry) Len() (inline, reply int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, entries := range r.reply {
		reply += len(entries)
	}
	return len(r.inline), reply
}

// Clear drops every registration.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inline = make(map[string]InlineEntry)
	r.reply = make(map[string][]ReplyEntry)
}
