package registry_test

import (
	"context"
	"testing"

	"github.com/aretw0/tgflow/pkg/domain"
	"github.com/aretw0/tgflow/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(ctx context.Context, ac *domain.ActionContext) error { return nil }

func other(ctx context.Context, ac *domain.ActionContext) error { return nil }

func TestRegisterInline_Deterministic(t *testing.T) {
	r := registry.NewRegistry()
	b := domain.InlineButton{Text: domain.Text("Next"), Action: domain.Do(domain.ActionFunc(noop))}

	first := r.RegisterInline("a", b, 0)
	second := r.RegisterInline("a", b, 0)
	assert.Equal(t, first, second)
	assert.Len(t, first, registry.DefaultTokenLength)

	inline, _ := r.Len()
	assert.Equal(t, 1, inline, "re-registration must not add entries")

	moved := r.RegisterInline("a", b, 1)
	assert.NotEqual(t, first, moved, "position is part of the identity")

	otherDialog := r.RegisterInline("b", b, 0)
	assert.NotEqual(t, first, otherDialog)
}

func TestRegisterInline_ActionDiscriminator(t *testing.T) {
	r := registry.NewRegistry()
	a := domain.InlineButton{Text: domain.Text("Go"), Action: domain.Do(domain.ActionFunc(noop))}
	b := domain.InlineButton{Text: domain.Text("Go"), Action: domain.Do(domain.ActionFunc(other))}

	assert.NotEqual(t, r.Token("d", a, 0), r.Token("d", b, 0))
}

func TestRegisterInline_DynamicTextIsStable(t *testing.T) {
	r := registry.NewRegistry()
	n := 0
	b := domain.InlineButton{
		Text: domain.TextFunc(func(ctx context.Context, id domain.ConversationID) (string, error) {
			n++
			return "count", nil
		}),
		Action: domain.Do(domain.ActionFunc(noop)),
	}
	assert.Equal(t, r.Token("d", b, 0), r.Token("d", b, 0))
	assert.Zero(t, n, "token computation must not resolve dynamic fields")
}

func TestRegisterInline_CallerToken(t *testing.T) {
	r := registry.NewRegistry()
	b := domain.InlineButton{Text: domain.Text("Raw"), CallbackData: "custom:42"}

	token := r.RegisterInline("a", b, 3)
	assert.Equal(t, "custom:42", token)

	entry, ok := r.Inline("custom:42")
	require.True(t, ok)
	assert.Equal(t, "a", entry.DialogID)
}

func TestInline_Unknown(t *testing.T) {
	r := registry.NewRegistry()
	_, ok := r.Inline("stale")
	assert.False(t, ok)
}

func TestTokenLength_Clamped(t *testing.T) {
	r := registry.NewRegistry(registry.WithTokenLength(500), registry.WithMaxCallbackBytes(32))
	token := r.Token("a", domain.InlineButton{Text: domain.Text("x")}, 0)
	assert.Len(t, token, 32)
}

func TestReplyRegistry(t *testing.T) {
	r := registry.NewRegistry()
	r.RegisterReply("menu", "Help", domain.ReplyButton{Text: domain.Text("Help")})
	r.RegisterReply("settings", "Help", domain.ReplyButton{Text: domain.Text("Help")})
	r.RegisterReply("menu", "Help", domain.ReplyButton{Text: domain.Text("Help"), RequestContact: true})

	all := r.FindReply("Help", "")
	assert.Len(t, all, 2)

	scoped := r.FindReply("Help", "menu")
	require.Len(t, scoped, 1)
	assert.True(t, scoped[0].Button.RequestContact, "re-registration replaces the dialog's entry")

	assert.Empty(t, r.FindReply("Help", "other"))
	assert.Empty(t, r.FindReply("Nope", ""))

	r.Clear()
	inline, reply := r.Len()
	assert.Zero(t, inline)
	assert.Zero(t, reply)
}
