package domain_test

import (
	"context"
	"testing"

	"github.com/aretw0/tgflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_Resolve(t *testing.T) {
	ctx := context.Background()

	static := domain.Text("hello")
	v, err := static.Resolve(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "hello", v)
	assert.True(t, static.IsStatic())

	dynamic := domain.TextFunc(func(ctx context.Context, id domain.ConversationID) (string, error) {
		if id == 7 {
			return "seven", nil
		}
		return "other", nil
	})
	v, err = dynamic.Resolve(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "seven", v)
	assert.False(t, dynamic.IsStatic())
	_, ok := dynamic.StaticValue()
	assert.False(t, ok)

	var unset domain.TextSource
	assert.False(t, unset.IsSet())
	v, err = unset.Resolve(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestParseCommand(t *testing.T) {
	name, args, ok := domain.ParseCommand("/Help@my_bot topic one")
	assert.True(t, ok)
	assert.Equal(t, "help", name)
	assert.Equal(t, "topic one", args)

	_, _, ok = domain.ParseCommand("hello")
	assert.False(t, ok)
	_, _, ok = domain.ParseCommand("/")
	assert.False(t, ok)
}

func TestState_Clone(t *testing.T) {
	s := domain.NewState(1, "start")
	s.Data["k"] = "v"
	s.Wait = &domain.InputWait{ID: "w", Kinds: []domain.InputKind{domain.InputText}}

	c := s.Clone()
	c.Data["k"] = "changed"
	c.Wait.Kinds[0] = domain.InputPhoto

	assert.Equal(t, "v", s.Data["k"])
	assert.Equal(t, domain.InputText, s.Wait.Kinds[0])
	assert.Equal(t, domain.NoMessage, s.LastMessageID)
}

func TestState_Predicates(t *testing.T) {
	snapshot := func(st *domain.State) domain.State { return st.Clone() }

	st := domain.NewState(1, "start")
	assert.False(t, snapshot(st).IsWaiting())
	assert.False(t, snapshot(st).HasMessage())

	st.Wait = &domain.InputWait{ID: "w"}
	st.LastMessageID = 10
	assert.True(t, snapshot(st).IsWaiting())
	assert.True(t, snapshot(st).HasMessage())
}

func TestWaitResult_Status(t *testing.T) {
	failed := domain.WaitResult{Status: domain.WaitFailed, Error: "download failed", File: &domain.FileInput{FileID: "f"}}
	assert.False(t, failed.OK())
	assert.True(t, failed.Failed())
	assert.Equal(t, "failed", failed.Status.String())

	assert.True(t, domain.WaitResult{Status: domain.WaitSuccess}.OK())
	assert.Equal(t, "timed_out", domain.WaitTimedOut.String())
	assert.Equal(t, "unknown", domain.WaitStatus(99).String())
}

func TestActions_IdentityAndTargets(t *testing.T) {
	a := domain.ActionFunc(func(ctx context.Context, ac *domain.ActionContext) error { return nil })
	as := domain.Do(a, nil, a)

	assert.Len(t, as, 2)
	assert.Contains(t, as.Identity(), "2:")
	assert.Empty(t, domain.Actions(nil).Identity())
	assert.Empty(t, as.Targets())
}
