package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tgflow/pkg/domain"
	"github.com/aretw0/tgflow/pkg/middleware"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	ctx := context.Background()
	h := m.Hooks()
	h.OnDialogEnter(ctx, &domain.DialogEvent{DialogID: "menu"})
	h.OnDialogEnter(ctx, &domain.DialogEvent{DialogID: "menu"})
	h.OnRender(ctx, &domain.RenderEvent{Mode: domain.RenderEdit})
	h.OnWaitResolved(ctx, &domain.WaitEvent{Status: domain.WaitTimedOut})
	h.OnActionError(ctx, &domain.ActionErrorEvent{DialogID: "menu", Err: errors.New("boom")})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.dialogVisits.WithLabelValues("menu")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.renders.WithLabelValues("edit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.waitsResolved.WithLabelValues("timed_out")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.actionErrors.WithLabelValues("menu")))
}

func TestMetrics_Middleware(t *testing.T) {
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	p := middleware.New(m.Middleware())
	for _, kind := range []domain.UpdateKind{domain.UpdateMessage, domain.UpdateMessage, domain.UpdateCallback} {
		completed, err := p.Execute(context.Background(), middleware.NewContext(&domain.Update{Kind: kind}), nil)
		require.NoError(t, err)
		assert.True(t, completed)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.updates.WithLabelValues(string(domain.UpdateMessage))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.updates.WithLabelValues(string(domain.UpdateCallback))))
}

func TestMetrics_Gauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	waits := 3
	_, err := NewMetrics(reg,
		WithPendingWaits(func() int { return waits }),
		WithConversations(func() int { return 7 }),
	)
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(reg, "tgflow_pending_waits", "tgflow_conversations")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	waits = 4
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "tgflow_pending_waits" {
			assert.Equal(t, 4.0, f.GetMetric()[0].GetGauge().GetValue())
		}
	}
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)

	_, err = NewMetrics(reg)
	assert.ErrorContains(t, err, "failed to register metric")
}

func TestChainHooks(t *testing.T) {
	var order []string
	first := domain.LifecycleHooks{
		OnDialogEnter: func(context.Context, *domain.DialogEvent) { order = append(order, "first") },
	}
	second := domain.LifecycleHooks{
		OnDialogEnter: func(context.Context, *domain.DialogEvent) { order = append(order, "second") },
		OnRender:      func(context.Context, *domain.RenderEvent) { order = append(order, "render") },
	}

	h := ChainHooks(first, domain.LifecycleHooks{}, second)
	require.NotNil(t, h.OnDialogEnter)
	assert.Nil(t, h.OnDialogLeave)

	h.OnDialogEnter(context.Background(), &domain.DialogEvent{})
	h.OnRender(context.Background(), &domain.RenderEvent{})
	assert.Equal(t, []string{"first", "second", "render"}, order)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	h := LoggingHooks(logger)
	h.OnDialogEnter(context.Background(), &domain.DialogEvent{
		EventBase: domain.EventBase{Conversation: 42},
		DialogID:  "menu",
	})
	h.OnActionError(context.Background(), &domain.ActionErrorEvent{DialogID: "menu", Err: errors.New("boom")})

	out := buf.String()
	assert.Contains(t, out, "dialog_enter")
	assert.Contains(t, out, "conversation=42")
	assert.Contains(t, out, "dialog_id=menu")
	assert.Contains(t, out, "err=boom")
}
