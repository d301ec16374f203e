package observability

import (
	"context"
	"fmt"

	"github.com/aretw0/tgflow/pkg/domain"
	"github.com/aretw0/tgflow/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of a bot.
type Metrics struct {
	updates       *prometheus.CounterVec
	dialogVisits  *prometheus.CounterVec
	renders       *prometheus.CounterVec
	waitsResolved *prometheus.CounterVec
	actionErrors  *prometheus.CounterVec

	gauges []prometheus.Collector
}

// MetricsOption configures Metrics.
type MetricsOption func(*Metrics)

// WithPendingWaits exports the number of unresolved input waits.
func WithPendingWaits(fn func() int) MetricsOption {
	return func(m *Metrics) {
		m.gauges = append(m.gauges, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "tgflow_pending_waits",
			Help: "Number of unresolved input waits",
		}, func() float64 { return float64(fn()) }))
	}
}

// WithConversations exports the number of conversations held by the store.
func WithConversations(fn func() int) MetricsOption {
	return func(m *Metrics) {
		m.gauges = append(m.gauges, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "tgflow_conversations",
			Help: "Number of conversations held in memory",
		}, func() float64 { return float64(fn()) }))
	}
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer, opts ...MetricsOption) (*Metrics, error) {
	m := &Metrics{
		updates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tgflow_updates_total",
				Help: "Total number of inbound updates",
			},
			[]string{"kind"},
		),
		dialogVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tgflow_dialog_visits_total",
				Help: "Total number of dialog entries",
			},
			[]string{"dialog_id"},
		),
		renders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tgflow_renders_total",
				Help: "Total number of renders by delivery mode",
			},
			[]string{"mode"},
		),
		waitsResolved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tgflow_waits_resolved_total",
				Help: "Total number of resolved input waits by outcome",
			},
			[]string{"status"},
		),
		actionErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tgflow_action_errors_total",
				Help: "Total number of errors caught at the dispatch boundary",
			},
			[]string{"dialog_id"},
		),
	}
	for _, opt := range opts {
		opt(m)
	}

	collectors := append([]prometheus.Collector{
		m.updates, m.dialogVisits, m.renders, m.waitsResolved, m.actionErrors,
	}, m.gauges...)
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record dialog, render, wait and error metrics.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnDialogEnter: func(_ context.Context, e *domain.DialogEvent) {
			m.dialogVisits.WithLabelValues(e.DialogID).Inc()
		},
		OnRender: func(_ context.Context, e *domain.RenderEvent) {
			m.renders.WithLabelValues(string(e.Mode)).Inc()
		},
		OnWaitResolved: func(_ context.Context, e *domain.WaitEvent) {
			m.waitsResolved.WithLabelValues(e.Status.String()).Inc()
		},
		OnActionError: func(_ context.Context, e *domain.ActionErrorEvent) {
			m.actionErrors.WithLabelValues(e.DialogID).Inc()
		},
	}
}

// Middleware counts inbound updates by kind. Install it first so updates
// dropped by later middlewares are still counted.
func (m *Metrics) Middleware() middleware.Func {
	return func(_ context.Context, mc *middleware.Context, next middleware.Next) error {
		m.updates.WithLabelValues(string(mc.Kind())).Inc()
		next()
		return nil
	}
}
