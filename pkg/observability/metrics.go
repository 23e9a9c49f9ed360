package observability

import (
	"context"
	"fmt"

	"github.com/aretw0/arvis/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors fed by the engine hooks.
type Metrics struct {
	TriggerPushes     *prometheus.CounterVec
	TriggerDepth      prometheus.Gauge
	ScriptFilterRuns  *prometheus.CounterVec
	ScriptFilterTime  *prometheus.HistogramVec
	ActionsDispatched *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		TriggerPushes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arvis_trigger_pushes_total",
				Help: "Number of triggers pushed on the trigger stack",
			},
			[]string{"type"},
		),
		TriggerDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arvis_trigger_stack_depth",
			Help: "Current depth of the trigger stack",
		}),
		ScriptFilterRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arvis_scriptfilter_runs_total",
				Help: "Finished script filter runs by status",
			},
			[]string{"bundle", "status"},
		),
		ScriptFilterTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arvis_scriptfilter_duration_seconds",
				Help:    "Duration of script filter runs",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"bundle"},
		),
		ActionsDispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arvis_actions_dispatched_total",
				Help: "Actions handed to the dispatcher by type",
			},
			[]string{"type"},
		),
	}

	for _, c := range []prometheus.Collector{m.TriggerPushes, m.TriggerDepth, m.ScriptFilterRuns, m.ScriptFilterTime, m.ActionsDispatched} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks recording into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTriggerPush: func(_ context.Context, e *domain.TriggerEvent) {
			typ := string(e.TriggerType)
			if typ == "" {
				typ = "plugin"
			}
			m.TriggerPushes.WithLabelValues(typ).Inc()
			m.TriggerDepth.Set(float64(e.Depth))
		},
		OnTriggerPop: func(_ context.Context, e *domain.TriggerEvent) {
			m.TriggerDepth.Set(float64(e.Depth))
		},
		OnScriptFilterDone: func(_ context.Context, e *domain.ScriptFilterEvent) {
			m.ScriptFilterRuns.WithLabelValues(e.BundleID, string(e.Status)).Inc()
			if e.Status == domain.StatusCompleted {
				m.ScriptFilterTime.WithLabelValues(e.BundleID).Observe(e.Duration.Seconds())
			}
		},
		OnActionDispatch: func(_ context.Context, e *domain.ActionEvent) {
			m.ActionsDispatched.WithLabelValues(string(e.ActionType)).Inc()
		},
	}
}
