// Package metrics exposes engine activity as Prometheus collectors,
// fed through the lifecycle hooks.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mootlab/moot/pkg/domain"
)

// Collector holds the engine's Prometheus instruments.
type Collector struct {
	nodeVisits       *prometheus.CounterVec
	decisions        *prometheus.CounterVec
	decisionScores   prometheus.Histogram
	sessionsFinished prometheus.Counter
}

// NewCollector creates and registers the collectors.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		nodeVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moot_node_visits_total",
			Help: "Total number of node entries across sessions",
		}, []string{"node_id"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moot_decisions_total",
			Help: "Total number of processed decisions",
		}, []string{"role_id"}),
		decisionScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "moot_decision_score",
			Help:    "Distribution of decision scores",
			Buckets: prometheus.LinearBuckets(-50, 25, 10),
		}),
		sessionsFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "moot_sessions_finished_total",
			Help: "Total number of sessions reaching the finished state",
		}),
	}
	reg.MustRegister(c.nodeVisits, c.decisions, c.decisionScores, c.sessionsFinished)
	return c
}

// Hooks returns lifecycle hooks feeding the collectors.
func (c *Collector) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			c.nodeVisits.WithLabelValues(e.NodeID).Inc()
		},
		OnDecision: func(_ context.Context, e *domain.DecisionEvent) {
			c.decisions.WithLabelValues(e.Decision.RoleID).Inc()
			c.decisionScores.Observe(float64(e.Decision.Score))
		},
		OnSessionFinished: func(_ context.Context, e *domain.SessionEvent) {
			c.sessionsFinished.Inc()
		},
	}
}
