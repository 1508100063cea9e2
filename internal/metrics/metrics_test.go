package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/mootlab/moot/pkg/domain"
)

func TestCollector_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	hooks := c.Hooks()
	ctx := context.Background()
	now := time.Now()

	hooks.OnNodeEnter(ctx, &domain.NodeEvent{SessionID: "s1", NodeID: "opening", Timestamp: now})
	hooks.OnNodeEnter(ctx, &domain.NodeEvent{SessionID: "s1", NodeID: "opening", Timestamp: now})
	hooks.OnDecision(ctx, &domain.DecisionEvent{
		SessionID: "s1",
		Decision:  &domain.Decision{ID: "d1", RoleID: "prosecutor", Score: 12},
		Timestamp: now,
	})
	hooks.OnSessionFinished(ctx, &domain.SessionEvent{SessionID: "s1", Status: domain.SessionFinished, Timestamp: now})

	assert.Equal(t, float64(2), testutil.ToFloat64(c.nodeVisits.WithLabelValues("opening")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.decisions.WithLabelValues("prosecutor")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.sessionsFinished))
}
