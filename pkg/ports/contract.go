package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mootlab/moot/pkg/domain"
)

// RunSessionStoreContract verifies that a SessionStore implementation
// adheres to the interface contract, including the version CAS rules.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-session-" + time.Now().Format("20060102150405.000")

	t.Run("Save and Load", func(t *testing.T) {
		s := domain.NewSession(sessionID, "trial-1", "graph-1")
		s.Status = domain.SessionInProgress
		s.CurrentNodeID = "opening"
		s.Variables = map[string]any{"trust": float64(2), "witness": "called"}

		err := store.Save(ctx, s)
		require.NoError(t, err, "Save should not return error")
		assert.Equal(t, int64(1), s.Version, "Save should bump the version")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, s.CurrentNodeID, loaded.CurrentNodeID)
		assert.Equal(t, domain.SessionInProgress, loaded.Status)
		assert.Equal(t, "called", loaded.Variables["witness"])
		assert.Equal(t, int64(1), loaded.Version)
	})

	t.Run("Stale version rejected", func(t *testing.T) {
		stale := domain.NewSession(sessionID, "trial-1", "graph-1")
		stale.Version = 0 // persisted record is at 1 by now
		err := store.Save(ctx, stale)
		assert.ErrorIs(t, err, domain.ErrVersionConflict)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "missing-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Delete(ctx, sessionID)
		require.NoError(t, err)

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, domain.NewSession(id1, "", "graph-1")))
		require.NoError(t, store.Save(ctx, domain.NewSession(id2, "", "graph-1")))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunDecisionStoreContract verifies a DecisionStore implementation.
func RunDecisionStoreContract(t *testing.T, store DecisionStore) {
	ctx := context.Background()
	sessionID := "contract-decisions-" + time.Now().Format("20060102150405.000")

	elapsed := func(v float64) *float64 { return &v }
	mk := func(id, role string, score int, secs float64) *domain.Decision {
		return &domain.Decision{
			ID:             id,
			SessionID:      sessionID,
			NodeID:         "opening",
			EdgeID:         "agree",
			RoleID:         role,
			ResponseText:   "I agree",
			Score:          score,
			Evaluation:     domain.EvaluationPending,
			ElapsedSeconds: elapsed(secs),
			Registered:     true,
			CreatedAt:      time.Now().UTC(),
		}
	}

	t.Run("Append and Get", func(t *testing.T) {
		d := mk(sessionID+"-d1", "prosecutor", 10, 12)
		require.NoError(t, store.Append(ctx, d))

		got, err := store.Get(ctx, d.ID)
		require.NoError(t, err)
		assert.Equal(t, d.ResponseText, got.ResponseText)
		assert.Equal(t, domain.EvaluationPending, got.Evaluation)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, "missing-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrDecisionNotFound)
	})

	t.Run("BySession order", func(t *testing.T) {
		require.NoError(t, store.Append(ctx, mk(sessionID+"-d2", "defense", 20, 40)))
		require.NoError(t, store.Append(ctx, mk(sessionID+"-d3", "prosecutor", 30, 8)))

		list, err := store.BySession(ctx, sessionID)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, sessionID+"-d1", list[0].ID)
		assert.Equal(t, sessionID+"-d3", list[2].ID)
	})

	t.Run("Evaluate", func(t *testing.T) {
		grade := 85
		got, err := store.Evaluate(ctx, sessionID+"-d1", &grade, "solid objection", domain.EvaluationGraded)
		require.NoError(t, err)
		require.NotNil(t, got.OverrideGrade)
		assert.Equal(t, 85, *got.OverrideGrade)
		assert.Equal(t, "solid objection", got.Notes)
		assert.Equal(t, domain.EvaluationGraded, got.Evaluation)
	})

	t.Run("Stats grouped by role", func(t *testing.T) {
		rows, err := store.Stats(ctx, StatsFilter{SessionID: sessionID, GroupBy: "role"})
		require.NoError(t, err)

		byKey := make(map[string]StatsRow, len(rows))
		for _, r := range rows {
			byKey[r.Key] = r
		}
		require.Contains(t, byKey, "prosecutor")
		assert.Equal(t, 2, byKey["prosecutor"].Decisions)
		assert.InDelta(t, 20, byKey["prosecutor"].AvgScore, 0.001)
		assert.InDelta(t, 10, byKey["prosecutor"].AvgElapsedSeconds, 0.001)
	})
}
