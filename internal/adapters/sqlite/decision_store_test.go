package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mootlab/moot/internal/adapters/sqlite"
	"github.com/mootlab/moot/pkg/domain"
	"github.com/mootlab/moot/pkg/ports"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "decisions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_Contract(t *testing.T) {
	ports.RunDecisionStoreContract(t, newTestStore(t))
}

func TestSQLiteStore_MetadataRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	d := &domain.Decision{
		ID:           "d1",
		SessionID:    "s1",
		NodeID:       "opening",
		EdgeID:       "agree",
		ResponseText: "I agree",
		Score:        12,
		Evaluation:   domain.EvaluationPending,
		Metadata: map[string]any{
			"score_modifiers": []any{map[string]any{"type": "multiply", "value": float64(2)}},
			"client":          "courtroom-web",
		},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Append(ctx, d))

	got, err := store.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "courtroom-web", got.Metadata["client"])
	assert.Contains(t, got.Metadata, "score_modifiers")
}

func TestSQLiteStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "decisions.db")

	store, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, &domain.Decision{
		ID:         "d1",
		SessionID:  "s1",
		NodeID:     "opening",
		EdgeID:     "agree",
		Evaluation: domain.EvaluationPending,
		CreatedAt:  time.Now().UTC(),
	}))
	require.NoError(t, store.Close())

	// Records survive process restarts.
	store, err = sqlite.Open(path)
	require.NoError(t, err)
	defer store.Close()

	list, err := store.BySession(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSQLiteStore_EvaluateMissing(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	grade := 50
	_, err := store.Evaluate(ctx, "missing", &grade, "", domain.EvaluationGraded)
	assert.ErrorIs(t, err, domain.ErrDecisionNotFound)
}
