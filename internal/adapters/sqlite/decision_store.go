// Package sqlite persists the decision audit log durably, with SQL
// aggregate statistics for instructor review.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mootlab/moot/pkg/domain"
	"github.com/mootlab/moot/pkg/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS decisions (
	id              TEXT PRIMARY KEY,
	session_id      TEXT NOT NULL,
	node_id         TEXT NOT NULL,
	edge_id         TEXT NOT NULL,
	participant_id  TEXT NOT NULL DEFAULT '',
	role_id         TEXT NOT NULL DEFAULT '',
	response_text   TEXT NOT NULL,
	score           INTEGER NOT NULL,
	override_grade  INTEGER,
	notes           TEXT NOT NULL DEFAULT '',
	evaluation      TEXT NOT NULL,
	elapsed_seconds REAL,
	was_default     INTEGER NOT NULL DEFAULT 0,
	registered      INTEGER NOT NULL DEFAULT 0,
	audio_uri       TEXT NOT NULL DEFAULT '',
	audio_seconds   REAL NOT NULL DEFAULT 0,
	metadata        TEXT,
	created_at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decisions_session ON decisions(session_id);
`

// Store implements ports.DecisionStore on SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// The engine serializes writes per session; one connection avoids
	// SQLITE_BUSY races across goroutines.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append records a decision.
func (s *Store) Append(ctx context.Context, d *domain.Decision) error {
	var meta any
	if len(d.Metadata) > 0 {
		data, err := json.Marshal(d.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal decision metadata: %w", err)
		}
		meta = string(data)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decisions (
			id, session_id, node_id, edge_id, participant_id, role_id,
			response_text, score, override_grade, notes, evaluation,
			elapsed_seconds, was_default, registered, audio_uri,
			audio_seconds, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.SessionID, d.NodeID, d.EdgeID, d.ParticipantID, d.RoleID,
		d.ResponseText, d.Score, d.OverrideGrade, d.Notes, string(d.Evaluation),
		d.ElapsedSeconds, d.WasDefault, d.Registered, d.AudioURI,
		d.AudioSeconds, meta, d.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert decision: %w", err)
	}
	return nil
}

const selectColumns = `
	id, session_id, node_id, edge_id, participant_id, role_id,
	response_text, score, override_grade, notes, evaluation,
	elapsed_seconds, was_default, registered, audio_uri,
	audio_seconds, metadata, created_at`

// Get returns the decision, or domain.ErrDecisionNotFound.
func (s *Store) Get(ctx context.Context, decisionID string) (*domain.Decision, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM decisions WHERE id = ?`, decisionID)
	d, err := scanDecision(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("decision %q: %w", decisionID, domain.ErrDecisionNotFound)
	}
	return d, err
}

// BySession returns a session's decisions in insertion order.
func (s *Store) BySession(ctx context.Context, sessionID string) ([]domain.Decision, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM decisions WHERE session_id = ? ORDER BY rowid`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var out []domain.Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// Evaluate updates the instructor fields and returns the fresh record.
func (s *Store) Evaluate(ctx context.Context, decisionID string, grade *int, notes string, status domain.EvaluationStatus) (*domain.Decision, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE decisions SET
			override_grade = COALESCE(?, override_grade),
			notes          = CASE WHEN ? != '' THEN ? ELSE notes END,
			evaluation     = CASE WHEN ? != '' THEN ? ELSE evaluation END
		WHERE id = ?`,
		grade, notes, notes, string(status), string(status), decisionID)
	if err != nil {
		return nil, fmt.Errorf("failed to update decision: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("decision %q: %w", decisionID, domain.ErrDecisionNotFound)
	}
	return s.Get(ctx, decisionID)
}

// Stats aggregates decisions per the filter using SQL.
func (s *Store) Stats(ctx context.Context, filter ports.StatsFilter) ([]ports.StatsRow, error) {
	keyCol := "''"
	switch filter.GroupBy {
	case "role":
		keyCol = "role_id"
	case "participant":
		keyCol = "participant_id"
	}

	query := fmt.Sprintf(`
		SELECT %s AS grp, COUNT(*),
		       AVG(CAST(score AS REAL)),
		       COALESCE(AVG(elapsed_seconds), 0)
		FROM decisions`, keyCol)
	var args []any
	if filter.SessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, filter.SessionID)
	}
	query += ` GROUP BY grp ORDER BY grp`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate decisions: %w", err)
	}
	defer rows.Close()

	var out []ports.StatsRow
	for rows.Next() {
		var r ports.StatsRow
		if err := rows.Scan(&r.Key, &r.Decisions, &r.AvgScore, &r.AvgElapsedSeconds); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDecision(row scanner) (*domain.Decision, error) {
	var (
		d         domain.Decision
		eval      string
		meta      sql.NullString
		createdAt string
	)
	err := row.Scan(
		&d.ID, &d.SessionID, &d.NodeID, &d.EdgeID, &d.ParticipantID, &d.RoleID,
		&d.ResponseText, &d.Score, &d.OverrideGrade, &d.Notes, &eval,
		&d.ElapsedSeconds, &d.WasDefault, &d.Registered, &d.AudioURI,
		&d.AudioSeconds, &meta, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	d.Evaluation = domain.EvaluationStatus(eval)
	if meta.Valid && meta.String != "" {
		if err := json.Unmarshal([]byte(meta.String), &d.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal decision metadata: %w", err)
		}
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	d.CreatedAt = ts
	return &d, nil
}
