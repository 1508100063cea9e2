package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mootlab/moot/pkg/domain"
	"github.com/mootlab/moot/pkg/ports"
)

// DecisionStore implements the append-only audit log in memory.
type DecisionStore struct {
	mu    sync.Mutex
	byID  map[string]*domain.Decision
	order []string
}

// NewDecisionStore creates an empty decision store.
func NewDecisionStore() *DecisionStore {
	return &DecisionStore{byID: make(map[string]*domain.Decision)}
}

// Append records a decision.
func (s *DecisionStore) Append(ctx context.Context, d *domain.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[d.ID]; exists {
		return fmt.Errorf("decision %q already recorded", d.ID)
	}
	stored := *d
	s.byID[d.ID] = &stored
	s.order = append(s.order, d.ID)
	return nil
}

// Get returns a copy of the decision, or domain.ErrDecisionNotFound.
func (s *DecisionStore) Get(ctx context.Context, decisionID string) (*domain.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.byID[decisionID]
	if !ok {
		return nil, fmt.Errorf("decision %q: %w", decisionID, domain.ErrDecisionNotFound)
	}
	out := *d
	return &out, nil
}

// BySession returns a session's decisions in creation order.
func (s *DecisionStore) BySession(ctx context.Context, sessionID string) ([]domain.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Decision
	for _, id := range s.order {
		if d := s.byID[id]; d.SessionID == sessionID {
			out = append(out, *d)
		}
	}
	return out, nil
}

// Evaluate updates the instructor fields of a decision.
func (s *DecisionStore) Evaluate(ctx context.Context, decisionID string, grade *int, notes string, status domain.EvaluationStatus) (*domain.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.byID[decisionID]
	if !ok {
		return nil, fmt.Errorf("decision %q: %w", decisionID, domain.ErrDecisionNotFound)
	}
	if grade != nil {
		g := *grade
		d.OverrideGrade = &g
	}
	if notes != "" {
		d.Notes = notes
	}
	if status != "" {
		d.Evaluation = status
	}
	out := *d
	return &out, nil
}

// Stats aggregates decisions per the filter.
func (s *DecisionStore) Stats(ctx context.Context, filter ports.StatsFilter) ([]ports.StatsRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type bucket struct {
		count      int
		scoreSum   float64
		elapsedSum float64
		elapsedN   int
	}
	buckets := make(map[string]*bucket)

	for _, id := range s.order {
		d := s.byID[id]
		if filter.SessionID != "" && d.SessionID != filter.SessionID {
			continue
		}
		key := ""
		switch filter.GroupBy {
		case "participant":
			key = d.ParticipantID
		case "role":
			key = d.RoleID
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.count++
		b.scoreSum += float64(d.Score)
		if d.ElapsedSeconds != nil {
			b.elapsedSum += *d.ElapsedSeconds
			b.elapsedN++
		}
	}

	rows := make([]ports.StatsRow, 0, len(buckets))
	for key, b := range buckets {
		row := ports.StatsRow{
			Key:       key,
			Decisions: b.count,
			AvgScore:  b.scoreSum / float64(b.count),
		}
		if b.elapsedN > 0 {
			row.AvgElapsedSeconds = b.elapsedSum / float64(b.elapsedN)
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
	return rows, nil
}
