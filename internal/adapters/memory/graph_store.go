// Package memory provides in-process store implementations, used by
// tests, the CLI play mode and single-instance deployments.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/mootlab/moot/pkg/domain"
)

// GraphStore keeps dialogue graphs in memory. Graphs are treated as
// immutable once registered; the engine only reads them.
type GraphStore struct {
	mu     sync.RWMutex
	graphs map[string]*domain.Graph
}

// NewGraphStore creates an empty graph store.
func NewGraphStore() *GraphStore {
	return &GraphStore{graphs: make(map[string]*domain.Graph)}
}

// Put registers or replaces a graph definition.
func (s *GraphStore) Put(g *domain.Graph) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graphs[g.ID] = g
}

// GetGraph returns the graph, or domain.ErrGraphNotFound.
func (s *GraphStore) GetGraph(ctx context.Context, graphID string) (*domain.Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.graphs[graphID]
	if !ok {
		return nil, fmt.Errorf("graph %q: %w", graphID, domain.ErrGraphNotFound)
	}
	return g, nil
}
