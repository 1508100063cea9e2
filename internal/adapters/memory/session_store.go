package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/mootlab/moot/pkg/domain"
)

// SessionStore implements ports.SessionStore in memory. Sessions are
// cloned through JSON on every save and load so callers never alias the
// stored record, matching the behavior of the durable adapters.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*domain.Session)}
}

// Save persists the session, enforcing the version CAS contract.
func (s *SessionStore) Save(ctx context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.sessions[sess.ID]
	if ok {
		if existing.Version != sess.Version {
			return fmt.Errorf("session %q at version %d, save carries %d: %w",
				sess.ID, existing.Version, sess.Version, domain.ErrVersionConflict)
		}
	} else if sess.Version != 0 {
		return fmt.Errorf("session %q is new but save carries version %d: %w",
			sess.ID, sess.Version, domain.ErrVersionConflict)
	}

	sess.Version++
	stored, err := cloneSession(sess)
	if err != nil {
		sess.Version--
		return err
	}
	s.sessions[sess.ID] = stored
	return nil
}

// Load returns a copy of the session, or domain.ErrSessionNotFound.
func (s *SessionStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return cloneSession(sess)
}

// Delete removes the session.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// List returns the known session IDs, sorted.
func (s *SessionStore) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func cloneSession(sess *domain.Session) (*domain.Session, error) {
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("failed to clone session: %w", err)
	}
	var out domain.Session
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to clone session: %w", err)
	}
	return &out, nil
}
