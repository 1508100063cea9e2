// Package redis implements the session store and distributed locker on
// Redis, for deployments running more than one engine replica.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/mootlab/moot/pkg/domain"
)

// Store implements ports.SessionStore using Redis. Sessions live under
// a key prefix with an optional TTL; a ZSET index supports listing with
// lazy cleanup of expired entries.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures the Store.
type Option func(*Store)

// WithTTL sets the expiration for sessions.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithPrefix sets the key prefix for sessions.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// New creates a Redis store with its own client.
func New(address, password string, db int, opts ...Option) *Store {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "moot:session:",
		ttl:    0, // No expiration by default
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client exposes the underlying connection, so a locker can share it.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the session under the version CAS contract, using
// WATCH so two replicas cannot both commit against the same version.
func (s *Store) Save(ctx context.Context, sess *domain.Session) error {
	key := s.key(sess.ID)

	err := s.client.Watch(ctx, func(tx *backend.Tx) error {
		val, err := tx.Get(ctx, key).Result()
		switch {
		case err == backend.Nil:
			if sess.Version != 0 {
				return fmt.Errorf("session %q is new but save carries version %d: %w",
					sess.ID, sess.Version, domain.ErrVersionConflict)
			}
		case err != nil:
			return fmt.Errorf("failed to read session: %w", err)
		default:
			var existing domain.Session
			if err := json.Unmarshal([]byte(val), &existing); err != nil {
				return fmt.Errorf("failed to unmarshal session: %w", err)
			}
			if existing.Version != sess.Version {
				return fmt.Errorf("session %q at version %d, save carries %d: %w",
					sess.ID, existing.Version, sess.Version, domain.ErrVersionConflict)
			}
		}

		sess.Version++
		data, err := json.Marshal(sess)
		if err != nil {
			sess.Version--
			return fmt.Errorf("failed to marshal session: %w", err)
		}

		// Index score = expiry instant; infinite TTL sorts far-future.
		score := float64(time.Now().Add(s.ttl).Unix())
		if s.ttl == 0 {
			score = 4102444800 // 2100-01-01
		}

		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: sess.ID})
			return nil
		})
		if err != nil {
			sess.Version--
		}
		return err
	}, key)

	if errors.Is(err, backend.TxFailedErr) {
		return fmt.Errorf("session %q modified concurrently: %w", sess.ID, domain.ErrVersionConflict)
	}
	return err
}

// Load retrieves the session from Redis.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	val, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &sess, nil
}

// Delete removes the session and its index entry.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(sessionID))
	pipe.ZRem(ctx, s.indexKey(), sessionID)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns session IDs from the index, pruning expired entries.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())

	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired sessions: %w", err)
	}

	sessions, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
