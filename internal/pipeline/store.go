package pipeline

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Store is a thread-safe in-memory session registry. Sessions expire after
// ttl without access.
type Store struct {
	sessions *cache.Cache
	ttl      time.Duration
}

// NewStore creates a store; ttl <= 0 uses one hour.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{
		sessions: cache.New(ttl, ttl/2),
		ttl:      ttl,
	}
}

// Create registers a new idle session under a fresh id.
func (s *Store) Create() *Session {
	sess := newSession(uuid.NewString())
	s.sessions.Set(sess.ID, sess, s.ttl)
	return sess
}

// Get returns the session and extends its lifetime.
func (s *Store) Get(id string) (*Session, bool) {
	v, ok := s.sessions.Get(id)
	if !ok {
		return nil, false
	}
	sess := v.(*Session)
	s.sessions.Set(id, sess, s.ttl)
	return sess, true
}

// Delete removes a session; it reports whether one existed.
func (s *Store) Delete(id string) bool {
	if _, ok := s.sessions.Get(id); !ok {
		return false
	}
	s.sessions.Delete(id)
	return true
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return s.sessions.ItemCount()
}
