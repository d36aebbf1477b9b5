package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-apps/daily-reflection/internal/model/reflection"
)

const janitorInterval = time.Minute

// MemoryStore is the default in-process Store. A janitor goroutine sweeps
// idle sessions past their TTL.
type MemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string]reflection.Session
	reflections map[string][]reflection.Reflection
	ttl         time.Duration
	done        chan struct{}
	closeOnce   sync.Once
}

// NewMemoryStore bootstraps the in-memory session store and starts its
// janitor.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		sessions:    make(map[string]reflection.Session),
		reflections: make(map[string][]reflection.Reflection),
		ttl:         ttl,
		done:        make(chan struct{}),
	}
	go s.janitor()
	return s
}

// Create provisions a fresh unauthenticated session.
func (s *MemoryStore) Create(_ context.Context) (reflection.Session, error) {
	now := time.Now().UTC()
	sess := reflection.Session{
		ID:         uuid.NewString(),
		CreatedAt:  now,
		LastSeenAt: now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess, nil
}

// Get retrieves a session by identifier.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (reflection.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return reflection.Session{}, ErrSessionNotFound
	}
	return sess, nil
}

// Update overwrites the stored session state.
func (s *MemoryStore) Update(_ context.Context, sess reflection.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sess.ID]; !ok {
		return ErrSessionNotFound
	}
	s.sessions[sess.ID] = sess
	return nil
}

// SaveReflection appends a reflection to its session, assigning identity and
// timestamp.
func (s *MemoryStore) SaveReflection(_ context.Context, ref reflection.Reflection) (reflection.Reflection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[ref.SessionID]; !ok {
		return reflection.Reflection{}, ErrSessionNotFound
	}

	ref.ID = uuid.NewString()
	if ref.CreatedAt.IsZero() {
		ref.CreatedAt = time.Now().UTC()
	}

	s.reflections[ref.SessionID] = append(s.reflections[ref.SessionID], ref)
	return ref, nil
}

// GetReflection returns one reflection scoped to its session.
func (s *MemoryStore) GetReflection(_ context.Context, sessionID, reflectionID string) (reflection.Reflection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ref := range s.reflections[sessionID] {
		if ref.ID == reflectionID {
			return ref, nil
		}
	}
	return reflection.Reflection{}, ErrReflectionNotFound
}

// Close stops the janitor.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

func (s *MemoryStore) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep(time.Now().UTC())
		}
	}
}

// sweep drops sessions idle past the TTL together with their reflections.
func (s *MemoryStore) sweep(now time.Time) {
	cutoff := now.Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	expired := 0
	for id, sess := range s.sessions {
		if sess.LastSeenAt.Before(cutoff) {
			delete(s.sessions, id)
			delete(s.reflections, id)
			expired++
		}
	}
	if expired > 0 {
		log.Printf("[session] expired %d idle session(s)", expired)
	}
}
