package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"churn-predictor-api/pkg/form"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSessionNotFound is returned for unknown or expired session IDs.
var ErrSessionNotFound = errors.New("session not found")

// Session pairs a form with its controller.
type Session struct {
	ID         string
	Form       *form.Form
	Controller *Controller
	CreatedAt  time.Time

	lastSeen atomic.Int64
}

func (s *Session) touch(now time.Time) { s.lastSeen.Store(now.UnixNano()) }

// LastSeen returns the time of the most recent access.
func (s *Session) LastSeen() time.Time { return time.Unix(0, s.lastSeen.Load()) }

// Store keeps sessions in memory. Nothing is persisted.
type Store struct {
	mu            sync.RWMutex
	sessions      map[string]*Session
	newController func() *Controller
	ttl           time.Duration
	now           func() time.Time
	logger        *zap.Logger
}

// NewStore creates a store. newController builds the controller of each new
// session; ttl <= 0 disables expiry.
func NewStore(newController func() *Controller, ttl time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		sessions:      make(map[string]*Session),
		newController: newController,
		ttl:           ttl,
		now:           time.Now,
		logger:        logger,
	}
}

// Create starts a new Idle session.
func (s *Store) Create() *Session {
	now := s.now()
	sess := &Session{
		ID:         uuid.NewString(),
		Form:       form.New(),
		Controller: s.newController(),
		CreatedAt:  now,
	}
	sess.touch(now)

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.logger.Debug("session created", zap.String("session_id", sess.ID))
	return sess
}

// Get returns the session and refreshes its expiry.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.touch(s.now())
	return sess, nil
}

// Delete closes and removes the session.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	sess.Controller.Close()
	s.logger.Debug("session deleted", zap.String("session_id", id))
	return nil
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions idle for longer than the ttl. Pending sessions are kept.
func (s *Store) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.ttl)

	var expired []*Session
	s.mu.Lock()
	for id, sess := range s.sessions {
		if sess.LastSeen().Before(cutoff) && sess.Controller.State().Status != StatusPending {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.Controller.Close()
	}
	if len(expired) > 0 {
		s.logger.Info("expired sessions swept", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Close closes every session.
func (s *Store) Close() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range all {
		sess.Controller.Close()
	}
}
