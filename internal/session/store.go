package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/wpp-history/internal/bus"
	"go.uber.org/zap"
)

// Gauge receives the number of live sessions. prometheus.Gauge satisfies it.
type Gauge interface {
	Set(float64)
}

// Store keeps live sessions in memory, keyed by a random ID. Nothing is
// written to disk.
type Store struct {
	idle   time.Duration
	bus    *bus.Bus
	gauge  Gauge
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewStore creates a store whose sessions expire after idle without
// activity. A zero idle disables expiry. gauge may be nil.
func NewStore(idle time.Duration, b *bus.Bus, gauge Gauge, logger *zap.Logger) *Store {
	return &Store{
		idle:     idle,
		bus:      b,
		gauge:    gauge,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create registers a new unauthorized session.
func (s *Store) Create() *Session {
	sess := New(uuid.NewString(), s.bus)
	sess.Touch(s.now())

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	s.report(n)
	return sess
}

// Get returns the session with id and records activity on it.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if ok {
		sess.Touch(s.now())
	}
	return sess, ok
}

// Delete removes a session and cancels its in-flight work.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()

	if ok {
		sess.Close()
		s.report(n)
	}
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes sessions idle for longer than the configured timeout and
// returns how many were removed.
func (s *Store) Sweep() int {
	if s.idle <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.idle)

	var expired []*Session
	s.mu.Lock()
	for id, sess := range s.sessions {
		if sess.LastSeen().Before(cutoff) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	for _, sess := range expired {
		sess.Close()
		s.bus.Publish(bus.Event{Kind: bus.KindSessionExpired, SessionID: sess.ID})
	}
	if len(expired) > 0 {
		s.logger.Info("expired idle sessions", zap.Int("count", len(expired)), zap.Int("remaining", n))
		s.report(n)
	}
	return len(expired)
}

// Start runs the idle janitor until ctx is cancelled or Stop is called.
func (s *Store) Start(ctx context.Context) {
	if s.idle <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	interval := min(s.idle/4, time.Minute)
	if interval <= 0 {
		interval = s.idle
	}

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the janitor and cancels every session's in-flight work.
func (s *Store) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	for _, sess := range sessions {
		sess.Close()
	}
}

func (s *Store) report(n int) {
	if s.gauge != nil {
		s.gauge.Set(float64(n))
	}
}
