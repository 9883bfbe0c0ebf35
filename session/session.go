package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/imgsqueeze/controller"
)

// Factory builds controller for a new session.
type Factory func() *controller.Controller

type entry struct {
	ctrl     *controller.Controller
	lastSeen time.Time
}

// Store keeps one controller per browser session in memory.
// Sessions idle longer than ttl are evicted.
type Store struct {
	newController Factory
	cookie        string
	ttl           time.Duration
	log           *zap.Logger
	now           func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

// NewStore returns empty session store.
func NewStore(newController Factory, cookie string, ttl time.Duration, log *zap.Logger) *Store {
	return &Store{
		newController: newController,
		cookie:        cookie,
		ttl:           ttl,
		log:           log,
		now:           time.Now,
		entries:       make(map[string]*entry),
	}
}

// Get returns controller of session id and marks it as seen.
func (s *Store) Get(id string) (*controller.Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = s.now()
	return e.ctrl, true
}

// Create starts a new session.
func (s *Store) Create() (string, *controller.Controller) {
	id := uuid.NewString()
	ctrl := s.newController()

	s.mu.Lock()
	s.entries[id] = &entry{ctrl: ctrl, lastSeen: s.now()}
	s.mu.Unlock()

	s.log.Debug("session created", zap.String("session", id))
	return id, ctrl
}

// Len returns number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Evict removes sessions idle longer than ttl and returns how many were removed.
func (s *Store) Evict() int {
	deadline := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for id, e := range s.entries {
		if e.lastSeen.Before(deadline) {
			delete(s.entries, id)
			n++
		}
	}
	return n
}

// Run evicts idle sessions every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Evict(); n > 0 {
				s.log.Info("idle sessions evicted", zap.Int("count", n), zap.Int("live", s.Len()))
			}
		}
	}
}

// Controller resolves controller of the request session, starting a new
// session and setting the cookie when the request carries none or an
// unknown one.
func (s *Store) Controller(w http.ResponseWriter, r *http.Request) *controller.Controller {
	if c, err := r.Cookie(s.cookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			if ctrl, ok := s.Get(c.Value); ok {
				return ctrl
			}
		}
	}

	id, ctrl := s.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return ctrl
}
