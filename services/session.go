package services

import (
	"encoding/json"
	"sync"
	"time"

	"cyberguard/models"

	"github.com/google/uuid"
)

// Panel is the single result region of a viewer session.
type Panel struct {
	View *models.View
	Raw  json.RawMessage
}

// Session is one viewer tab's state: the result panel and pending toasts.
type Session struct {
	ID string

	mu       sync.Mutex
	panel    *Panel
	notices  []models.Notice
	lastSeen time.Time
}

// Publish replaces the panel. The last writer wins; callers drop superseded
// results before getting here.
func (s *Session) Publish(view *models.View, raw json.RawMessage) {
	s.mu.Lock()
	s.panel = &Panel{View: view, Raw: raw}
	s.mu.Unlock()
}

func (s *Session) Panel() *Panel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panel
}

const maxPendingNotices = 20

func (s *Session) Notify(n models.Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, n)
	if len(s.notices) > maxPendingNotices {
		s.notices = s.notices[len(s.notices)-maxPendingNotices:]
	}
}

// DrainNotices returns and clears pending toasts; each is shown once.
func (s *Session) DrainNotices() []models.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.notices
	s.notices = nil
	return out
}

// SessionStore keeps viewer sessions in memory, keyed by a random UUID.
type SessionStore struct {
	TTL time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{TTL: ttl, sessions: map[string]*Session{}, now: time.Now}
}

// GetOrCreate returns the session for id, creating a fresh one (with a new
// id) when id is unknown or invalid.
func (st *SessionStore) GetOrCreate(id string) (sess *Session, created bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	if _, err := uuid.Parse(id); err == nil {
		if sess, ok := st.sessions[id]; ok {
			sess.mu.Lock()
			sess.lastSeen = now
			sess.mu.Unlock()
			return sess, false
		}
	}
	sess = &Session{ID: uuid.NewString(), lastSeen: now}
	st.sessions[sess.ID] = sess
	return sess, true
}

func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Prune drops sessions idle for longer than TTL and returns how many went.
func (st *SessionStore) Prune() int {
	if st.TTL <= 0 {
		return 0
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	cutoff := st.now().Add(-st.TTL)
	n := 0
	for id, sess := range st.sessions {
		sess.mu.Lock()
		idle := sess.lastSeen.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}
