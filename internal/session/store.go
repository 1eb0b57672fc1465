package session

import (
	"errors"
	"sync"
	"time"

	"github.com/2beens/stryde/internal/strava"
)

var (
	ErrNotFound             = errors.New("session not found")
	ErrAlreadyExists        = errors.New("session already exists")
	ErrAlreadyAuthenticated = errors.New("session already authenticated")
)

// Session links an in-flight authorization attempt to its eventual bearer
// token and athlete identity. The state token is a correlation handle, not a
// security credential.
type Session struct {
	State         string
	Authenticated bool
	AccessToken   string
	Athlete       strava.Athlete
	CreatedAt     time.Time
}

// Store is a process-lifetime, in-memory session map. Sessions have no
// explicit expiry and are cleared only by a process restart - a known
// limitation, not a feature.
type Store struct {
	mutex    sync.RWMutex
	sessions map[string]Session

	// ability to inject a clock for unit testing
	NowFunc func() time.Time
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]Session),
		NowFunc:  time.Now,
	}
}

// Create inserts a new, unauthenticated session for the given state token.
// Insert-if-absent: an existing session for the same token is never replaced.
func (s *Store) Create(state string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.sessions[state]; ok {
		return ErrAlreadyExists
	}

	s.sessions[state] = Session{
		State:     state,
		CreatedAt: s.NowFunc(),
	}
	return nil
}

func (s *Store) Get(state string) (Session, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	sess, ok := s.sessions[state]
	return sess, ok
}

// Promote atomically transitions a session from unauthenticated to
// authenticated, storing the bearer token and the athlete identity. A session
// is promoted exactly once and never observes a transition back.
func (s *Store) Promote(state, accessToken string, athlete strava.Athlete) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	sess, ok := s.sessions[state]
	if !ok {
		return ErrNotFound
	}
	if sess.Authenticated {
		return ErrAlreadyAuthenticated
	}

	sess.Authenticated = true
	sess.AccessToken = accessToken
	sess.Athlete = athlete
	s.sessions[state] = sess

	return nil
}

func (s *Store) Count() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.sessions)
}
