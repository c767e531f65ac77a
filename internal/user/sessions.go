package user

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const sessionTTL = 24 * time.Hour

type session struct {
	userID  int64
	expires time.Time
}

// Sessions maps opaque tokens to logged-in users. In-memory only: a restart
// logs everyone out, which is acceptable for this deployment.
type Sessions struct {
	mu sync.Mutex
	m  map[string]session
}

func NewSessions() *Sessions {
	return &Sessions{m: make(map[string]session)}
}

func (s *Sessions) Start(userID int64) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.m[token] = session{userID: userID, expires: time.Now().Add(sessionTTL)}
	s.mu.Unlock()
	return token
}

// Resolve returns the user behind the token, or false for unknown or
// expired tokens. Expired entries are reaped on lookup.
func (s *Sessions) Resolve(token string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[token]
	if !ok {
		return 0, false
	}
	if time.Now().After(sess.expires) {
		delete(s.m, token)
		return 0, false
	}
	return sess.userID, true
}

func (s *Sessions) End(token string) {
	s.mu.Lock()
	delete(s.m, token)
	s.mu.Unlock()
}
