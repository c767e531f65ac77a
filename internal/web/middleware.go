package web

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const sessionCookie = "session"

type ctxKey int

const userIDKey ctxKey = iota

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("took", time.Since(start)).
			Msg("http")
	})
}

// currentUserID resolves the session cookie; zero means anonymous.
func (s *Server) currentUserID(r *http.Request) int64 {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return 0
	}
	id, ok := s.sessions.Resolve(c.Value)
	if !ok {
		return 0
	}
	return id
}

func (s *Server) requireUser(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := s.currentUserID(r)
		if id == 0 {
			writeJSON(w, http.StatusUnauthorized, nok("Login required."))
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userIDKey, id)))
	})
}

func (s *Server) requireAdmin(next http.HandlerFunc) http.Handler {
	return s.requireUser(func(w http.ResponseWriter, r *http.Request) {
		u, err := s.users.Get(r.Context(), requestUserID(r))
		if err != nil || !u.IsAdmin() {
			writeJSON(w, http.StatusForbidden, nok("Admin access required."))
			return
		}
		next(w, r)
	})
}

func requestUserID(r *http.Request) int64 {
	id, _ := r.Context().Value(userIDKey).(int64)
	return id
}
