package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bookhub/bookhub/internal/user"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, nok("Invalid request body."))
		return
	}
	u, err := s.users.Register(r.Context(), user.Registration{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Address:  req.Address,
	})
	if err != nil {
		writeJSON(w, registerStatus(err), nok(registerMessage(err)))
		return
	}
	s.startSession(w, u.ID)
	writeJSON(w, http.StatusCreated, ok("Registration successful! Welcome to BookHub."))
}

func registerStatus(err error) int {
	switch {
	case errors.Is(err, user.ErrUsernameTaken),
		errors.Is(err, user.ErrEmailTaken),
		errors.Is(err, user.ErrInvalidEmail),
		errors.Is(err, user.ErrWeakPassword),
		errors.Is(err, user.ErrInvalidCredentials):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func registerMessage(err error) string {
	switch {
	case errors.Is(err, user.ErrUsernameTaken):
		return "Username already exists"
	case errors.Is(err, user.ErrEmailTaken):
		return "Email already exists"
	case errors.Is(err, user.ErrInvalidEmail):
		return "Invalid email format"
	case errors.Is(err, user.ErrWeakPassword):
		return "Password does not meet the requirements"
	case errors.Is(err, user.ErrInvalidCredentials):
		return "Username and email are required"
	default:
		return "Registration failed"
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, nok("Invalid request body."))
		return
	}
	u, err := s.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, nok("Incorrect username or password."))
		return
	}
	s.startSession(w, u.ID)
	writeJSON(w, http.StatusOK, ok("Welcome "+u.Username+"!"))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		s.sessions.End(c.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, ok("You have been logged out successfully."))
}

func (s *Server) startSession(w http.ResponseWriter, userID int64) {
	token := s.sessions.Start(userID)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

type validation struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handleValidateUsername(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		writeJSON(w, http.StatusOK, validation{Valid: true})
		return
	}
	free, err := s.users.UsernameAvailable(r.Context(), username)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, nok("Validation failed."))
		return
	}
	v := validation{Valid: free}
	if !free {
		v.Message = "Username already exists"
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleValidateEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeJSON(w, http.StatusOK, validation{Valid: true})
		return
	}
	free, err := s.users.EmailAvailable(r.Context(), email)
	if errors.Is(err, user.ErrInvalidEmail) {
		writeJSON(w, http.StatusOK, validation{Valid: false, Message: "Invalid email format"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, nok("Validation failed."))
		return
	}
	v := validation{Valid: free}
	if !free {
		v.Message = "Email already exists"
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleValidatePassword(w http.ResponseWriter, r *http.Request) {
	password := r.URL.Query().Get("password")
	if password == "" {
		writeJSON(w, http.StatusOK, map[string]any{"valid": true, "strength": 0})
		return
	}
	st := user.PasswordStrength(password)
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":    st.Score >= 4,
		"strength": st.Score,
		"messages": st.Missing,
	})
}
