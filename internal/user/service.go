package user

import (
	"context"
	"errors"
	"regexp"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("user: invalid credentials")
	ErrUsernameTaken      = errors.New("user: username already exists")
	ErrEmailTaken         = errors.New("user: email already exists")
	ErrInvalidEmail       = errors.New("user: invalid email format")
	ErrWeakPassword       = errors.New("user: password too weak")
	ErrNotFound           = errors.New("user: not found")
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// EventPublisher is satisfied by events.Rabbit; nil disables emission.
type EventPublisher interface {
	Publish(routingKey string, v any) error
}

type Service struct {
	repo *Repository
	pub  EventPublisher
}

func NewService(repo *Repository, pub EventPublisher) *Service {
	return &Service{repo: repo, pub: pub}
}

type Registration struct {
	Username string
	Email    string
	Password string
	Phone    string
	Address  string
}

func (s *Service) Register(ctx context.Context, reg Registration) (*User, error) {
	return s.create(ctx, reg, RoleCustomer)
}

// CreateAdmin is the back-office variant of Register.
func (s *Service) CreateAdmin(ctx context.Context, reg Registration) (*User, error) {
	return s.create(ctx, reg, RoleAdmin)
}

func (s *Service) create(ctx context.Context, reg Registration, role string) (*User, error) {
	if reg.Username == "" || reg.Email == "" {
		return nil, ErrInvalidCredentials
	}
	if !emailRe.MatchString(reg.Email) {
		return nil, ErrInvalidEmail
	}
	if PasswordStrength(reg.Password).Score < 4 {
		return nil, ErrWeakPassword
	}
	if u, err := s.repo.GetByUsername(ctx, reg.Username); err != nil {
		return nil, err
	} else if u != nil {
		return nil, ErrUsernameTaken
	}
	if u, err := s.repo.GetByEmail(ctx, reg.Email); err != nil {
		return nil, err
	} else if u != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &User{
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: string(hash),
		Role:         role,
		Phone:        reg.Phone,
		Address:      reg.Address,
	}
	id, err := s.repo.Create(ctx, u)
	if err != nil {
		return nil, err
	}
	u.ID = id
	if s.pub != nil {
		_ = s.pub.Publish(RKUserCreated, UserCreated{
			UserID:   u.ID,
			Username: u.Username,
			Email:    u.Email,
			Role:     u.Role,
		})
	}
	return u, nil
}

func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *Service) List(ctx context.Context) ([]*User, error) { return s.repo.List(ctx) }

func (s *Service) Delete(ctx context.Context, id int64) error { return s.repo.Delete(ctx, id) }

func (s *Service) Count(ctx context.Context) (int64, error) { return s.repo.Count(ctx) }

// UsernameAvailable backs the registration form's live validation.
func (s *Service) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	return u == nil, err
}

func (s *Service) EmailAvailable(ctx context.Context, email string) (bool, error) {
	if !emailRe.MatchString(email) {
		return false, ErrInvalidEmail
	}
	u, err := s.repo.GetByEmail(ctx, email)
	return u == nil, err
}

// Strength reports which of the four password rules hold: length ≥ 8, an
// uppercase letter, a lowercase letter, a digit.
type Strength struct {
	Score   int      `json:"strength"`
	Missing []string `json:"messages,omitempty"`
}

func PasswordStrength(password string) Strength {
	var st Strength
	rule := func(ok bool, msg string) {
		if ok {
			st.Score++
		} else {
			st.Missing = append(st.Missing, msg)
		}
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	rule(len(password) >= 8, "At least 8 characters")
	rule(upper, "One uppercase letter")
	rule(lower, "One lowercase letter")
	rule(digit, "One number")
	return st
}
