// Package auth signs users in against the backend, falls back to configured
// local accounts when the backend is unreachable, and keeps sessions in storage.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hyperjump/yowyob/internal/api"
	"github.com/hyperjump/yowyob/internal/config"
	"github.com/hyperjump/yowyob/internal/models"
	"github.com/hyperjump/yowyob/internal/storage"
)

var (
	// ErrInvalidCredentials is returned when the email/password pair is rejected.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrNotAuthenticated is returned when no session exists.
	ErrNotAuthenticated = errors.New("not authenticated")
)

const sessionPrefix = "session:"

// Backend is the subset of the API client used for authentication.
type Backend interface {
	Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error)
	Register(ctx context.Context, reg models.Registration) (*models.AuthResponse, error)
	GoogleExchange(ctx context.Context, code, redirectURI string) (*models.AuthResponse, error)
}

// Service manages sessions keyed by an opaque session id (the BFF cookie or the CLI profile).
type Service struct {
	backend       Backend
	sessions      storage.Storage
	localFallback bool
	localUsers    []config.LocalUser
	ttl           time.Duration
	now           func() time.Time
	logger        *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithSessionTTL expires sessions older than ttl. Zero keeps them until logout.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService returns a Service storing sessions in sessions.
func NewService(backend Backend, sessions storage.Storage, cfg config.AuthConfig, opts ...Option) *Service {
	s := &Service{
		backend:       backend,
		sessions:      sessions,
		localFallback: cfg.LocalFallback,
		localUsers:    cfg.LocalUsers,
		now:           time.Now,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login authenticates creds and stores the session under id.
func (s *Service) Login(ctx context.Context, id string, creds models.Credentials) (*models.Session, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := models.Validate(creds); err != nil {
		return nil, err
	}
	resp, err := s.backend.Login(ctx, creds)
	if err != nil {
		var apiErr *api.APIError
		switch {
		case errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden):
			return nil, ErrInvalidCredentials
		case errors.As(err, &apiErr):
			return nil, fmt.Errorf("login failed: %w", err)
		case s.localFallback && ctx.Err() == nil:
			s.logger.Warn("backend unreachable, trying local accounts", zap.Error(err))
			sess, lerr := s.loginLocal(creds)
			if lerr != nil {
				return nil, lerr
			}
			return sess, s.save(ctx, id, sess)
		default:
			return nil, fmt.Errorf("login failed: %w", err)
		}
	}
	if !resp.Success || resp.AccessToken == "" {
		if resp.Message != "" {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, resp.Message)
		}
		return nil, ErrInvalidCredentials
	}
	sess := s.sessionFrom(resp, creds.Email)
	return sess, s.save(ctx, id, sess)
}

func (s *Service) loginLocal(creds models.Credentials) (*models.Session, error) {
	for _, u := range s.localUsers {
		if !strings.EqualFold(u.Email, creds.Email) {
			continue
		}
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(creds.Password)); err != nil {
			return nil, ErrInvalidCredentials
		}
		role := models.Role(strings.ToUpper(u.Role))
		if role == "" {
			role = models.RoleUser
		}
		return &models.Session{
			UserID:    u.ID,
			Name:      u.Name,
			Email:     u.Email,
			Role:      role,
			Local:     true,
			CreatedAt: s.now().UTC(),
		}, nil
	}
	return nil, ErrInvalidCredentials
}

// Register creates an account. Passwords must match and be at least 6 characters.
// When the backend answers with tokens the session is stored under id; otherwise the session is nil.
func (s *Service) Register(ctx context.Context, id string, reg models.Registration) (*models.Session, error) {
	reg.Email = strings.TrimSpace(reg.Email)
	reg.Name = strings.TrimSpace(reg.Name)
	if err := models.Validate(reg); err != nil {
		return nil, err
	}
	resp, err := s.backend.Register(ctx, reg)
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("registration failed: %s", resp.Message)
	}
	if resp.AccessToken == "" {
		return nil, nil
	}
	sess := s.sessionFrom(resp, reg.Email)
	return sess, s.save(ctx, id, sess)
}

// Google exchanges an OAuth code for a backend session.
func (s *Service) Google(ctx context.Context, id, code, redirectURI string) (*models.Session, error) {
	if strings.TrimSpace(code) == "" {
		return nil, &models.ValidationError{Fields: map[string]string{"Code": "code is required"}}
	}
	resp, err := s.backend.GoogleExchange(ctx, code, redirectURI)
	if err != nil {
		return nil, fmt.Errorf("google sign-in failed: %w", err)
	}
	if !resp.Success || resp.AccessToken == "" {
		return nil, fmt.Errorf("google sign-in failed: %s", resp.Message)
	}
	sess := s.sessionFrom(resp, "")
	return sess, s.save(ctx, id, sess)
}

// Session returns the session stored under id.
func (s *Service) Session(ctx context.Context, id string) (*models.Session, error) {
	if id == "" {
		return nil, ErrNotAuthenticated
	}
	var sess models.Session
	_, err := storage.GetJSON(ctx, s.sessions, sessionPrefix+id, &sess)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotAuthenticated
	}
	if err != nil {
		return nil, err
	}
	if s.ttl > 0 && s.now().Sub(sess.CreatedAt) > s.ttl {
		_ = s.sessions.Delete(ctx, sessionPrefix+id)
		return nil, ErrNotAuthenticated
	}
	return &sess, nil
}

// Token returns the access token of id's session, or "" when signed out.
func (s *Service) Token(ctx context.Context, id string) string {
	sess, err := s.Session(ctx, id)
	if err != nil {
		return ""
	}
	return sess.AccessToken
}

// Logout removes the session stored under id.
func (s *Service) Logout(ctx context.Context, id string) error {
	return s.sessions.Delete(ctx, sessionPrefix+id)
}

func (s *Service) sessionFrom(resp *models.AuthResponse, email string) *models.Session {
	sess := &models.Session{
		Email:        email,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		CreatedAt:    s.now().UTC(),
	}
	if u := resp.User; u != nil {
		sess.UserID = u.ID
		sess.Name = u.Name
		sess.Role = u.Role
		if u.Email != "" {
			sess.Email = u.Email
		}
	}
	return sess
}

func (s *Service) save(ctx context.Context, id string, sess *models.Session) error {
	if err := storage.PutJSON(ctx, s.sessions, sessionPrefix+id, sess); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// HashPassword returns a bcrypt hash suitable for config.LocalUser.PasswordHash.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
