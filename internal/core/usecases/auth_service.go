package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/krishisahayak/krishi/internal/core/domain"
	"github.com/krishisahayak/krishi/internal/core/ports"
	"github.com/krishisahayak/krishi/internal/pkg/logging"
)

// DefaultSessionTTL applies to tokens that carry no expiry.
const DefaultSessionTTL = 7 * 24 * time.Hour

// AuthService signs farmers in and out through the backend and remembers
// their sessions.
type AuthService struct {
	backend ports.BackendFactory
	cache   ports.CacheService
	now     func() time.Time
}

// NewAuthService creates an AuthService. Without a cache, sessions are not
// remembered and Resolve always fails.
func NewAuthService(backend ports.BackendFactory, cache ports.CacheService) *AuthService {
	return &AuthService{backend: backend, cache: cache, now: time.Now}
}

// Login signs in with an email, phone or username.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*domain.AuthSession, error) {
	res, err := s.backend(nil).Signin(ctx, identifier, password)
	if err != nil {
		return nil, fmt.Errorf("signin: %w", err)
	}
	return s.establish(ctx, res)
}

// Register validates the form and creates the account.
func (s *AuthService) Register(ctx context.Context, form domain.SignupForm) (*domain.AuthSession, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	res, err := s.backend(nil).Signup(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}
	return s.establish(ctx, res)
}

// Resolve returns the remembered session for token.
func (s *AuthService) Resolve(ctx context.Context, token string) (*domain.AuthSession, error) {
	if s.cache == nil || token == "" {
		return nil, domain.ErrSessionUnknown
	}
	data, err := s.cache.Get(ctx, sessionKey(token))
	if errors.Is(err, ports.ErrCacheMiss) {
		return nil, domain.ErrSessionUnknown
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var sess domain.AuthSession
	if err := json.Unmarshal(data, &sess); err != nil {
		_ = s.cache.Delete(ctx, sessionKey(token))
		return nil, domain.ErrSessionUnknown
	}
	if sess.Token != token || sess.Expired(s.now()) {
		_ = s.cache.Delete(ctx, sessionKey(token))
		return nil, domain.ErrSessionUnknown
	}
	return &sess, nil
}

// Logout forgets the session for token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if s.cache == nil || token == "" {
		return nil
	}
	if err := s.cache.Delete(ctx, sessionKey(token)); err != nil {
		return fmt.Errorf("drop session: %w", err)
	}
	return nil
}

func (s *AuthService) establish(ctx context.Context, res *domain.AuthResult) (*domain.AuthSession, error) {
	if !res.Success || res.Token == "" || res.User == nil {
		msg := res.Message
		if msg == "" {
			msg = "no session returned"
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrAuthRejected, msg)
	}

	sess := NewSession(res.Token, *res.User)
	if s.cache == nil {
		return sess, nil
	}

	ttl := DefaultSessionTTL
	if !sess.ExpiresAt.IsZero() {
		ttl = sess.ExpiresAt.Sub(s.now())
		if ttl <= 0 {
			return nil, fmt.Errorf("%w: token already expired", domain.ErrAuthRejected)
		}
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, sessionKey(sess.Token), data, int(ttl.Seconds())); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	logging.FromContext(ctx).Info("session established", "user_id", sess.UserID())
	return sess, nil
}

// NewSession builds a session, taking the expiry from the token's exp claim
// when the token is a JWT. The signature is not checked; the backend does that.
func NewSession(token string, user domain.User) *domain.AuthSession {
	sess := &domain.AuthSession{Token: token, User: user}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return sess
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		sess.ExpiresAt = exp.Time.UTC()
	}
	return sess
}

func sessionKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "session:" + hex.EncodeToString(sum[:])
}
