package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"clinicbook/internal/auth"
	"clinicbook/internal/database"
	"clinicbook/internal/domain"
	"clinicbook/internal/models"

	"github.com/rs/zerolog"
)

// Identity is the caller resolved from a verified token.
type Identity struct {
	Email string
}

// AuthService is the identity gate: token verification, admin checks and
// token issuance.
type AuthService struct {
	users   domain.UserStore
	secret  string
	ttl     time.Duration
	timeout time.Duration
	logger  *zerolog.Logger
}

func NewAuthService(users domain.UserStore, secret string, ttl, storeTimeout time.Duration, logger *zerolog.Logger) *AuthService {
	if ttl <= 0 {
		ttl = models.DefaultTokenTTL * time.Second
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &AuthService{
		users:   users,
		secret:  secret,
		ttl:     ttl,
		timeout: storeTimeout,
		logger:  logger,
	}
}

// Authenticate verifies the raw Authorization header value. It never touches
// the store.
func (s *AuthService) Authenticate(header string) (*Identity, error) {
	raw, err := auth.BearerToken(header)
	if errors.Is(err, auth.ErrMissingToken) {
		return nil, newError(KindUnauthorized, "unauthorized access", err)
	}
	if err != nil {
		return nil, newError(KindForbidden, "forbidden access", err)
	}

	claims, err := auth.ParseToken(raw, s.secret)
	if err != nil {
		return nil, newError(KindForbidden, "forbidden access", err)
	}
	return &Identity{Email: claims.Email}, nil
}

// AuthorizeAdmin succeeds only when the identity maps to a user with the
// admin role.
func (s *AuthService) AuthorizeAdmin(ctx context.Context, id *Identity) error {
	if id == nil {
		return newError(KindUnauthorized, "unauthorized access", nil)
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	user, err := s.users.GetUserByEmail(ctx, id.Email)
	if errors.Is(err, database.ErrNotFound) {
		return newError(KindForbidden, "forbidden access", err)
	}
	if err != nil {
		return storeError(err, "user")
	}
	if !user.IsAdmin() {
		return newError(KindForbidden, "forbidden access", nil)
	}
	return nil
}

// IssueToken signs a token for a known user.
func (s *AuthService) IssueToken(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", newError(KindForbidden, "forbidden access", nil)
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.users.GetUserByEmail(ctx, email); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return "", newError(KindForbidden, "forbidden access", err)
		}
		return "", storeError(err, "user")
	}

	token, err := auth.MakeToken(email, s.secret, s.ttl)
	if err != nil {
		return "", newError(KindInternal, "internal error", err)
	}
	s.logger.Debug().Str("email", email).Msg("token issued")
	return token, nil
}
