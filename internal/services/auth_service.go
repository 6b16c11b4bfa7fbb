package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yoockh/yootravel/internal/models"
	"github.com/yoockh/yootravel/internal/utils"
)

const InvalidPasswordMessage = "Invalid password. Please try again."

// ContextStore persists per-session chat contexts. Create is for login
// only; every later change goes through Update, which fails with
// utils.ErrNotFound once the session has been discarded.
type ContextStore interface {
	Load(ctx context.Context, sid string) (*models.ChatContext, error)
	Create(ctx context.Context, cc *models.ChatContext) error
	Update(ctx context.Context, sid string, mutate func(*models.ChatContext) error) (*models.ChatContext, error)
	Delete(ctx context.Context, sid string) error
}

type AuthService interface {
	Verify(secret string) bool
	// Login checks the shared secret and opens a session, returning its
	// context and a signed token naming it.
	Login(ctx context.Context, secret string) (*models.ChatContext, string, error)
	ParseToken(token string) (string, error)
	// IsAuthenticated is false for an unknown, unauthenticated or idle
	// session. An idle session is removed from the store.
	IsAuthenticated(ctx context.Context, sid string) (*models.ChatContext, bool, error)
	Refresh(ctx context.Context, cc *models.ChatContext) error
	Logout(ctx context.Context, sid string) error
	Remaining(cc *models.ChatContext) time.Duration
}

type authService struct {
	password []byte
	key      []byte
	timeout  time.Duration
	store    ContextStore
	now      func() time.Time
}

func NewAuthService(password string, signingKey []byte, timeout time.Duration, store ContextStore) AuthService {
	return &authService{
		password: []byte(password),
		key:      signingKey,
		timeout:  timeout,
		store:    store,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *authService) Verify(secret string) bool {
	return subtle.ConstantTimeCompare([]byte(secret), s.password) == 1
}

func (s *authService) Login(ctx context.Context, secret string) (*models.ChatContext, string, error) {
	const op = "AuthService.Login"

	if !s.Verify(secret) {
		return nil, "", utils.E(utils.CodeUnauthorized, op, InvalidPasswordMessage, nil)
	}

	now := s.now()
	cc := &models.ChatContext{
		SessionID:     uuid.NewString(),
		Authenticated: true,
		AuthTime:      now,
	}
	if err := s.store.Create(ctx, cc); err != nil {
		return nil, "", utils.E(utils.CodeUnavailable, op, "failed to store session", err)
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:       cc.SessionID,
		IssuedAt: jwt.NewNumericDate(now),
	})
	signed, err := tok.SignedString(s.key)
	if err != nil {
		return nil, "", utils.E(utils.CodeInternal, op, "failed to sign session token", err)
	}
	return cc, signed, nil
}

func (s *authService) ParseToken(raw string) (string, error) {
	const op = "AuthService.ParseToken"

	claims := &jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || tok == nil || !tok.Valid || claims.ID == "" {
		return "", utils.E(utils.CodeUnauthorized, op, "invalid session token", err)
	}
	return claims.ID, nil
}

func (s *authService) IsAuthenticated(ctx context.Context, sid string) (*models.ChatContext, bool, error) {
	const op = "AuthService.IsAuthenticated"

	cc, err := s.store.Load(ctx, sid)
	if err != nil {
		return nil, false, utils.E(utils.CodeUnavailable, op, "failed to load session", err)
	}
	if cc == nil || !cc.Authenticated {
		return nil, false, nil
	}
	if s.now().Sub(cc.AuthTime) > s.timeout {
		if err := s.store.Delete(ctx, sid); err != nil {
			return nil, false, utils.E(utils.CodeUnavailable, op, "failed to clear expired session", err)
		}
		return nil, false, nil
	}
	return cc, true, nil
}

func (s *authService) Refresh(ctx context.Context, cc *models.ChatContext) error {
	const op = "AuthService.Refresh"

	now := s.now()
	fresh, err := s.store.Update(ctx, cc.SessionID, func(stored *models.ChatContext) error {
		stored.AuthTime = now
		return nil
	})
	if errors.Is(err, utils.ErrNotFound) {
		return utils.E(utils.CodeUnauthorized, op, "session expired, please log in again", err)
	}
	if err != nil {
		return utils.E(utils.CodeUnavailable, op, "failed to refresh session", err)
	}
	*cc = *fresh
	return nil
}

func (s *authService) Logout(ctx context.Context, sid string) error {
	const op = "AuthService.Logout"

	if err := s.store.Delete(ctx, sid); err != nil {
		return utils.E(utils.CodeUnavailable, op, "failed to clear session", err)
	}
	return nil
}

func (s *authService) Remaining(cc *models.ChatContext) time.Duration {
	if cc == nil {
		return 0
	}
	left := s.timeout - s.now().Sub(cc.AuthTime)
	if left < 0 {
		return 0
	}
	return left
}
