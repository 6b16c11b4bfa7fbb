package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/yoockh/yootravel/internal/models"
	"github.com/yoockh/yootravel/internal/utils"
)

const sessionKeyPrefix = "session:"

// SessionStore keeps one ChatContext per browser session. Entries expire
// on their own after ttl so abandoned sessions do not accumulate.
//
// Only Create writes a new entry. Update mutates an existing one under
// optimistic locking, so a request that finishes after logout or expiry
// cannot bring the session back, and concurrent requests of one session
// do not overwrite each other's changes.
type SessionStore struct {
	cache Cache
	ttl   time.Duration
}

func NewSessionStore(c Cache, ttl time.Duration) *SessionStore {
	return &SessionStore{cache: c, ttl: ttl}
}

func sessionKey(sid string) string { return sessionKeyPrefix + sid }

// Load returns (nil, nil) when the session is unknown.
func (s *SessionStore) Load(ctx context.Context, sid string) (*models.ChatContext, error) {
	var cc models.ChatContext
	hit, err := s.cache.GetJSON(ctx, sessionKey(sid), &cc)
	if err != nil || !hit {
		return nil, err
	}
	return &cc, nil
}

func (s *SessionStore) Create(ctx context.Context, cc *models.ChatContext) error {
	return s.cache.SetJSON(ctx, sessionKey(cc.SessionID), cc, s.ttl)
}

// Update applies mutate to the current stored context and returns the
// result. A session that no longer exists yields utils.ErrNotFound.
func (s *SessionStore) Update(ctx context.Context, sid string, mutate func(*models.ChatContext) error) (*models.ChatContext, error) {
	var out *models.ChatContext
	err := s.cache.UpdateJSON(ctx, sessionKey(sid), s.ttl, func(raw []byte) (any, error) {
		var cc models.ChatContext
		if err := json.Unmarshal(raw, &cc); err != nil {
			return nil, fmt.Errorf("decode session %s: %w", sid, err)
		}
		if err := mutate(&cc); err != nil {
			return nil, err
		}
		out = &cc
		return &cc, nil
	})
	if errors.Is(err, ErrMiss) {
		return nil, fmt.Errorf("session %s: %w", sid, utils.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SessionStore) Delete(ctx context.Context, sid string) error {
	return s.cache.Del(ctx, sessionKey(sid))
}
