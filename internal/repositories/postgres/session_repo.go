package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yoockh/yootravel/internal/models"
	"github.com/yoockh/yootravel/internal/utils"
)

type SessionRepository interface {
	Create(ctx context.Context, s *models.ConversationSession) error
	Get(ctx context.Context, sessionID string) (*models.ConversationSession, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.ConversationSession, error)
	// AppendMessage inserts the message and bumps the owning session's
	// counter and last_updated in one transaction.
	AppendMessage(ctx context.Context, m *models.ConversationMessage) error
	Messages(ctx context.Context, sessionID string) ([]models.ConversationMessage, error)
	// UpdateTitle stores a title the user chose.
	UpdateTitle(ctx context.Context, sessionID, title string, at time.Time) error
	// SetAutoTitle names the session only while it still has no custom
	// title; it reports whether the title was applied.
	SetAutoTitle(ctx context.Context, sessionID, title string, at time.Time) (bool, error)
	Delete(ctx context.Context, sessionID, userID string) error
}

type sessionRepo struct {
	db *gorm.DB
}

func NewSessionRepo(db *gorm.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Create(ctx context.Context, s *models.ConversationSession) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUser(tx, s.UserID, s.CreatedAt); err != nil {
			return err
		}
		return tx.Create(s).Error
	})
}

func (r *sessionRepo) Get(ctx context.Context, sessionID string) (*models.ConversationSession, error) {
	var s models.ConversationSession
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.ConversationSession, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []models.ConversationSession
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_updated DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *sessionRepo) AppendMessage(ctx context.Context, m *models.ConversationMessage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ConversationSession{}).
			Where("session_id = ?", m.SessionID).
			Updates(map[string]any{
				"message_count": gorm.Expr("COALESCE(message_count, 0) + 1"),
				"last_updated":  m.CreatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return utils.ErrNotFound
		}
		return tx.Create(m).Error
	})
}

func (r *sessionRepo) Messages(ctx context.Context, sessionID string) ([]models.ConversationMessage, error) {
	var rows []models.ConversationMessage
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *sessionRepo) UpdateTitle(ctx context.Context, sessionID, title string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.ConversationSession{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]any{"title": title, "custom_title": true, "last_updated": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *sessionRepo) SetAutoTitle(ctx context.Context, sessionID, title string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ConversationSession{}).
		Where("session_id = ? AND custom_title = ?", sessionID, false).
		Updates(map[string]any{"title": title, "last_updated": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Delete removes the session's messages and then the session, scoped to its owner.
func (r *sessionRepo) Delete(ctx context.Context, sessionID, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ? AND user_id = ?", sessionID, userID).
			Delete(&models.ConversationMessage{}).Error; err != nil {
			return err
		}
		res := tx.Where("session_id = ? AND user_id = ?", sessionID, userID).
			Delete(&models.ConversationSession{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return utils.ErrNotFound
		}
		return nil
	})
}
