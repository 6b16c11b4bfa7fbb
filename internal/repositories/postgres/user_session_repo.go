package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/yoockh/yootravel/internal/models"
)

type UserSessionRepository interface {
	Start(ctx context.Context, s *models.UserSession) error
	IncrementMessages(ctx context.Context, sessionID string) error
	End(ctx context.Context, sessionID string, at time.Time) error
}

type userSessionRepo struct {
	db *gorm.DB
}

func NewUserSessionRepo(db *gorm.DB) UserSessionRepository {
	return &userSessionRepo{db: db}
}

func (r *userSessionRepo) Start(ctx context.Context, s *models.UserSession) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUser(tx, s.UserID, s.StartTime); err != nil {
			return err
		}
		return tx.Create(s).Error
	})
}

func (r *userSessionRepo) IncrementMessages(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).
		Model(&models.UserSession{}).
		Where("session_id = ?", sessionID).
		Update("messages_count", gorm.Expr("COALESCE(messages_count, 0) + 1")).Error
}

func (r *userSessionRepo) End(ctx context.Context, sessionID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.UserSession{}).
		Where("session_id = ? AND end_time IS NULL", sessionID).
		Update("end_time", at).Error
}
