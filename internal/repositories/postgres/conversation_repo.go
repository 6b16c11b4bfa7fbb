package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/yoockh/yootravel/internal/models"
)

type ConversationRepo interface {
	// AppendWithUser upserts the owning user and inserts the record in one transaction.
	AppendWithUser(ctx context.Context, c *models.Conversation) error
	DeleteByUser(ctx context.Context, userID string) error
	CountByUser(ctx context.Context, userID string) (int64, error)
	Analytics(ctx context.Context, userID string) (*models.UserAnalytics, error)
	LatestN(ctx context.Context, userID string, n int) ([]models.Conversation, error)
}

type conversationRepo struct {
	db *gorm.DB
}

func NewConversationRepo(db *gorm.DB) ConversationRepo {
	return &conversationRepo{db: db}
}

func (r *conversationRepo) AppendWithUser(ctx context.Context, c *models.Conversation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUser(tx, c.UserID, c.CreatedAt); err != nil {
			return err
		}
		return tx.Create(c).Error
	})
}

func (r *conversationRepo) DeleteByUser(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.Conversation{}).Error
}

func (r *conversationRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n, err
}

func (r *conversationRepo) Analytics(ctx context.Context, userID string) (*models.UserAnalytics, error) {
	out := &models.UserAnalytics{}
	n, err := r.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out.TotalConversations = n
	if n == 0 {
		return out, nil
	}

	var first, last models.Conversation
	q := r.db.WithContext(ctx).Select("created_at").Where("user_id = ?", userID)
	if err := q.Session(&gorm.Session{}).Order("created_at ASC, id ASC").Take(&first).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err := q.Session(&gorm.Session{}).Order("created_at DESC, id DESC").Take(&last).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if !first.CreatedAt.IsZero() {
		t := first.CreatedAt
		out.FirstInteraction = &t
	}
	if !last.CreatedAt.IsZero() {
		t := last.CreatedAt
		out.LastInteraction = &t
	}
	return out, nil
}

func (r *conversationRepo) LatestN(ctx context.Context, userID string, n int) ([]models.Conversation, error) {
	if n <= 0 {
		n = 10
	}
	var rows []models.Conversation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(n).
		Find(&rows).Error
	return rows, err
}
