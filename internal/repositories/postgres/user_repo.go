package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yoockh/yootravel/internal/models"
	"github.com/yoockh/yootravel/internal/utils"
)

type UserRepository interface {
	// UpsertPreferences replaces the stored snapshot. A nil email leaves the
	// stored email untouched.
	UpsertPreferences(ctx context.Context, userID string, email *string, prefs datatypes.JSON, at time.Time) error
	Get(ctx context.Context, userID string) (*models.User, error)
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) UpsertPreferences(ctx context.Context, userID string, email *string, prefs datatypes.JSON, at time.Time) error {
	cols := []string{"preferences", "last_active"}
	if email != nil {
		cols = append(cols, "email")
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns(cols),
		}).
		Create(&models.User{UserID: userID, Email: email, Preferences: prefs, LastActive: at}).Error
}

func (r *userRepo) Get(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ensureUser creates the user row if missing and bumps last_active. It runs
// on the caller's transaction so the dependent insert sees the row.
func ensureUser(tx *gorm.DB, userID string, at time.Time) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_active"}),
	}).Create(&models.User{UserID: userID, Preferences: datatypes.JSON("{}"), LastActive: at}).Error
}
