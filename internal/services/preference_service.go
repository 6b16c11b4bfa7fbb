package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/yoockh/yootravel/internal/models"
	pgrepo "github.com/yoockh/yootravel/internal/repositories/postgres"
	"github.com/yoockh/yootravel/internal/utils"
)

// RecentConversationLimit is how many past turns are loaded for a returning user.
const RecentConversationLimit = 10

type PreferenceService interface {
	// Update stores prefs as the complete snapshot for userID.
	Update(ctx context.Context, userID, email string, prefs models.Preferences) error
	// Get returns CodeNotFound for a user that has never been stored.
	Get(ctx context.Context, userID string) (*models.Preferences, error)
	UserData(ctx context.Context, userID string) (*models.UserData, error)
}

type preferenceService struct {
	users  pgrepo.UserRepository
	convos pgrepo.ConversationRepo
	now    func() time.Time
}

func NewPreferenceService(users pgrepo.UserRepository, convos pgrepo.ConversationRepo) PreferenceService {
	return &preferenceService{users: users, convos: convos, now: func() time.Time { return time.Now().UTC() }}
}

func (s *preferenceService) Update(ctx context.Context, userID, email string, prefs models.Preferences) error {
	const op = "PreferenceService.Update"

	if userID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	b, err := json.Marshal(prefs)
	if err != nil {
		return utils.E(utils.CodeInvalidArgument, op, "invalid preferences", err)
	}

	var emailPtr *string
	if e := strings.TrimSpace(email); e != "" {
		emailPtr = &e
	}
	if err := s.users.UpsertPreferences(ctx, userID, emailPtr, b, s.now()); err != nil {
		return storeErr(op, "failed to save preferences", err)
	}
	return nil
}

func (s *preferenceService) Get(ctx context.Context, userID string) (*models.Preferences, error) {
	const op = "PreferenceService.Get"

	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, storeErr(op, "failed to load preferences", err)
	}
	prefs := &models.Preferences{}
	if len(u.Preferences) > 0 {
		if err := json.Unmarshal(u.Preferences, prefs); err != nil {
			return nil, utils.E(utils.CodeInternal, op, "stored preferences are malformed", err)
		}
	}
	return prefs, nil
}

// UserData returns an empty result, not an error, for an unknown user.
func (s *preferenceService) UserData(ctx context.Context, userID string) (*models.UserData, error) {
	const op = "PreferenceService.UserData"

	out := &models.UserData{Conversations: []models.ConversationData{}}

	prefs, err := s.Get(ctx, userID)
	switch {
	case err == nil:
		out.Preferences = prefs
	case !utils.IsCode(err, utils.CodeNotFound):
		return nil, err
	}

	rows, err := s.convos.LatestN(ctx, userID, RecentConversationLimit)
	if err != nil {
		return nil, storeErr(op, "failed to load conversations", err)
	}
	for _, r := range rows {
		var d models.ConversationData
		if err := json.Unmarshal(r.ConversationData, &d); err != nil {
			continue
		}
		out.Conversations = append(out.Conversations, d)
	}
	return out, nil
}
