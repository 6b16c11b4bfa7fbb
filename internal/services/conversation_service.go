package services

import (
	"context"
	"encoding/json"

	"github.com/yoockh/yootravel/internal/models"
	pgrepo "github.com/yoockh/yootravel/internal/repositories/postgres"
	"github.com/yoockh/yootravel/internal/utils"
)

type ConversationService interface {
	Append(ctx context.Context, userID string, sessionID *string, data models.ConversationData) error
	Clear(ctx context.Context, userID string) error
	Count(ctx context.Context, userID string) (int64, error)
	Analytics(ctx context.Context, userID string) (*models.UserAnalytics, error)
}

type conversationService struct {
	convos pgrepo.ConversationRepo
}

func NewConversationService(convos pgrepo.ConversationRepo) ConversationService {
	return &conversationService{convos: convos}
}

func (s *conversationService) Append(ctx context.Context, userID string, sessionID *string, data models.ConversationData) error {
	const op = "ConversationService.Append"

	if userID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	b, err := json.Marshal(data)
	if err != nil {
		return utils.E(utils.CodeInvalidArgument, op, "invalid conversation record", err)
	}

	row := &models.Conversation{
		UserID:           userID,
		ConversationData: b,
		CreatedAt:        data.Timestamp.UTC(),
		SessionID:        sessionID,
	}
	if err := s.convos.AppendWithUser(ctx, row); err != nil {
		return storeErr(op, "failed to save conversation", err)
	}
	return nil
}

func (s *conversationService) Clear(ctx context.Context, userID string) error {
	const op = "ConversationService.Clear"

	if err := s.convos.DeleteByUser(ctx, userID); err != nil {
		return storeErr(op, "failed to clear conversations", err)
	}
	return nil
}

func (s *conversationService) Count(ctx context.Context, userID string) (int64, error) {
	const op = "ConversationService.Count"

	n, err := s.convos.CountByUser(ctx, userID)
	if err != nil {
		return 0, storeErr(op, "failed to count conversations", err)
	}
	return n, nil
}

func (s *conversationService) Analytics(ctx context.Context, userID string) (*models.UserAnalytics, error) {
	const op = "ConversationService.Analytics"

	a, err := s.convos.Analytics(ctx, userID)
	if err != nil {
		return nil, storeErr(op, "failed to load analytics", err)
	}
	return a, nil
}
