package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yoockh/yootravel/internal/models"
	pgrepo "github.com/yoockh/yootravel/internal/repositories/postgres"
)

// VisitService tracks one identified visit per browser session in the
// user_sessions table.
type VisitService interface {
	Start(ctx context.Context, userID string) (string, error)
	CountMessage(ctx context.Context, visitID string) error
	End(ctx context.Context, visitID string) error
}

type visitService struct {
	visits pgrepo.UserSessionRepository
	now    func() time.Time
}

func NewVisitService(visits pgrepo.UserSessionRepository) VisitService {
	return &visitService{visits: visits, now: func() time.Time { return time.Now().UTC() }}
}

func (s *visitService) Start(ctx context.Context, userID string) (string, error) {
	const op = "VisitService.Start"

	id := uuid.NewString()
	if err := s.visits.Start(ctx, &models.UserSession{SessionID: id, UserID: userID, StartTime: s.now()}); err != nil {
		return "", storeErr(op, "failed to start visit", err)
	}
	return id, nil
}

func (s *visitService) CountMessage(ctx context.Context, visitID string) error {
	const op = "VisitService.CountMessage"

	if err := s.visits.IncrementMessages(ctx, visitID); err != nil {
		return storeErr(op, "failed to count message", err)
	}
	return nil
}

func (s *visitService) End(ctx context.Context, visitID string) error {
	const op = "VisitService.End"

	if err := s.visits.End(ctx, visitID, s.now()); err != nil {
		return storeErr(op, "failed to end visit", err)
	}
	return nil
}
