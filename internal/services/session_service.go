package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/yoockh/yootravel/internal/models"
	pgrepo "github.com/yoockh/yootravel/internal/repositories/postgres"
	"github.com/yoockh/yootravel/internal/utils"
)

const (
	DefaultSessionListLimit = 20
	MaxTitleLength          = 500
)

type SessionService interface {
	Create(ctx context.Context, userID, title string) (*models.ConversationSession, error)
	List(ctx context.Context, userID string, limit int) ([]models.ConversationSession, error)
	// Get returns CodeNotFound when the session does not exist or belongs
	// to someone else.
	Get(ctx context.Context, sessionID, userID string) (*models.ConversationSession, error)
	Messages(ctx context.Context, sessionID string) ([]models.MessageData, error)
	AppendMessage(ctx context.Context, sessionID, userID, role, content string, metadata map[string]any) error
	Rename(ctx context.Context, sessionID, userID, title string) error
	Delete(ctx context.Context, sessionID, userID string) error
	// AutoTitle names the session after firstMessage unless the user already
	// chose a title, in which case it returns "".
	AutoTitle(ctx context.Context, sessionID, firstMessage string) (string, error)
}

type sessionService struct {
	sessions pgrepo.SessionRepository
	now      func() time.Time
}

func NewSessionService(sessions pgrepo.SessionRepository) SessionService {
	return &sessionService{sessions: sessions, now: func() time.Time { return time.Now().UTC() }}
}

// DefaultTitle is used when a session is created without one.
func DefaultTitle(now time.Time) string {
	return "Travel Chat - " + now.Format("01/02 15:04")
}

// TitleFromMessage is the first six words of msg, shortened to 50
// characters, or a dated fallback when that is under 10 characters.
func TitleFromMessage(msg string, now time.Time) string {
	words := strings.Fields(msg)
	if len(words) > 6 {
		words = words[:6]
	}
	title := strings.Join(words, " ")

	switch n := utf8.RuneCountInString(title); {
	case n > 50:
		title = string([]rune(title)[:47]) + "..."
	case n < 10:
		title = "Travel Chat - " + now.Format("01/02")
	}
	return title
}

func (s *sessionService) Create(ctx context.Context, userID, title string) (*models.ConversationSession, error) {
	const op = "SessionService.Create"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	now := s.now()
	title = strings.TrimSpace(title)
	custom := title != ""
	if !custom {
		title = DefaultTitle(now)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return nil, utils.E(utils.CodeInvalidArgument, op, "title must be at most 500 characters", nil)
	}

	sess := &models.ConversationSession{
		SessionID:   uuid.NewString(),
		UserID:      userID,
		Title:       title,
		CreatedAt:   now,
		LastUpdated: now,
		CustomTitle: custom,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, storeErr(op, "failed to create session", err)
	}
	return sess, nil
}

func (s *sessionService) List(ctx context.Context, userID string, limit int) ([]models.ConversationSession, error) {
	const op = "SessionService.List"

	if limit <= 0 {
		limit = DefaultSessionListLimit
	}
	rows, err := s.sessions.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, storeErr(op, "failed to list sessions", err)
	}
	return rows, nil
}

func (s *sessionService) Get(ctx context.Context, sessionID, userID string) (*models.ConversationSession, error) {
	const op = "SessionService.Get"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, storeErr(op, "session not found", err)
	}
	if sess.UserID != userID {
		return nil, utils.E(utils.CodeNotFound, op, "session not found", utils.ErrNotFound)
	}
	return sess, nil
}

func (s *sessionService) Messages(ctx context.Context, sessionID string) ([]models.MessageData, error) {
	const op = "SessionService.Messages"

	rows, err := s.sessions.Messages(ctx, sessionID)
	if err != nil {
		return nil, storeErr(op, "failed to load messages", err)
	}
	out := make([]models.MessageData, 0, len(rows))
	for _, r := range rows {
		var md models.MessageData
		if err := json.Unmarshal(r.MessageData, &md); err != nil {
			continue
		}
		if md.Timestamp.IsZero() {
			md.Timestamp = r.CreatedAt
		}
		out = append(out, md)
	}
	return out, nil
}

func (s *sessionService) AppendMessage(ctx context.Context, sessionID, userID, role, content string, metadata map[string]any) error {
	const op = "SessionService.AppendMessage"

	if sessionID == "" || role == "" {
		return utils.E(utils.CodeInvalidArgument, op, "session_id and role are required", nil)
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	now := s.now()
	b, err := json.Marshal(models.MessageData{Role: role, Content: content, Timestamp: now, Metadata: metadata})
	if err != nil {
		return utils.E(utils.CodeInvalidArgument, op, "invalid message metadata", err)
	}

	err = s.sessions.AppendMessage(ctx, &models.ConversationMessage{
		SessionID:   sessionID,
		UserID:      userID,
		MessageData: b,
		CreatedAt:   now,
	})
	if err != nil {
		return storeErr(op, "failed to save message", err)
	}
	return nil
}

func (s *sessionService) Rename(ctx context.Context, sessionID, userID, title string) error {
	const op = "SessionService.Rename"

	title = strings.TrimSpace(title)
	if title == "" {
		return utils.E(utils.CodeInvalidArgument, op, "title is required", nil)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return utils.E(utils.CodeInvalidArgument, op, "title must be at most 500 characters", nil)
	}
	if _, err := s.Get(ctx, sessionID, userID); err != nil {
		return err
	}
	if err := s.sessions.UpdateTitle(ctx, sessionID, title, s.now()); err != nil {
		return storeErr(op, "failed to rename session", err)
	}
	return nil
}

func (s *sessionService) Delete(ctx context.Context, sessionID, userID string) error {
	const op = "SessionService.Delete"

	if err := s.sessions.Delete(ctx, sessionID, userID); err != nil {
		return storeErr(op, "failed to delete session", err)
	}
	return nil
}

func (s *sessionService) AutoTitle(ctx context.Context, sessionID, firstMessage string) (string, error) {
	const op = "SessionService.AutoTitle"

	now := s.now()
	title := TitleFromMessage(firstMessage, now)
	applied, err := s.sessions.SetAutoTitle(ctx, sessionID, title, now)
	if err != nil {
		return "", storeErr(op, "failed to set title", err)
	}
	if !applied {
		return "", nil
	}
	return title, nil
}
