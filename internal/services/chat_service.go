package services

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/yootravel/internal/models"
	"github.com/yoockh/yootravel/internal/prompts"
	"github.com/yoockh/yootravel/internal/providers/llm"
	"github.com/yoockh/yootravel/internal/utils"
)

const (
	ServiceUnavailableMessage = "I apologize, but I'm having trouble connecting to my AI service right now. Please try again in a moment."
	GeneralErrorMessage       = "I encountered an error while processing your request. Please try again."

	ErrorTypeCompletion = "groq_api_error"
	ErrorTypeGeneral    = "general_error"
)

type TurnResult struct {
	Reply        string `json:"reply"`
	OK           bool   `json:"ok"`
	ErrorType    string `json:"error_type,omitempty"`
	SessionTitle string `json:"session_title,omitempty"`
}

type IdentifyResult struct {
	UserID              string                    `json:"user_id"`
	Email               string                    `json:"email"`
	Preferences         *models.Preferences       `json:"preferences"`
	Welcome             string                    `json:"welcome"`
	RecentConversations []models.ConversationData `json:"recent_conversations"`
}

type ChatStats struct {
	MessagesSent       int   `json:"messages_sent"`
	PreferencesSet     int   `json:"preferences_set"`
	TotalConversations int64 `json:"total_conversations"`
}

type SessionView struct {
	Session  *models.ConversationSession `json:"session"`
	Messages []models.MessageData        `json:"messages"`
}

// ChatService drives one browser session: identification, preferences and
// chat turns. Every method that changes cc commits the change to the store
// and refreshes cc from it.
type ChatService interface {
	Identify(ctx context.Context, cc *models.ChatContext, email string) (*IdentifyResult, error)
	UpdatePreferences(ctx context.Context, cc *models.ChatContext, prefs models.Preferences) (*models.Preferences, error)
	// Turn returns an error only for a rejected request. Completion and
	// store failures are reported through TurnResult.
	Turn(ctx context.Context, cc *models.ChatContext, message string) (TurnResult, error)
	QuickAction(ctx context.Context, cc *models.ChatContext, id string) (TurnResult, error)
	ClearConversation(ctx context.Context, cc *models.ChatContext) error
	Stats(ctx context.Context, cc *models.ChatContext) (*ChatStats, error)
	Starters(cc *models.ChatContext) []string
	NewSession(ctx context.Context, cc *models.ChatContext, title string) (*models.ConversationSession, error)
	OpenSession(ctx context.Context, cc *models.ChatContext, sessionID string) (*SessionView, error)
	DeleteSession(ctx context.Context, cc *models.ChatContext, sessionID string) error
	Leave(ctx context.Context, cc *models.ChatContext)
}

type ChatDeps struct {
	Store         ContextStore
	Assembler     *prompts.Assembler
	Provider      llm.Provider
	Preferences   PreferenceService
	Conversations ConversationService
	Sessions      SessionService
	Visits        VisitService
	Telemetry     TelemetryService
	Logger        *logrus.Logger
}

type chatService struct {
	ChatDeps
	now func() time.Time
}

func NewChatService(d ChatDeps) ChatService {
	if d.Logger == nil {
		d.Logger = logrus.New()
	}
	if d.Assembler == nil {
		d.Assembler = prompts.NewAssembler()
	}
	return &chatService{ChatDeps: d, now: func() time.Time { return time.Now().UTC() }}
}

// commit applies mutate to the stored context and copies the result into
// cc, even when the request context is already gone. Changes made by other
// requests of the session in the meantime are kept, and a session that was
// discarded in the meantime stays discarded.
func (s *chatService) commit(ctx context.Context, cc *models.ChatContext, mutate func(*models.ChatContext)) {
	fresh, err := s.Store.Update(context.WithoutCancel(ctx), cc.SessionID, func(stored *models.ChatContext) error {
		mutate(stored)
		return nil
	})
	if err != nil {
		mutate(cc)
		entry := s.Logger.WithField("session_id", cc.SessionID)
		if errors.Is(err, utils.ErrNotFound) {
			entry.Info("session ended before the request finished")
			return
		}
		entry.WithError(err).Error("failed to save chat context")
		return
	}
	*cc = *fresh
}

// ignore logs a store or telemetry failure that must not reach the user.
func (s *chatService) ignore(err error, userID, what string) {
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Warn(what)
	}
}

func requireIdentified(op string, cc *models.ChatContext) error {
	if !cc.Identified() {
		return utils.E(utils.CodeInvalidArgument, op, "enter your email to start chatting", nil)
	}
	return nil
}

func (s *chatService) Identify(ctx context.Context, cc *models.ChatContext, email string) (*IdentifyResult, error) {
	const op = "ChatService.Identify"

	email = strings.TrimSpace(email)
	if email == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "email is required", nil)
	}
	userID := utils.UserIDFromEmail(email)

	if cc.Identified() && cc.UserID != userID && cc.VisitID != "" {
		s.ignore(s.Visits.End(ctx, cc.VisitID), cc.UserID, "failed to end visit")
	}

	data, err := s.Preferences.UserData(ctx, userID)
	if err != nil {
		s.ignore(err, userID, "failed to load user data")
		data = &models.UserData{Conversations: []models.ConversationData{}}
	}

	prefs := data.Preferences
	if prefs == nil {
		prefs = &models.Preferences{}
	}
	welcome := s.Assembler.WelcomeMessage(prefs)

	s.ignore(s.Telemetry.LogAction(ctx, userID, "login", map[string]any{"email": email}), userID, "failed to log login")

	visitID, err := s.Visits.Start(ctx, userID)
	s.ignore(err, userID, "failed to start visit")

	s.commit(ctx, cc, func(st *models.ChatContext) {
		st.UserID = userID
		st.Email = email
		st.Preferences = prefs
		st.ConversationID = ""
		st.Messages = []models.ChatMessage{{Role: models.RoleAssistant, Content: welcome}}
		st.VisitID = visitID
	})
	return &IdentifyResult{
		UserID:              userID,
		Email:               email,
		Preferences:         prefs,
		Welcome:             welcome,
		RecentConversations: data.Conversations,
	}, nil
}

func (s *chatService) UpdatePreferences(ctx context.Context, cc *models.ChatContext, prefs models.Preferences) (*models.Preferences, error) {
	const op = "ChatService.UpdatePreferences"

	if err := requireIdentified(op, cc); err != nil {
		return nil, err
	}
	if cc.Preferences.SameChoices(&prefs) {
		return cc.Preferences, nil
	}

	now := s.now()
	prefs.LastUpdated = &now
	if err := s.Preferences.Update(ctx, cc.UserID, cc.Email, prefs); err != nil {
		return nil, err
	}
	s.commit(ctx, cc, func(st *models.ChatContext) {
		p := prefs
		st.Preferences = &p
	})
	return &prefs, nil
}

func (s *chatService) Turn(ctx context.Context, cc *models.ChatContext, message string) (res TurnResult, err error) {
	const op = "ChatService.Turn"

	if strings.TrimSpace(message) == "" {
		return TurnResult{}, utils.E(utils.CodeInvalidArgument, op, "message is required", nil)
	}
	if err := requireIdentified(op, cc); err != nil {
		return TurnResult{}, err
	}
	userID := cc.UserID
	convID := cc.ConversationID
	history := cc.Messages

	// pending is appended to the stored transcript when the turn ends,
	// unless the user has switched conversations since.
	pending := []models.ChatMessage{{Role: models.RoleUser, Content: message}}
	dropSession := false
	defer func() {
		s.commit(ctx, cc, func(st *models.ChatContext) {
			if st.ConversationID != convID {
				return
			}
			st.Messages = append(st.Messages, pending...)
			if dropSession {
				st.ConversationID = ""
			}
		})
	}()
	defer func() {
		if r := recover(); r != nil {
			s.ignore(s.Telemetry.LogError(ctx, userID, ErrorTypeGeneral, map[string]any{
				"error":      fmt.Sprint(r),
				"user_query": message,
			}, string(debug.Stack())), userID, "failed to log error")
			res, err = TurnResult{Reply: GeneralErrorMessage, ErrorType: ErrorTypeGeneral}, nil
		}
	}()

	s.ignore(s.Telemetry.LogInput(ctx, userID, message, nil), userID, "failed to log input")

	prompt := s.Assembler.Assemble(cc.Preferences, history, message)

	start := time.Now()
	reply, cerr := s.Provider.Complete(ctx, prompt, llm.DefaultOptions)
	latency := time.Since(start)

	call := APICallInput{
		UserID:  userID,
		Service: s.Provider.Name(),
		Request: map[string]any{
			"message_count": len(prompt),
			"temperature":   llm.DefaultOptions.Temperature,
			"max_tokens":    llm.DefaultOptions.MaxTokens,
		},
		Latency: latency,
	}
	var se *llm.StatusError
	switch {
	case cerr == nil:
		ok := 200
		call.StatusCode = &ok
		call.Response = map[string]any{"response_length": len(reply)}
		if reply == "" {
			call.Err = "empty completion"
		}
	case errors.As(cerr, &se):
		code := se.StatusCode
		call.StatusCode = &code
		call.Err = cerr.Error()
	default:
		call.Err = cerr.Error()
	}
	s.ignore(s.Telemetry.LogAPICall(ctx, call), userID, "failed to log api call")

	if cerr != nil || reply == "" {
		s.Logger.WithError(cerr).WithField("user_id", userID).Warn("completion failed")
		s.ignore(s.Telemetry.LogError(ctx, userID, ErrorTypeCompletion, map[string]any{
			"user_query": message,
			"context":    prompt,
		}, ""), userID, "failed to log error")
		return TurnResult{Reply: ServiceUnavailableMessage, ErrorType: ErrorTypeCompletion}, nil
	}

	pending = append(pending, models.ChatMessage{Role: models.RoleAssistant, Content: reply})

	var sessionID *string
	if convID != "" {
		sessionID = &convID
	}
	s.ignore(s.Conversations.Append(ctx, userID, sessionID, models.ConversationData{
		Timestamp:         s.now(),
		UserMessage:       message,
		AssistantResponse: reply,
		ContextUsed:       len(history) > 0,
	}), userID, "failed to save conversation")

	res = TurnResult{Reply: reply, OK: true}
	if convID != "" {
		res.SessionTitle, dropSession = s.recordInSession(ctx, userID, convID, message, reply)
	}

	if cc.VisitID != "" {
		s.ignore(s.Visits.CountMessage(ctx, cc.VisitID), userID, "failed to count message")
	}
	s.ignore(s.Telemetry.LogResponse(ctx, userID, reply, nil), userID, "failed to log response")
	return res, nil
}

// recordInSession appends both sides of a turn to the open titled session
// and names a default-titled session after its first message. It returns
// the new title, if one was set, and whether the session has disappeared.
func (s *chatService) recordInSession(ctx context.Context, userID, sessionID, message, reply string) (string, bool) {
	sess, err := s.Sessions.Get(ctx, sessionID, userID)
	if err != nil {
		s.ignore(err, userID, "active session unavailable")
		return "", utils.IsCode(err, utils.CodeNotFound)
	}

	if err := s.Sessions.AppendMessage(ctx, sess.SessionID, userID, models.RoleUser, message, nil); err != nil {
		s.ignore(err, userID, "failed to save session message")
		return "", false
	}
	s.ignore(s.Sessions.AppendMessage(ctx, sess.SessionID, userID, models.RoleAssistant, reply, nil), userID, "failed to save session message")

	if sess.MessageCount > 0 || sess.CustomTitle {
		return "", false
	}
	title, err := s.Sessions.AutoTitle(ctx, sess.SessionID, message)
	s.ignore(err, userID, "failed to title session")
	return title, false
}

func (s *chatService) QuickAction(ctx context.Context, cc *models.ChatContext, id string) (TurnResult, error) {
	const op = "ChatService.QuickAction"

	qa, ok := s.Assembler.QuickAction(id)
	if !ok {
		return TurnResult{}, utils.E(utils.CodeNotFound, op, "unknown quick action", utils.ErrNotFound)
	}
	return s.Turn(ctx, cc, qa.Prompt)
}

func (s *chatService) ClearConversation(ctx context.Context, cc *models.ChatContext) error {
	const op = "ChatService.ClearConversation"

	if err := requireIdentified(op, cc); err != nil {
		return err
	}
	s.commit(ctx, cc, func(st *models.ChatContext) {
		st.Messages = nil
		st.ConversationID = ""
	})

	s.ignore(s.Telemetry.LogAction(ctx, cc.UserID, "clear_conversation", nil), cc.UserID, "failed to log action")
	return s.Conversations.Clear(ctx, cc.UserID)
}

func (s *chatService) Stats(ctx context.Context, cc *models.ChatContext) (*ChatStats, error) {
	const op = "ChatService.Stats"

	if err := requireIdentified(op, cc); err != nil {
		return nil, err
	}
	out := &ChatStats{PreferencesSet: cc.Preferences.Count()}
	for _, m := range cc.Messages {
		if m.Role == models.RoleUser {
			out.MessagesSent++
		}
	}
	n, err := s.Conversations.Count(ctx, cc.UserID)
	if err != nil {
		return nil, err
	}
	out.TotalConversations = n
	return out, nil
}

func (s *chatService) Starters(cc *models.ChatContext) []string {
	var prefs *models.Preferences
	if cc != nil {
		prefs = cc.Preferences
	}
	return s.Assembler.Starters(prefs)
}

func (s *chatService) NewSession(ctx context.Context, cc *models.ChatContext, title string) (*models.ConversationSession, error) {
	const op = "ChatService.NewSession"

	if err := requireIdentified(op, cc); err != nil {
		return nil, err
	}
	sess, err := s.Sessions.Create(ctx, cc.UserID, title)
	if err != nil {
		return nil, err
	}
	s.commit(ctx, cc, func(st *models.ChatContext) {
		st.ConversationID = sess.SessionID
		st.Messages = nil
	})
	return sess, nil
}

func (s *chatService) OpenSession(ctx context.Context, cc *models.ChatContext, sessionID string) (*SessionView, error) {
	const op = "ChatService.OpenSession"

	if err := requireIdentified(op, cc); err != nil {
		return nil, err
	}
	sess, err := s.Sessions.Get(ctx, sessionID, cc.UserID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.Sessions.Messages(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	transcript := make([]models.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		transcript = append(transcript, models.ChatMessage{Role: m.Role, Content: m.Content})
	}
	s.commit(ctx, cc, func(st *models.ChatContext) {
		st.ConversationID = sess.SessionID
		st.Messages = transcript
	})
	return &SessionView{Session: sess, Messages: msgs}, nil
}

func (s *chatService) DeleteSession(ctx context.Context, cc *models.ChatContext, sessionID string) error {
	const op = "ChatService.DeleteSession"

	if err := requireIdentified(op, cc); err != nil {
		return err
	}
	if err := s.Sessions.Delete(ctx, sessionID, cc.UserID); err != nil {
		return err
	}
	s.commit(ctx, cc, func(st *models.ChatContext) {
		if st.ConversationID == sessionID {
			st.ConversationID = ""
			st.Messages = nil
		}
	})
	return nil
}

// Leave closes visit tracking before the session is discarded.
func (s *chatService) Leave(ctx context.Context, cc *models.ChatContext) {
	if !cc.Identified() {
		return
	}
	if cc.VisitID != "" {
		s.ignore(s.Visits.End(ctx, cc.VisitID), cc.UserID, "failed to end visit")
	}
	s.ignore(s.Telemetry.LogAction(ctx, cc.UserID, "logout", nil), cc.UserID, "failed to log action")
}
