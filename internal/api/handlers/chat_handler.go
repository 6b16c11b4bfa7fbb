package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/yootravel/internal/models"
	"github.com/yoockh/yootravel/internal/prompts"
	"github.com/yoockh/yootravel/internal/services"
	"github.com/yoockh/yootravel/internal/utils"
)

type ChatHandler struct {
	chat      services.ChatService
	assembler *prompts.Assembler
}

func NewChatHandler(chat services.ChatService, assembler *prompts.Assembler) *ChatHandler {
	return &ChatHandler{chat: chat, assembler: assembler}
}

type IdentifyRequest struct {
	Email string `json:"email" binding:"required"`
}

func (h *ChatHandler) Identify(c *gin.Context) {
	cc, ok := chatContext(c)
	if !ok {
		return
	}

	var req IdentifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ChatHandler.Identify", "email is required", err))
		return
	}

	res, err := h.chat.Identify(c.Request.Context(), cc, req.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type PreferencesResponse struct {
	Preferences    *models.Preferences `json:"preferences"`
	Summary        string              `json:"summary"`
	BudgetOptions  []string            `json:"budget_options"`
	StyleOptions   []string            `json:"style_options"`
	ClimateOptions []string            `json:"climate_options"`
}

func preferencesResponse(p *models.Preferences) PreferencesResponse {
	if p == nil {
		p = &models.Preferences{}
	}
	return PreferencesResponse{
		Preferences:    p,
		Summary:        prompts.FormatPreferences(p),
		BudgetOptions:  prompts.BudgetOptions,
		StyleOptions:   prompts.StyleOptions,
		ClimateOptions: prompts.ClimateOptions,
	}
}

func (h *ChatHandler) GetPreferences(c *gin.Context) {
	cc, ok := chatContext(c)
	if !ok {
		return
	}
	if _, ok := requireUserID(c); !ok {
		return
	}
	c.JSON(http.StatusOK, preferencesResponse(cc.Preferences))
}

func (h *ChatHandler) UpdatePreferences(c *gin.Context) {
	cc, ok := chatContext(c)
	if !ok {
		return
	}

	var req models.Preferences
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ChatHandler.UpdatePreferences", "invalid request body", err))
		return
	}
	req.LastUpdated = nil

	prefs, err := h.chat.UpdatePreferences(c.Request.Context(), cc, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, preferencesResponse(prefs))
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	cc, ok := chatContext(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ChatHandler.SendMessage", "content is required", err))
		return
	}

	res, err := h.chat.Turn(c.Request.Context(), cc, req.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ChatHandler) Messages(c *gin.Context) {
	cc, ok := chatContext(c)
	if !ok {
		return
	}
	msgs := cc.Messages
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs, "session_id": cc.ConversationID})
}

func (h *ChatHandler) ClearMessages(c *gin.Context) {
	cc, ok := chatContext(c)
	if !ok {
		return
	}
	if err := h.chat.ClearConversation(c.Request.Context(), cc); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ChatHandler) QuickActions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"actions": h.assembler.QuickActions()})
}

func (h *ChatHandler) RunQuickAction(c *gin.Context) {
	cc, ok := chatContext(c)
	if !ok {
		return
	}

	res, err := h.chat.QuickAction(c.Request.Context(), cc, c.Param("action"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ChatHandler) Stats(c *gin.Context) {
	cc, ok := chatContext(c)
	if !ok {
		return
	}

	st, err := h.chat.Stats(c.Request.Context(), cc)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *ChatHandler) Starters(c *gin.Context) {
	cc, ok := chatContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"starters": h.chat.Starters(cc)})
}

func (h *ChatHandler) Checklist(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"checklist": h.assembler.Checklist()})
}
