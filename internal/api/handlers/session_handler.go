package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/yootravel/internal/services"
	"github.com/yoockh/yootravel/internal/utils"
)

// SessionHandler serves titled conversation sessions.
type SessionHandler struct {
	chat     services.ChatService
	sessions services.SessionService
}

func NewSessionHandler(chat services.ChatService, sessions services.SessionService) *SessionHandler {
	return &SessionHandler{chat: chat, sessions: sessions}
}

type CreateSessionRequest struct {
	Title string `json:"title"`
}

func (h *SessionHandler) Create(c *gin.Context) {
	cc, ok := chatContext(c)
	if !ok {
		return
	}

	var req CreateSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.Create", "invalid request body", err))
			return
		}
	}

	sess, err := h.chat.NewSession(c.Request.Context(), cc, req.Title)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (h *SessionHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	rows, err := h.sessions.List(c.Request.Context(), userID, queryInt(c, "limit", services.DefaultSessionListLimit))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": rows})
}

// Get returns the session with its messages and makes it the active one.
func (h *SessionHandler) Get(c *gin.Context) {
	cc, ok := chatContext(c)
	if !ok {
		return
	}

	view, err := h.chat.OpenSession(c.Request.Context(), cc, c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type RenameSessionRequest struct {
	Title string `json:"title" binding:"required"`
}

func (h *SessionHandler) Rename(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req RenameSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.Rename", "title is required", err))
		return
	}

	sessionID := c.Param("session_id")
	if err := h.sessions.Rename(c.Request.Context(), sessionID, userID, req.Title); err != nil {
		writeError(c, err)
		return
	}

	sess, err := h.sessions.Get(c.Request.Context(), sessionID, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *SessionHandler) Delete(c *gin.Context) {
	cc, ok := chatContext(c)
	if !ok {
		return
	}

	if err := h.chat.DeleteSession(c.Request.Context(), cc, c.Param("session_id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
