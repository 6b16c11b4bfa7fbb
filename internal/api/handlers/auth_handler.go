package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/yootravel/internal/api/middleware"
	"github.com/yoockh/yootravel/internal/services"
	"github.com/yoockh/yootravel/internal/utils"
)

type AuthHandler struct {
	auth         services.AuthService
	chat         services.ChatService
	timeout      time.Duration
	secureCookie bool
}

func NewAuthHandler(auth services.AuthService, chat services.ChatService, timeout time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{auth: auth, chat: chat, timeout: timeout, secureCookie: secureCookie}
}

type LoginRequest struct {
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	ExpiresIn int    `json:"expires_in"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AuthHandler.Login", "invalid request body", err))
		return
	}

	cc, token, err := h.auth.Login(c.Request.Context(), req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	// browser-session cookie; idle expiry is enforced server side
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, 0, "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, LoginResponse{Token: token, SessionID: cc.SessionID, ExpiresIn: int(h.timeout.Seconds())})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	cc, ok := chatContext(c)
	if !ok {
		return
	}

	h.chat.Leave(c.Request.Context(), cc)
	if err := h.auth.Logout(c.Request.Context(), cc.SessionID); err != nil {
		writeError(c, err)
		return
	}

	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.secureCookie, true)
	c.Status(http.StatusNoContent)
}

type SessionStatusResponse struct {
	Authenticated    bool   `json:"authenticated"`
	RemainingSeconds int    `json:"remaining_seconds"`
	Identified       bool   `json:"identified"`
	Email            string `json:"email,omitempty"`
}

func (h *AuthHandler) Session(c *gin.Context) {
	cc, ok := chatContext(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, SessionStatusResponse{
		Authenticated:    true,
		RemainingSeconds: int(h.auth.Remaining(cc).Seconds()),
		Identified:       cc.Identified(),
		Email:            cc.Email,
	})
}
