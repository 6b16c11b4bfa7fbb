package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/yootravel/internal/services"
	"github.com/yoockh/yootravel/internal/utils"
)

const (
	SessionCookie = "travel_session"

	// context keys
	KeyChatContext = "chat_context"
	KeySessionID   = "session_id"
	KeyUserID      = "user_id"
)

type apiError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

func abort(c *gin.Context, status int, code utils.Code, msg string) {
	c.AbortWithStatusJSON(status, apiError{Code: code, Message: msg})
}

// SessionToken reads the session token from the Authorization header, or
// from the session cookie when the header is absent.
func SessionToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if v, err := c.Cookie(SessionCookie); err == nil {
		return v
	}
	return ""
}

// SessionAuth admits requests carrying a live, authenticated session and
// slides its idle window forward.
func SessionAuth(auth services.AuthService) gin.HandlerFunc {
	return sessionAuth(auth, true)
}

// SessionPeek is SessionAuth without the refresh, for status checks that
// must not count as activity.
func SessionPeek(auth services.AuthService) gin.HandlerFunc {
	return sessionAuth(auth, false)
}

func sessionAuth(auth services.AuthService, refresh bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := SessionToken(c)
		if raw == "" {
			abort(c, http.StatusUnauthorized, utils.CodeUnauthorized, "missing session token")
			return
		}

		sid, err := auth.ParseToken(raw)
		if err != nil {
			abort(c, http.StatusUnauthorized, utils.CodeUnauthorized, "invalid session token")
			return
		}

		cc, ok, err := auth.IsAuthenticated(c.Request.Context(), sid)
		if err != nil {
			abort(c, http.StatusServiceUnavailable, utils.CodeUnavailable, "session store unavailable")
			return
		}
		if !ok {
			abort(c, http.StatusUnauthorized, utils.CodeUnauthorized, "session expired, please log in again")
			return
		}
		if refresh {
			if err := auth.Refresh(c.Request.Context(), cc); err != nil {
				if utils.IsCode(err, utils.CodeUnauthorized) {
					abort(c, http.StatusUnauthorized, utils.CodeUnauthorized, "session expired, please log in again")
					return
				}
				abort(c, http.StatusServiceUnavailable, utils.CodeUnavailable, "session store unavailable")
				return
			}
		}

		c.Set(KeyChatContext, cc)
		c.Set(KeySessionID, sid)
		if cc.Identified() {
			c.Set(KeyUserID, cc.UserID)
		}
		c.Next()
	}
}
