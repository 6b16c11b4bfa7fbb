package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/yootravel/internal/api/middleware"
	"github.com/yoockh/yootravel/internal/models"
	"github.com/yoockh/yootravel/internal/utils"
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)
	_ = c.Error(err)

	var ae *utils.AppError
	if errors.As(err, &ae) {
		c.JSON(status, APIError{
			Code:    ae.Code,
			Message: ae.Message,
		})
		return
	}

	c.JSON(status, APIError{
		Code:    utils.CodeInternal,
		Message: http.StatusText(status),
	})
}

// chatContext returns the session context placed by SessionAuth.
func chatContext(c *gin.Context) (*models.ChatContext, bool) {
	if v, ok := c.Get(middleware.KeyChatContext); ok {
		if cc, ok := v.(*models.ChatContext); ok && cc != nil {
			return cc, true
		}
	}
	writeError(c, utils.E(utils.CodeUnauthorized, "Auth", "unauthorized", nil))
	return nil, false
}

// requireUserID is for routes that need an identified visitor.
func requireUserID(c *gin.Context) (string, bool) {
	if v, ok := c.Get(middleware.KeyUserID); ok {
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}

	writeError(c, utils.E(utils.CodeInvalidArgument, "Auth", "enter your email to start chatting", nil))
	return "", false
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
