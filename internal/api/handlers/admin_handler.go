package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/yootravel/internal/services"
	"github.com/yoockh/yootravel/internal/utils"
)

type AdminHandler struct {
	dash services.DashboardService
}

func NewAdminHandler(dash services.DashboardService) *AdminHandler {
	return &AdminHandler{dash: dash}
}

func (h *AdminHandler) Overview(c *gin.Context) {
	ov, err := h.dash.Overview(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ov)
}

func (h *AdminHandler) Users(c *gin.Context) {
	rows, err := h.dash.Users(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": rows})
}

func (h *AdminHandler) UserDetail(c *gin.Context) {
	d, err := h.dash.UserDetail(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *AdminHandler) System(c *gin.Context) {
	s, err := h.dash.System(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *AdminHandler) Logs(c *gin.Context) {
	level := strings.ToUpper(strings.TrimSpace(c.Query("level")))
	if level == "ALL" {
		level = ""
	}

	rows, err := h.dash.Logs(c.Request.Context(), level, queryInt(c, "limit", services.DefaultDashboardLogLimit))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": rows})
}

func (h *AdminHandler) Tables(c *gin.Context) {
	rows, err := h.dash.Tables(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tables": rows})
}

func (h *AdminHandler) Table(c *gin.Context) {
	t, err := h.dash.Table(c.Request.Context(), c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

type CleanupRequest struct {
	Days int `json:"days"`
}

func (h *AdminHandler) Cleanup(c *gin.Context) {
	var req CleanupRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, "AdminHandler.Cleanup", "invalid request body", err))
			return
		}
	}
	if req.Days < 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AdminHandler.Cleanup", "days must be positive", nil))
		return
	}

	n, err := h.dash.Cleanup(c.Request.Context(), req.Days)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
