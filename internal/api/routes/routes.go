package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/yoockh/yootravel/internal/api/handlers"
	"github.com/yoockh/yootravel/internal/api/middleware"
	"github.com/yoockh/yootravel/internal/services"
)

type Deps struct {
	Auth     services.AuthService
	AdminKey string // bcrypt hash; empty means any chat session

	AuthH    *handlers.AuthHandler
	Chat     *handlers.ChatHandler
	Sessions *handlers.SessionHandler
	Admin    *handlers.AdminHandler
	WS       *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	r.POST("/auth/login", d.AuthH.Login)

	session := middleware.SessionAuth(d.Auth)
	r.GET("/auth/session", middleware.SessionPeek(d.Auth), d.AuthH.Session)

	auth := r.Group("/")
	auth.Use(session)

	auth.POST("/auth/logout", d.AuthH.Logout)

	auth.POST("/chat/identify", d.Chat.Identify)
	auth.GET("/chat/preferences", d.Chat.GetPreferences)
	auth.PUT("/chat/preferences", d.Chat.UpdatePreferences)
	auth.GET("/chat/messages", d.Chat.Messages)
	auth.POST("/chat/messages", d.Chat.SendMessage)
	auth.DELETE("/chat/messages", d.Chat.ClearMessages)
	auth.GET("/chat/quick-actions", d.Chat.QuickActions)
	auth.POST("/chat/quick-actions/:action", d.Chat.RunQuickAction)
	auth.GET("/chat/stats", d.Chat.Stats)
	auth.GET("/chat/starters", d.Chat.Starters)
	auth.GET("/chat/checklist", d.Chat.Checklist)

	auth.POST("/sessions", d.Sessions.Create)
	auth.GET("/sessions", d.Sessions.List)
	auth.GET("/sessions/:session_id", d.Sessions.Get)
	auth.PUT("/sessions/:session_id", d.Sessions.Rename)
	auth.DELETE("/sessions/:session_id", d.Sessions.Delete)

	// WebSocket
	auth.GET("/ws/chat", d.WS.Chat)

	admin := r.Group("/admin")
	admin.Use(middleware.RequireAdmin(d.AdminKey, session))

	admin.GET("/overview", d.Admin.Overview)
	admin.GET("/users", d.Admin.Users)
	admin.GET("/users/:user_id", d.Admin.UserDetail)
	admin.GET("/system", d.Admin.System)
	admin.GET("/logs", d.Admin.Logs)
	admin.GET("/tables", d.Admin.Tables)
	admin.GET("/tables/:name", d.Admin.Table)
	admin.POST("/cleanup", d.Admin.Cleanup)
}
