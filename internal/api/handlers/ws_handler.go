package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/yootravel/internal/api/middleware"
	"github.com/yoockh/yootravel/internal/models"
	"github.com/yoockh/yootravel/internal/services"
	"github.com/yoockh/yootravel/internal/utils"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

// WSHandler carries chat turns over a WebSocket. Each frame is checked
// against the session store so an idle timeout also ends the socket.
type WSHandler struct {
	auth     services.AuthService
	chat     services.ChatService
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(auth services.AuthService, chat services.ChatService, allowedOrigins []string, log *logrus.Logger) *WSHandler {
	return &WSHandler{
		auth: auth,
		chat: chat,
		log:  log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

type wsClientMsg struct {
	Type    string `json:"type"` // message|quick_action|ping
	Content string `json:"content"`
	Action  string `json:"action"`
}

type wsServerMsg struct {
	Type string `json:"type"` // reply|error|pong|expired

	*services.TurnResult

	Code    utils.Code `json:"code,omitempty"`
	Message string     `json:"message,omitempty"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return w.c.WriteJSON(v)
}

func (w *wsConn) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.c.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
}

func wsError(err error) wsServerMsg {
	msg := wsServerMsg{Type: "error", Code: utils.CodeOf(err), Message: "request failed"}
	var ae *utils.AppError
	if errors.As(err, &ae) {
		msg.Message = ae.Message
	}
	return msg
}

func (h *WSHandler) Chat(c *gin.Context) {
	v, _ := c.Get(middleware.KeySessionID)
	sid, _ := v.(string)
	if sid == "" {
		writeError(c, utils.E(utils.CodeUnauthorized, "WSHandler.Chat", "unauthorized", nil))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote the response
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	go func() {
		t := time.NewTicker(wsPingInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := wc.ping(); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	for {
		_, data, rerr := conn.ReadMessage()
		if rerr != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		var msg wsClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wc.writeJSON(wsServerMsg{Type: "error", Code: utils.CodeInvalidArgument, Message: "invalid json"})
			continue
		}
		if msg.Type == "ping" {
			_ = wc.writeJSON(wsServerMsg{Type: "pong"})
			continue
		}

		cc, ok := h.liveContext(ctx, wc, sid)
		if !ok {
			return
		}

		var res services.TurnResult
		switch msg.Type {
		case "message":
			res, err = h.chat.Turn(ctx, cc, msg.Content)
		case "quick_action":
			res, err = h.chat.QuickAction(ctx, cc, msg.Action)
		default:
			_ = wc.writeJSON(wsServerMsg{Type: "error", Code: utils.CodeInvalidArgument, Message: "unknown message type"})
			continue
		}
		if err != nil {
			_ = wc.writeJSON(wsError(err))
			continue
		}
		if werr := wc.writeJSON(wsServerMsg{Type: "reply", TurnResult: &res}); werr != nil {
			return
		}
	}
}

// liveContext reloads the session for one frame and slides its idle window.
// It tells the client and reports false once the session is gone.
func (h *WSHandler) liveContext(ctx context.Context, wc *wsConn, sid string) (*models.ChatContext, bool) {
	cc, ok, err := h.auth.IsAuthenticated(ctx, sid)
	if err == nil && ok {
		err = h.auth.Refresh(ctx, cc)
		if utils.IsCode(err, utils.CodeUnauthorized) {
			ok, err = false, nil
		}
	}
	if err != nil {
		h.log.WithError(err).WithField("session_id", sid).Warn("ws session lookup failed")
		_ = wc.writeJSON(wsError(err))
		return nil, false
	}
	if !ok {
		_ = wc.writeJSON(wsServerMsg{Type: "expired", Code: utils.CodeUnauthorized, Message: "session expired, please log in again"})
		return nil, false
	}
	return cc, true
}
