package handler

import (
	"errors"

	"github.com/ech/backend/internal/infrastructure/logger"
	"github.com/ech/backend/internal/infrastructure/notify"
	"github.com/ech/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NotificationHandler upgrades authenticated clients to the caisse channel
type NotificationHandler struct {
	hub *notify.Hub
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(hub *notify.Hub) *NotificationHandler {
	return &NotificationHandler{hub: hub}
}

// Serve hands the connection to the hub. The hub answers rejected upgrades
// itself.
// GET /ws/caisse
func (h *NotificationHandler) Serve(c *gin.Context) {
	username := middleware.GetJWTUsername(c)
	err := h.hub.ServeClient(c.Writer, c.Request, username)
	if err == nil {
		return
	}
	log := logger.FromContext(c.Request.Context())
	if errors.Is(err, notify.ErrTooManyClients) || errors.Is(err, notify.ErrHubClosed) {
		log.Warn("Websocket connection refused", zap.String("username", username), zap.Error(err))
		return
	}
	log.Debug("Websocket upgrade failed", zap.String("username", username), zap.Error(err))
}
