package handlers

import (
	"net/http"

	"fairride/internal/services"
	"fairride/internal/utils"
	"fairride/pkg/logger"
	"fairride/pkg/websocket"

	"github.com/gin-gonic/gin"
)

// WebSocketHandler upgrades authenticated clients and, for passengers,
// attaches the ride change feed to their connection.
type WebSocketHandler struct {
	hub    *websocket.Hub
	rides  *services.RideService
	logger *logger.Logger
}

func NewWebSocketHandler(hub *websocket.Hub, rides *services.RideService, log *logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, rides: rides, logger: log}
}

func (h *WebSocketHandler) Connect(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	userType := c.GetString("user_type")

	client, err := websocket.ServeWS(h.hub, c.Writer, c.Request, userID, userType)
	if err != nil {
		h.logger.WithError(err).WithUserID(userID).Error("websocket upgrade failed")
		utils.ErrorResponse(c, http.StatusBadRequest, "WS_UPGRADE_FAILED", "failed to upgrade connection")
		return
	}

	// The request context dies when this handler returns; the feed has to
	// live as long as the connection does.
	if userType == "passenger" {
		if err := h.rides.StartPassengerFeed(client.Context(), userID); err != nil {
			h.logger.WithError(err).WithUserID(userID).Warn("failed to start passenger feed")
		}
	}
}
