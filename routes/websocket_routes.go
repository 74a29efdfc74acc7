package routes

import (
	"fairride/internal/handlers"
	"fairride/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupWebSocketRoutes wires the realtime endpoint.
func SetupWebSocketRoutes(r *gin.RouterGroup, jwtSecret string, wsHandler *handlers.WebSocketHandler) {
	ws := r.Group("/ws")
	ws.Use(middleware.AuthRequired(jwtSecret))
	{
		ws.GET("", wsHandler.Connect)
	}
}
