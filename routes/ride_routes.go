package routes

import (
	"fairride/internal/handlers"
	"fairride/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRideRoutes wires the passenger-facing ride endpoints.
func SetupRideRoutes(r *gin.RouterGroup, jwtSecret string, rideHandler *handlers.RideHandler) {
	rides := r.Group("/rides")
	rides.Use(middleware.AuthRequired(jwtSecret))
	{
		rides.POST("/estimate", rideHandler.EstimateFare)
		rides.GET("/cancellation-reasons", rideHandler.GetCancellationReasons)

		rides.GET("/:id", rideHandler.GetRide)
		rides.PUT("/:id/cancel", rideHandler.CancelRide)

		// Chat and SOS are open to both participants
		rides.POST("/:id/messages", rideHandler.SendMessage)
		rides.GET("/:id/messages", rideHandler.GetMessages)
		rides.POST("/:id/sos", rideHandler.RaiseSOS)
	}

	passenger := r.Group("/rides")
	passenger.Use(middleware.AuthRequired(jwtSecret), middleware.PassengerRequired())
	{
		passenger.POST("/", rideHandler.RequestRide)
		passenger.POST("/counter", rideHandler.RespondToFareCounter)
		passenger.GET("/active", rideHandler.GetActiveRide)
		passenger.GET("/unrated", rideHandler.GetUnratedRide)
		passenger.GET("/history", rideHandler.GetHistory)
		passenger.PUT("/:id/counter", rideHandler.RespondToCounter)
	}
}
