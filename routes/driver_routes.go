package routes

import (
	"fairride/internal/handlers"
	"fairride/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupDriverRoutes wires the driver side: presence, offer actions and trip
// progression.
func SetupDriverRoutes(r *gin.RouterGroup, jwtSecret string, driverHandler *handlers.DriverHandler) {
	driver := r.Group("/driver")
	driver.Use(middleware.AuthRequired(jwtSecret), middleware.DriverRequired())
	{
		driver.POST("/online", driverHandler.GoOnline)
		driver.POST("/offline", driverHandler.GoOffline)
		driver.PUT("/location", driverHandler.UpdateLocation)
		driver.GET("/rides/history", driverHandler.GetHistory)

		// Offer actions always apply to the currently held offer
		driver.POST("/offer/accept", driverHandler.AcceptOffer)
		driver.POST("/offer/reject", driverHandler.RejectOffer)
		driver.POST("/offer/counter", driverHandler.CounterOffer)

		driver.PUT("/rides/:id/arrived", driverHandler.MarkArrived)
		driver.PUT("/rides/:id/start", driverHandler.StartRide)
		driver.PUT("/rides/:id/complete", driverHandler.CompleteRide)
	}
}
