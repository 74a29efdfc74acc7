package routes

import (
	"fairride/internal/handlers"
	"fairride/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRatingRoutes wires review submission and listing.
func SetupRatingRoutes(r *gin.RouterGroup, jwtSecret string, ratingHandler *handlers.RatingHandler) {
	ratings := r.Group("/ratings")
	ratings.Use(middleware.AuthRequired(jwtSecret))
	{
		ratings.POST("/rides/:id", ratingHandler.SubmitReview)
		ratings.GET("/users/:id", ratingHandler.GetReviews)
	}
}
