package handlers

import (
	"net/http"

	"fairride/internal/models"
	"fairride/internal/services"
	"fairride/internal/utils"
	"fairride/internal/validators"
	"fairride/pkg/logger"

	"github.com/gin-gonic/gin"
)

type RatingHandler struct {
	ratings *services.RatingService
	logger  *logger.Logger
}

func NewRatingHandler(ratings *services.RatingService, log *logger.Logger) *RatingHandler {
	return &RatingHandler{ratings: ratings, logger: log}
}

// SubmitReview rates the counterpart on a completed ride. The direction is
// derived from the caller's role.
func (h *RatingHandler) SubmitReview(c *gin.Context) {
	reviewerID, ok := currentUser(c)
	if !ok {
		return
	}
	rideID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var req models.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if errs := validators.ValidateSubmitReview(&req); errs != nil {
		respondValidationErrors(c, errs)
		return
	}

	role := models.UserType(c.GetString("user_type"))
	review, newAverage, err := h.ratings.SubmitReview(c.Request.Context(), rideID, reviewerID, role, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "review submitted", gin.H{
		"review":      review,
		"new_average": newAverage,
	})
}

// GetReviews lists reviews received by the given user or driver.
func (h *RatingHandler) GetReviews(c *gin.Context) {
	revieweeID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)

	reviews, total, err := h.ratings.GetReviews(c.Request.Context(), revieweeID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponseWithMeta(c, "", reviews, &utils.Meta{
		Pagination: utils.NewPaginationMeta(params, total),
	})
}
