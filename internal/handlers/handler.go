package handlers

import (
	"errors"
	"net/http"

	"fairride/internal/services"
	"fairride/internal/utils"
	"fairride/internal/validators"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// currentUser pulls the authenticated user's ID out of the gin context.
func currentUser(c *gin.Context) (primitive.ObjectID, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", utils.ErrUnauthorized)
		return primitive.NilObjectID, false
	}
	userID, ok := value.(primitive.ObjectID)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", utils.ErrUnauthorized)
		return primitive.NilObjectID, false
	}
	return userID, true
}

func pathObjectID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_ID", "invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}

func respondValidationErrors(c *gin.Context, errs validators.ValidationErrors) {
	details := make(map[string]string, len(errs))
	for _, err := range errs {
		details[err.Field] = err.Message
	}
	utils.ValidationErrorResponse(c, details)
}

// respondServiceError maps protocol outcomes to HTTP statuses. Conflicts from
// lost races are 409s, not 500s.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrRideNotFound),
		errors.Is(err, services.ErrDriverNotFound),
		errors.Is(err, services.ErrUserNotFound):
		utils.NotFoundResponse(c, err.Error())
	case errors.Is(err, services.ErrRideUnavailable):
		utils.ErrorResponse(c, http.StatusConflict, "RIDE_UNAVAILABLE", err.Error())
	case errors.Is(err, services.ErrOfferExpired):
		utils.ErrorResponse(c, http.StatusConflict, "OFFER_EXPIRED", err.Error())
	case errors.Is(err, services.ErrAlreadyRated):
		utils.ErrorResponse(c, http.StatusConflict, "ALREADY_RATED", err.Error())
	case errors.Is(err, services.ErrActiveRide):
		utils.ErrorResponse(c, http.StatusConflict, "ACTIVE_RIDE", err.Error())
	case errors.Is(err, services.ErrNoPendingCounter):
		utils.ErrorResponse(c, http.StatusConflict, "FARE_COUNTER_EXPIRED", err.Error())
	case errors.Is(err, services.ErrInvalidFare):
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_FARE", err.Error())
	default:
		utils.InternalServerErrorResponse(c)
	}
}
