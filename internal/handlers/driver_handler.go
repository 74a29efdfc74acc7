package handlers

import (
	"context"
	"net/http"

	"fairride/internal/models"
	"fairride/internal/repositories/interfaces"
	"fairride/internal/services"
	"fairride/internal/utils"
	"fairride/internal/validators"
	"fairride/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DriverHandler serves the driver side of the protocol: presence, the offer
// actions and trip progression. All routes resolve the driver profile from
// the authenticated user.
type DriverHandler struct {
	drivers interfaces.DriverRepository
	offers  *services.OfferService
	rides   *services.RideService
	logger  *logger.Logger
}

func NewDriverHandler(
	drivers interfaces.DriverRepository,
	offers *services.OfferService,
	rides *services.RideService,
	log *logger.Logger,
) *DriverHandler {
	return &DriverHandler{
		drivers: drivers,
		offers:  offers,
		rides:   rides,
		logger:  log,
	}
}

func (h *DriverHandler) currentDriver(c *gin.Context) (*models.Driver, bool) {
	userID, ok := currentUser(c)
	if !ok {
		return nil, false
	}
	driver, err := h.drivers.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return nil, false
	}
	return driver, true
}

// GoOnline starts the driver's scanning session.
func (h *DriverHandler) GoOnline(c *gin.Context) {
	driver, ok := h.currentDriver(c)
	if !ok {
		return
	}

	if err := h.offers.GoOnline(c.Request.Context(), driver.ID); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "driver online", nil)
}

// GoOffline stops scanning and releases any held offer.
func (h *DriverHandler) GoOffline(c *gin.Context) {
	driver, ok := h.currentDriver(c)
	if !ok {
		return
	}

	if err := h.offers.GoOffline(c.Request.Context(), driver.ID); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "driver offline", nil)
}

// AcceptOffer accepts the currently held offer at the published fare.
func (h *DriverHandler) AcceptOffer(c *gin.Context) {
	driver, ok := h.currentDriver(c)
	if !ok {
		return
	}

	ride, err := h.offers.Accept(c.Request.Context(), driver.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "ride accepted", ride)
}

// RejectOffer declines the held offer; the ride will not be shown to this
// driver again.
func (h *DriverHandler) RejectOffer(c *gin.Context) {
	driver, ok := h.currentDriver(c)
	if !ok {
		return
	}

	if err := h.offers.Reject(c.Request.Context(), driver.ID); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "ride rejected", nil)
}

// CounterOffer proposes a different fare for the held offer.
func (h *DriverHandler) CounterOffer(c *gin.Context) {
	driver, ok := h.currentDriver(c)
	if !ok {
		return
	}

	var req models.CounterOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if errs := validators.ValidateCounterOffer(&req); errs != nil {
		respondValidationErrors(c, errs)
		return
	}

	if err := h.offers.Counter(c.Request.Context(), driver.ID, req.Fare); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "counter-offer sent", nil)
}

// Trip progression

func (h *DriverHandler) MarkArrived(c *gin.Context) {
	h.progress(c, h.rides.MarkArrived, "arrival recorded")
}

func (h *DriverHandler) StartRide(c *gin.Context) {
	h.progress(c, h.rides.StartRide, "ride started")
}

func (h *DriverHandler) CompleteRide(c *gin.Context) {
	h.progress(c, h.rides.CompleteRide, "ride completed")
}

func (h *DriverHandler) progress(c *gin.Context, fn func(ctx context.Context, rideID, driverID primitive.ObjectID) (*models.Ride, error), message string) {
	driver, ok := h.currentDriver(c)
	if !ok {
		return
	}
	rideID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	ride, err := fn(c.Request.Context(), rideID, driver.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, message, ride)
}

// UpdateLocation records the driver's position.
func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	driver, ok := h.currentDriver(c)
	if !ok {
		return
	}

	var req models.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	if err := h.drivers.UpdateLocation(c.Request.Context(), driver.ID, req.Location); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "location updated", nil)
}

// GetHistory lists the driver's past rides.
func (h *DriverHandler) GetHistory(c *gin.Context) {
	driver, ok := h.currentDriver(c)
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)

	rides, total, err := h.rides.GetDriverHistory(c.Request.Context(), driver.ID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponseWithMeta(c, "", rides, &utils.Meta{
		Pagination: utils.NewPaginationMeta(params, total),
	})
}
