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

// RideHandler serves the passenger side: quoting, requesting, counter
// decisions, cancellation, chat, SOS and history.
type RideHandler struct {
	rides  *services.RideService
	logger *logger.Logger
}

func NewRideHandler(rides *services.RideService, log *logger.Logger) *RideHandler {
	return &RideHandler{rides: rides, logger: log}
}

// EstimateFare returns a quote with the bidding bounds for the trip.
func (h *RideHandler) EstimateFare(c *gin.Context) {
	var req models.EstimateFareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if errs := validators.ValidateEstimateFare(&req); errs != nil {
		respondValidationErrors(c, errs)
		return
	}

	quote, err := h.rides.EstimateFare(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "fare estimated", quote)
}

// RequestRide arbitrates the passenger's bid. The response carries either the
// published ride or the arbitration counter waiting on the passenger's answer.
func (h *RideHandler) RequestRide(c *gin.Context) {
	passengerID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.RequestRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if errs := validators.ValidateRequestRide(&req); errs != nil {
		respondValidationErrors(c, errs)
		return
	}

	result, err := h.rides.RequestRide(c.Request.Context(), passengerID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if result.CounterFare != nil {
		utils.SuccessResponse(c, "fare counter-offered", result)
		return
	}
	utils.SuccessResponse(c, "ride requested", result)
}

// RespondToFareCounter settles the pending arbitration counter. Accepting
// publishes the ride at the countered fare; declining drops the request.
func (h *RideHandler) RespondToFareCounter(c *gin.Context) {
	passengerID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.CounterDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	ride, err := h.rides.RespondToFareCounter(c.Request.Context(), passengerID, req.Accept)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if ride == nil {
		utils.SuccessResponse(c, "fare counter declined", nil)
		return
	}
	utils.SuccessResponse(c, "ride requested", ride)
}

func (h *RideHandler) GetRide(c *gin.Context) {
	callerID, ok := currentUser(c)
	if !ok {
		return
	}
	rideID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	ride, err := h.rides.GetRide(c.Request.Context(), rideID, callerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "", ride)
}

// GetActiveRide returns the passenger's unfinished ride, if any.
func (h *RideHandler) GetActiveRide(c *gin.Context) {
	passengerID, ok := currentUser(c)
	if !ok {
		return
	}

	ride, err := h.rides.GetActiveRide(c.Request.Context(), passengerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if ride == nil {
		utils.NotFoundResponse(c, "no active ride")
		return
	}
	utils.SuccessResponse(c, "", ride)
}

// GetUnratedRide returns the passenger's most recent completed ride still
// awaiting a rating, used to prompt on app open.
func (h *RideHandler) GetUnratedRide(c *gin.Context) {
	passengerID, ok := currentUser(c)
	if !ok {
		return
	}

	ride, err := h.rides.GetUnratedRide(c.Request.Context(), passengerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if ride == nil {
		utils.NotFoundResponse(c, "no unrated ride")
		return
	}
	utils.SuccessResponse(c, "", ride)
}

// RespondToCounter accepts or declines the driver's counter-offer.
func (h *RideHandler) RespondToCounter(c *gin.Context) {
	passengerID, ok := currentUser(c)
	if !ok {
		return
	}
	rideID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var req models.CounterDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	ride, err := h.rides.RespondToCounter(c.Request.Context(), rideID, passengerID, req.Accept)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "counter-offer resolved", ride)
}

func (h *RideHandler) CancelRide(c *gin.Context) {
	callerID, ok := currentUser(c)
	if !ok {
		return
	}
	rideID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var req models.CancelRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if errs := validators.ValidateCancelRide(&req); errs != nil {
		respondValidationErrors(c, errs)
		return
	}

	cancelledBy := models.CancelledByPassenger
	if c.GetString("user_type") == "driver" {
		cancelledBy = models.CancelledByDriver
	}

	ride, err := h.rides.CancelRide(c.Request.Context(), rideID, callerID, cancelledBy, req.Reason, req.Note)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "ride cancelled", ride)
}

// GetCancellationReasons lists the reason codes a client may present.
func (h *RideHandler) GetCancellationReasons(c *gin.Context) {
	utils.SuccessResponse(c, "", models.DefaultCancellationReasons)
}

func (h *RideHandler) GetHistory(c *gin.Context) {
	passengerID, ok := currentUser(c)
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)

	rides, total, err := h.rides.GetPassengerHistory(c.Request.Context(), passengerID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponseWithMeta(c, "", rides, &utils.Meta{
		Pagination: utils.NewPaginationMeta(params, total),
	})
}

// Chat

func (h *RideHandler) SendMessage(c *gin.Context) {
	senderID, ok := currentUser(c)
	if !ok {
		return
	}
	rideID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var req models.ChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if errs := validators.ValidateChatMessage(&req); errs != nil {
		respondValidationErrors(c, errs)
		return
	}

	role := models.UserType(c.GetString("user_type"))
	message, err := h.rides.SendMessage(c.Request.Context(), rideID, senderID, role, req.Text)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "message sent", message)
}

func (h *RideHandler) GetMessages(c *gin.Context) {
	callerID, ok := currentUser(c)
	if !ok {
		return
	}
	rideID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	messages, err := h.rides.GetMessages(c.Request.Context(), rideID, callerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "", messages)
}

// SOS

func (h *RideHandler) RaiseSOS(c *gin.Context) {
	callerID, ok := currentUser(c)
	if !ok {
		return
	}
	rideID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var req models.SOSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	role := models.UserType(c.GetString("user_type"))
	alert, err := h.rides.RaiseSOS(c.Request.Context(), rideID, callerID, role, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "sos alert raised", alert)
}
