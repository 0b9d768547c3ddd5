package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stayforge/hotel-backend/internal/database"
	"github.com/stayforge/hotel-backend/internal/models"
	"github.com/stayforge/hotel-backend/internal/services"
)

// ReservationHandler handles reservation-related HTTP requests
type ReservationHandler struct {
	reservationService *services.ReservationService
	reservationRepo    *database.ReservationRepository
	rateRepo           *database.RateRepository
	parkingRepo        *database.ParkingRepository
	logger             *logrus.Logger
}

// NewReservationHandler creates a new reservation handler
func NewReservationHandler(
	reservationService *services.ReservationService,
	reservationRepo *database.ReservationRepository,
	rateRepo *database.RateRepository,
	parkingRepo *database.ParkingRepository,
	logger *logrus.Logger,
) *ReservationHandler {
	return &ReservationHandler{
		reservationService: reservationService,
		reservationRepo:    reservationRepo,
		rateRepo:           rateRepo,
		parkingRepo:        parkingRepo,
		logger:             logger,
	}
}

func reservationIDFromPath(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid reservation ID format")
		return uuid.Nil, false
	}
	return id, true
}

func detailIDFromPath(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid detail ID format")
		return uuid.Nil, false
	}
	return id, true
}

// CreateReservation handles POST /api/v1/reservations
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	var req models.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	res, err := h.reservationService.CreateHold(&req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

// GetReservation handles GET /api/v1/reservations/:id
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	id, ok := reservationIDFromPath(c)
	if !ok {
		return
	}

	res, err := h.reservationRepo.GetByID(id)
	if err != nil {
		h.logger.WithError(err).WithField("reservation_id", id).Error("Failed to get reservation")
		writeError(c, err)
		return
	}
	if res == nil {
		writeError(c, models.ErrReservationNotFound)
		return
	}

	details, err := h.reservationRepo.ListDetails(id)
	if err != nil {
		writeError(c, err)
		return
	}

	parking, err := h.parkingRepo.ListByReservation(id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reservation": res,
		"details":     details,
		"parking":     parking,
	})
}

// GetDetailRates handles GET /api/v1/details/:id/rates
func (h *ReservationHandler) GetDetailRates(c *gin.Context) {
	id, ok := detailIDFromPath(c)
	if !ok {
		return
	}

	detail, err := h.reservationRepo.GetDetail(id)
	if err != nil {
		writeError(c, err)
		return
	}
	if detail == nil {
		writeError(c, models.ErrDetailNotFound)
		return
	}

	rates, err := h.rateRepo.ListByDetail(id)
	if err != nil {
		writeError(c, err)
		return
	}

	guests, err := h.reservationRepo.ListGuests(id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"detail": detail,
		"rates":  rates,
		"guests": guests,
	})
}

// ChangeStatus handles PATCH /api/v1/reservations/:id/status
func (h *ReservationHandler) ChangeStatus(c *gin.Context) {
	id, ok := reservationIDFromPath(c)
	if !ok {
		return
	}

	var req models.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.reservationService.ChangeStatus(id, &req); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MutationResponse{
		ReservationID: id,
		Message:       "status changed",
	})
}

// MoveStay handles POST /api/v1/reservations/:id/move
func (h *ReservationHandler) MoveStay(c *gin.Context) {
	id, ok := reservationIDFromPath(c)
	if !ok {
		return
	}

	var req models.MoveStayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	resp, err := h.reservationService.MoveStay(id, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ChangePlan handles POST /api/v1/reservations/:id/plan
func (h *ReservationHandler) ChangePlan(c *gin.Context) {
	id, ok := reservationIDFromPath(c)
	if !ok {
		return
	}

	var req models.ChangePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.reservationService.ChangePlan(id, &req); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MutationResponse{
		ReservationID: id,
		Message:       "plan changed",
	})
}

// ChangeGuestCount handles POST /api/v1/reservations/:id/guests
func (h *ReservationHandler) ChangeGuestCount(c *gin.Context) {
	id, ok := reservationIDFromPath(c)
	if !ok {
		return
	}

	var req models.ChangeGuestCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.reservationService.ChangeGuestCount(id, req.Delta); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MutationResponse{
		ReservationID: id,
		Message:       "guest count changed",
	})
}

// AssignParking handles POST /api/v1/reservations/:id/parking
func (h *ReservationHandler) AssignParking(c *gin.Context) {
	id, ok := reservationIDFromPath(c)
	if !ok {
		return
	}

	var req models.AssignParkingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	claim, err := h.reservationService.AssignParking(id, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, claim)
}

// ReleaseParking handles DELETE /api/v1/parking-claims/:id
func (h *ReservationHandler) ReleaseParking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid parking claim ID format")
		return
	}

	if err := h.reservationService.ReleaseParking(id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "parking claim released"})
}

// CancelDetailRequest controls whether the cancelled night keeps a fee
type CancelDetailRequest struct {
	WithFee bool `json:"with_fee"`
}

// CancelDetail handles POST /api/v1/details/:id/cancel
func (h *ReservationHandler) CancelDetail(c *gin.Context) {
	id, ok := detailIDFromPath(c)
	if !ok {
		return
	}

	var req CancelDetailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.reservationService.CancelDetail(id, req.WithFee); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "detail cancelled"})
}

// RecoverDetail handles POST /api/v1/details/:id/recover
func (h *ReservationHandler) RecoverDetail(c *gin.Context) {
	id, ok := detailIDFromPath(c)
	if !ok {
		return
	}

	if err := h.reservationService.RecoverDetail(id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "detail recovered"})
}

// AddAddon handles POST /api/v1/details/:id/addons
func (h *ReservationHandler) AddAddon(c *gin.Context) {
	id, ok := detailIDFromPath(c)
	if !ok {
		return
	}

	var req models.AddAddonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	addon, err := h.reservationService.AddAddon(id, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, addon)
}

// RemoveAddon handles DELETE /api/v1/addons/:id
func (h *ReservationHandler) RemoveAddon(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid addon ID format")
		return
	}

	if err := h.reservationService.RemoveAddon(id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "addon removed"})
}
