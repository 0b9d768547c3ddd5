package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stayforge/hotel-backend/internal/models"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError maps service errors onto HTTP status codes. Unrecognized
// errors are treated as internal and their detail is not leaked.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrReservationNotFound),
		errors.Is(err, models.ErrDetailNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, models.ErrNoResourceAvailable):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "no_resource_available",
			Message: err.Error(),
		})
	case errors.Is(err, models.ErrReservationCancelled),
		errors.Is(err, models.ErrDetailAlreadyCancelled),
		errors.Is(err, models.ErrDetailNotCancelled):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "invalid_state",
			Message: err.Error(),
		})
	case errors.Is(err, models.ErrInvalidDates),
		errors.Is(err, models.ErrRoomNotInHotel),
		errors.Is(err, models.ErrNonPositiveHeadcount),
		errors.Is(err, models.ErrTooManyNights),
		errors.Is(err, models.ErrInvalidPlanRef),
		errors.Is(err, models.ErrInvalidAdjustmentType),
		errors.Is(err, models.ErrInvalidDateWindow):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "invalid_request",
		Message: message,
	})
}
