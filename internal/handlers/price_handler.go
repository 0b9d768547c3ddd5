package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stayforge/hotel-backend/internal/models"
	"github.com/stayforge/hotel-backend/internal/services"
)

// PriceHandler handles price lookup HTTP requests
type PriceHandler struct {
	rateService *services.RateService
	logger      *logrus.Logger
}

// NewPriceHandler creates a new price handler
func NewPriceHandler(rateService *services.RateService, logger *logrus.Logger) *PriceHandler {
	return &PriceHandler{rateService: rateService, logger: logger}
}

// planFromQuery reads the plan_id / hotel_plan_id query pair
func planFromQuery(c *gin.Context) (models.PlanRef, bool) {
	var plan models.PlanRef

	if v := c.Query("plan_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			badRequest(c, "Invalid plan_id")
			return plan, false
		}
		plan.PlanID = &id
	}
	if v := c.Query("hotel_plan_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			badRequest(c, "Invalid hotel_plan_id")
			return plan, false
		}
		plan.HotelPlanID = &id
	}
	if err := plan.Validate(); err != nil {
		writeError(c, err)
		return plan, false
	}

	return plan, true
}

func hotelIDFromPath(c *gin.Context) (int64, bool) {
	hotelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "Invalid hotel ID format")
		return 0, false
	}
	return hotelID, true
}

// GetPrice handles GET /api/v1/hotels/:id/price
func (h *PriceHandler) GetPrice(c *gin.Context) {
	hotelID, ok := hotelIDFromPath(c)
	if !ok {
		return
	}
	plan, ok := planFromQuery(c)
	if !ok {
		return
	}

	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		badRequest(c, "date must be YYYY-MM-DD")
		return
	}

	amount, err := h.rateService.Price(hotelID, plan, date)
	if err != nil {
		h.logger.WithError(err).WithField("hotel_id", hotelID).Error("Failed to compute price")
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hotel_id": hotelID,
		"date":     date.Format("2006-01-02"),
		"amount":   amount,
	})
}

// PreviewPrice handles GET /api/v1/hotels/:id/price/preview
func (h *PriceHandler) PreviewPrice(c *gin.Context) {
	hotelID, ok := hotelIDFromPath(c)
	if !ok {
		return
	}
	plan, ok := planFromQuery(c)
	if !ok {
		return
	}

	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		badRequest(c, "date must be YYYY-MM-DD")
		return
	}

	quote, err := h.rateService.Preview(hotelID, plan, date)
	if err != nil {
		h.logger.WithError(err).WithField("hotel_id", hotelID).Error("Failed to preview price")
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hotel_id": hotelID,
		"date":     date.Format("2006-01-02"),
		"amount":   quote.Amount,
		"lines":    quote.Lines,
	})
}

// PriceStay handles GET /api/v1/hotels/:id/price/stay
func (h *PriceHandler) PriceStay(c *gin.Context) {
	hotelID, ok := hotelIDFromPath(c)
	if !ok {
		return
	}
	plan, ok := planFromQuery(c)
	if !ok {
		return
	}

	checkIn, err := time.Parse("2006-01-02", c.Query("check_in"))
	if err != nil {
		badRequest(c, "check_in must be YYYY-MM-DD")
		return
	}
	checkOut, err := time.Parse("2006-01-02", c.Query("check_out"))
	if err != nil {
		badRequest(c, "check_out must be YYYY-MM-DD")
		return
	}

	nights, err := h.rateService.PriceStay(hotelID, plan, checkIn, checkOut)
	if err != nil {
		writeError(c, err)
		return
	}

	var total int64
	for _, n := range nights {
		total += n.Amount
	}

	c.JSON(http.StatusOK, gin.H{
		"hotel_id": hotelID,
		"nights":   nights,
		"total":    total,
	})
}
