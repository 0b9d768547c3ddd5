package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stayforge/hotel-backend/internal/database"
)

// PlanHandler serves the plan catalog
type PlanHandler struct {
	planRepo *database.PlanRepository
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(planRepo *database.PlanRepository) *PlanHandler {
	return &PlanHandler{planRepo: planRepo}
}

// ListPlans handles GET /api/v1/plans
func (h *PlanHandler) ListPlans(c *gin.Context) {
	plans, err := h.planRepo.ListPlans()
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"plans": plans,
		"total": len(plans),
	})
}

// ListHotelPlans handles GET /api/v1/hotels/:id/plans
func (h *PlanHandler) ListHotelPlans(c *gin.Context) {
	hotelID, ok := hotelIDFromPath(c)
	if !ok {
		return
	}

	plans, err := h.planRepo.ListHotelPlans(hotelID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"plans": plans,
		"total": len(plans),
	})
}
