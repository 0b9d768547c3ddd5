package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stayforge/hotel-backend/internal/database"
	"github.com/stayforge/hotel-backend/internal/models"
)

// PricingRuleHandler handles staff pricing-rule management requests
type PricingRuleHandler struct {
	ruleRepo *database.PricingRuleRepository
	logger   *logrus.Logger
}

// NewPricingRuleHandler creates a new pricing rule handler
func NewPricingRuleHandler(ruleRepo *database.PricingRuleRepository, logger *logrus.Logger) *PricingRuleHandler {
	return &PricingRuleHandler{ruleRepo: ruleRepo, logger: logger}
}

func ruleFromRequest(req *models.CreatePricingRuleRequest) (*models.PricingRule, error) {
	dateStart, err := time.Parse("2006-01-02", req.DateStart)
	if err != nil {
		return nil, err
	}

	rule := &models.PricingRule{
		HotelID:            req.HotelID,
		PlanID:             req.PlanID,
		HotelPlanID:        req.HotelPlanID,
		AdjustmentType:     req.AdjustmentType,
		AdjustmentValue:    req.AdjustmentValue,
		TaxTypeID:          req.TaxTypeID,
		TaxRate:            req.TaxRate,
		ConditionType:      req.ConditionType,
		ConditionValue:     req.ConditionValue,
		DateStart:          dateStart,
		IncludeInCancelFee: req.IncludeInCancelFee,
	}
	if rule.ConditionType == "" {
		rule.ConditionType = models.ConditionNone
	}
	if req.DateEnd != nil {
		dateEnd, err := time.Parse("2006-01-02", *req.DateEnd)
		if err != nil {
			return nil, err
		}
		rule.DateEnd = &dateEnd
	}

	return rule, nil
}

// CreateRule handles POST /api/v1/pricing-rules
func (h *PricingRuleHandler) CreateRule(c *gin.Context) {
	var req models.CreatePricingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	rule, err := ruleFromRequest(&req)
	if err != nil {
		badRequest(c, "dates must be YYYY-MM-DD")
		return
	}

	if err := h.ruleRepo.Create(rule); err != nil {
		h.logger.WithError(err).Error("Failed to create pricing rule")
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rule)
}

// UpdateRule handles PUT /api/v1/pricing-rules/:id
func (h *PricingRuleHandler) UpdateRule(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "Invalid pricing rule ID format")
		return
	}

	var req models.CreatePricingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	rule, err := ruleFromRequest(&req)
	if err != nil {
		badRequest(c, "dates must be YYYY-MM-DD")
		return
	}
	rule.ID = id

	if err := h.ruleRepo.Update(rule); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, rule)
}

// DeleteRule handles DELETE /api/v1/pricing-rules/:id
func (h *PricingRuleHandler) DeleteRule(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "Invalid pricing rule ID format")
		return
	}

	if err := h.ruleRepo.Delete(id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "pricing rule deleted"})
}

// GetRule handles GET /api/v1/pricing-rules/:id
func (h *PricingRuleHandler) GetRule(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "Invalid pricing rule ID format")
		return
	}

	rule, err := h.ruleRepo.GetByID(id)
	if err != nil {
		writeError(c, err)
		return
	}
	if rule == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Pricing rule not found",
		})
		return
	}

	c.JSON(http.StatusOK, rule)
}

// ListRules handles GET /api/v1/hotels/:id/pricing-rules
func (h *PricingRuleHandler) ListRules(c *gin.Context) {
	hotelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "Invalid hotel ID format")
		return
	}

	rules, err := h.ruleRepo.ListByHotel(hotelID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rules": rules,
		"total": len(rules),
	})
}
