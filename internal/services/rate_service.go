package services

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stayforge/hotel-backend/internal/database"
	"github.com/stayforge/hotel-backend/internal/models"
	"github.com/stayforge/hotel-backend/internal/pricing"
)

// RateService answers price lookups and rate previews. Amounts are
// non-negative integers in the smallest whole currency unit.
type RateService struct {
	ruleRepo *database.PricingRuleRepository
	logger   *logrus.Logger
}

// NewRateService creates a new RateService
func NewRateService(ruleRepo *database.PricingRuleRepository, logger *logrus.Logger) *RateService {
	return &RateService{ruleRepo: ruleRepo, logger: logger}
}

// NightPrice is one night of a stay quote
type NightPrice struct {
	Date   string `json:"date"`
	Amount int64  `json:"amount"`
}

// Price computes the price of one night for a plan at a hotel
func (s *RateService) Price(hotelID int64, plan models.PlanRef, date time.Time) (int64, error) {
	quote, err := s.Preview(hotelID, plan, date)
	if err != nil {
		return 0, err
	}
	return quote.Amount, nil
}

// Preview computes the price of one night plus the ordered breakdown of
// contributing adjustments
func (s *RateService) Preview(hotelID int64, plan models.PlanRef, date time.Time) (*pricing.Quote, error) {
	rules, err := s.ruleRepo.FetchForDate(hotelID, plan, date)
	if err != nil {
		return nil, err
	}

	quote, err := pricing.QuoteFromRules(rules, date)
	if err != nil {
		return nil, fmt.Errorf("failed to price %s: %w", date.Format("2006-01-02"), err)
	}

	return quote, nil
}

// PriceStay computes the per-night quote for every night in
// [checkIn, checkOut)
func (s *RateService) PriceStay(hotelID int64, plan models.PlanRef, checkIn, checkOut time.Time) ([]NightPrice, error) {
	if !checkOut.After(checkIn) {
		return nil, models.ErrInvalidDates
	}

	nights := []NightPrice{}
	for d := checkIn; d.Before(checkOut); d = d.AddDate(0, 0, 1) {
		amount, err := s.Price(hotelID, plan, d)
		if err != nil {
			return nil, err
		}
		nights = append(nights, NightPrice{Date: d.Format("2006-01-02"), Amount: amount})
	}

	return nights, nil
}
