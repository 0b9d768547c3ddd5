package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stayforge/hotel-backend/internal/models"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// RateLine is one rule's contribution to a night price, in evaluation
// order. Lines are persisted as reservation_rates rows. Per-line amounts
// are informational records of each rule's share, floored toward negative
// infinity like every stage total, so a breakdown never sums above the
// price; the authoritative total still comes from the sequential
// algorithm in QuoteFromRules.
type RateLine struct {
	PricingRuleID      *int64                `json:"pricing_rule_id,omitempty"`
	AdjustmentType     models.AdjustmentType `json:"adjustment_type"`
	AdjustmentValue    decimal.Decimal       `json:"adjustment_value"`
	TaxTypeID          int                   `json:"tax_type_id"`
	TaxRate            decimal.Decimal       `json:"tax_rate"`
	Amount             int64                 `json:"amount"`
	IncludeInCancelFee bool                  `json:"include_in_cancel_fee"`
}

// Quote is the result of pricing one night: the final amount plus the
// ordered bill-of-adjustments behind it.
type Quote struct {
	Amount int64      `json:"amount"`
	Lines  []RateLine `json:"lines"`
}

// QuoteFromRules prices one night from the rule set applicable to a
// plan/hotel. Rules outside their date window or failing their calendar
// condition are skipped. The evaluation order matters:
//
//  1. base_rate rows sum additively to B
//  2. taxable percentages (tax_type_id != 1, pre-normalized fractions)
//     sum to a and scale the base: t1 = B * (1 + a)
//  3. t1 is rounded down to the nearest 100 currency units
//  4. non-taxable percentages (tax_type_id == 1, whole percentage points)
//     apply to the rounded value, flat fees add last, and the result is
//     floored and clamped at zero
//
// Malformed rule data is an error, never a silent zero: zero is a valid
// price and must not be conflated with "unknown".
func QuoteFromRules(rules []models.PricingRule, date time.Time) (*Quote, error) {
	var applicable []models.PricingRule
	for _, rule := range rules {
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("pricing rule %d: %w", rule.ID, err)
		}
		if !rule.AppliesOn(date) {
			continue
		}
		if !ConditionMatches(rule.ConditionType, rule.ConditionValue, date) {
			continue
		}
		applicable = append(applicable, rule)
	}

	var (
		base        decimal.Decimal // B
		groupA      decimal.Decimal // a: taxable percentage effect
		groupB      decimal.Decimal // b: non-taxable percentage effect
		flat        decimal.Decimal // F
		baseRules   []models.PricingRule
		groupARules []models.PricingRule
		groupBRules []models.PricingRule
		flatRules   []models.PricingRule
	)

	for _, rule := range applicable {
		switch rule.AdjustmentType {
		case models.AdjustmentBaseRate:
			base = base.Add(rule.AdjustmentValue)
			baseRules = append(baseRules, rule)
		case models.AdjustmentPercentage:
			if rule.TaxTypeID == models.TaxTypeNonTaxable {
				groupB = groupB.Add(rule.AdjustmentValue.Div(hundred))
				groupBRules = append(groupBRules, rule)
			} else {
				groupA = groupA.Add(rule.AdjustmentValue)
				groupARules = append(groupARules, rule)
			}
		case models.AdjustmentFlatFee:
			flat = flat.Add(rule.AdjustmentValue)
			flatRules = append(flatRules, rule)
		}
	}

	t1 := base.Mul(one.Add(groupA))
	t2 := floorToHundred(t1)
	t3 := t2.Add(t2.Mul(groupB)).Add(flat).Floor()

	amount := t3.IntPart()
	if amount < 0 {
		amount = 0
	}

	lines := make([]RateLine, 0, len(applicable))
	for _, rule := range baseRules {
		lines = append(lines, lineFor(rule, rule.AdjustmentValue))
	}
	for _, rule := range groupARules {
		lines = append(lines, lineFor(rule, base.Mul(rule.AdjustmentValue)))
	}
	for _, rule := range groupBRules {
		lines = append(lines, lineFor(rule, t2.Mul(rule.AdjustmentValue.Div(hundred))))
	}
	for _, rule := range flatRules {
		lines = append(lines, lineFor(rule, rule.AdjustmentValue))
	}

	return &Quote{Amount: amount, Lines: lines}, nil
}

// TotalFromRates recomputes a detail price from its materialized rate rows.
// Unlike QuoteFromRules this path sums each bucket's recorded contribution
// directly; only the final floor-to-100 is re-applied, and only when
// rounding is not disabled. Used when replaying an existing breakdown
// (cancel-fee and recover recomputation).
func TotalFromRates(rates []models.ReservationRate, round bool) int64 {
	var subtotal, flat decimal.Decimal
	for _, rate := range rates {
		amount := decimal.NewFromInt(rate.Amount)
		if rate.AdjustmentType == models.AdjustmentFlatFee {
			flat = flat.Add(amount)
		} else {
			subtotal = subtotal.Add(amount)
		}
	}

	if round {
		subtotal = floorToHundred(subtotal)
	}

	total := subtotal.Add(flat).Floor().IntPart()
	if total < 0 {
		return 0
	}
	return total
}

// CancelFeeFromRates recomputes the price of a cancelled detail from only
// the rate rows that survive into a cancellation fee. The result may be
// less than the full night price.
func CancelFeeFromRates(rates []models.ReservationRate) int64 {
	kept := make([]models.ReservationRate, 0, len(rates))
	for _, rate := range rates {
		if rate.IncludeInCancelFee {
			kept = append(kept, rate)
		}
	}
	return TotalFromRates(kept, true)
}

// floorToHundred rounds down to the nearest 100 currency units
func floorToHundred(v decimal.Decimal) decimal.Decimal {
	return v.Div(hundred).Floor().Mul(hundred)
}

func lineFor(rule models.PricingRule, amount decimal.Decimal) RateLine {
	id := rule.ID
	return RateLine{
		PricingRuleID:      &id,
		AdjustmentType:     rule.AdjustmentType,
		AdjustmentValue:    rule.AdjustmentValue,
		TaxTypeID:          rule.TaxTypeID,
		TaxRate:            rule.TaxRate,
		Amount:             amount.Floor().IntPart(),
		IncludeInCancelFee: rule.IncludeInCancelFee,
	}
}
