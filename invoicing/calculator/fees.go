package calculator

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"receivables.app/invoicing/models"
)

// TierPolicy decides which early discount tier applies when several qualify.
type TierPolicy string

const (
	// TierPolicyBest picks the qualifying tier with the highest percentage,
	// the earliest listed one on ties.
	TierPolicyBest TierPolicy = "best"
	// TierPolicyFirst picks the first qualifying tier in listed order.
	TierPolicyFirst TierPolicy = "first"
)

// Valid reports whether p is a known policy.
func (p TierPolicy) Valid() bool {
	return p == TierPolicyBest || p == TierPolicyFirst
}

// LateFeeAssessment is the outcome of checking an amount for late fees.
type LateFeeAssessment struct {
	DaysOverdue int
	Applies     bool
	Fee         decimal.Decimal
	Total       decimal.Decimal
}

// DaysBetween counts calendar days from from to to, in from's location.
func DaysBetween(from, to time.Time) int {
	y1, m1, d1 := from.Date()
	y2, m2, d2 := to.In(from.Location()).Date()
	start := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	end := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}

// SelectDiscountTier returns the tier that applies to a payment made at paidAt
// for an invoice dated invoiceDate. A tier qualifies when payment lands within
// its DiscountDays.
func SelectDiscountTier(
	cfg *models.EarlyDiscountConfig, invoiceDate, paidAt time.Time, policy TierPolicy,
) (models.DiscountTier, bool) {
	if cfg == nil {
		return models.DiscountTier{}, false
	}

	elapsed := DaysBetween(invoiceDate, paidAt)
	qualifying := lo.Filter(cfg.Tiers, func(tier models.DiscountTier, _ int) bool {
		return elapsed <= tier.DiscountDays
	})
	if len(qualifying) == 0 {
		return models.DiscountTier{}, false
	}

	switch policy {
	case TierPolicyFirst:
		return qualifying[0], true
	case TierPolicyBest:
		return lo.MaxBy(qualifying, func(a, b models.DiscountTier) bool {
			return a.DiscountPercentage.GreaterThan(b.DiscountPercentage)
		}), true
	default:
		return models.DiscountTier{}, false
	}
}

// ApplyEarlyDiscount reduces amount by the tier's percentage.
func ApplyEarlyDiscount(amount decimal.Decimal, tier models.DiscountTier) decimal.Decimal {
	return amount.Mul(one.Sub(percent(tier.DiscountPercentage)))
}

// LateFee is the fee cfg charges on amount, regardless of timing.
// Unknown fee types charge nothing.
func LateFee(amount decimal.Decimal, cfg models.LatePaymentConfig) decimal.Decimal {
	switch cfg.LateFeeType {
	case models.LateFeePercentage:
		return amount.Mul(percent(cfg.LateFeeAmount))
	case models.LateFeeFixed:
		return cfg.LateFeeAmount
	default:
		return decimal.Zero
	}
}

// AssessLateFee applies cfg to amount when at is more than GracePeriodDays
// past dueDate. A single fee is assessed; compounding is left to the caller.
func AssessLateFee(amount decimal.Decimal, cfg *models.LatePaymentConfig, dueDate, at time.Time) LateFeeAssessment {
	assessment := LateFeeAssessment{
		DaysOverdue: max(0, DaysBetween(dueDate, at)),
		Fee:         decimal.Zero,
		Total:       amount,
	}
	if cfg == nil || !cfg.LateFeeEnabled || assessment.DaysOverdue <= cfg.GracePeriodDays {
		return assessment
	}

	assessment.Applies = true
	assessment.Fee = LateFee(amount, *cfg)
	assessment.Total = amount.Add(assessment.Fee)
	return assessment
}
