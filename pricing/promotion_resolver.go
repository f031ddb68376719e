package pricing

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"pedidos-restaurante/models"
)

var hundred = decimal.NewFromInt(100)

// validPromotions returns the promotions that can apply at now, in tie-break order:
// createdAt ascending (undated last), then id ascending
func validPromotions(promotions []models.Promotion, now time.Time) []models.Promotion {
	valid := make([]models.Promotion, 0, len(promotions))
	for _, p := range promotions {
		if !isCurrentlyValid(&p, now) || !isWellFormed(&p) {
			continue
		}
		valid = append(valid, p)
	}

	sort.SliceStable(valid, func(i, j int) bool {
		a, b := valid[i], valid[j]
		if a.CreatedAt.IsZero() != b.CreatedAt.IsZero() {
			return !a.CreatedAt.IsZero()
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return valid
}

// isCurrentlyValid checks the active flag, the soft-delete marker and the
// validity window. Missing bounds are unbounded.
func isCurrentlyValid(p *models.Promotion, now time.Time) bool {
	if !p.IsActive || p.IsDeleted {
		return false
	}
	if p.StartDate != nil && now.Before(*p.StartDate) {
		return false
	}
	if p.EndDate != nil && now.After(*p.EndDate) {
		return false
	}
	return true
}

func isWellFormed(p *models.Promotion) bool {
	switch p.DiscountType {
	case models.DiscountTypePercentage:
		if p.DiscountValue.IsNegative() || p.DiscountValue.GreaterThan(hundred) {
			return false
		}
	case models.DiscountTypeFixedAmount:
		if p.DiscountValue.IsNegative() {
			return false
		}
	default:
		return false
	}

	switch p.AppliesTo {
	case models.ScopeProduct, models.ScopeCategory:
		return len(p.TargetIDs) > 0
	case models.ScopeTotalOrder:
		return true
	default:
		return false
	}
}

// resolveLine returns the first promotion targeting the product line, if any.
// Package lines are not eligible for line promotions.
func resolveLine(line *pricedLine, promotions []models.Promotion) *models.Promotion {
	if line.kind != LineTypeProduct || line.product == nil {
		return nil
	}
	for i := range promotions {
		p := &promotions[i]
		switch p.AppliesTo {
		case models.ScopeProduct:
			if p.HasTarget(line.product.ID) {
				return p
			}
		case models.ScopeCategory:
			if line.product.CategoriaVentaID != "" && p.HasTarget(line.product.CategoriaVentaID) {
				return p
			}
		}
	}
	return nil
}

// resolveOrder returns the first total_order promotion, if any
func resolveOrder(promotions []models.Promotion) *models.Promotion {
	for i := range promotions {
		if promotions[i].AppliesTo == models.ScopeTotalOrder {
			return &promotions[i]
		}
	}
	return nil
}

// computeDiscount applies the promotion to amount. Percentage discounts are
// rounded to cents; fixed discounts are capped at amount when clamp is set.
func computeDiscount(p *models.Promotion, amount decimal.Decimal, clamp bool) decimal.Decimal {
	switch p.DiscountType {
	case models.DiscountTypePercentage:
		return amount.Mul(p.DiscountValue).Div(hundred).Round(2)
	case models.DiscountTypeFixedAmount:
		discount := p.DiscountValue
		if clamp {
			discount = decimal.Min(discount, decimal.Max(amount, decimal.Zero))
		}
		return discount
	}
	return decimal.Zero
}
