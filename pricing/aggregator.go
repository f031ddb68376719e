package pricing

import (
	"github.com/shopspring/decimal"

	"pedidos-restaurante/models"
)

// cartTotals is the aggregated result before conversion to the response model
type cartTotals struct {
	subtotal        decimal.Decimal // after line discounts
	subtotalGeneral decimal.Decimal
	orderPromotion  *models.Promotion
	orderDiscount   decimal.Decimal
	totalFinal      decimal.Decimal
	ivaDesglosado   decimal.Decimal
}

// aggregate sums the discounted lines, applies the order promotion and derives
// the tax breakdown
func aggregate(lines []*pricedLine, orderPromotion *models.Promotion, taxRate decimal.Decimal, clamp bool) cartTotals {
	divisor := decimal.NewFromInt(1).Add(taxRate)

	totals := cartTotals{
		subtotal:        decimal.Zero,
		subtotalGeneral: decimal.Zero,
		orderDiscount:   decimal.Zero,
	}
	base := decimal.Zero
	for _, line := range lines {
		totals.subtotal = totals.subtotal.Add(line.total())
		base = base.Add(lineTaxBase(line, divisor))
	}
	totals.subtotalGeneral = base.Round(2)

	if orderPromotion != nil {
		totals.orderPromotion = orderPromotion
		totals.orderDiscount = computeDiscount(orderPromotion, totals.subtotal, clamp)
	}
	totals.totalFinal = totals.subtotal.Sub(totals.orderDiscount)
	totals.ivaDesglosado = totals.totalFinal.Sub(totals.subtotalGeneral)
	return totals
}

// lineTaxBase returns the pre-tax basis of a discounted line. Package lines
// split their total across members by member price times quantity plus the
// member's customization deltas, each share following the member's taxable flag.
func lineTaxBase(line *pricedLine, divisor decimal.Decimal) decimal.Decimal {
	total := line.total()

	if line.kind == LineTypeProduct {
		if line.product != nil && !line.product.Taxable {
			return total
		}
		return total.Div(divisor)
	}

	if len(line.members) == 0 {
		return total.Div(divisor)
	}

	weights := make([]decimal.Decimal, len(line.members))
	totalWeight := decimal.Zero
	for i, m := range line.members {
		weights[i] = m.product.Price.Mul(decimal.NewFromInt(int64(m.quantity))).Add(m.delta)
		totalWeight = totalWeight.Add(weights[i])
	}

	base := decimal.Zero
	for i, m := range line.members {
		var share decimal.Decimal
		if totalWeight.IsZero() {
			share = total.Div(decimal.NewFromInt(int64(len(line.members))))
		} else {
			share = total.Mul(weights[i]).Div(totalWeight)
		}
		if m.product.Taxable {
			share = share.Div(divisor)
		}
		base = base.Add(share)
	}
	return base
}

// isTaxable reports whether any part of the line carries IVA
func (l *pricedLine) isTaxable() bool {
	if l.kind == LineTypeProduct {
		return l.product == nil || l.product.Taxable
	}
	if len(l.members) == 0 {
		return true
	}
	for _, m := range l.members {
		if m.product.Taxable {
			return true
		}
	}
	return false
}

// toResponse converts priced lines and totals into the response model
func toResponse(lines []*pricedLine, totals cartTotals, taxRate decimal.Decimal) *models.VerifyTotalsResponse {
	items := make([]models.PricedLine, 0, len(lines))
	for _, line := range lines {
		items = append(items, line.toModel())
	}

	summary := models.CartSummary{
		Subtotal:        toFloat(totals.subtotal),
		SubtotalGeneral: toFloat(totals.subtotalGeneral),
		IvaDesglosado:   toFloat(totals.ivaDesglosado),
		TaxRate:         taxRate.InexactFloat64(),
		TotalFinal:      toFloat(totals.totalFinal),
	}
	if totals.orderPromotion != nil {
		summary.AppliedOrderPromotion = appliedPromotion(totals.orderPromotion, totals.orderDiscount)
	}

	return &models.VerifyTotalsResponse{
		Items:   items,
		Summary: summary,
	}
}

func (l *pricedLine) toModel() models.PricedLine {
	out := models.PricedLine{
		Type:      string(l.kind),
		Name:      l.name,
		UnitPrice: toFloat(l.unitPrice),
		Quantity:  l.quantity,
		Subtotal:  toFloat(l.subtotal),
		Total:     toFloat(l.total()),
		Taxable:   l.isTaxable(),
	}

	switch l.kind {
	case LineTypeProduct:
		out.ProductID = l.id
		out.Customizations = &models.LineCustomizations{
			Added:   l.added,
			Removed: l.removed,
		}
	case LineTypePackage:
		out.PackageID = l.id
		out.PackageItems = make([]models.PackageItemBreakdown, 0, len(l.members))
		for _, m := range l.members {
			out.PackageItems = append(out.PackageItems, models.PackageItemBreakdown{
				ProductID: m.product.ID,
				Name:      displayName(m.product.Name, m.added, m.removed),
				Quantity:  m.quantity,
				Customizations: models.LineCustomizations{
					Added:   m.added,
					Removed: m.removed,
				},
			})
		}
	}

	if l.promotion != nil {
		out.AppliedPromotion = appliedPromotion(l.promotion, l.discount)
	}
	return out
}

func appliedPromotion(p *models.Promotion, discount decimal.Decimal) *models.AppliedPromotion {
	return &models.AppliedPromotion{
		ID:        p.ID,
		Name:      p.Name,
		AppliesTo: string(p.AppliesTo),
		Discount:  toFloat(discount),
	}
}

func toFloat(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
