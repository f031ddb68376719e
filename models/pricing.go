package models

// AppliedPromotion describes a promotion applied to a line or to the whole order
type AppliedPromotion struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	AppliesTo string  `json:"appliesTo"`
	Discount  float64 `json:"discount"`
}

// LineCustomizations lists the customizations shown for a priced line
type LineCustomizations struct {
	Added   []string `json:"added"`   // Names matched against the catalog
	Removed []string `json:"removed"` // Names as sent by the client
}

// PackageItemBreakdown represents a member product of a priced package line
type PackageItemBreakdown struct {
	ProductID      string             `json:"productId"`
	Name           string             `json:"name"`
	Quantity       int                `json:"quantity"`
	Customizations LineCustomizations `json:"customizations"`
}

// PricedLine represents pricing information for a single cart line
type PricedLine struct {
	Type             string                 `json:"type"` // "product" or "package"
	ProductID        string                 `json:"productId,omitempty"`
	PackageID        string                 `json:"packageId,omitempty"`
	Name             string                 `json:"name"`      // Display name with customization annotations
	UnitPrice        float64                `json:"unitPrice"` // Includes customization deltas
	Quantity         int                    `json:"quantity"`
	Subtotal         float64                `json:"subtotal"` // unitPrice * quantity
	Total            float64                `json:"total"`    // subtotal - line discount
	Taxable          bool                   `json:"taxable"`
	Customizations   *LineCustomizations    `json:"customizations,omitempty"`
	PackageItems     []PackageItemBreakdown `json:"packageItems,omitempty"`
	AppliedPromotion *AppliedPromotion      `json:"appliedPromotion"`
}

// CartSummary represents the totals of a priced cart
type CartSummary struct {
	Subtotal              float64           `json:"subtotal"`        // After line discounts, before order discount
	SubtotalGeneral       float64           `json:"subtotalGeneral"` // Pre-tax basis
	IvaDesglosado         float64           `json:"ivaDesglosado"`   // totalFinal - subtotalGeneral
	TaxRate               float64           `json:"taxRate"`
	AppliedOrderPromotion *AppliedPromotion `json:"appliedOrderPromotion"`
	TotalFinal            float64           `json:"totalFinal"`
}

// VerifyTotalsResponse represents the complete pricing calculation result
type VerifyTotalsResponse struct {
	Items   []PricedLine `json:"items"`
	Summary CartSummary  `json:"summary"`
}
