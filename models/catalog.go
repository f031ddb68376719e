package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customization represents an optional extra that can be added to a product
type Customization struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"` // Non-negative price delta
}

// Product represents a sellable product in the catalog
type Product struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Price            decimal.Decimal `json:"price"`     // Listed price, tax included
	BasePrice        decimal.Decimal `json:"basePrice"` // Pre-tax price
	Taxable          bool            `json:"taxable"`
	CategoriaVentaID string          `json:"categoriaVentaId"`
	Customizations   []Customization `json:"customizations"`
	IsDeleted        bool            `json:"isDeleted"`
}

// FindCustomization looks up a customization by exact name
func (p *Product) FindCustomization(name string) (Customization, bool) {
	for _, c := range p.Customizations {
		if c.Name == name {
			return c, true
		}
	}
	return Customization{}, false
}

// RecordType discriminates the records stored in the promotions collection
type RecordType string

const (
	RecordTypePackage   RecordType = "package"
	RecordTypePromotion RecordType = "promotion"
)

// PackageItem is a member product of a package with its fixed quantity
type PackageItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Package represents a bundle of products sold at a flat price
type Package struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Items     []PackageItem   `json:"items"`
	IsDeleted bool            `json:"isDeleted"`
}

// CatalogRecord is a package or promotion read from the shared collection.
// Exactly one of Package or Promotion is set, according to Type.
type CatalogRecord struct {
	ID        string
	Type      RecordType
	Package   *Package
	Promotion *Promotion
}

// Promotion represents a discount rule
type Promotion struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	IsActive      bool            `json:"isActive"`
	IsDeleted     bool            `json:"isDeleted"`
	StartDate     *time.Time      `json:"startDate"`
	EndDate       *time.Time      `json:"endDate"`
	DiscountType  DiscountType    `json:"discountType"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	AppliesTo     PromotionScope  `json:"appliesTo"`
	TargetIDs     []string        `json:"targetIds"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// DiscountType defines how a promotion computes its discount
type DiscountType string

const (
	DiscountTypePercentage  DiscountType = "percentage"
	DiscountTypeFixedAmount DiscountType = "fixed_amount"
)

// PromotionScope defines what a promotion targets
type PromotionScope string

const (
	ScopeProduct    PromotionScope = "product"
	ScopeCategory   PromotionScope = "category"
	ScopeTotalOrder PromotionScope = "total_order"
)

// HasTarget reports whether id is one of the promotion's target ids
func (p *Promotion) HasTarget(id string) bool {
	for _, t := range p.TargetIDs {
		if t == id {
			return true
		}
	}
	return false
}
