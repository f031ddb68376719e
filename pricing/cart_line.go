package pricing

import (
	"fmt"
	"strings"

	"pedidos-restaurante/models"
)

// LineType discriminates the two kinds of cart lines
type LineType string

const (
	LineTypeProduct LineType = "product"
	LineTypePackage LineType = "package"
)

// CartLine is a validated cart line: either a ProductLine or a PackageLine
type CartLine interface {
	Type() LineType
	Position() int
	isCartLine()
}

// Customizations lists customization names added to or removed from an item
type Customizations struct {
	Added   []string
	Removed []string
}

// ProductLine is a single product with its customizations
type ProductLine struct {
	Index          int
	ProductID      string
	Quantity       int
	Customizations Customizations
}

func (ProductLine) Type() LineType  { return LineTypeProduct }
func (l ProductLine) Position() int { return l.Index }
func (ProductLine) isCartLine()     {}

// PackageLine is a package with per-member customizations keyed by member product id
type PackageLine struct {
	Index          int
	PackageID      string
	Quantity       int
	Customizations map[string]Customizations
}

func (PackageLine) Type() LineType  { return LineTypePackage }
func (l PackageLine) Position() int { return l.Index }
func (PackageLine) isCartLine()     {}

// ParseCartRequest validates the request body and converts it into typed cart lines
func ParseCartRequest(req *models.VerifyTotalsRequest) ([]CartLine, error) {
	if req == nil || req.Items == nil {
		return nil, newValidationError("items", "items is required")
	}

	lines := make([]CartLine, 0, len(req.Items))
	for i, item := range req.Items {
		line, err := parseCartItem(i, item)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func parseCartItem(i int, item models.CartItemRequest) (CartLine, error) {
	productID := strings.TrimSpace(item.ProductID)
	packageID := strings.TrimSpace(item.PackageID)

	if productID == "" && packageID == "" {
		return nil, newValidationError(fieldName(i, "productId"), "items[%d]: productId or packageId is required", i)
	}
	if productID != "" && packageID != "" {
		return nil, newValidationError(fieldName(i, "productId"), "items[%d]: only one of productId or packageId is allowed", i)
	}
	if item.Quantity == nil {
		return nil, newValidationError(fieldName(i, "quantity"), "items[%d].quantity is required", i)
	}
	if *item.Quantity <= 0 {
		return nil, newValidationError(fieldName(i, "quantity"), "items[%d].quantity must be greater than 0", i)
	}

	if productID != "" {
		line := ProductLine{
			Index:     i,
			ProductID: productID,
			Quantity:  *item.Quantity,
		}
		if item.Customizations != nil {
			line.Customizations = Customizations{
				Added:   item.Customizations.Added,
				Removed: item.Customizations.Removed,
			}
		}
		return line, nil
	}

	line := PackageLine{
		Index:          i,
		PackageID:      packageID,
		Quantity:       *item.Quantity,
		Customizations: make(map[string]Customizations, len(item.PackageCustomizations)),
	}
	for memberID, c := range item.PackageCustomizations {
		if strings.TrimSpace(memberID) == "" {
			return nil, newValidationError(fieldName(i, "packageCustomizations"), "items[%d].packageCustomizations has an empty product id", i)
		}
		line.Customizations[memberID] = Customizations{
			Added:   c.Added,
			Removed: c.Removed,
		}
	}
	return line, nil
}

func fieldName(i int, field string) string {
	return fmt.Sprintf("items[%d].%s", i, field)
}
