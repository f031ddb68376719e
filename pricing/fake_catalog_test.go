package pricing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"pedidos-restaurante/models"
	"pedidos-restaurante/repository"
)

type fakeCatalog struct {
	mu sync.Mutex

	products      map[string]*models.Product
	records       map[string]*models.CatalogRecord
	promotions    []models.Promotion
	productErr    error
	promotionsErr error

	productCalls map[string]int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		products:     map[string]*models.Product{},
		records:      map[string]*models.CatalogRecord{},
		productCalls: map[string]int{},
	}
}

func (f *fakeCatalog) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.productCalls[id]++
	if f.productErr != nil {
		return nil, f.productErr
	}
	p, ok := f.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, repository.ErrNotFound)
	}
	return p, nil
}

func (f *fakeCatalog) GetPackageOrPromotion(ctx context.Context, id string) (*models.CatalogRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok {
		return nil, fmt.Errorf("record %s: %w", id, repository.ErrNotFound)
	}
	return r, nil
}

func (f *fakeCatalog) GetActivePromotions(ctx context.Context) ([]models.Promotion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.promotionsErr != nil {
		return nil, f.promotionsErr
	}
	out := make([]models.Promotion, len(f.promotions))
	copy(out, f.promotions)
	return out, nil
}

func (f *fakeCatalog) addProduct(p *models.Product) {
	f.products[p.ID] = p
}

func (f *fakeCatalog) addPackage(p *models.Package) {
	f.records[p.ID] = &models.CatalogRecord{ID: p.ID, Type: models.RecordTypePackage, Package: p}
}

func (f *fakeCatalog) addPromotion(p models.Promotion) {
	f.promotions = append(f.promotions, p)
	promo := p
	f.records[p.ID] = &models.CatalogRecord{ID: p.ID, Type: models.RecordTypePromotion, Promotion: &promo}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var fixedNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

// restaurantCatalog seeds a small menu: a taxable burger with extras, a
// non-taxable soda and a family package bundling both
func restaurantCatalog() *fakeCatalog {
	f := newFakeCatalog()
	f.addProduct(&models.Product{
		ID:               "prod-hamburguesa",
		Name:             "Hamburguesa",
		Price:            dec("95"),
		BasePrice:        dec("81.90"),
		Taxable:          true,
		CategoriaVentaID: "cat-comida",
		Customizations: []models.Customization{
			{Name: "Queso", Price: dec("15")},
			{Name: "Tocino", Price: dec("20.50")},
		},
	})
	f.addProduct(&models.Product{
		ID:               "prod-refresco",
		Name:             "Refresco",
		Price:            dec("25"),
		BasePrice:        dec("25"),
		Taxable:          false,
		CategoriaVentaID: "cat-bebidas",
	})
	f.addPackage(&models.Package{
		ID:    "package-familiar",
		Name:  "Paquete Familiar",
		Price: dec("120"),
		Items: []models.PackageItem{
			{ProductID: "prod-hamburguesa", Quantity: 1},
			{ProductID: "prod-refresco", Quantity: 1},
		},
	})
	return f
}

func percentagePromotion(id string, scope models.PromotionScope, value string, targets ...string) models.Promotion {
	return models.Promotion{
		ID:            id,
		Name:          "Promo " + id,
		IsActive:      true,
		DiscountType:  models.DiscountTypePercentage,
		DiscountValue: dec(value),
		AppliesTo:     scope,
		TargetIDs:     targets,
		CreatedAt:     fixedNow.Add(-24 * time.Hour),
	}
}

func fixedPromotion(id string, scope models.PromotionScope, value string, targets ...string) models.Promotion {
	p := percentagePromotion(id, scope, value, targets...)
	p.DiscountType = models.DiscountTypeFixedAmount
	return p
}
