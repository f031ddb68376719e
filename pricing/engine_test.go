package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pedidos-restaurante/models"
)

func newTestEngine(catalog *fakeCatalog, mutate ...func(*Config)) *Engine {
	cfg := DefaultConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	return NewEngine(catalog, cfg, nil, WithClock(func() time.Time { return fixedNow }))
}

func productLine(i int, id string, qty int, added ...string) ProductLine {
	return ProductLine{Index: i, ProductID: id, Quantity: qty, Customizations: Customizations{Added: added}}
}

func TestVerifyTotals_CategoryPromotionOnBeverages(t *testing.T) {
	catalog := restaurantCatalog()
	catalog.addPromotion(percentagePromotion("promo-bebidas", models.ScopeCategory, "20", "cat-bebidas"))

	resp, err := newTestEngine(catalog).VerifyTotals(context.Background(), []CartLine{
		productLine(0, "prod-refresco", 2),
	})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)

	item := resp.Items[0]
	require.NotNil(t, item.AppliedPromotion)
	assert.Equal(t, "promo-bebidas", item.AppliedPromotion.ID)
	assert.Equal(t, "category", item.AppliedPromotion.AppliesTo)
	assert.InDelta(t, 10.00, item.AppliedPromotion.Discount, 0.001)
	assert.InDelta(t, 50.00, item.Subtotal, 0.001)
	assert.InDelta(t, 40.00, item.Total, 0.001)
	assert.False(t, item.Taxable)

	assert.InDelta(t, 40.00, resp.Summary.TotalFinal, 0.001)
	assert.InDelta(t, 40.00, resp.Summary.SubtotalGeneral, 0.001)
	assert.InDelta(t, 0, resp.Summary.IvaDesglosado, 0.001)
	assert.Nil(t, resp.Summary.AppliedOrderPromotion)
}

func TestVerifyTotals_PackageFamiliar(t *testing.T) {
	resp, err := newTestEngine(restaurantCatalog()).VerifyTotals(context.Background(), []CartLine{
		PackageLine{Index: 0, PackageID: "package-familiar", Quantity: 1, Customizations: map[string]Customizations{}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)

	item := resp.Items[0]
	assert.Equal(t, "package", item.Type)
	assert.Equal(t, "package-familiar", item.PackageID)
	assert.Equal(t, "Paquete Familiar", item.Name)
	assert.Nil(t, item.AppliedPromotion)
	require.Len(t, item.PackageItems, 2)
	assert.Equal(t, "prod-hamburguesa", item.PackageItems[0].ProductID)
	assert.Equal(t, "Hamburguesa", item.PackageItems[0].Name)
	assert.Equal(t, "prod-refresco", item.PackageItems[1].ProductID)

	assert.InDelta(t, 120.00, resp.Summary.TotalFinal, 0.001)
	// 95 taxable + 25 exempt: 95/1.16 + 25
	assert.InDelta(t, 106.90, resp.Summary.SubtotalGeneral, 0.001)
	assert.InDelta(t, 13.10, resp.Summary.IvaDesglosado, 0.001)
}

func TestVerifyTotals_PackageCustomizationsAreFlatAdds(t *testing.T) {
	catalog := restaurantCatalog()
	catalog.records["package-familiar"].Package.Items[0].Quantity = 2

	resp, err := newTestEngine(catalog).VerifyTotals(context.Background(), []CartLine{
		PackageLine{Index: 0, PackageID: "package-familiar", Quantity: 2, Customizations: map[string]Customizations{
			"prod-hamburguesa": {Added: []string{"Queso", "Inexistente"}, Removed: []string{"Cebolla"}},
		}},
	})
	require.NoError(t, err)

	item := resp.Items[0]
	assert.InDelta(t, 135.00, item.UnitPrice, 0.001)
	assert.InDelta(t, 270.00, item.Subtotal, 0.001)
	assert.Equal(t, []string{"Queso"}, item.PackageItems[0].Customizations.Added)
	assert.Equal(t, []string{"Cebolla"}, item.PackageItems[0].Customizations.Removed)
	assert.Equal(t, "Hamburguesa (+ Queso) (- Cebolla)", item.PackageItems[0].Name)
	assert.Empty(t, item.PackageItems[1].Customizations.Added)
}

func TestVerifyTotals_EmptyCart(t *testing.T) {
	resp, err := newTestEngine(restaurantCatalog()).VerifyTotals(context.Background(), []CartLine{})
	require.NoError(t, err)

	assert.NotNil(t, resp.Items)
	assert.Len(t, resp.Items, 0)
	assert.Zero(t, resp.Summary.TotalFinal)
	assert.Zero(t, resp.Summary.Subtotal)
	assert.Zero(t, resp.Summary.SubtotalGeneral)
	assert.Zero(t, resp.Summary.IvaDesglosado)
	assert.Nil(t, resp.Summary.AppliedOrderPromotion)
	assert.InDelta(t, 0.16, resp.Summary.TaxRate, 0.0001)
}

func TestVerifyTotals_UnknownProduct(t *testing.T) {
	_, err := newTestEngine(restaurantCatalog()).VerifyTotals(context.Background(), []CartLine{
		productLine(0, "does-not-exist", 1),
	})
	require.Error(t, err)

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "product", notFound.Entity)
	assert.Equal(t, "does-not-exist", notFound.ID)
	assert.Contains(t, err.Error(), "not found")
	assert.True(t, IsClientError(err))
}

func TestVerifyTotals_UnknownPackage(t *testing.T) {
	_, err := newTestEngine(restaurantCatalog()).VerifyTotals(context.Background(), []CartLine{
		PackageLine{Index: 0, PackageID: "package-fantasma", Quantity: 1},
	})
	require.Error(t, err)
	assert.EqualError(t, err, "package 'package-fantasma' not found")
}

func TestVerifyTotals_ReportsFirstFailingLineInCartOrder(t *testing.T) {
	_, err := newTestEngine(restaurantCatalog()).VerifyTotals(context.Background(), []CartLine{
		productLine(0, "prod-refresco", 1),
		productLine(1, "missing-a", 1),
		productLine(2, "missing-b", 1),
	})
	require.Error(t, err)
	assert.EqualError(t, err, "product 'missing-a' not found")
}

func TestVerifyTotals_PackageWithMissingMember(t *testing.T) {
	catalog := restaurantCatalog()
	delete(catalog.products, "prod-refresco")

	_, err := newTestEngine(catalog).VerifyTotals(context.Background(), []CartLine{
		PackageLine{Index: 0, PackageID: "package-familiar", Quantity: 1},
	})
	require.Error(t, err)
	assert.EqualError(t, err, "product 'prod-refresco' not found")
}

func TestVerifyTotals_PromotionIDAsPackageIsRejected(t *testing.T) {
	catalog := restaurantCatalog()
	catalog.addPromotion(percentagePromotion("promo-bebidas", models.ScopeCategory, "20", "cat-bebidas"))

	_, err := newTestEngine(catalog).VerifyTotals(context.Background(), []CartLine{
		PackageLine{Index: 0, PackageID: "promo-bebidas", Quantity: 1},
	})
	require.Error(t, err)

	var mismatch *TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, models.RecordTypePromotion, mismatch.Actual)
	assert.Contains(t, err.Error(), "does not correspond to a package")
	assert.True(t, IsClientError(err))
}

func TestVerifyTotals_InfrastructureErrorIsNotClientError(t *testing.T) {
	catalog := restaurantCatalog()
	catalog.productErr = errors.New("connection refused")

	_, err := newTestEngine(catalog).VerifyTotals(context.Background(), []CartLine{
		productLine(0, "prod-refresco", 1),
	})
	require.Error(t, err)
	assert.False(t, IsClientError(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestVerifyTotals_PromotionsErrorFailsRequest(t *testing.T) {
	catalog := restaurantCatalog()
	catalog.promotionsErr = errors.New("deadline exceeded")

	_, err := newTestEngine(catalog).VerifyTotals(context.Background(), []CartLine{
		productLine(0, "prod-refresco", 1),
	})
	require.Error(t, err)
	assert.False(t, IsClientError(err))
}

func TestVerifyTotals_CustomizationsAndDisplayName(t *testing.T) {
	resp, err := newTestEngine(restaurantCatalog()).VerifyTotals(context.Background(), []CartLine{
		ProductLine{Index: 0, ProductID: "prod-hamburguesa", Quantity: 2, Customizations: Customizations{
			Added:   []string{"Queso", "Tocino"},
			Removed: []string{"Cebolla"},
		}},
	})
	require.NoError(t, err)

	item := resp.Items[0]
	assert.Equal(t, "Hamburguesa (+ Queso) (+ Tocino) (- Cebolla)", item.Name)
	assert.InDelta(t, 130.50, item.UnitPrice, 0.001)
	assert.InDelta(t, 261.00, item.Subtotal, 0.001)
	require.NotNil(t, item.Customizations)
	assert.Equal(t, []string{"Queso", "Tocino"}, item.Customizations.Added)
	assert.Equal(t, []string{"Cebolla"}, item.Customizations.Removed)
	assert.True(t, item.Taxable)
}

func TestVerifyTotals_UnknownCustomizationIsIgnored(t *testing.T) {
	engine := newTestEngine(restaurantCatalog())

	withUnknown, err := engine.VerifyTotals(context.Background(), []CartLine{
		productLine(0, "prod-hamburguesa", 3, "NonExistentExtra"),
	})
	require.NoError(t, err)
	plain, err := engine.VerifyTotals(context.Background(), []CartLine{
		productLine(0, "prod-hamburguesa", 3),
	})
	require.NoError(t, err)

	assert.Equal(t, plain.Items[0].Name, withUnknown.Items[0].Name)
	assert.Equal(t, plain.Items[0].UnitPrice, withUnknown.Items[0].UnitPrice)
	assert.Equal(t, plain.Summary, withUnknown.Summary)
}

func TestVerifyTotals_NoPromotionsTotalsMatchLineSum(t *testing.T) {
	resp, err := newTestEngine(restaurantCatalog()).VerifyTotals(context.Background(), []CartLine{
		productLine(0, "prod-hamburguesa", 2, "Queso"),
		productLine(1, "prod-refresco", 3),
		PackageLine{Index: 2, PackageID: "package-familiar", Quantity: 1},
	})
	require.NoError(t, err)

	// (95+15)*2 + 25*3 + 120
	assert.InDelta(t, 415.00, resp.Summary.Subtotal, 0.001)
	assert.InDelta(t, 415.00, resp.Summary.TotalFinal, 0.001)
	assert.InDelta(t, resp.Summary.TotalFinal-resp.Summary.SubtotalGeneral, resp.Summary.IvaDesglosado, 0.001)
}

func TestVerifyTotals_TaxableLineIVA(t *testing.T) {
	resp, err := newTestEngine(restaurantCatalog()).VerifyTotals(context.Background(), []CartLine{
		productLine(0, "prod-hamburguesa", 1),
	})
	require.NoError(t, err)

	linePrice := 95.0
	assert.InDelta(t, linePrice-linePrice/1.16, resp.Summary.IvaDesglosado, 0.01)
	assert.InDelta(t, 81.90, resp.Summary.SubtotalGeneral, 0.001)
}

func TestVerifyTotals_ConfigurableTaxRate(t *testing.T) {
	engine := newTestEngine(restaurantCatalog(), func(c *Config) { c.TaxRate = dec("0.08") })

	resp, err := engine.VerifyTotals(context.Background(), []CartLine{
		productLine(0, "prod-hamburguesa", 1),
	})
	require.NoError(t, err)
	// 95 / 1.08 = 87.96
	assert.InDelta(t, 87.96, resp.Summary.SubtotalGeneral, 0.001)
	assert.InDelta(t, 0.08, resp.Summary.TaxRate, 0.0001)
}

func TestVerifyTotals_ProductScopePromotion(t *testing.T) {
	catalog := restaurantCatalog()
	catalog.addPromotion(percentagePromotion("promo-burger", models.ScopeProduct, "10", "prod-hamburguesa"))

	resp, err := newTestEngine(catalog).VerifyTotals(context.Background(), []CartLine{
		productLine(0, "prod-hamburguesa", 2),
		productLine(1, "prod-refresco", 1),
	})
	require.NoError(t, err)

	require.NotNil(t, resp.Items[0].AppliedPromotion)
	assert.InDelta(t, 19.00, resp.Items[0].AppliedPromotion.Discount, 0.001)
	assert.Nil(t, resp.Items[1].AppliedPromotion)
	assert.InDelta(t, 196.00, resp.Summary.TotalFinal, 0.001)
}

func TestVerifyTotals_PackageLinesGetNoLinePromotion(t *testing.T) {
	catalog := restaurantCatalog()
	catalog.addPromotion(percentagePromotion("promo-burger", models.ScopeProduct, "50", "prod-hamburguesa", "package-familiar"))
	catalog.addPromotion(percentagePromotion("promo-comida", models.ScopeCategory, "50", "cat-comida"))

	resp, err := newTestEngine(catalog).VerifyTotals(context.Background(), []CartLine{
		PackageLine{Index: 0, PackageID: "package-familiar", Quantity: 1},
	})
	require.NoError(t, err)
	assert.Nil(t, resp.Items[0].AppliedPromotion)
	assert.InDelta(t, 120.00, resp.Summary.TotalFinal, 0.001)
}

func TestVerifyTotals_OrderPromotion(t *testing.T) {
	catalog := restaurantCatalog()
	catalog.addPromotion(percentagePromotion("promo-bebidas", models.ScopeCategory, "20", "cat-bebidas"))
	catalog.addPromotion(percentagePromotion("promo-orden", models.ScopeTotalOrder, "10"))

	resp, err := newTestEngine(catalog).VerifyTotals(context.Background(), []CartLine{
		productLine(0, "prod-hamburguesa", 2),
		productLine(1, "prod-refresco", 2),
	})
	require.NoError(t, err)

	// 190 + (50 - 10) = 230; 10% off the order
	assert.InDelta(t, 230.00, resp.Summary.Subtotal, 0.001)
	require.NotNil(t, resp.Summary.AppliedOrderPromotion)
	assert.Equal(t, "promo-orden", resp.Summary.AppliedOrderPromotion.ID)
	assert.Equal(t, "total_order", resp.Summary.AppliedOrderPromotion.AppliesTo)
	assert.InDelta(t, 23.00, resp.Summary.AppliedOrderPromotion.Discount, 0.001)
	assert.InDelta(t, 207.00, resp.Summary.TotalFinal, 0.001)
	assert.InDelta(t, 203.79, resp.Summary.SubtotalGeneral, 0.001)
	assert.InDelta(t, 3.21, resp.Summary.IvaDesglosado, 0.001)
}

func TestVerifyTotals_FixedDiscountClamp(t *testing.T) {
	newCatalog := func() *fakeCatalog {
		c := restaurantCatalog()
		c.addPromotion(fixedPromotion("promo-fija", models.ScopeProduct, "50", "prod-refresco"))
		return c
	}
	lines := []CartLine{productLine(0, "prod-refresco", 1)}

	t.Run("clamped by default", func(t *testing.T) {
		resp, err := newTestEngine(newCatalog()).VerifyTotals(context.Background(), lines)
		require.NoError(t, err)
		assert.InDelta(t, 25.00, resp.Items[0].AppliedPromotion.Discount, 0.001)
		assert.InDelta(t, 0, resp.Items[0].Total, 0.001)
		assert.InDelta(t, 0, resp.Summary.TotalFinal, 0.001)
	})

	t.Run("unclamped", func(t *testing.T) {
		engine := newTestEngine(newCatalog(), func(c *Config) { c.ClampFixedDiscounts = false })
		resp, err := engine.VerifyTotals(context.Background(), lines)
		require.NoError(t, err)
		assert.InDelta(t, 50.00, resp.Items[0].AppliedPromotion.Discount, 0.001)
		assert.InDelta(t, -25.00, resp.Items[0].Total, 0.001)
		assert.InDelta(t, -25.00, resp.Summary.TotalFinal, 0.001)
	})
}

func TestVerifyTotals_InactiveAndOutOfWindowPromotionsNeverApply(t *testing.T) {
	catalog := restaurantCatalog()

	inactive := percentagePromotion("promo-inactiva", models.ScopeProduct, "50", "prod-refresco")
	inactive.IsActive = false
	deleted := percentagePromotion("promo-borrada", models.ScopeProduct, "50", "prod-refresco")
	deleted.IsDeleted = true
	expired := percentagePromotion("promo-vencida", models.ScopeProduct, "50", "prod-refresco")
	end := fixedNow.Add(-time.Hour)
	expired.EndDate = &end
	future := percentagePromotion("promo-futura", models.ScopeTotalOrder, "50")
	start := fixedNow.Add(time.Hour)
	future.StartDate = &start

	for _, p := range []models.Promotion{inactive, deleted, expired, future} {
		catalog.addPromotion(p)
	}

	resp, err := newTestEngine(catalog).VerifyTotals(context.Background(), []CartLine{
		productLine(0, "prod-refresco", 2),
	})
	require.NoError(t, err)
	assert.Nil(t, resp.Items[0].AppliedPromotion)
	assert.Nil(t, resp.Summary.AppliedOrderPromotion)
	assert.InDelta(t, 50.00, resp.Summary.TotalFinal, 0.001)
}

func TestVerifyTotals_TieBreakByCreationThenID(t *testing.T) {
	catalog := restaurantCatalog()

	newer := percentagePromotion("promo-a", models.ScopeProduct, "50", "prod-refresco")
	newer.CreatedAt = fixedNow.Add(-time.Hour)
	older := percentagePromotion("promo-z", models.ScopeCategory, "20", "cat-bebidas")
	older.CreatedAt = fixedNow.Add(-48 * time.Hour)
	catalog.addPromotion(newer)
	catalog.addPromotion(older)

	resp, err := newTestEngine(catalog).VerifyTotals(context.Background(), []CartLine{
		productLine(0, "prod-refresco", 2),
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Items[0].AppliedPromotion)
	assert.Equal(t, "promo-z", resp.Items[0].AppliedPromotion.ID)
	assert.InDelta(t, 10.00, resp.Items[0].AppliedPromotion.Discount, 0.001)
}

func TestVerifyTotals_Idempotent(t *testing.T) {
	catalog := restaurantCatalog()
	catalog.addPromotion(percentagePromotion("promo-bebidas", models.ScopeCategory, "20", "cat-bebidas"))
	catalog.addPromotion(fixedPromotion("promo-orden", models.ScopeTotalOrder, "30"))
	engine := newTestEngine(catalog)

	lines := []CartLine{
		productLine(0, "prod-hamburguesa", 1, "Queso"),
		productLine(1, "prod-refresco", 2),
		PackageLine{Index: 2, PackageID: "package-familiar", Quantity: 1, Customizations: map[string]Customizations{
			"prod-hamburguesa": {Added: []string{"Tocino"}},
		}},
	}

	first, err := engine.VerifyTotals(context.Background(), lines)
	require.NoError(t, err)
	second, err := engine.VerifyTotals(context.Background(), lines)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
	assert.Equal(t, a, b)
}

func TestVerifyTotals_FetchesEachDistinctProductOnce(t *testing.T) {
	catalog := restaurantCatalog()

	_, err := newTestEngine(catalog).VerifyTotals(context.Background(), []CartLine{
		productLine(0, "prod-refresco", 1),
		productLine(1, "prod-refresco", 2),
		PackageLine{Index: 2, PackageID: "package-familiar", Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, catalog.productCalls["prod-refresco"])
	assert.Equal(t, 1, catalog.productCalls["prod-hamburguesa"])
}
