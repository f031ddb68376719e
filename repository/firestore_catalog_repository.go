package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"pedidos-restaurante/models"
)

// productDoc mirrors a document of the products collection
type productDoc struct {
	Name             string             `firestore:"name"`
	Price            float64            `firestore:"price"`
	BasePrice        *float64           `firestore:"basePrice"`
	Taxable          *bool              `firestore:"taxable"`
	CategoriaVentaID string             `firestore:"categoriaVentaId"`
	Customizations   []customizationDoc `firestore:"customizations"`
	IsDeleted        bool               `firestore:"isDeleted"`
}

type customizationDoc struct {
	Name  string  `firestore:"name"`
	Price float64 `firestore:"price"`
}

// recordDoc mirrors a document of the promotions collection, which stores
// both packages and discount promotions
type recordDoc struct {
	Type          string           `firestore:"type"`
	Name          string           `firestore:"name"`
	Price         float64          `firestore:"price"`
	Items         []packageItemDoc `firestore:"items"`
	IsActive      bool             `firestore:"isActive"`
	IsDeleted     bool             `firestore:"isDeleted"`
	StartDate     *time.Time       `firestore:"startDate"`
	EndDate       *time.Time       `firestore:"endDate"`
	DiscountType  string           `firestore:"discountType"`
	DiscountValue float64          `firestore:"discountValue"`
	AppliesTo     string           `firestore:"appliesTo"`
	TargetIDs     []string         `firestore:"targetIds"`
	CreatedAt     time.Time        `firestore:"createdAt"`
}

type packageItemDoc struct {
	ProductID string `firestore:"productId"`
	Quantity  int    `firestore:"quantity"`
}

// FirestoreCatalogRepository handles catalog lookups against Firestore
type FirestoreCatalogRepository struct {
	client               *firestore.Client
	productsCollection   string
	promotionsCollection string
	log                  *zap.SugaredLogger
}

// NewFirestoreCatalogRepository creates a new FirestoreCatalogRepository
func NewFirestoreCatalogRepository(client *firestore.Client, productsCollection, promotionsCollection string, log *zap.SugaredLogger) *FirestoreCatalogRepository {
	return &FirestoreCatalogRepository{
		client:               client,
		productsCollection:   productsCollection,
		promotionsCollection: promotionsCollection,
		log:                  log,
	}
}

// Ensure FirestoreCatalogRepository implements CatalogRepositoryInterface
var _ CatalogRepositoryInterface = (*FirestoreCatalogRepository)(nil)

// GetProduct retrieves a product document by id
func (r *FirestoreCatalogRepository) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	snap, err := r.client.Collection(r.productsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		r.log.Errorf("❌ GetProduct: Error reading product %s: %v", id, err)
		return nil, fmt.Errorf("failed to read product %s: %w", id, err)
	}

	var doc productDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode product %s: %w", id, err)
	}
	if doc.IsDeleted {
		r.log.Warnf("⚠️  GetProduct: Product %s is soft-deleted", id)
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}

	return doc.toProduct(snap.Ref.ID), nil
}

// GetPackageOrPromotion retrieves a package or promotion document by id
func (r *FirestoreCatalogRepository) GetPackageOrPromotion(ctx context.Context, id string) (*models.CatalogRecord, error) {
	snap, err := r.client.Collection(r.promotionsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("record %s: %w", id, ErrNotFound)
		}
		r.log.Errorf("❌ GetPackageOrPromotion: Error reading record %s: %v", id, err)
		return nil, fmt.Errorf("failed to read record %s: %w", id, err)
	}

	var doc recordDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode record %s: %w", id, err)
	}
	if doc.IsDeleted {
		r.log.Warnf("⚠️  GetPackageOrPromotion: Record %s is soft-deleted", id)
		return nil, fmt.Errorf("record %s: %w", id, ErrNotFound)
	}

	return doc.toCatalogRecord(snap.Ref.ID), nil
}

// GetActivePromotions retrieves active, non-deleted promotion documents
func (r *FirestoreCatalogRepository) GetActivePromotions(ctx context.Context) ([]models.Promotion, error) {
	snaps, err := r.client.Collection(r.promotionsCollection).
		Where("type", "==", string(models.RecordTypePromotion)).
		Where("isActive", "==", true).
		Documents(ctx).
		GetAll()
	if err != nil {
		r.log.Errorf("❌ GetActivePromotions: Error querying promotions: %v", err)
		return nil, fmt.Errorf("failed to query promotions: %w", err)
	}

	promotions := make([]models.Promotion, 0, len(snaps))
	for _, snap := range snaps {
		var doc recordDoc
		if err := snap.DataTo(&doc); err != nil {
			r.log.Warnf("⚠️  GetActivePromotions: Skipping undecodable promotion %s: %v", snap.Ref.ID, err)
			continue
		}
		if doc.IsDeleted {
			continue
		}
		promotions = append(promotions, *doc.toCatalogRecord(snap.Ref.ID).Promotion)
	}

	r.log.Debugf("✓ GetActivePromotions: %d active promotions", len(promotions))
	return promotions, nil
}

// toProduct maps a product document to the catalog model.
// A missing taxable flag means the product carries IVA.
func (d *productDoc) toProduct(id string) *models.Product {
	product := &models.Product{
		ID:               id,
		Name:             d.Name,
		Price:            money(d.Price),
		Taxable:          d.Taxable == nil || *d.Taxable,
		CategoriaVentaID: d.CategoriaVentaID,
		IsDeleted:        d.IsDeleted,
	}
	if d.BasePrice != nil {
		product.BasePrice = money(*d.BasePrice)
	} else {
		product.BasePrice = product.Price
	}
	for _, c := range d.Customizations {
		product.Customizations = append(product.Customizations, models.Customization{
			Name:  c.Name,
			Price: money(c.Price),
		})
	}
	return product
}

// toCatalogRecord maps a promotions collection document to the catalog model
func (d *recordDoc) toCatalogRecord(id string) *models.CatalogRecord {
	record := &models.CatalogRecord{
		ID:   id,
		Type: models.RecordType(d.Type),
	}
	if record.Type == models.RecordTypePackage {
		pkg := &models.Package{
			ID:        id,
			Name:      d.Name,
			Price:     money(d.Price),
			IsDeleted: d.IsDeleted,
		}
		for _, item := range d.Items {
			pkg.Items = append(pkg.Items, models.PackageItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}
		record.Package = pkg
		return record
	}
	record.Promotion = &models.Promotion{
		ID:            id,
		Name:          d.Name,
		IsActive:      d.IsActive,
		IsDeleted:     d.IsDeleted,
		StartDate:     d.StartDate,
		EndDate:       d.EndDate,
		DiscountType:  models.DiscountType(d.DiscountType),
		DiscountValue: decimal.NewFromFloat(d.DiscountValue),
		AppliesTo:     models.PromotionScope(d.AppliesTo),
		TargetIDs:     d.TargetIDs,
		CreatedAt:     d.CreatedAt,
	}
	return record
}

// money converts a document number into a 2-decimal amount
func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}
