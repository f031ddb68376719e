package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pedidos-restaurante/models"
)

// DBPool matches the methods from *pgxpool.Pool used by the catalog repository.
// This allows us to mock the database in tests.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresCatalogRepository handles catalog lookups against Postgres
type PostgresCatalogRepository struct {
	pool DBPool
	log  *zap.SugaredLogger
}

// NewPostgresCatalogRepository creates a new PostgresCatalogRepository
func NewPostgresCatalogRepository(pool DBPool, log *zap.SugaredLogger) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{
		pool: pool,
		log:  log,
	}
}

// Ensure PostgresCatalogRepository implements CatalogRepositoryInterface
var _ CatalogRepositoryInterface = (*PostgresCatalogRepository)(nil)

const selectProductQuery = `
	SELECT id, name, price::text, COALESCE(base_price, price)::text, taxable,
	       categoria_venta_id, is_deleted
	FROM products
	WHERE id = $1
`

const selectCustomizationsQuery = `
	SELECT name, price::text
	FROM product_customizations
	WHERE product_id = $1
	ORDER BY position ASC
`

const selectRecordQuery = `
	SELECT id, type, name, COALESCE(price, 0)::text, is_active, is_deleted,
	       start_date, end_date, COALESCE(discount_type, ''), COALESCE(discount_value, 0)::text,
	       COALESCE(applies_to, ''), target_ids, created_at
	FROM promotions
	WHERE id = $1
`

const selectPackageItemsQuery = `
	SELECT product_id, quantity
	FROM package_items
	WHERE package_id = $1
	ORDER BY position ASC
`

const selectActivePromotionsQuery = `
	SELECT id, type, name, COALESCE(price, 0)::text, is_active, is_deleted,
	       start_date, end_date, COALESCE(discount_type, ''), COALESCE(discount_value, 0)::text,
	       COALESCE(applies_to, ''), target_ids, created_at
	FROM promotions
	WHERE type = 'promotion'
	  AND is_active = true
	  AND is_deleted = false
	ORDER BY created_at ASC, id ASC
`

// GetProduct retrieves a product with its customizations
func (r *PostgresCatalogRepository) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var (
		product          models.Product
		price, basePrice string
	)
	err := r.pool.QueryRow(ctx, selectProductQuery, id).Scan(
		&product.ID,
		&product.Name,
		&price,
		&basePrice,
		&product.Taxable,
		&product.CategoriaVentaID,
		&product.IsDeleted,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		r.log.Errorf("❌ GetProduct: Error querying product %s: %v", id, err)
		return nil, fmt.Errorf("failed to query product %s: %w", id, err)
	}
	if product.IsDeleted {
		r.log.Warnf("⚠️  GetProduct: Product %s is soft-deleted", id)
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}

	if product.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("invalid price for product %s: %w", id, err)
	}
	if product.BasePrice, err = decimal.NewFromString(basePrice); err != nil {
		return nil, fmt.Errorf("invalid base price for product %s: %w", id, err)
	}

	rows, err := r.pool.Query(ctx, selectCustomizationsQuery, id)
	if err != nil {
		r.log.Errorf("❌ GetProduct: Error querying customizations for %s: %v", id, err)
		return nil, fmt.Errorf("failed to query customizations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c     models.Customization
			delta string
		)
		if err := rows.Scan(&c.Name, &delta); err != nil {
			return nil, fmt.Errorf("failed to scan customization: %w", err)
		}
		if c.Price, err = decimal.NewFromString(delta); err != nil {
			return nil, fmt.Errorf("invalid price for customization %q: %w", c.Name, err)
		}
		product.Customizations = append(product.Customizations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate customizations: %w", err)
	}

	r.log.Debugf("✓ GetProduct: %s (%s) price=%s customizations=%d", product.ID, product.Name, product.Price, len(product.Customizations))
	return &product, nil
}

// GetPackageOrPromotion retrieves a record from the shared promotions table.
// Package records come back with their member items.
func (r *PostgresCatalogRepository) GetPackageOrPromotion(ctx context.Context, id string) (*models.CatalogRecord, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx, selectRecordQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("record %s: %w", id, ErrNotFound)
		}
		r.log.Errorf("❌ GetPackageOrPromotion: Error querying record %s: %v", id, err)
		return nil, fmt.Errorf("failed to query record %s: %w", id, err)
	}
	if rec.deleted {
		r.log.Warnf("⚠️  GetPackageOrPromotion: Record %s is soft-deleted", id)
		return nil, fmt.Errorf("record %s: %w", id, ErrNotFound)
	}

	record := rec.toCatalogRecord()
	if record.Type != models.RecordTypePackage {
		return record, nil
	}

	rows, err := r.pool.Query(ctx, selectPackageItemsQuery, id)
	if err != nil {
		r.log.Errorf("❌ GetPackageOrPromotion: Error querying items for package %s: %v", id, err)
		return nil, fmt.Errorf("failed to query package items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.PackageItem
		if err := rows.Scan(&item.ProductID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan package item: %w", err)
		}
		record.Package.Items = append(record.Package.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate package items: %w", err)
	}

	return record, nil
}

// GetActivePromotions retrieves active, non-deleted promotion records.
// Date windows are evaluated by the pricer against its own clock.
func (r *PostgresCatalogRepository) GetActivePromotions(ctx context.Context) ([]models.Promotion, error) {
	rows, err := r.pool.Query(ctx, selectActivePromotionsQuery)
	if err != nil {
		r.log.Errorf("❌ GetActivePromotions: Error querying promotions: %v", err)
		return nil, fmt.Errorf("failed to query promotions: %w", err)
	}
	defer rows.Close()

	promotions := []models.Promotion{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			r.log.Errorf("❌ GetActivePromotions: Error scanning promotion: %v", err)
			return nil, fmt.Errorf("failed to scan promotion: %w", err)
		}
		promotions = append(promotions, *rec.toCatalogRecord().Promotion)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate promotions: %w", err)
	}

	r.log.Debugf("✓ GetActivePromotions: %d active promotions", len(promotions))
	return promotions, nil
}

// recordRow is a raw row of the promotions table
type recordRow struct {
	id            string
	recordType    string
	name          string
	price         decimal.Decimal
	active        bool
	deleted       bool
	startDate     *time.Time
	endDate       *time.Time
	discountType  string
	discountValue decimal.Decimal
	appliesTo     string
	targetIDs     []string
	createdAt     time.Time
}

func scanRecord(row pgx.Row) (*recordRow, error) {
	var (
		rec                  recordRow
		price, discountValue string
	)
	err := row.Scan(
		&rec.id,
		&rec.recordType,
		&rec.name,
		&price,
		&rec.active,
		&rec.deleted,
		&rec.startDate,
		&rec.endDate,
		&rec.discountType,
		&discountValue,
		&rec.appliesTo,
		&rec.targetIDs,
		&rec.createdAt,
	)
	if err != nil {
		return nil, err
	}
	if rec.price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("invalid price for record %s: %w", rec.id, err)
	}
	if rec.discountValue, err = decimal.NewFromString(discountValue); err != nil {
		return nil, fmt.Errorf("invalid discount value for record %s: %w", rec.id, err)
	}
	return &rec, nil
}

func (rec *recordRow) toCatalogRecord() *models.CatalogRecord {
	record := &models.CatalogRecord{
		ID:   rec.id,
		Type: models.RecordType(rec.recordType),
	}
	if record.Type == models.RecordTypePackage {
		record.Package = &models.Package{
			ID:        rec.id,
			Name:      rec.name,
			Price:     rec.price,
			IsDeleted: rec.deleted,
		}
		return record
	}
	record.Promotion = &models.Promotion{
		ID:            rec.id,
		Name:          rec.name,
		IsActive:      rec.active,
		IsDeleted:     rec.deleted,
		StartDate:     rec.startDate,
		EndDate:       rec.endDate,
		DiscountType:  models.DiscountType(rec.discountType),
		DiscountValue: rec.discountValue,
		AppliesTo:     models.PromotionScope(rec.appliesTo),
		TargetIDs:     rec.targetIDs,
		CreatedAt:     rec.createdAt,
	}
	return record
}
