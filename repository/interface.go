package repository

import (
	"context"
	"errors"

	"pedidos-restaurante/models"
)

// ErrNotFound is returned when a catalog record does not exist or is soft-deleted
var ErrNotFound = errors.New("not found")

// CatalogRepositoryInterface defines the read-only catalog lookups used by the pricer
type CatalogRepositoryInterface interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	GetPackageOrPromotion(ctx context.Context, id string) (*models.CatalogRecord, error)
	GetActivePromotions(ctx context.Context) ([]models.Promotion, error)
}
