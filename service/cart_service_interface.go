package service

import (
	"context"

	"pedidos-restaurante/models"
)

// CartServiceInterface defines the interface for cart pricing operations
type CartServiceInterface interface {
	VerifyTotals(ctx context.Context, req *models.VerifyTotalsRequest) (*models.VerifyTotalsResponse, error)
}
