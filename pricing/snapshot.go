package pricing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"pedidos-restaurante/models"
	"pedidos-restaurante/repository"
)

// catalogSnapshot holds everything a single request reads from the catalog.
// Lookup failures are kept per id so they can be reported in cart order.
type catalogSnapshot struct {
	mu sync.Mutex

	products    map[string]*models.Product
	productErrs map[string]error
	records     map[string]*models.CatalogRecord
	recordErrs  map[string]error

	promotions    []models.Promotion
	promotionsErr error
}

func newCatalogSnapshot() *catalogSnapshot {
	return &catalogSnapshot{
		products:    make(map[string]*models.Product),
		productErrs: make(map[string]error),
		records:     make(map[string]*models.CatalogRecord),
		recordErrs:  make(map[string]error),
	}
}

// loadSnapshot fetches distinct product ids, package ids and the active
// promotions concurrently, then the member products of the fetched packages
func (e *Engine) loadSnapshot(ctx context.Context, lines []CartLine) *catalogSnapshot {
	snap := newCatalogSnapshot()

	var productIDs, packageIDs []string
	seenProducts := map[string]bool{}
	seenPackages := map[string]bool{}
	for _, line := range lines {
		switch l := line.(type) {
		case ProductLine:
			if !seenProducts[l.ProductID] {
				seenProducts[l.ProductID] = true
				productIDs = append(productIDs, l.ProductID)
			}
		case PackageLine:
			if !seenPackages[l.PackageID] {
				seenPackages[l.PackageID] = true
				packageIDs = append(packageIDs, l.PackageID)
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.LookupConcurrency)

	g.Go(func() error {
		promotions, err := e.catalog.GetActivePromotions(gctx)
		snap.mu.Lock()
		snap.promotions, snap.promotionsErr = promotions, err
		snap.mu.Unlock()
		return nil
	})
	for _, id := range productIDs {
		e.fetchProduct(gctx, g, snap, id)
	}
	for _, id := range packageIDs {
		id := id
		g.Go(func() error {
			record, err := e.catalog.GetPackageOrPromotion(gctx, id)
			snap.mu.Lock()
			if err != nil {
				snap.recordErrs[id] = err
			} else {
				snap.records[id] = record
			}
			snap.mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var memberIDs []string
	for _, id := range packageIDs {
		record, ok := snap.records[id]
		if !ok || record.Type != models.RecordTypePackage || record.Package == nil {
			continue
		}
		for _, item := range record.Package.Items {
			if !seenProducts[item.ProductID] {
				seenProducts[item.ProductID] = true
				memberIDs = append(memberIDs, item.ProductID)
			}
		}
	}
	if len(memberIDs) == 0 {
		return snap
	}

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(e.config.LookupConcurrency)
	for _, id := range memberIDs {
		e.fetchProduct(gctx, g, snap, id)
	}
	_ = g.Wait()

	return snap
}

func (e *Engine) fetchProduct(ctx context.Context, g *errgroup.Group, snap *catalogSnapshot, id string) {
	g.Go(func() error {
		product, err := e.catalog.GetProduct(ctx, id)
		snap.mu.Lock()
		if err != nil {
			snap.productErrs[id] = err
		} else {
			snap.products[id] = product
		}
		snap.mu.Unlock()
		return nil
	})
}

// product returns the snapshot's product or the error to surface for it
func (s *catalogSnapshot) product(id string) (*models.Product, error) {
	if p, ok := s.products[id]; ok {
		return p, nil
	}
	return nil, lookupError("product", id, s.productErrs[id])
}

// record returns the snapshot's package-or-promotion record or the error to surface for it
func (s *catalogSnapshot) record(id string) (*models.CatalogRecord, error) {
	if r, ok := s.records[id]; ok {
		return r, nil
	}
	return nil, lookupError("package", id, s.recordErrs[id])
}

func lookupError(entity, id string, err error) error {
	if err == nil || errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Entity: entity, ID: id}
	}
	return fmt.Errorf("failed to look up %s %s: %w", entity, id, err)
}
