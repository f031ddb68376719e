package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pedidos-restaurante/models"
	"pedidos-restaurante/repository"
	"pedidos-restaurante/utils"
)

// Config holds the pricing parameters
type Config struct {
	TaxRate             decimal.Decimal // IVA rate, e.g. 0.16
	ClampFixedDiscounts bool            // cap fixed discounts at the amount they discount
	LookupConcurrency   int             // max concurrent catalog lookups per request
}

// DefaultConfig returns the pricing configuration used when nothing is overridden
func DefaultConfig() Config {
	return Config{
		TaxRate:             decimal.RequireFromString("0.16"),
		ClampFixedDiscounts: true,
		LookupConcurrency:   8,
	}
}

// Engine prices carts against the catalog
type Engine struct {
	catalog repository.CatalogRepositoryInterface
	config  Config
	now     func() time.Time
	log     *zap.SugaredLogger
}

// Option customizes an Engine
type Option func(*Engine)

// WithClock overrides the clock used to check promotion validity windows
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a new pricing engine
func NewEngine(catalog repository.CatalogRepositoryInterface, cfg Config, log *zap.SugaredLogger, opts ...Option) *Engine {
	if cfg.LookupConcurrency <= 0 {
		cfg.LookupConcurrency = 1
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	e := &Engine{
		catalog: catalog,
		config:  cfg,
		now:     time.Now,
		log:     log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TaxRate returns the configured IVA rate
func (e *Engine) TaxRate() decimal.Decimal {
	return e.config.TaxRate
}

// VerifyTotals prices every line, resolves line and order promotions and
// aggregates the totals. The first failing line, in cart order, aborts the request.
func (e *Engine) VerifyTotals(ctx context.Context, lines []CartLine) (*models.VerifyTotalsResponse, error) {
	if len(lines) == 0 {
		return toResponse(nil, aggregate(nil, nil, e.config.TaxRate, e.config.ClampFixedDiscounts), e.config.TaxRate), nil
	}

	snap := e.loadSnapshot(ctx, lines)

	priced := make([]*pricedLine, 0, len(lines))
	for _, line := range lines {
		var (
			p   *pricedLine
			err error
		)
		switch l := line.(type) {
		case ProductLine:
			p, err = priceProductLine(l, snap)
		case PackageLine:
			p, err = pricePackageLine(l, snap)
		}
		if err != nil {
			e.log.Warnf("❌ VerifyTotals: Line %d rejected: %v", line.Position(), err)
			return nil, err
		}
		priced = append(priced, p)
	}

	if snap.promotionsErr != nil {
		e.log.Errorf("❌ VerifyTotals: Error loading active promotions: %v", snap.promotionsErr)
		return nil, fmt.Errorf("failed to load active promotions: %w", snap.promotionsErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	promotions := validPromotions(snap.promotions, e.now())
	e.log.Debugf("💰 VerifyTotals: %d of %d promotions currently valid", len(promotions), len(snap.promotions))

	for _, line := range priced {
		promo := resolveLine(line, promotions)
		if promo == nil {
			continue
		}
		line.promotion = promo
		line.discount = computeDiscount(promo, line.subtotal, e.config.ClampFixedDiscounts)
		e.log.Debugf("💰 VerifyTotals: Promotion %s applied to %s, discount %s", promo.ID, line.id, line.discount.StringFixed(2))
	}

	totals := aggregate(priced, resolveOrder(promotions), e.config.TaxRate, e.config.ClampFixedDiscounts)
	if totals.orderPromotion != nil {
		e.log.Debugf("💰 VerifyTotals: Order promotion %s applied, discount %s", totals.orderPromotion.ID, totals.orderDiscount.StringFixed(2))
	}

	e.log.Infof("✅ VerifyTotals: %d lines, subtotal %s, total %s", len(priced), utils.FormatMoney(totals.subtotal), utils.FormatMoney(totals.totalFinal))
	return toResponse(priced, totals, e.config.TaxRate), nil
}
