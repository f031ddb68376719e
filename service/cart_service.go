package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pedidos-restaurante/metrics"
	"pedidos-restaurante/models"
	"pedidos-restaurante/pricing"
)

// CartService validates cart requests and prices them with the pricing engine
// Implements CartServiceInterface
type CartService struct {
	engine  *pricing.Engine
	metrics *metrics.Metrics
	log     *zap.SugaredLogger
}

// NewCartService creates a new CartService. metrics may be nil.
func NewCartService(engine *pricing.Engine, m *metrics.Metrics, log *zap.SugaredLogger) *CartService {
	return &CartService{
		engine:  engine,
		metrics: m,
		log:     log,
	}
}

// Ensure CartService implements CartServiceInterface
var _ CartServiceInterface = (*CartService)(nil)

// VerifyTotals recomputes the cart totals server-side
func (s *CartService) VerifyTotals(ctx context.Context, req *models.VerifyTotalsRequest) (*models.VerifyTotalsResponse, error) {
	start := time.Now()

	lines, err := pricing.ParseCartRequest(req)
	if err != nil {
		s.observe(start, nil, err)
		return nil, err
	}
	s.log.Debugf("📋 VerifyTotals: %d cart lines parsed", len(lines))

	resp, err := s.engine.VerifyTotals(ctx, lines)
	s.observe(start, resp, err)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *CartService) observe(start time.Time, resp *models.VerifyTotalsResponse, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.VerifyDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		s.metrics.VerifyTotals.WithLabelValues(metrics.OutcomeOK).Inc()
	case pricing.IsClientError(err):
		s.metrics.VerifyTotals.WithLabelValues(metrics.OutcomeClientError).Inc()
		return
	default:
		s.metrics.VerifyTotals.WithLabelValues(metrics.OutcomeError).Inc()
		return
	}

	s.metrics.CartLinesProcessed.Add(float64(len(resp.Items)))
	for _, item := range resp.Items {
		if item.AppliedPromotion != nil {
			s.metrics.PromotionsApplied.WithLabelValues(item.AppliedPromotion.AppliesTo).Inc()
		}
	}
	if resp.Summary.AppliedOrderPromotion != nil {
		s.metrics.PromotionsApplied.WithLabelValues(resp.Summary.AppliedOrderPromotion.AppliesTo).Inc()
	}
}
