package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"pedidos-restaurante/models"
	"pedidos-restaurante/pricing"
	"pedidos-restaurante/service"
)

const maxRequestBody = 1 << 20

// CartController handles HTTP requests for cart pricing
type CartController struct {
	service        service.CartServiceInterface
	requestTimeout time.Duration
	log            *zap.SugaredLogger
}

// NewCartController creates a new CartController
func NewCartController(svc service.CartServiceInterface, requestTimeout time.Duration, log *zap.SugaredLogger) *CartController {
	return &CartController{
		service:        svc,
		requestTimeout: requestTimeout,
		log:            log,
	}
}

// VerifyTotals handles POST /api/cart/verify-totals
// Example request:
//
//	{ "items": [
//	    { "productId": "prod1", "quantity": 2, "customizations": {"added": ["Queso"], "removed": []} },
//	    { "packageId": "pkg1", "quantity": 1, "packageCustomizations": {"prod1": {"added": ["Queso"], "removed": []}} }
//	]}
//
// Example response:
//
//	{ "items": [{"type": "product", "productId": "prod1", "name": "Hamburguesa (+ Queso)", "unitPrice": 95, "quantity": 2,
//	             "subtotal": 190, "total": 190, "taxable": true, "appliedPromotion": null, ...}],
//	  "summary": {"subtotal": 190, "subtotalGeneral": 163.79, "ivaDesglosado": 26.21, "taxRate": 0.16,
//	              "appliedOrderPromotion": null, "totalFinal": 190} }
func (c *CartController) VerifyTotals(w http.ResponseWriter, r *http.Request) {
	c.log.Infof("📥 VerifyTotals: Received %s request to %s", r.Method, r.URL.Path)

	var req models.VerifyTotalsRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			c.log.Warnf("❌ VerifyTotals: Empty request body")
			writeError(w, http.StatusBadRequest, "items is required")
			return
		}
		c.log.Warnf("❌ VerifyTotals: Invalid request body: %v", err)
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	c.log.Debugf("📋 VerifyTotals: Decoded request with %d items", len(req.Items))

	ctx := r.Context()
	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	resp, err := c.service.VerifyTotals(ctx, &req)
	if err != nil {
		if pricing.IsClientError(err) {
			c.log.Warnf("❌ VerifyTotals: Rejected cart: %v", err)
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		c.log.Errorf("❌ VerifyTotals: Error pricing cart: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	c.log.Infof("✅ VerifyTotals: Priced %d items, totalFinal=%.2f", len(resp.Items), resp.Summary.TotalFinal)
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Message: message})
}
