// Package cart quotes volume discounts for carts that reference products by
// id, loading tier configuration from the product store.
package cart

import (
	"context"
	"fmt"

	"github.com/xenking/volume-discount/internal/domain/discount"
	"github.com/xenking/volume-discount/internal/domain/product"
	"github.com/xenking/volume-discount/internal/domain/tier"
)

// InvalidQuantityError indicates a line with a non-positive quantity.
type InvalidQuantityError struct {
	LineID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for line %s", e.LineID)
}

// DuplicateLineError indicates two lines sharing one id.
type DuplicateLineError struct {
	LineID string
}

func (e *DuplicateLineError) Error() string {
	return fmt.Sprintf("duplicate line id %s", e.LineID)
}

// LineRequest is one cart line of a quote request.
type LineRequest struct {
	ID        string
	ProductID string
	Quantity  int
}

// QuoteRequest holds the lines to quote.
type QuoteRequest struct {
	Lines []LineRequest
}

// Service quotes volume discounts for carts.
type Service struct {
	products product.Repository
	engine   *discount.Engine
}

// NewService creates a Service resolving tiers loaded from products.
func NewService(products product.Repository, engine *discount.Engine) *Service {
	return &Service{
		products: products,
		engine:   engine,
	}
}

// Quote validates the request, fetches tier configuration for all referenced
// products in a single batch and resolves the discounts. Products without
// stored configuration make their lines ineligible.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (discount.Result, error) {
	seen := make(map[string]struct{}, len(req.Lines))
	ids := make([]string, 0, len(req.Lines))
	for _, l := range req.Lines {
		if l.Quantity <= 0 {
			return discount.Result{}, &InvalidQuantityError{LineID: l.ID}
		}
		if _, dup := seen[l.ID]; dup {
			return discount.Result{}, &DuplicateLineError{LineID: l.ID}
		}
		seen[l.ID] = struct{}{}
		ids = append(ids, l.ProductID)
	}

	var configs map[string][]byte
	if len(ids) > 0 {
		var err error
		configs, err = s.products.TierConfigs(ctx, ids)
		if err != nil {
			return discount.Result{}, fmt.Errorf("get tier configs: %w", err)
		}
	}

	// One Product per id, shared by its lines.
	products := make(map[string]*discount.Product, len(configs))
	lines := make([]discount.CartLine, len(req.Lines))
	for i, l := range req.Lines {
		p, ok := products[l.ProductID]
		if !ok {
			p = &discount.Product{ID: l.ProductID}
			if raw, found := configs[l.ProductID]; found {
				p.Tiers = tier.Parse(raw)
			}
			products[l.ProductID] = p
		}
		lines[i] = discount.CartLine{ID: l.ID, Quantity: l.Quantity, Product: p}
	}

	return s.engine.Run(ctx, lines), nil
}
