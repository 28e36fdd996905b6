package product

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/volume-discount/internal/domain/tier"
)

// ErrNotFound is returned when a product has no stored tier configuration.
var ErrNotFound = errors.New("product not found")

// Repository stores the raw volume tier configuration attached to products.
// Values are opaque JSON documents; they are interpreted by the tier package.
type Repository interface {
	// TierConfigs returns the stored configuration for each of the given ids.
	// Products without configuration are absent from the returned map.
	TierConfigs(ctx context.Context, ids []string) (map[string][]byte, error)
	// Get returns the configuration of a single product or ErrNotFound.
	Get(ctx context.Context, id string) ([]byte, error)
	// Rules returns the usable rules of a product's configuration in document
	// order, with exact decimal thresholds and percentages.
	Rules(ctx context.Context, id string) ([]tier.Rule, error)
	// Upsert replaces the configuration of a product.
	Upsert(ctx context.Context, id string, tiers []byte) error
}
