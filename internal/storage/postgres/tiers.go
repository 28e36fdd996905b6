package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/volume-discount/internal/domain/product"
	"github.com/xenking/volume-discount/internal/domain/tier"
)

const (
	tierConfigsSQL = `SELECT product_id, tiers FROM product_tiers WHERE product_id = ANY($1)`

	getTierConfigSQL = `SELECT tiers FROM product_tiers WHERE product_id = $1`

	upsertTierConfigSQL = `INSERT INTO product_tiers (product_id, tiers, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (product_id) DO UPDATE SET tiers = EXCLUDED.tiers, updated_at = now()`

	tierRulesSQL = `SELECT quantity, discount, message FROM product_tier_rules
		WHERE product_id = $1 ORDER BY position`

	deleteTierRulesSQL = `DELETE FROM product_tier_rules WHERE product_id = $1`

	insertTierRuleSQL = `INSERT INTO product_tier_rules (product_id, position, quantity, discount, message)
		VALUES ($1, $2, $3, $4, $5)`
)

var _ product.Repository = (*TierRepository)(nil)

// TierRepository implements product.Repository backed by PostgreSQL.
type TierRepository struct {
	pool *pgxpool.Pool
}

// NewTierRepository returns a TierRepository that uses the given pool.
func NewTierRepository(pool *pgxpool.Pool) *TierRepository {
	return &TierRepository{pool: pool}
}

type tierRow struct {
	ProductID string
	Tiers     []byte
}

// TierConfigs returns stored tier documents for the given product ids.
func (r *TierRepository) TierConfigs(ctx context.Context, ids []string) (map[string][]byte, error) {
	rows, err := r.pool.Query(ctx, tierConfigsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("querying tier configs: %w", err)
	}

	found, err := pgx.CollectRows(rows, pgx.RowToStructByPos[tierRow])
	if err != nil {
		return nil, fmt.Errorf("scanning tier configs: %w", err)
	}

	out := make(map[string][]byte, len(found))
	for _, row := range found {
		out[row.ProductID] = row.Tiers
	}
	return out, nil
}

// Get returns the tier document of one product, or product.ErrNotFound.
func (r *TierRepository) Get(ctx context.Context, id string) ([]byte, error) {
	var tiers []byte
	if err := r.pool.QueryRow(ctx, getTierConfigSQL, id).Scan(&tiers); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting tier config %q: %w", id, err)
	}
	return tiers, nil
}

type ruleRow struct {
	Quantity decimal.Decimal
	Discount decimal.Decimal
	Message  string
}

// Rules returns the usable rules stored for a product in document order. A
// product without rules yields an empty slice.
func (r *TierRepository) Rules(ctx context.Context, id string) ([]tier.Rule, error) {
	rows, err := r.pool.Query(ctx, tierRulesSQL, id)
	if err != nil {
		return nil, fmt.Errorf("querying tier rules %q: %w", id, err)
	}

	found, err := pgx.CollectRows(rows, pgx.RowToStructByPos[ruleRow])
	if err != nil {
		return nil, fmt.Errorf("scanning tier rules %q: %w", id, err)
	}

	rules := make([]tier.Rule, len(found))
	for i, row := range found {
		rules[i] = tier.Rule{
			Quantity: row.Quantity,
			Discount: row.Discount,
			Message:  row.Message,
			Usable:   true,
		}
	}
	return rules, nil
}

// Upsert stores the tier document of a product and replaces its normalized
// rules in one transaction. The document must be valid JSON; documents that
// are not a tier array are stored without rules.
func (r *TierRepository) Upsert(ctx context.Context, id string, tiers []byte) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("beginning tier upsert %q: %w", id, err)
	}
	// No-op once committed.
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, upsertTierConfigSQL, id, string(tiers)); err != nil {
		return fmt.Errorf("upserting tier config %q: %w", id, err)
	}
	if _, err := tx.Exec(ctx, deleteTierRulesSQL, id); err != nil {
		return fmt.Errorf("clearing tier rules %q: %w", id, err)
	}

	batch := &pgx.Batch{}
	for pos, rule := range tier.Parse(tiers).Rules() {
		if !rule.Usable {
			continue
		}
		batch.Queue(insertTierRuleSQL, id, pos, rule.Quantity, rule.Discount, rule.Message)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting tier rules %q: %w", id, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing tier upsert %q: %w", id, err)
	}
	return nil
}
