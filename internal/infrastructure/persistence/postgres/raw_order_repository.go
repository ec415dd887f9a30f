package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/aismartspeaker9-cloud/zenheart-erp/internal/domain/order"
)

// RawOrderRepository stores unmodified platform payloads in shopify_orders,
// one row per (shop_id, source_order_id).
type RawOrderRepository struct {
	pool          *pgxpool.Pool
	lockTimeoutMS int
}

func NewRawOrderRepository(pool *pgxpool.Pool, lockTimeoutMS int) *RawOrderRepository {
	return &RawOrderRepository{pool: pool, lockTimeoutMS: lockTimeoutMS}
}

// RecordRaw upserts the payload atomically under the per-order advisory
// lock. isNew reports whether the row was first inserted; a re-delivery
// overwrites raw_data in place and bumps the local updated_at.
func (r *RawOrderRepository) RecordRaw(
	ctx context.Context,
	shopID string,
	sourceOrderID int64,
	payload domain.Document,
	platformCreatedAt, platformUpdatedAt *time.Time,
) (domain.RawOrderRef, bool, error) {
	ref := domain.RawOrderRef{ShopID: shopID, SourceOrderID: sourceOrderID}
	if shopID == "" {
		return ref, false, fmt.Errorf("shop id is empty")
	}
	if sourceOrderID <= 0 {
		return ref, false, fmt.Errorf("source order id %d is not positive", sourceOrderID)
	}
	if len(payload) == 0 {
		return ref, false, fmt.Errorf("payload is empty")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return ref, false, fmt.Errorf("encode payload: %w", err)
	}

	if err := r.ensureTable(ctx); err != nil {
		return ref, false, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return ref, false, err
	}
	defer tx.Rollback(ctx)

	if err := acquireOrderLock(ctx, tx, shopID, sourceOrderID, r.lockTimeoutMS); err != nil {
		return ref, false, err
	}

	const query = `
		INSERT INTO shopify_orders (
			shop_id, source_order_id, raw_data,
			order_created_at, order_updated_at, created_at, updated_at
		) VALUES ($1, $2, $3::jsonb, $4, $5, NOW(), NOW())
		ON CONFLICT (shop_id, source_order_id) DO UPDATE SET
			raw_data = EXCLUDED.raw_data,
			order_created_at = EXCLUDED.order_created_at,
			order_updated_at = EXCLUDED.order_updated_at,
			updated_at = NOW()
		RETURNING (xmax = 0) AS inserted;
	`
	var inserted bool
	if err := tx.QueryRow(ctx, query,
		shopID,
		sourceOrderID,
		raw,
		platformCreatedAt,
		platformUpdatedAt,
	).Scan(&inserted); err != nil {
		return ref, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return ref, false, err
	}
	return ref, inserted, nil
}

// GetRaw returns the stored snapshot, or domain.ErrNotFound.
func (r *RawOrderRepository) GetRaw(ctx context.Context, shopID string, sourceOrderID int64) (*domain.RawOrder, error) {
	const query = `
		SELECT raw_data, order_created_at, order_updated_at
		FROM shopify_orders
		WHERE shop_id = $1 AND source_order_id = $2;
	`
	var (
		raw       []byte
		createdAt *time.Time
		updatedAt *time.Time
	)
	err := r.pool.QueryRow(ctx, query, shopID, sourceOrderID).Scan(&raw, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("raw order %s/%d: %w", shopID, sourceOrderID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	payload, err := domain.DecodeDocument(raw)
	if err != nil {
		return nil, err
	}
	return &domain.RawOrder{
		ShopID:            shopID,
		SourceOrderID:     sourceOrderID,
		Payload:           payload,
		PlatformCreatedAt: createdAt,
		PlatformUpdatedAt: updatedAt,
	}, nil
}

func (r *RawOrderRepository) ensureTable(ctx context.Context) error {
	const stmt = `
		CREATE TABLE IF NOT EXISTS shopify_orders (
			shop_id TEXT NOT NULL,
			source_order_id BIGINT NOT NULL,
			raw_data JSONB NOT NULL,
			order_created_at TIMESTAMPTZ,
			order_updated_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (shop_id, source_order_id)
		);
	`
	_, err := r.pool.Exec(ctx, stmt)
	return err
}
