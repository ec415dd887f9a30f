package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/aismartspeaker9-cloud/zenheart-erp/internal/domain/order"
)

// FulfillmentRepository stores tracking records. The order reference is
// weak: replacing a parent's sub-orders leaves fulfillment rows in place.
type FulfillmentRepository struct {
	pool *pgxpool.Pool
}

func NewFulfillmentRepository(pool *pgxpool.Pool) *FulfillmentRepository {
	return &FulfillmentRepository{pool: pool}
}

// Save inserts or updates the record matched by (sub_order_no, tracking_number).
func (r *FulfillmentRepository) Save(ctx context.Context, f *domain.Fulfillment) error {
	if f == nil {
		return fmt.Errorf("fulfillment is nil")
	}
	if f.SubOrderNo == "" || f.TrackingNumber == "" {
		return fmt.Errorf("fulfillment requires sub_order_no and tracking_number")
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}

	if err := r.ensureTable(ctx); err != nil {
		return err
	}

	var orderID any
	if f.OrderID != "" {
		orderID = f.OrderID
	}

	const query = `
		INSERT INTO fulfillments (
			id, order_id, sub_order_no, tracking_number,
			carrier, status, remark, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (sub_order_no, tracking_number) DO UPDATE SET
			order_id = COALESCE(EXCLUDED.order_id, fulfillments.order_id),
			carrier = EXCLUDED.carrier,
			status = EXCLUDED.status,
			remark = EXCLUDED.remark,
			updated_at = NOW();
	`
	_, err := r.pool.Exec(ctx, query,
		f.ID,
		orderID,
		f.SubOrderNo,
		f.TrackingNumber,
		f.Carrier,
		f.Status,
		f.Remark,
	)
	return err
}

func (r *FulfillmentRepository) FindByTrackingNumber(ctx context.Context, trackingNumber string) ([]*domain.Fulfillment, error) {
	const query = `
		SELECT id, COALESCE(order_id::text, ''), sub_order_no, tracking_number,
			carrier, status, remark, created_at, updated_at
		FROM fulfillments
		WHERE tracking_number = $1
		ORDER BY created_at;
	`
	rows, err := r.pool.Query(ctx, query, trackingNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFulfillments(rows)
}

func (r *FulfillmentRepository) ListByStatus(ctx context.Context, status string, limit int) ([]*domain.Fulfillment, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT id, COALESCE(order_id::text, ''), sub_order_no, tracking_number,
			carrier, status, remark, created_at, updated_at
		FROM fulfillments
		WHERE status = $1
		ORDER BY updated_at DESC
		LIMIT $2;
	`
	rows, err := r.pool.Query(ctx, query, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFulfillments(rows)
}

func scanFulfillments(rows pgx.Rows) ([]*domain.Fulfillment, error) {
	var out []*domain.Fulfillment
	for rows.Next() {
		var f domain.Fulfillment
		if err := rows.Scan(
			&f.ID,
			&f.OrderID,
			&f.SubOrderNo,
			&f.TrackingNumber,
			&f.Carrier,
			&f.Status,
			&f.Remark,
			&f.CreatedAt,
			&f.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}

func (r *FulfillmentRepository) ensureTable(ctx context.Context) error {
	const stmt = `
		CREATE TABLE IF NOT EXISTS fulfillments (
			id UUID PRIMARY KEY,
			order_id UUID,
			sub_order_no TEXT NOT NULL,
			tracking_number TEXT NOT NULL,
			carrier TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			remark TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (sub_order_no, tracking_number)
		);
		CREATE INDEX IF NOT EXISTS idx_fulfillments_tracking ON fulfillments (tracking_number);
		CREATE INDEX IF NOT EXISTS idx_fulfillments_status ON fulfillments (status);
	`
	_, err := r.pool.Exec(ctx, stmt)
	return err
}
