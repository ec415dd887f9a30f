package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	domain "github.com/aismartspeaker9-cloud/zenheart-erp/internal/domain/order"
)

// OrderRepository stores normalized sub-orders keyed by sub_order_no, with
// the consolidated amount breakdown as one jsonb document.
type OrderRepository struct {
	pool          *pgxpool.Pool
	lockTimeoutMS int
}

func NewOrderRepository(pool *pgxpool.Pool, lockTimeoutMS int) *OrderRepository {
	return &OrderRepository{pool: pool, lockTimeoutMS: lockTimeoutMS}
}

// ReplaceForParent swaps all sub-orders of one raw order in a single
// transaction: delete then insert, under the same advisory lock RecordRaw
// uses, so a parent's sub-orders are never half-updated.
func (r *OrderRepository) ReplaceForParent(
	ctx context.Context,
	shopID string,
	sourceOrderID int64,
	orders []*domain.NormalizedOrder,
) error {
	if shopID == "" || sourceOrderID <= 0 {
		return fmt.Errorf("invalid parent key %s/%d", shopID, sourceOrderID)
	}

	if err := r.ensureTable(ctx); err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := acquireOrderLock(ctx, tx, shopID, sourceOrderID, r.lockTimeoutMS); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		"DELETE FROM orders WHERE shop_id = $1 AND source_order_id = $2",
		shopID, sourceOrderID,
	); err != nil {
		return err
	}

	const insert = `
		INSERT INTO orders (
			id, parent_order_no, sub_order_no, shop_id, source_order_id,
			amount, shipping_fee, shipping_address, currency,
			payment_status, payment_method, region,
			items, customer, marketing, delivery_config, extra_info,
			order_created_at, order_updated_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6::jsonb, $7, $8::jsonb, $9,
			$10, $11, $12,
			$13::jsonb, $14::jsonb, $15::jsonb, $16::jsonb, $17::jsonb,
			$18, $19, NOW(), NOW()
		);
	`
	for _, o := range orders {
		amount, err := json.Marshal(o.Amount)
		if err != nil {
			return fmt.Errorf("encode amount for %s: %w", o.SubOrderNo, err)
		}
		items, err := jsonOrNil(o.Items, len(o.Items) > 0)
		if err != nil {
			return err
		}
		customer, err := jsonOrNil(o.Customer, o.Customer != nil)
		if err != nil {
			return err
		}
		shippingAddr, err := jsonOrNil(o.ShippingAddress, o.ShippingAddress != nil)
		if err != nil {
			return err
		}
		marketing, err := jsonOrNil(o.Marketing, o.Marketing != nil)
		if err != nil {
			return err
		}
		delivery, err := jsonOrNil(o.DeliveryConfig, len(o.DeliveryConfig) > 0)
		if err != nil {
			return err
		}
		extra, err := jsonOrNil(o.ExtraInfo, o.ExtraInfo != nil)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, insert,
			uuid.NewString(),
			o.ParentOrderNo,
			o.SubOrderNo,
			o.ShopID,
			o.SourceOrderID,
			amount,
			o.ShippingFee.String(),
			shippingAddr,
			o.Currency,
			o.PaymentStatus,
			o.PaymentMethod,
			o.Region,
			items,
			customer,
			marketing,
			delivery,
			extra,
			o.OrderCreatedAt,
			o.OrderUpdatedAt,
		); err != nil {
			return fmt.Errorf("insert sub-order %s: %w", o.SubOrderNo, err)
		}
	}

	return tx.Commit(ctx)
}

// FindBySubOrderNo returns one sub-order, or domain.ErrNotFound.
func (r *OrderRepository) FindBySubOrderNo(ctx context.Context, subOrderNo string) (*domain.NormalizedOrder, error) {
	const query = `
		SELECT id, parent_order_no, sub_order_no, shop_id, source_order_id,
			amount, shipping_fee::text, shipping_address, currency,
			payment_status, payment_method, region,
			items, customer, marketing, delivery_config, extra_info,
			order_created_at, order_updated_at
		FROM orders
		WHERE sub_order_no = $1;
	`
	var (
		o            domain.NormalizedOrder
		amount       []byte
		shippingFee  string
		shippingAddr []byte
		items        []byte
		customer     []byte
		marketing    []byte
		delivery     []byte
		extra        []byte
		createdAt    *time.Time
		updatedAt    *time.Time
	)
	err := r.pool.QueryRow(ctx, query, subOrderNo).Scan(
		&o.ID,
		&o.ParentOrderNo,
		&o.SubOrderNo,
		&o.ShopID,
		&o.SourceOrderID,
		&amount,
		&shippingFee,
		&shippingAddr,
		&o.Currency,
		&o.PaymentStatus,
		&o.PaymentMethod,
		&o.Region,
		&items,
		&customer,
		&marketing,
		&delivery,
		&extra,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("sub-order %s: %w", subOrderNo, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(amount, &o.Amount); err != nil {
		return nil, fmt.Errorf("decode amount for %s: %w", subOrderNo, err)
	}
	fee, err := decimal.NewFromString(shippingFee)
	if err != nil {
		return nil, fmt.Errorf("decode shipping fee for %s: %w", subOrderNo, err)
	}
	o.ShippingFee = fee
	if err := decodeInto(shippingAddr, &o.ShippingAddress); err != nil {
		return nil, err
	}
	if err := decodeInto(items, &o.Items); err != nil {
		return nil, err
	}
	if err := decodeInto(customer, &o.Customer); err != nil {
		return nil, err
	}
	if err := decodeInto(marketing, &o.Marketing); err != nil {
		return nil, err
	}
	if err := decodeInto(delivery, &o.DeliveryConfig); err != nil {
		return nil, err
	}
	if err := decodeInto(extra, &o.ExtraInfo); err != nil {
		return nil, err
	}
	o.OrderCreatedAt = createdAt
	o.OrderUpdatedAt = updatedAt
	return &o, nil
}

func (r *OrderRepository) ensureTable(ctx context.Context) error {
	const stmt = `
		CREATE TABLE IF NOT EXISTS orders (
			id UUID PRIMARY KEY,
			parent_order_no TEXT NOT NULL,
			sub_order_no TEXT NOT NULL UNIQUE,
			shop_id TEXT NOT NULL,
			source_order_id BIGINT NOT NULL,
			amount JSONB NOT NULL,
			shipping_fee NUMERIC(14,2) NOT NULL DEFAULT 0,
			shipping_address JSONB,
			currency VARCHAR(3) NOT NULL,
			payment_status TEXT,
			payment_method TEXT,
			region TEXT,
			items JSONB,
			customer JSONB,
			marketing JSONB,
			delivery_config JSONB,
			extra_info JSONB,
			order_created_at TIMESTAMPTZ,
			order_updated_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_orders_parent ON orders (shop_id, source_order_id);
	`
	_, err := r.pool.Exec(ctx, stmt)
	return err
}

func jsonOrNil(v any, present bool) ([]byte, error) {
	if !present {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

func decodeInto(data []byte, target any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, target)
}
