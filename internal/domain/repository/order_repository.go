package repository

import (
	"context"
	"time"

	"github.com/aismartspeaker9-cloud/zenheart-erp/internal/domain/order"
)

// RawOrderRepository persists unmodified platform payloads keyed by
// (shop_id, source_order_id).
type RawOrderRepository interface {
	// RecordRaw upserts the payload, reporting whether it was first seen.
	// Concurrent writers on the same key serialize; a bounded wait that
	// expires surfaces order.ErrStorageConflict.
	RecordRaw(ctx context.Context, shopID string, sourceOrderID int64, payload order.Document,
		platformCreatedAt, platformUpdatedAt *time.Time) (order.RawOrderRef, bool, error)

	// GetRaw returns the stored snapshot or order.ErrNotFound.
	GetRaw(ctx context.Context, shopID string, sourceOrderID int64) (*order.RawOrder, error)
}

// OrderRepository persists normalized sub-orders keyed by sub_order_no.
type OrderRepository interface {
	// ReplaceForParent swaps all of a parent's sub-orders in one
	// transaction: existing rows for (shopID, sourceOrderID) go away and
	// the given set is inserted, so readers never see a partial parent.
	ReplaceForParent(ctx context.Context, shopID string, sourceOrderID int64, orders []*order.NormalizedOrder) error

	// FindBySubOrderNo returns one sub-order or order.ErrNotFound.
	FindBySubOrderNo(ctx context.Context, subOrderNo string) (*order.NormalizedOrder, error)
}

// FulfillmentRepository stores tracking records referencing sub-orders.
type FulfillmentRepository interface {
	// Save inserts or updates a record matched by (sub_order_no, tracking_number).
	Save(ctx context.Context, f *order.Fulfillment) error

	FindByTrackingNumber(ctx context.Context, trackingNumber string) ([]*order.Fulfillment, error)
	ListByStatus(ctx context.Context, status string, limit int) ([]*order.Fulfillment, error)
}
