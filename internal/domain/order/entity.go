package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawOrder is the unmodified platform order snapshot stored per
// (shop_id, source_order_id). Re-syncs overwrite the payload in place.
type RawOrder struct {
	ShopID            string
	SourceOrderID     int64
	Payload           Document
	PlatformCreatedAt *time.Time
	PlatformUpdatedAt *time.Time
}

// RawOrderRef identifies a stored raw order.
type RawOrderRef struct {
	ShopID        string
	SourceOrderID int64
}

// LineItem is one parsed order line used for splitting and allocation.
// Canonical holds the reshaped item document persisted in orders.items.
type LineItem struct {
	SKUID          string
	Name           string
	VariantTitle   string
	Quantity       int
	UnitOriginal   decimal.Decimal
	UnitDiscounted decimal.Decimal
	Canonical      Document
}

// ItemAmount is one per-SKU pair inside an AmountBreakdown.
type ItemAmount struct {
	SKUID           string          `json:"sku_id"`
	OriginalTotal   decimal.Decimal `json:"original_total"`
	DiscountedTotal decimal.Decimal `json:"discounted_total"`
}

// AmountBreakdown is the consolidated three-level amount document:
// order scope, sub-order scope, per item; original vs discounted.
type AmountBreakdown struct {
	OrderOriginalTotal      decimal.Decimal `json:"order_original_total"`
	OrderDiscountedTotal    decimal.Decimal `json:"order_discounted_total"`
	SubOrderOriginalTotal   decimal.Decimal `json:"sub_order_original_total"`
	SubOrderDiscountedTotal decimal.Decimal `json:"sub_order_discounted_total"`
	Items                   []ItemAmount    `json:"items"`
}

// NormalizedOrder is one addressable sub-order after splitting a RawOrder.
// SubOrderNo is globally unique and deterministic for a given payload.
type NormalizedOrder struct {
	ID              string // assigned by storage, empty before the first upsert
	ParentOrderNo   string
	SubOrderNo      string
	ShopID          string
	SourceOrderID   int64
	Amount          AmountBreakdown
	ShippingFee     decimal.Decimal
	ShippingAddress Document
	Currency        string
	PaymentStatus   string
	PaymentMethod   string
	Region          string
	Items           []Document
	Customer        Document
	Marketing       Document
	DeliveryConfig  []Document
	ExtraInfo       Document
	OrderCreatedAt  *time.Time
	OrderUpdatedAt  *time.Time
}

// Fulfillment is an append/update tracking record weakly referencing a
// sub-order. Not owned by the order: surviving a sub-order replace is fine.
type Fulfillment struct {
	ID             string
	OrderID        string
	SubOrderNo     string
	TrackingNumber string
	Carrier        string
	Status         string
	Remark         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
