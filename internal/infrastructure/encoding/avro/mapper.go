package avro

import (
	"time"

	"github.com/aismartspeaker9-cloud/zenheart-erp/internal/domain/order"
)

// ToSyncedOrderNative converts a normalized sub-order into the goavro native
// form for SyncedOrderSchema. goavro requires union values to be wrapped as
// map[string]interface{}{"type": value}.
func ToSyncedOrderNative(o *order.NormalizedOrder) map[string]interface{} {
	out := map[string]interface{}{
		"shop_id":         o.ShopID,
		"source_order_id": o.SourceOrderID,
		"parent_order_no": o.ParentOrderNo,
		"sub_order_no":    o.SubOrderNo,
		"currency":        o.Currency,

		"order_original_total":       o.Amount.OrderOriginalTotal.String(),
		"order_discounted_total":     o.Amount.OrderDiscountedTotal.String(),
		"sub_order_original_total":   o.Amount.SubOrderOriginalTotal.String(),
		"sub_order_discounted_total": o.Amount.SubOrderDiscountedTotal.String(),
		"shipping_fee":               o.ShippingFee.String(),

		"item_count": len(o.Amount.Items),

		"region":         optionalString(o.Region),
		"payment_status": optionalString(o.PaymentStatus),
		"payment_method": optionalString(o.PaymentMethod),

		"order_created_at": optionalTime(o.OrderCreatedAt),
		"order_updated_at": optionalTime(o.OrderUpdatedAt),
	}
	return out
}

func optionalString(s string) interface{} {
	if s == "" {
		return nil
	}
	return map[string]interface{}{"string": s}
}

func optionalTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return map[string]interface{}{"string": t.UTC().Format(time.RFC3339)}
}
