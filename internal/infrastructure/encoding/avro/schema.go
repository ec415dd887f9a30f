package avro

// SyncedOrderSchema is the Avro schema for the event published after a
// parent's sub-orders have been replaced. Monetary totals travel as strings
// to keep the fixed-point values exact; optional fields use null unions.
const SyncedOrderSchema = `{
	"type": "record",
	"name": "SyncedOrder",
	"namespace": "com.zenheart.order",
	"fields": [
		{"name": "shop_id", "type": "string"},
		{"name": "source_order_id", "type": "long"},
		{"name": "parent_order_no", "type": "string"},
		{"name": "sub_order_no", "type": "string"},
		{"name": "region", "type": ["null", "string"], "default": null},
		{"name": "currency", "type": "string"},
		{"name": "payment_status", "type": ["null", "string"], "default": null},
		{"name": "payment_method", "type": ["null", "string"], "default": null},

		{"name": "order_original_total", "type": "string"},
		{"name": "order_discounted_total", "type": "string"},
		{"name": "sub_order_original_total", "type": "string"},
		{"name": "sub_order_discounted_total", "type": "string"},
		{"name": "shipping_fee", "type": "string"},

		{"name": "item_count", "type": "int"},
		{"name": "order_created_at", "type": ["null", "string"], "default": null},
		{"name": "order_updated_at", "type": ["null", "string"], "default": null}
	]
}`
