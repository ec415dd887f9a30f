package order

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Normalizer decomposes a RawOrder payload into canonical sub-orders.
// Pure: the same payload always yields byte-identical results, so the
// orchestrator may re-run it on every pass.
type Normalizer struct {
	policy SplitPolicy
}

// NewNormalizer builds a normalizer with the given split policy.
// nil policy means one sub-order per raw order.
func NewNormalizer(policy SplitPolicy) *Normalizer {
	return &Normalizer{policy: policy}
}

// Normalize validates the payload, splits the line items, allocates amounts
// per group and stamps deterministic sub-order numbers. Any failure wraps
// its cause in a NormalizationError; nothing is partially produced.
func (n *Normalizer) Normalize(raw *RawOrder) ([]*NormalizedOrder, error) {
	fail := func(cause error) ([]*NormalizedOrder, error) {
		return nil, &NormalizationError{SourceOrderID: raw.SourceOrderID, Cause: cause}
	}

	payload := raw.Payload
	if len(payload) == 0 {
		return fail(fmt.Errorf("%w: payload", ErrMissingField))
	}
	addr := payload.Doc("shippingAddress")
	if addr == nil && payload.String("email") == "" {
		return fail(fmt.Errorf("%w: customer", ErrMissingField))
	}

	items, err := parseLineItems(payload)
	if err != nil {
		return fail(err)
	}
	if len(items) == 0 {
		return fail(fmt.Errorf("%w: lineItems", ErrMissingField))
	}

	// Reported discounted total: subtotal excludes shipping, matching the
	// allocation scope. Original totals are derived from the items.
	reportedDiscounted, err := moneyAmount(payload, "subtotalPriceSet")
	if err != nil {
		return fail(err)
	}
	alloc, err := AllocateAmounts(decimal.Zero, reportedDiscounted, items)
	if err != nil {
		return fail(err)
	}
	groups, err := SplitOrder(n.policy, items)
	if err != nil {
		return fail(err)
	}

	currency := payload.Doc("totalPriceSet").Doc("shopMoney").String("currencyCode")
	if currency == "" {
		currency = "TWD"
	}
	if len(currency) > 3 {
		currency = currency[:3]
	}

	shippingFee, delivery, err := shippingInfo(payload)
	if err != nil {
		return fail(err)
	}

	customer := customerDoc(payload, addr)
	marketing := marketingDoc(payload)
	extra := extraInfoDoc(payload, alloc)
	createdAt, updatedAt := PlatformTimestamps(payload)
	parentNo := ParentOrderNo(raw.SourceOrderID)
	paymentMethod := strings.Join(stringList(payload.List("paymentGatewayNames")), ", ")

	subs := make([]*NormalizedOrder, 0, len(groups))
	for i, g := range groups {
		groupItems := make([]Document, 0, len(g.Indexes))
		for _, idx := range g.Indexes {
			groupItems = append(groupItems, items[idx].Canonical)
		}
		// Shipping is excluded from allocation; the whole fee rides on the
		// first sub-order like the rest of the order-scoped charges.
		fee := decimal.Zero
		if i == 0 {
			fee = shippingFee
		}
		subs = append(subs, &NormalizedOrder{
			ParentOrderNo:   parentNo,
			SubOrderNo:      SubOrderNo(parentNo, i+1),
			ShopID:          raw.ShopID,
			SourceOrderID:   raw.SourceOrderID,
			Amount:          alloc.BreakdownFor(g.Indexes),
			ShippingFee:     fee,
			ShippingAddress: addr,
			Currency:        currency,
			PaymentStatus:   payload.String("displayFinancialStatus"),
			PaymentMethod:   paymentMethod,
			Region:          g.Label,
			Items:           groupItems,
			Customer:        customer,
			Marketing:       marketing,
			DeliveryConfig:  delivery,
			ExtraInfo:       extra,
			OrderCreatedAt:  createdAt,
			OrderUpdatedAt:  updatedAt,
		})
	}
	return subs, nil
}

// parseLineItems walks lineItems.edges[].node into LineItems plus the
// reshaped canonical item documents persisted with each sub-order.
func parseLineItems(payload Document) ([]LineItem, error) {
	edges := payload.Doc("lineItems").List("edges")
	items := make([]LineItem, 0, len(edges))
	for i, edge := range edges {
		node := AsDoc(edge).Doc("node")
		if node == nil {
			return nil, fmt.Errorf("%w: lineItems.edges[%d].node", ErrMissingField, i)
		}
		unitOriginal, err := moneyAmount(node, "originalUnitPriceSet")
		if err != nil {
			return nil, err
		}
		unitDiscounted, err := moneyAmount(node, "discountedUnitPriceAfterAllDiscountsSet")
		if err != nil {
			return nil, err
		}
		if node.Doc("discountedUnitPriceAfterAllDiscountsSet") == nil {
			unitDiscounted = unitOriginal
		}
		variant := node.Doc("variant")
		skuID := node.String("sku")
		if id := gidDigits(variant.String("id")); id != 0 {
			skuID = strconv.FormatInt(id, 10)
		}
		qty := node.Int("quantity")

		canonical := Document{
			"name":                  node.String("name"),
			"quantity":              qty,
			"sku_id":                skuID,
			"variant_title":         variant.String("title"),
			"price":                 unitDiscounted.String(),
			"original_unit_price":   unitOriginal.String(),
			"discounted_unit_price": unitDiscounted.String(),
			"original_total":        moneyString(node, "originalTotalSet"),
			"discounted_total":      moneyString(node, "discountedTotalSet"),
			"total_discount":        moneyString(node, "totalDiscountSet"),
		}
		items = append(items, LineItem{
			SKUID:          skuID,
			Name:           node.String("name"),
			VariantTitle:   variant.String("title"),
			Quantity:       qty,
			UnitOriginal:   unitOriginal,
			UnitDiscounted: unitDiscounted,
			Canonical:      canonical,
		})
	}
	return items, nil
}

// shippingInfo extracts the delivery-configuration documents and the fee:
// discounted presentment amount of the first shipping line, falling back to
// its shop amount, then to the order-level shipping total.
func shippingInfo(payload Document) (decimal.Decimal, []Document, error) {
	var delivery []Document
	fee := decimal.Zero
	for _, edge := range payload.Doc("shippingLines").List("edges") {
		node := AsDoc(edge).Doc("node")
		if node == nil {
			continue
		}
		orig := node.Doc("originalPriceSet").Doc("shopMoney")
		disc := node.Doc("discountedPriceSet").Doc("shopMoney")
		discPresent := node.Doc("discountedPriceSet").Doc("presentmentMoney")
		currency := orig.String("currencyCode")
		if currency == "" {
			currency = disc.String("currencyCode")
		}
		delivery = append(delivery, Document{
			"title":                         node.String("title"),
			"source":                        node.String("source"),
			"code":                          node.String("code"),
			"original_amount":               orig.String("amount"),
			"discounted_amount":             disc.String("amount"),
			"discounted_presentment_amount": discPresent.String("amount"),
			"currency_code":                 currency,
		})
		if len(delivery) == 1 {
			raw := discPresent.String("amount")
			if raw == "" {
				raw = disc.String("amount")
			}
			if raw == "" {
				raw = payload.Doc("totalShippingPriceSet").Doc("shopMoney").String("amount")
			}
			parsed, err := parseAmount(raw)
			if err != nil {
				return decimal.Zero, nil, err
			}
			fee = parsed
		}
	}
	if len(delivery) == 0 {
		parsed, err := parseAmount(payload.Doc("totalShippingPriceSet").Doc("shopMoney").String("amount"))
		if err != nil {
			return decimal.Zero, nil, err
		}
		fee = parsed
	}
	return fee, delivery, nil
}

// customerDoc reshapes the customer section into canonical field names.
func customerDoc(payload, addr Document) Document {
	phone := addr.String("phone")
	if phone == "" {
		phone = payload.String("phone")
	}
	return Document{
		"name":          addr.String("name"),
		"email":         payload.String("email"),
		"phone":         phone,
		"address1":      addr.String("address1"),
		"address2":      addr.String("address2"),
		"city":          addr.String("city"),
		"province":      addr.String("province"),
		"zip":           addr.String("zip"),
		"country":       addr.String("country"),
		"countryCodeV2": addr.String("countryCodeV2"),
	}
}

// marketingDoc carries source/channel attribution verbatim; nil when the
// payload has none.
func marketingDoc(payload Document) Document {
	marketing := Document{}
	if v := payload.String("sourceName"); v != "" {
		marketing["source_name"] = v
	}
	if channel := payload.Doc("channelInformation"); channel != nil {
		marketing["channel_information"] = map[string]any(channel)
		if v := channel.String("displayName"); v != "" {
			marketing["sales_channel"] = v
		}
		if def := channel.Doc("channelDefinition"); def != nil {
			marketing["channel_definition"] = map[string]any(def)
		}
	}
	if len(marketing) == 0 {
		return nil
	}
	return marketing
}

// staffNoteKeys are the agreed customAttributes keys carrying the
// service-staff note, as opposed to the buyer's order note.
var staffNoteKeys = map[string]bool{
	"staff_note":    true,
	"staffnote":     true,
	"internal_note": true,
	"客服备注":          true,
}

func extraInfoDoc(payload Document, alloc *Allocation) Document {
	extra := Document{
		"order_name": payload.String("name"),
	}
	if v := payload.String("note"); v != "" {
		extra["note"] = v
	}
	attrs := payload.List("customAttributes")
	if len(attrs) > 0 {
		noteAttrs := make([]any, 0, len(attrs))
		for _, a := range attrs {
			attr := AsDoc(a)
			noteAttrs = append(noteAttrs, map[string]any{
				"key":   attr.String("key"),
				"value": attr.String("value"),
			})
			if staffNoteKeys[strings.ToLower(strings.TrimSpace(attr.String("key")))] {
				if _, ok := extra["staff_note"]; !ok {
					extra["staff_note"] = attr.String("value")
				}
			}
		}
		extra["note_attributes"] = noteAttrs
	}
	if !alloc.DiscountedDiscrepancy.IsZero() {
		extra["amount_discrepancy"] = alloc.DiscountedDiscrepancy.String()
		if !alloc.WithinTolerance() {
			extra["amount_discrepancy_excessive"] = true
		}
	}
	return extra
}

// SourceOrderIDFromPayload parses the numeric order id out of the payload's
// GID ("gid://shopify/Order/126216516" -> 126216516).
func SourceOrderIDFromPayload(payload Document) int64 {
	return gidDigits(payload.String("id"))
}

// PlatformTimestamps reads the platform-reported creation/update times,
// accepting both camelCase and snake_case keys.
func PlatformTimestamps(payload Document) (createdAt, updatedAt *time.Time) {
	created := payload.String("createdAt")
	if created == "" {
		created = payload.String("created_at")
	}
	updated := payload.String("updatedAt")
	if updated == "" {
		updated = payload.String("updated_at")
	}
	return parseTime(created), parseTime(updated)
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

func gidDigits(gid string) int64 {
	if gid == "" {
		return 0
	}
	if i := strings.LastIndexByte(gid, '/'); i >= 0 {
		gid = gid[i+1:]
	}
	id, err := strconv.ParseInt(gid, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// moneyAmount reads set.shopMoney.amount as a decimal; absent means zero.
func moneyAmount(doc Document, setKey string) (decimal.Decimal, error) {
	return parseAmount(doc.Doc(setKey).Doc("shopMoney").String("amount"))
}

func moneyString(doc Document, setKey string) string {
	return doc.Doc(setKey).Doc("shopMoney").String("amount")
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q", ErrInvalidAmount, s)
	}
	return d, nil
}

func stringList(vs []any) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
