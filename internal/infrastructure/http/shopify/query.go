package shopify

// ordersQuery fetches the order fields normalization consumes. The whole
// node is stored verbatim as the raw payload, so adding fields here is
// backward compatible with already-synced rows.
// https://shopify.dev/docs/api/admin-graphql/latest/queries/orders
const ordersQuery = `
query GetOrders($first: Int!, $query: String) {
  orders(first: $first, query: $query, sortKey: PROCESSED_AT, reverse: true) {
    edges {
      cursor
      node {
        id
        name
        createdAt
        updatedAt
        displayFinancialStatus
        displayFulfillmentStatus
        email
        phone
        note
        sourceName
        paymentGatewayNames
        customAttributes { key value }
        channelInformation {
          id
          displayName
          channelDefinition { id handle channelName subChannelName isMarketplace }
        }
        totalPriceSet {
          shopMoney { amount currencyCode }
          presentmentMoney { amount currencyCode }
        }
        subtotalPriceSet {
          shopMoney { amount currencyCode }
          presentmentMoney { amount currencyCode }
        }
        totalDiscountsSet {
          shopMoney { amount currencyCode }
        }
        totalShippingPriceSet {
          shopMoney { amount currencyCode }
        }
        shippingAddress {
          address1 address2 city province provinceCode zip country countryCodeV2
          name firstName lastName phone
        }
        shippingLines(first: 10) {
          edges {
            node {
              id title source code
              originalPriceSet { shopMoney { amount currencyCode } presentmentMoney { amount currencyCode } }
              discountedPriceSet { shopMoney { amount currencyCode } presentmentMoney { amount currencyCode } }
            }
          }
        }
        lineItems(first: 100) {
          edges {
            node {
              id name quantity sku
              variant { id title }
              originalUnitPriceSet { shopMoney { amount currencyCode } }
              discountedUnitPriceAfterAllDiscountsSet { shopMoney { amount currencyCode } }
              originalTotalSet { shopMoney { amount currencyCode } }
              discountedTotalSet(withCodeDiscounts: true) { shopMoney { amount currencyCode } }
              totalDiscountSet { shopMoney { amount currencyCode } }
            }
          }
        }
      }
    }
    pageInfo {
      hasNextPage
      endCursor
    }
  }
}
`
