// Package model defines shared data types used across the catalog sync layer.
//
// All types mirror the JSON records served by the catalog query service
// (GET /offers and GET /offers/:sku) and the catalog:update_batch stream event.
//
// Conventions:
//   - Prices: decimal.Decimal (CLP values are integral, other currencies are not)
//   - Products are keyed by SKU within a view
//   - Offers are keyed by provider ID within one product
//   - Optional update fields are pointers; nil means "absent, keep the current value"
package model
