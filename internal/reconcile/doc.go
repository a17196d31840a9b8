// Package reconcile implements the Reconciliation Engine component.
//
// Given the catalog state a view holds and the items of one update batch, it
// decides between merging offer fields in place and asking for a full reload:
//   - List: any offer_created item, or an item naming a provider the product
//     does not list, requests exactly one reload and mutates nothing
//   - Detail: items for other SKUs, offer_created items and unknown providers
//     are ignored; a detail never reloads
//
// Merges overwrite only the fields present on the item and never create a
// product or an offer. The functions are pure apart from that in-place
// mutation and are not safe for concurrent use on the same state.
package reconcile
