package reconcile

import (
	"github.com/partsportal/catalog-sync/internal/model"
)

// Reload reasons.
const (
	ReasonOfferCreated    = "offer_created"
	ReasonUnknownProvider = "unknown_provider"
)

// Outcome describes what applying one batch did.
type Outcome struct {
	// Reload is set when the caller must refetch its state. No entry has been
	// mutated when Reload is true.
	Reload bool
	Reason string

	Applied int // items that hit an existing offer
	Changed int // offers whose fields actually changed
	Ignored int // items skipped (other SKU, absent product, creations on a detail, unknown provider on a detail)
}

// MergeOffer copies every field present on item onto offer and reports
// whether any value changed.
func MergeOffer(offer *model.Offer, item model.UpdateItem) bool {
	changed := false

	if item.PriceValue != nil && !offer.PriceValue.Equal(*item.PriceValue) {
		offer.PriceValue = *item.PriceValue
		changed = true
	}
	if item.Currency != nil && offer.Currency != *item.Currency {
		offer.Currency = *item.Currency
		changed = true
	}
	if item.StockQty != nil && offer.StockQty != *item.StockQty {
		offer.StockQty = *item.StockQty
		changed = true
	}
	if item.StockStatus != nil && offer.StockStatus != *item.StockStatus {
		offer.StockStatus = *item.StockStatus
		changed = true
	}

	return changed
}

// merge is one planned in-place update.
type merge struct {
	offer *model.Offer
	item  model.UpdateItem
}

// List applies a batch to a paged product list.
func List(products []model.Product, items []model.UpdateItem) Outcome {
	for _, item := range items {
		if item.IsCreation() {
			return Outcome{Reload: true, Reason: ReasonOfferCreated}
		}
	}

	bySKU := make(map[string]int, len(products))
	for i := range products {
		bySKU[products[i].SKU] = i
	}

	var (
		out     Outcome
		plan    []merge
		unknown bool
	)

	for _, item := range items {
		pi, ok := bySKU[item.SKU]
		if !ok {
			out.Ignored++
			continue
		}

		offer := findOffer(products[pi].Offers, item.ProviderID)
		if offer == nil {
			// Keep scanning; one reload covers every unknown key in the batch.
			unknown = true
			continue
		}
		plan = append(plan, merge{offer: offer, item: item})
	}

	if unknown {
		return Outcome{Reload: true, Reason: ReasonUnknownProvider}
	}

	for _, m := range plan {
		out.Applied++
		if MergeOffer(m.offer, m.item) {
			out.Changed++
		}
	}
	return out
}

// Detail applies a batch to a single product detail identified by sku.
// A nil detail (not loaded yet) ignores the batch.
func Detail(detail *model.ProductDetail, sku string, items []model.UpdateItem) Outcome {
	var out Outcome

	for _, item := range items {
		if item.SKU != sku {
			continue
		}
		if detail == nil || item.IsCreation() {
			out.Ignored++
			continue
		}

		offer := findDetailOffer(detail.Offers, item.ProviderID)
		if offer == nil {
			out.Ignored++
			continue
		}

		out.Applied++
		if MergeOffer(offer, item) {
			out.Changed++
		}
	}

	return out
}

func findOffer(offers []model.Offer, providerID int64) *model.Offer {
	for i := range offers {
		if offers[i].ProviderID == providerID {
			return &offers[i]
		}
	}
	return nil
}

func findDetailOffer(offers []model.OfferDetail, providerID int64) *model.Offer {
	for i := range offers {
		if offers[i].ProviderID == providerID {
			return &offers[i].Offer
		}
	}
	return nil
}
