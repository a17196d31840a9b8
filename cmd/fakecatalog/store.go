package main

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/partsportal/catalog-sync/internal/catalog"
	"github.com/partsportal/catalog-sync/internal/model"
)

var (
	brands     = []string{"Bosch", "Brembo", "Mann", "NGK", "Valeo", "Monroe"}
	categories = []string{"frenos", "filtros", "encendido", "suspension", "embrague"}
	parts      = []string{"Pastillas de freno", "Disco de freno", "Filtro de aceite", "Filtro de aire", "Bujia", "Amortiguador", "Kit de embrague"}
	fits       = []model.VehicleFit{
		{VehicleMake: "Toyota", VehicleModel: "Yaris", YearFrom: 2014, YearTo: 2020},
		{VehicleMake: "Chevrolet", VehicleModel: "Sail", YearFrom: 2011, YearTo: 2019},
		{VehicleMake: "Suzuki", VehicleModel: "Swift", YearFrom: 2017, YearTo: 2023},
		{VehicleMake: "Hyundai", VehicleModel: "Accent", YearFrom: 2012, YearTo: 2018},
		{VehicleMake: "Kia", VehicleModel: "Rio", YearFrom: 2015, YearTo: 2022},
	}
	providers = []model.OfferProvider{
		{ID: 1, Name: "Repuestos Sur"},
		{ID: 2, Name: "AutoPartes Maipu"},
		{ID: 3, Name: "Frenos y Mas"},
		{ID: 4, Name: "Distribuidora Norte"},
		{ID: 5, Name: "Importadora Pacifico"},
	}
	etas = []string{"24h", "48h", "3-5 dias"}
)

// store is an in-memory catalog that mutates itself to feed the stream.
type store struct {
	mu       sync.Mutex
	rng      *rand.Rand
	products []*model.ProductDetail // ordered by SKU
	bySKU    map[string]*model.ProductDetail
	nextID   int64
}

func newStore(n int, seed uint64) *store {
	s := &store{
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		bySKU: make(map[string]*model.ProductDetail, n),
	}
	for i := 1; i <= n; i++ {
		p := &model.ProductDetail{
			ID:          int64(i),
			SKU:         fmt.Sprintf("SKU-%04d", i),
			Name:        parts[s.rng.IntN(len(parts))],
			PartBrand:   brands[s.rng.IntN(len(brands))],
			Category:    categories[s.rng.IntN(len(categories))],
			VehicleFits: []model.VehicleFit{fits[s.rng.IntN(len(fits))]},
		}
		// Leave the last provider unused so creations have somewhere to go.
		for _, prov := range providers[:1+s.rng.IntN(len(providers)-1)] {
			p.Offers = append(p.Offers, s.newOffer(prov))
		}
		s.products = append(s.products, p)
		s.bySKU[p.SKU] = p
	}
	return s
}

func (s *store) newOffer(prov model.OfferProvider) model.OfferDetail {
	s.nextID++
	eta := etas[s.rng.IntN(len(etas))]
	qty := s.rng.IntN(40)
	return model.OfferDetail{
		Offer: model.Offer{
			ID:          s.nextID,
			ProviderID:  prov.ID,
			PriceValue:  decimal.NewFromInt(int64(5+s.rng.IntN(120)) * 1000).Sub(decimal.NewFromInt(10)),
			Currency:    "CLP",
			StockQty:    qty,
			StockStatus: stockStatus(qty),
			Provider:    &model.OfferProvider{ID: prov.ID, Name: prov.Name},
		},
		DispatchETA: &eta,
	}
}

func stockStatus(qty int) string {
	switch {
	case qty == 0:
		return "out_of_stock"
	case qty < 5:
		return "low_stock"
	default:
		return "in_stock"
	}
}

// list filters and pages the catalog the way the real service does.
func (s *store) list(q model.ListQuery) catalog.ListPage {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []model.Product
	for _, p := range s.products {
		if matches(p, q) {
			matched = append(matched, summary(p))
		}
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	page := max(q.Page, 1)
	total := (len(matched) + limit - 1) / limit

	start := (page - 1) * limit
	if start > len(matched) {
		start = len(matched)
	}
	end := min(start+limit, len(matched))

	data := matched[start:end]
	if data == nil {
		data = []model.Product{}
	}
	return catalog.ListPage{Data: data, TotalPages: total}
}

func matches(p *model.ProductDetail, q model.ListQuery) bool {
	if q.Q != "" {
		needle := strings.ToLower(q.Q)
		if !strings.Contains(strings.ToLower(p.Name), needle) && !strings.Contains(strings.ToLower(p.SKU), needle) {
			return false
		}
	}
	if q.Brand != "" && !strings.EqualFold(p.PartBrand, q.Brand) {
		return false
	}
	if q.Make == "" && q.Model == "" && q.Year == 0 {
		return true
	}
	for _, f := range p.VehicleFits {
		if q.Make != "" && !strings.EqualFold(f.VehicleMake, q.Make) {
			continue
		}
		if q.Model != "" && !strings.EqualFold(f.VehicleModel, q.Model) {
			continue
		}
		if q.Year != 0 && (q.Year < f.YearFrom || q.Year > f.YearTo) {
			continue
		}
		return true
	}
	return false
}

func summary(p *model.ProductDetail) model.Product {
	offers := make([]model.Offer, len(p.Offers))
	for i, o := range p.Offers {
		offers[i] = o.Offer.Clone()
	}
	return model.Product{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		PartBrand:   p.PartBrand,
		Category:    p.Category,
		Offers:      offers,
		VehicleFits: append([]model.VehicleFit(nil), p.VehicleFits...),
	}
}

func (s *store) get(sku string) (*model.ProductDetail, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.bySKU[sku]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// mutate changes a few offers and returns the matching update items. About
// one batch in ten also adds an offer from a provider new to that product.
func (s *store) mutate() []model.UpdateItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.products) == 0 {
		return nil
	}

	n := 1 + s.rng.IntN(3)
	items := make([]model.UpdateItem, 0, n+1)
	for range n {
		p := s.products[s.rng.IntN(len(s.products))]
		o := &p.Offers[s.rng.IntN(len(p.Offers))]

		o.StockQty = max(0, o.StockQty+s.rng.IntN(11)-5)
		o.StockStatus = stockStatus(o.StockQty)
		item := model.UpdateItem{
			SKU:         p.SKU,
			ProviderID:  o.ProviderID,
			Change:      model.ChangeOfferUpdated,
			StockQty:    ptr(o.StockQty),
			StockStatus: ptr(o.StockStatus),
		}
		if s.rng.IntN(4) == 0 {
			o.PriceValue = o.PriceValue.Add(decimal.NewFromInt(int64(s.rng.IntN(5)-2) * 500))
			item.PriceValue = ptr(o.PriceValue)
		}
		items = append(items, item)
	}

	if s.rng.IntN(10) == 0 {
		p := s.products[s.rng.IntN(len(s.products))]
		if prov, ok := missingProvider(p); ok {
			o := s.newOffer(prov)
			p.Offers = append(p.Offers, o)
			sort.Slice(p.Offers, func(i, j int) bool { return p.Offers[i].ProviderID < p.Offers[j].ProviderID })
			items = append(items, model.UpdateItem{
				SKU:         p.SKU,
				ProviderID:  prov.ID,
				Change:      model.ChangeOfferCreated,
				PriceValue:  ptr(o.PriceValue),
				Currency:    ptr(o.Currency),
				StockQty:    ptr(o.StockQty),
				StockStatus: ptr(o.StockStatus),
			})
		}
	}
	return items
}

func missingProvider(p *model.ProductDetail) (model.OfferProvider, bool) {
	have := make(map[int64]bool, len(p.Offers))
	for _, o := range p.Offers {
		have[o.ProviderID] = true
	}
	for _, prov := range providers {
		if !have[prov.ID] {
			return prov, true
		}
	}
	return model.OfferProvider{}, false
}

func ptr[T any](v T) *T { return &v }
