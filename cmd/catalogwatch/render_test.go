package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/partsportal/catalog-sync/internal/model"
	"github.com/partsportal/catalog-sync/internal/view"
)

func TestRenderer_PriceCLP(t *testing.T) {
	r := newRenderer(&bytes.Buffer{})

	tests := []struct {
		in   string
		want string
	}{
		{"12990", "$12.990"},
		{"1234567", "$1.234.567"},
		{"0", "$0"},
		{"99990.4", "$99.990"},
	}
	for _, tt := range tests {
		if got := r.price(decimal.RequireFromString(tt.in), "CLP"); got != tt.want {
			t.Errorf("price(%s, CLP) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderer_PriceOtherCurrency(t *testing.T) {
	r := newRenderer(&bytes.Buffer{})
	got := r.price(decimal.RequireFromString("19.5"), "USD")
	if !strings.HasSuffix(got, " USD") || !strings.HasPrefix(got, "19") {
		t.Errorf("price(19.5, USD) = %q", got)
	}
}

func TestSummarize(t *testing.T) {
	offers := []model.Offer{
		{ProviderID: 1, PriceValue: decimal.NewFromInt(15000), StockQty: 2},
		{ProviderID: 2, PriceValue: decimal.NewFromInt(12990), StockQty: 5},
		{ProviderID: 3, PriceValue: decimal.NewFromInt(13000), StockQty: 0},
	}
	best, stock := summarize(offers)
	if best == nil || best.ProviderID != 2 {
		t.Errorf("best = %+v, want provider 2", best)
	}
	if stock != 7 {
		t.Errorf("stock = %d, want 7", stock)
	}

	if best, stock := summarize(nil); best != nil || stock != 0 {
		t.Errorf("summarize(nil) = %v, %d", best, stock)
	}
}

func TestRenderer_List(t *testing.T) {
	var buf bytes.Buffer
	r := newRenderer(&buf)

	r.list(view.ListState{
		Query:      model.ListQuery{Page: 2},
		TotalPages: 5,
		Err:        errors.New("catalog api error 503"),
		Products: []model.Product{{
			SKU:       "BRK-001",
			Name:      "Pastillas de freno",
			PartBrand: "Bosch",
			Offers: []model.Offer{
				{ProviderID: 1, PriceValue: decimal.NewFromInt(25990), Currency: "CLP", StockQty: 12000},
			},
		}},
	}, "open")

	out := buf.String()
	for _, want := range []string{"page 2/5", "stream open", "error: catalog api error 503", "BRK-001", "Pastillas de freno", "$25.990", "12.000"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderer_Detail(t *testing.T) {
	var buf bytes.Buffer
	r := newRenderer(&buf)

	eta := "24h"
	r.detail(view.DetailState{
		SKU: "BRK-001",
		Product: &model.ProductDetail{
			SKU:         "BRK-001",
			Name:        "Pastillas de freno",
			PartBrand:   "Bosch",
			VehicleFits: []model.VehicleFit{{VehicleMake: "Toyota", VehicleModel: "Yaris", YearFrom: 2014, YearTo: 2018}},
			Offers: []model.OfferDetail{
				{Offer: model.Offer{ProviderID: 7, PriceValue: decimal.NewFromInt(25990), Currency: "CLP", StockQty: 3, StockStatus: "in_stock",
					Provider: &model.OfferProvider{ID: 7, Name: "Repuestos Sur"}}, DispatchETA: &eta},
				{Offer: model.Offer{ProviderID: 9, PriceValue: decimal.NewFromInt(27000), Currency: "CLP"}},
			},
		},
	}, "idle")

	out := buf.String()
	for _, want := range []string{"sku BRK-001", "Toyota Yaris 2014-2018", "Repuestos Sur", "$25.990", "24h", "provider #9"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderer_DetailNotLoaded(t *testing.T) {
	var buf bytes.Buffer
	newRenderer(&buf).detail(view.DetailState{SKU: "X", Loading: true}, "connecting")

	if !strings.Contains(buf.String(), "loading...") {
		t.Errorf("output = %q, want loading marker", buf.String())
	}
	if strings.Contains(buf.String(), "PROVIDER") {
		t.Error("offer table rendered without a product")
	}
}

func TestNormalizeQuery(t *testing.T) {
	// "e" followed by a combining acute accent.
	decomposed := "cafe\u0301"
	q := normalizeQuery(model.ListQuery{Q: decomposed, Make: "Citroe\u0308n"}, 20)

	if q.Limit != 20 {
		t.Errorf("Limit = %d, want 20", q.Limit)
	}
	if q.Q != "caf\u00e9" {
		t.Errorf("Q = %q, want composed form", q.Q)
	}
	if q.Make != "Citro\u00ebn" {
		t.Errorf("Make = %q, want composed form", q.Make)
	}

	if got := normalizeQuery(model.ListQuery{Limit: 50}, 20).Limit; got != 50 {
		t.Errorf("explicit Limit = %d, want 50", got)
	}
}
