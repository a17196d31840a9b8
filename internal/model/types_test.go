package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestUpdateItem_AbsentFieldsStayNil(t *testing.T) {
	var item UpdateItem
	data := []byte(`{"sku":"X","provider_id":5,"change":"offer_updated","stock_qty":7}`)
	if err := json.Unmarshal(data, &item); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if item.SKU != "X" {
		t.Errorf("SKU = %q, want %q", item.SKU, "X")
	}
	if item.ProviderID != 5 {
		t.Errorf("ProviderID = %d, want 5", item.ProviderID)
	}
	if item.StockQty == nil || *item.StockQty != 7 {
		t.Errorf("StockQty = %v, want 7", item.StockQty)
	}
	if item.PriceValue != nil {
		t.Errorf("PriceValue = %v, want nil", item.PriceValue)
	}
	if item.Currency != nil {
		t.Errorf("Currency = %v, want nil", item.Currency)
	}
	if item.StockStatus != nil {
		t.Errorf("StockStatus = %v, want nil", item.StockStatus)
	}
	if item.IsCreation() {
		t.Error("offer_updated should not be a creation")
	}
}

func TestUpdateItem_PriceDecodesExactly(t *testing.T) {
	var item UpdateItem
	data := []byte(`{"sku":"X","provider_id":1,"change":"offer_created","price_value":15990.5}`)
	if err := json.Unmarshal(data, &item); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if item.PriceValue == nil {
		t.Fatal("PriceValue should be set")
	}
	if !item.PriceValue.Equal(decimal.RequireFromString("15990.5")) {
		t.Errorf("PriceValue = %s, want 15990.5", item.PriceValue)
	}
	if !item.IsCreation() {
		t.Error("offer_created should be a creation")
	}
}

func TestProductDetail_DecodesOriginalShape(t *testing.T) {
	data := []byte(`{
		"id": 10,
		"sku": "BUJ-001",
		"oem_code": "90919-01253",
		"name": "Bujía",
		"weight_value": 0.05,
		"weight_unit": "kg",
		"specs": {"thread": "M14"},
		"offers": [
			{"id": 1, "provider_id": 5, "price_value": 15990, "currency": "CLP",
			 "stock_qty": 3, "stock_status": "in_stock", "dispatch_eta": "24h",
			 "provider": {"id": 5, "name": "Repuestos Sur"}}
		],
		"vehicleFits": [{"vehicle_make": "Toyota", "vehicle_model": "Yaris", "year_from": 2010, "year_to": 2018}],
		"images": [{"url": "https://cdn.example.com/buj.png"}]
	}`)

	var d ProductDetail
	if err := json.Unmarshal(data, &d); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if len(d.Offers) != 1 {
		t.Fatalf("len(Offers) = %d, want 1", len(d.Offers))
	}
	o := d.Offers[0]
	if o.ProviderID != 5 {
		t.Errorf("ProviderID = %d, want 5", o.ProviderID)
	}
	if o.DispatchETA == nil || *o.DispatchETA != "24h" {
		t.Errorf("DispatchETA = %v, want 24h", o.DispatchETA)
	}
	if o.Provider == nil || o.Provider.Name != "Repuestos Sur" {
		t.Errorf("Provider = %+v, want Repuestos Sur", o.Provider)
	}
	if len(d.VehicleFits) != 1 || d.VehicleFits[0].YearTo != 2018 {
		t.Errorf("VehicleFits = %+v", d.VehicleFits)
	}
	if d.WeightValue == nil || *d.WeightValue != 0.05 {
		t.Errorf("WeightValue = %v, want 0.05", d.WeightValue)
	}
}

func TestClone_IsIndependent(t *testing.T) {
	t.Run("Product", func(t *testing.T) {
		p := Product{
			SKU: "X",
			Offers: []Offer{
				{ProviderID: 5, StockQty: 3, Provider: &OfferProvider{ID: 5, Name: "A"}},
			},
		}
		c := p.Clone()
		c.Offers[0].StockQty = 99
		c.Offers[0].Provider.Name = "B"

		if p.Offers[0].StockQty != 3 {
			t.Errorf("original StockQty = %d, want 3", p.Offers[0].StockQty)
		}
		if p.Offers[0].Provider.Name != "A" {
			t.Errorf("original Provider.Name = %q, want A", p.Offers[0].Provider.Name)
		}
	})

	t.Run("ProductDetail", func(t *testing.T) {
		eta := "48h"
		d := &ProductDetail{
			SKU:    "X",
			Specs:  map[string]any{"k": "v"},
			Offers: []OfferDetail{{Offer: Offer{ProviderID: 1, StockQty: 1}, DispatchETA: &eta}},
		}
		c := d.Clone()
		c.Offers[0].StockQty = 2
		*c.Offers[0].DispatchETA = "never"
		c.Specs["k"] = "changed"

		if d.Offers[0].StockQty != 1 {
			t.Errorf("original StockQty = %d, want 1", d.Offers[0].StockQty)
		}
		if *d.Offers[0].DispatchETA != "48h" {
			t.Errorf("original DispatchETA = %q, want 48h", *d.Offers[0].DispatchETA)
		}
		if d.Specs["k"] != "v" {
			t.Errorf("original Specs[k] = %v, want v", d.Specs["k"])
		}
	})

	t.Run("nil detail", func(t *testing.T) {
		var d *ProductDetail
		if d.Clone() != nil {
			t.Error("Clone of nil should be nil")
		}
	})
}
