package event

import (
	"bytes"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		variant   string
		typ       string
		itemCount int
	}{
		{
			name:      "update batch",
			data:      `{"type":"catalog:update_batch","items":[{"sku":"X","provider_id":5,"change":"offer_updated","stock_qty":7}]}`,
			variant:   VariantUpdateBatch,
			itemCount: 1,
		},
		{
			name:      "empty batch",
			data:      `{"type":"catalog:update_batch","items":[]}`,
			variant:   VariantUpdateBatch,
			itemCount: 0,
		},
		{
			name:    "batch without items",
			data:    `{"type":"catalog:update_batch"}`,
			variant: VariantUnknown,
			typ:     TypeUpdateBatch,
		},
		{
			name:    "items is not an array",
			data:    `{"type":"catalog:update_batch","items":{"sku":"X"}}`,
			variant: VariantUnknown,
			typ:     TypeUpdateBatch,
		},
		{
			name:    "items null",
			data:    `{"type":"catalog:update_batch","items":null}`,
			variant: VariantUnknown,
			typ:     TypeUpdateBatch,
		},
		{
			name:    "malformed item",
			data:    `{"type":"catalog:update_batch","items":[{"sku":42}]}`,
			variant: VariantUnknown,
			typ:     TypeUpdateBatch,
		},
		{
			name:    "unrecognized type",
			data:    `{"type":"catalog:heartbeat"}`,
			variant: VariantUnknown,
			typ:     "catalog:heartbeat",
		},
		{
			name:    "no type",
			data:    `{"items":[]}`,
			variant: VariantUnknown,
		},
		{
			name:    "non-string type",
			data:    `{"type":7}`,
			variant: VariantUnknown,
		},
		{
			name:    "json array",
			data:    `[1,2,3]`,
			variant: VariantUnknown,
		},
		{
			name:    "json string",
			data:    `"hello"`,
			variant: VariantUnknown,
		},
		{
			name:    "plain text",
			data:    `ping`,
			variant: VariantRaw,
		},
		{
			name:    "truncated json",
			data:    `{"type":"catalog:update_batch","items":[`,
			variant: VariantRaw,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Decode([]byte(tt.data))

			if ev.Variant() != tt.variant {
				t.Fatalf("Variant() = %q, want %q", ev.Variant(), tt.variant)
			}
			if !bytes.Equal(ev.Payload(), []byte(tt.data)) {
				t.Errorf("Payload() = %q, want unchanged %q", ev.Payload(), tt.data)
			}

			switch e := ev.(type) {
			case UpdateBatch:
				if len(e.Items) != tt.itemCount {
					t.Errorf("len(Items) = %d, want %d", len(e.Items), tt.itemCount)
				}
				if e.Items == nil {
					t.Error("Items should be non-nil for a batch")
				}
			case Unknown:
				if e.Type != tt.typ {
					t.Errorf("Type = %q, want %q", e.Type, tt.typ)
				}
			}
		})
	}
}

func TestDecode_PreservesItemOrder(t *testing.T) {
	data := `{"type":"catalog:update_batch","items":[
		{"sku":"A","provider_id":1,"change":"offer_updated"},
		{"sku":"B","provider_id":2,"change":"offer_created"},
		{"sku":"C","provider_id":3,"change":"offer_updated"}
	]}`

	batch, ok := Decode([]byte(data)).(UpdateBatch)
	if !ok {
		t.Fatal("expected UpdateBatch")
	}

	want := []string{"A", "B", "C"}
	for i, sku := range want {
		if batch.Items[i].SKU != sku {
			t.Errorf("Items[%d].SKU = %q, want %q", i, batch.Items[i].SKU, sku)
		}
	}
	if !batch.Items[1].IsCreation() {
		t.Error("Items[1] should be a creation")
	}
}
