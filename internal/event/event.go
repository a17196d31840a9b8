package event

import (
	"bytes"
	"encoding/json"

	"github.com/partsportal/catalog-sync/internal/model"
)

// TypeUpdateBatch is the only event type the reconciliation engine understands.
const TypeUpdateBatch = "catalog:update_batch"

// Variant names used in logs and metrics.
const (
	VariantUpdateBatch = "update_batch"
	VariantUnknown     = "unknown"
	VariantRaw         = "raw"
)

// Event is one decoded stream message.
type Event interface {
	// Variant returns the variant name (update_batch, unknown, raw).
	Variant() string

	// Payload returns the frame bytes exactly as received.
	Payload() []byte
}

// UpdateBatch is a catalog:update_batch event.
type UpdateBatch struct {
	Items []model.UpdateItem
	Data  []byte
}

func (UpdateBatch) Variant() string   { return VariantUpdateBatch }
func (b UpdateBatch) Payload() []byte { return b.Data }

// Unknown is well-formed JSON with a type (possibly empty) nobody handles.
type Unknown struct {
	Type string
	Data []byte
}

func (Unknown) Variant() string   { return VariantUnknown }
func (u Unknown) Payload() []byte { return u.Data }

// Raw is a payload that could not be parsed as JSON.
type Raw struct {
	Data []byte
}

func (Raw) Variant() string   { return VariantRaw }
func (r Raw) Payload() []byte { return r.Data }

// envelope is used for fast type extraction.
type envelope struct {
	Type  string          `json:"type"`
	Items json.RawMessage `json:"items"`
}

// Decode classifies a frame. The returned event always carries data unmodified.
func Decode(data []byte) Event {
	if !json.Valid(data) {
		return Raw{Data: data}
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Unknown{Data: data}
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		// Valid JSON object whose "type" is not a string.
		return Unknown{Data: data}
	}

	if env.Type != TypeUpdateBatch {
		return Unknown{Type: env.Type, Data: data}
	}

	items, ok := decodeItems(env.Items)
	if !ok {
		return Unknown{Type: env.Type, Data: data}
	}

	return UpdateBatch{Items: items, Data: data}
}

// decodeItems accepts only a JSON array of item objects.
func decodeItems(raw json.RawMessage) ([]model.UpdateItem, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}

	var items []model.UpdateItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	if items == nil {
		items = []model.UpdateItem{}
	}
	return items, true
}
