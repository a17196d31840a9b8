package main

import (
	"github.com/partsportal/catalog-sync/internal/model"
	"github.com/partsportal/catalog-sync/internal/view"
)

// listDebug is the JSON form of a list snapshot served on /debug/view.
type listDebug struct {
	Query      model.ListQuery `json:"query"`
	TotalPages int             `json:"total_pages"`
	Loading    bool            `json:"loading"`
	Error      string          `json:"error,omitempty"`
	Reloads    int             `json:"reloads"`
	Version    uint64          `json:"version"`
	Products   []model.Product `json:"products"`
}

type detailDebug struct {
	SKU     string               `json:"sku"`
	Loading bool                 `json:"loading"`
	Error   string               `json:"error,omitempty"`
	Reloads int                  `json:"reloads"`
	Version uint64               `json:"version"`
	Product *model.ProductDetail `json:"product"`
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func listDebugOf(s view.ListState) listDebug {
	return listDebug{
		Query:      s.Query,
		TotalPages: s.TotalPages,
		Loading:    s.Loading,
		Error:      errString(s.Err),
		Reloads:    s.Reloads,
		Version:    s.Version,
		Products:   s.Products,
	}
}

func detailDebugOf(s view.DetailState) detailDebug {
	return detailDebug{
		SKU:     s.SKU,
		Loading: s.Loading,
		Error:   errString(s.Err),
		Reloads: s.Reloads,
		Version: s.Version,
		Product: s.Product,
	}
}
