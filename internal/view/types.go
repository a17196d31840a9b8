package view

import (
	"context"
	"errors"

	"github.com/partsportal/catalog-sync/internal/catalog"
	"github.com/partsportal/catalog-sync/internal/model"
	"github.com/partsportal/catalog-sync/internal/router"
)

// ErrClosed is returned by commands issued after Close.
var ErrClosed = errors.New("view closed")

// ListLoader fetches list pages. *catalog.Client satisfies it.
type ListLoader interface {
	ListOffers(ctx context.Context, q model.ListQuery) (*catalog.ListPage, error)
}

// DetailLoader fetches one product detail. *catalog.Client satisfies it.
type DetailLoader interface {
	GetOffer(ctx context.Context, sku string) (*model.ProductDetail, error)
}

// Subscriber registers stream callbacks. *router.Router satisfies it.
type Subscriber interface {
	Subscribe(fn router.Handler) (unsubscribe func())
}

// ListState is a point-in-time copy of a list view.
type ListState struct {
	Query      model.ListQuery
	Products   []model.Product
	TotalPages int
	Loading    bool
	Err        error // last query error; previous data is kept
	Reloads    int   // completed successful loads
	Version    uint64
}

// DetailState is a point-in-time copy of a detail view.
type DetailState struct {
	SKU     string
	Product *model.ProductDetail // nil until the first successful load
	Loading bool
	Err     error
	Reloads int
	Version uint64
}

type commandKind int

const (
	cmdEvent commandKind = iota
	cmdReload
	cmdSetQuery
)

// command is one unit of work for a view worker.
type command struct {
	kind   commandKind
	batch  []model.UpdateItem
	query  model.ListQuery
	reason string
}
