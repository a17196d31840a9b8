package view

import (
	"context"
	"log/slog"

	"github.com/partsportal/catalog-sync/internal/model"
	"github.com/partsportal/catalog-sync/internal/reconcile"
)

// Reload reasons that do not come from reconcile.
const (
	reasonInitial = "initial"
	reasonManual  = "manual"
	reasonQuery   = "query"
)

// List is a paged product listing kept in sync with the stream.
type List struct {
	*base
	loader ListLoader
	state  ListState
}

// NewList creates an unmounted list view for query.
func NewList(loader ListLoader, sub Subscriber, query model.ListQuery, logger *slog.Logger, opts ...Option) *List {
	if logger == nil {
		logger = slog.Default()
	}
	v := &List{
		base:   newBase("list", sub, logger.With("component", "view", "view", "list"), opts),
		loader: loader,
		state:  ListState{Query: query, Products: []model.Product{}},
	}
	v.handle = v.handleCommand
	return v
}

// Mount subscribes to the stream and loads the first page.
func (v *List) Mount(ctx context.Context) error {
	return v.mount(ctx, command{kind: cmdReload, reason: reasonInitial})
}

// Close detaches the view. Results of loads still in flight are discarded.
func (v *List) Close() {
	v.close()
}

// Reload refetches the current query.
func (v *List) Reload() error {
	return v.send(command{kind: cmdReload, reason: reasonManual})
}

// SetQuery replaces the query and reloads.
func (v *List) SetQuery(q model.ListQuery) error {
	return v.send(command{kind: cmdSetQuery, query: q})
}

// Snapshot returns a deep copy of the current state.
func (v *List) Snapshot() ListState {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := v.state
	s.Products = model.CloneProducts(v.state.Products)
	s.Version = v.version
	return s
}

func (v *List) handleCommand(cmd command) {
	switch cmd.kind {
	case cmdEvent:
		v.applyBatch(cmd.batch)
	case cmdReload:
		v.reload(cmd.reason)
	case cmdSetQuery:
		v.mu.Lock()
		if v.closed {
			v.mu.Unlock()
			return
		}
		v.state.Query = cmd.query
		v.mu.Unlock()
		v.reload(reasonQuery)
	}
}

func (v *List) applyBatch(items []model.UpdateItem) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	out := reconcile.List(v.state.Products, items)
	if out.Changed > 0 {
		v.changedLocked()
	}
	v.mu.Unlock()

	v.metrics.AddMerges(v.kind, out.Changed)

	if out.Reload {
		v.logger.Debug("batch requires reload", "reason", out.Reason, "items", len(items))
		v.reload(out.Reason)
		return
	}
	v.logger.Debug("batch merged",
		"items", len(items),
		"applied", out.Applied,
		"changed", out.Changed,
		"ignored", out.Ignored,
	)
}

func (v *List) reload(reason string) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	query := v.state.Query
	v.state.Loading = true
	v.state.Err = nil
	v.changedLocked()
	v.mu.Unlock()

	v.metrics.IncReloads(v.kind, reason)
	page, err := v.loader.ListOffers(v.ctx, query)

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}

	v.state.Loading = false
	if err != nil {
		v.state.Err = err
		v.metrics.IncQueryErrors(v.kind)
		v.logger.Warn("list load failed", "reason", reason, "error", err)
	} else {
		v.state.Products = page.Data
		v.state.TotalPages = page.TotalPages
		v.state.Reloads++
		v.logger.Debug("list loaded", "reason", reason, "products", len(page.Data), "total_pages", page.TotalPages)
	}
	v.changedLocked()
}
