package view

import (
	"context"
	"log/slog"

	"github.com/partsportal/catalog-sync/internal/model"
	"github.com/partsportal/catalog-sync/internal/reconcile"
)

// Detail is a single product record kept in sync with the stream. It merges
// updates for known providers and never reloads on its own.
type Detail struct {
	*base
	loader DetailLoader
	state  DetailState
}

// NewDetail creates an unmounted detail view for sku.
func NewDetail(loader DetailLoader, sub Subscriber, sku string, logger *slog.Logger, opts ...Option) *Detail {
	if logger == nil {
		logger = slog.Default()
	}
	v := &Detail{
		base:   newBase("detail", sub, logger.With("component", "view", "view", "detail", "sku", sku), opts),
		loader: loader,
		state:  DetailState{SKU: sku},
	}
	v.handle = v.handleCommand
	return v
}

// Mount subscribes to the stream and loads the record.
func (v *Detail) Mount(ctx context.Context) error {
	return v.mount(ctx, command{kind: cmdReload, reason: reasonInitial})
}

// Close detaches the view. Results of loads still in flight are discarded.
func (v *Detail) Close() {
	v.close()
}

// Reload refetches the record.
func (v *Detail) Reload() error {
	return v.send(command{kind: cmdReload, reason: reasonManual})
}

// Snapshot returns a deep copy of the current state.
func (v *Detail) Snapshot() DetailState {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := v.state
	s.Product = v.state.Product.Clone()
	s.Version = v.version
	return s
}

func (v *Detail) handleCommand(cmd command) {
	switch cmd.kind {
	case cmdEvent:
		v.applyBatch(cmd.batch)
	case cmdReload:
		v.reload(cmd.reason)
	}
}

func (v *Detail) applyBatch(items []model.UpdateItem) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed || v.state.Product == nil {
		return
	}

	out := reconcile.Detail(v.state.Product, v.state.SKU, items)
	if out.Changed > 0 {
		v.changedLocked()
		v.metrics.AddMerges(v.kind, out.Changed)
	}
	if out.Applied > 0 || out.Ignored > 0 {
		v.logger.Debug("batch applied",
			"applied", out.Applied,
			"changed", out.Changed,
			"ignored", out.Ignored,
		)
	}
}

func (v *Detail) reload(reason string) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	sku := v.state.SKU
	v.state.Loading = true
	v.state.Err = nil
	v.changedLocked()
	v.mu.Unlock()

	v.metrics.IncReloads(v.kind, reason)
	detail, err := v.loader.GetOffer(v.ctx, sku)

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}

	v.state.Loading = false
	if err != nil {
		v.state.Err = err
		v.metrics.IncQueryErrors(v.kind)
		v.logger.Warn("detail load failed", "reason", reason, "error", err)
	} else {
		v.state.Product = detail
		v.state.Reloads++
		v.logger.Debug("detail loaded", "reason", reason, "offers", len(detail.Offers))
	}
	v.changedLocked()
}
