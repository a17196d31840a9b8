package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/partsportal/catalog-sync/internal/model"
)

// ListOffers fetches one page of products. Zero-valued query fields are omitted.
func (c *Client) ListOffers(ctx context.Context, q model.ListQuery) (*ListPage, error) {
	query := url.Values{}

	if q.Page > 0 {
		query.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Q != "" {
		query.Set("q", q.Q)
	}
	if q.Brand != "" {
		query.Set("brand", q.Brand)
	}
	if q.Make != "" {
		query.Set("make", q.Make)
	}
	if q.Model != "" {
		query.Set("model", q.Model)
	}
	if q.Year > 0 {
		query.Set("year", strconv.Itoa(q.Year))
	}

	var page ListPage
	if err := c.get(ctx, "/offers", query, "offer list", &page); err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	if page.Data == nil {
		page.Data = []model.Product{}
	}

	return &page, nil
}

// GetOffer fetches the detail record for sku. Concurrent calls for the same
// SKU share one request; each caller receives its own copy. A caller whose
// ctx ends returns early without failing the others, and the shared request
// is cancelled once no caller is left waiting for it.
func (c *Client) GetOffer(ctx context.Context, sku string) (*model.ProductDetail, error) {
	f := c.joinDetail(ctx, sku)

	ch := c.detail.DoChan(sku, func() (any, error) {
		defer c.finishDetail(sku, f)

		var detail model.ProductDetail
		if err := c.get(f.ctx, "/offers/"+url.PathEscape(sku), nil, "offer "+sku, &detail); err != nil {
			return nil, err
		}
		return &detail, nil
	})

	select {
	case <-ctx.Done():
		c.leaveDetail(sku, f, true)
		return nil, ctx.Err()
	case res := <-ch:
		c.leaveDetail(sku, f, false)
		if res.Err != nil {
			return nil, fmt.Errorf("get offer %s: %w", sku, res.Err)
		}
		if res.Shared {
			c.logger.Debug("offer detail request shared", "sku", sku)
		}
		return res.Val.(*model.ProductDetail).Clone(), nil
	}
}

// joinDetail registers a caller on the flight for sku, creating it if needed.
// The flight context keeps ctx's values but not its cancellation.
func (c *Client) joinDetail(ctx context.Context, sku string) *detailFlight {
	c.waitMu.Lock()
	defer c.waitMu.Unlock()

	f := c.waiting[sku]
	if f == nil {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &detailFlight{ctx: fctx, cancel: cancel}
		c.waiting[sku] = f
	}
	f.callers++
	return f
}

// leaveDetail drops a caller. The last one out cancels the flight; if it gave
// up before a result arrived, the SKU is forgotten so the next call starts a
// fresh request instead of joining the cancelled one.
func (c *Client) leaveDetail(sku string, f *detailFlight, abandoned bool) {
	c.waitMu.Lock()
	defer c.waitMu.Unlock()

	f.callers--
	if f.callers > 0 {
		return
	}
	f.cancel()
	if c.waiting[sku] == f {
		delete(c.waiting, sku)
		if abandoned {
			c.detail.Forget(sku)
			c.logger.Debug("offer detail request abandoned", "sku", sku)
		}
	}
}

// finishDetail unlinks a completed flight so later calls start a new one.
func (c *Client) finishDetail(sku string, f *detailFlight) {
	c.waitMu.Lock()
	defer c.waitMu.Unlock()

	if c.waiting[sku] == f {
		delete(c.waiting, sku)
	}
}
