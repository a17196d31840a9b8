package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/partsportal/catalog-sync/internal/model"
	"github.com/partsportal/catalog-sync/internal/view"
)

// renderer prints view snapshots with Chilean number formatting.
type renderer struct {
	w io.Writer
	p *message.Printer
}

func newRenderer(w io.Writer) *renderer {
	return &renderer{
		w: w,
		p: message.NewPrinter(language.MustParse("es-CL")),
	}
}

// price formats an amount. CLP has no minor unit and is shown as "$12.990".
func (r *renderer) price(v decimal.Decimal, currency string) string {
	if currency == "" || currency == "CLP" {
		return "$" + r.p.Sprintf("%d", v.Round(0).IntPart())
	}
	f := v.InexactFloat64()
	return r.p.Sprintf("%v", number.Decimal(f, number.MinFractionDigits(2), number.MaxFractionDigits(2))) + " " + currency
}

func (r *renderer) qty(n int) string {
	return r.p.Sprintf("%d", n)
}

func (r *renderer) status(loading bool, err error) {
	if loading {
		fmt.Fprintln(r.w, "loading...")
	}
	if err != nil {
		fmt.Fprintf(r.w, "error: %v\n", err)
	}
}

func (r *renderer) list(s view.ListState, stream string) {
	page := s.Query.Page
	if page == 0 {
		page = 1
	}
	fmt.Fprintf(r.w, "page %d/%d  products %d  stream %s\n", page, s.TotalPages, len(s.Products), stream)
	r.status(s.Loading, s.Err)

	tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SKU\tNAME\tBRAND\tOFFERS\tBEST PRICE\tSTOCK")
	for _, p := range s.Products {
		best, stock := summarize(p.Offers)
		bestStr := "-"
		if best != nil {
			bestStr = r.price(best.PriceValue, best.Currency)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			p.SKU, p.Name, p.PartBrand, len(p.Offers), bestStr, r.qty(stock))
	}
	tw.Flush()
}

func (r *renderer) detail(s view.DetailState, stream string) {
	fmt.Fprintf(r.w, "sku %s  stream %s\n", s.SKU, stream)
	r.status(s.Loading, s.Err)
	if s.Product == nil {
		return
	}

	p := s.Product
	fmt.Fprintf(r.w, "%s (%s)\n", p.Name, p.PartBrand)
	if len(p.VehicleFits) > 0 {
		fits := make([]string, 0, len(p.VehicleFits))
		for _, f := range p.VehicleFits {
			fits = append(fits, fmt.Sprintf("%s %s %d-%d", f.VehicleMake, f.VehicleModel, f.YearFrom, f.YearTo))
		}
		fmt.Fprintf(r.w, "fits: %s\n", strings.Join(fits, ", "))
	}

	tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tPRICE\tSTOCK\tSTATUS\tDISPATCH")
	for _, o := range p.Offers {
		eta := "-"
		if o.DispatchETA != nil {
			eta = *o.DispatchETA
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			providerName(o.Offer), r.price(o.PriceValue, o.Currency), r.qty(o.StockQty), o.StockStatus, eta)
	}
	tw.Flush()
}

// summarize returns the cheapest offer and the total stock.
func summarize(offers []model.Offer) (best *model.Offer, stock int) {
	for i := range offers {
		o := &offers[i]
		stock += o.StockQty
		if best == nil || o.PriceValue.LessThan(best.PriceValue) {
			best = o
		}
	}
	return best, stock
}

func providerName(o model.Offer) string {
	if o.Provider != nil && o.Provider.Name != "" {
		return o.Provider.Name
	}
	return fmt.Sprintf("provider #%d", o.ProviderID)
}
