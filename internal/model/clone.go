package model

// Clone returns a deep copy of the product.
func (p Product) Clone() Product {
	out := p
	out.Offers = cloneOffers(p.Offers)
	if p.VehicleFits != nil {
		out.VehicleFits = append([]VehicleFit(nil), p.VehicleFits...)
	}
	return out
}

// CloneProducts returns a deep copy of a product slice.
func CloneProducts(products []Product) []Product {
	if products == nil {
		return nil
	}
	out := make([]Product, len(products))
	for i := range products {
		out[i] = products[i].Clone()
	}
	return out
}

// Clone returns a deep copy of the detail record.
func (d *ProductDetail) Clone() *ProductDetail {
	if d == nil {
		return nil
	}
	out := *d
	if d.WeightValue != nil {
		w := *d.WeightValue
		out.WeightValue = &w
	}
	if d.Specs != nil {
		out.Specs = make(map[string]any, len(d.Specs))
		for k, v := range d.Specs {
			out.Specs[k] = v
		}
	}
	if d.Offers != nil {
		out.Offers = make([]OfferDetail, len(d.Offers))
		for i, o := range d.Offers {
			out.Offers[i] = o
			out.Offers[i].Offer = o.Offer.Clone()
			if o.DispatchETA != nil {
				eta := *o.DispatchETA
				out.Offers[i].DispatchETA = &eta
			}
		}
	}
	if d.VehicleFits != nil {
		out.VehicleFits = append([]VehicleFit(nil), d.VehicleFits...)
	}
	if d.Images != nil {
		out.Images = append([]Image(nil), d.Images...)
	}
	return &out
}

// Clone returns a deep copy of the offer.
func (o Offer) Clone() Offer {
	out := o
	if o.Provider != nil {
		p := *o.Provider
		out.Provider = &p
	}
	return out
}

func cloneOffers(offers []Offer) []Offer {
	if offers == nil {
		return nil
	}
	out := make([]Offer, len(offers))
	for i := range offers {
		out[i] = offers[i].Clone()
	}
	return out
}
