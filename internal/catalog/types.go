package catalog

import "github.com/partsportal/catalog-sync/internal/model"

// ListPage is one page of the paged offer listing.
type ListPage struct {
	Data       []model.Product `json:"data"`
	TotalPages int             `json:"totalPages"`
}
