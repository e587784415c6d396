package domain

import "errors"

// ErrIncomplete marks a run that produced a valid snapshot but is missing
// data: permanent misses, failed categories, or an interrupt mid-fetch. The
// process maps it to its own exit code, distinct from fatal failures.
var ErrIncomplete = errors.New("snapshot incomplete")

// FetchReport accumulates everything that went wrong without aborting the run.
type FetchReport struct {
	FailedCategories []int `json:"failed_categories,omitempty"`
	MissedProducts   []int `json:"missed_products,omitempty"`
	Interrupted      bool  `json:"interrupted,omitempty"`

	CategoriesFetched int `json:"categories_fetched"`
	ProductsFetched   int `json:"products_fetched"`
}

// Complete reports whether the snapshot covers everything that was asked for.
func (r *FetchReport) Complete() bool {
	return len(r.FailedCategories) == 0 && len(r.MissedProducts) == 0 && !r.Interrupted
}
