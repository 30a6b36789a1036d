package models

import "fmt"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListingFilter narrows a listing query. Zero values mean "no constraint";
// all set fields are combined with AND.
type ListingFilter struct {
	Status       string
	Source       string
	PropertyType string
	DealType     string
	MinPrice     *float64
	MaxPrice     *float64
	Rooms        *int
	City         string
	Search       string
}

func (f ListingFilter) Validate() error {
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return fmt.Errorf("min_price %.2f greater than max_price %.2f: %w", *f.MinPrice, *f.MaxPrice, ErrValidation)
	}
	if f.Status != "" && !ListingStatus(f.Status).Valid() {
		return fmt.Errorf("unknown status %q: %w", f.Status, ErrValidation)
	}
	return nil
}

// PropertyFilter narrows a property query; same AND semantics.
type PropertyFilter struct {
	Status       string
	PropertyType string
	DealType     string
	MinPrice     *float64
	MaxPrice     *float64
	Rooms        *int
	City         string
	Featured     *bool
	Search       string
}

func (f PropertyFilter) Validate() error {
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return fmt.Errorf("min_price %.2f greater than max_price %.2f: %w", *f.MinPrice, *f.MaxPrice, ErrValidation)
	}
	if f.Status != "" && !PropertyStatus(f.Status).Valid() {
		return fmt.Errorf("unknown status %q: %w", f.Status, ErrValidation)
	}
	return nil
}

// Page is a 1-indexed page request.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the request to sane bounds so a bad page parameter
// degrades instead of erroring.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// TotalPages is ceil(total/size), never below 1 so an empty result still
// renders as a single empty page.
func TotalPages(total, size int) int {
	if total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

// ListingPage is one page of a listing query.
type ListingPage struct {
	Items      []Listing `json:"items"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}

// PropertyPage is one page of a property query.
type PropertyPage struct {
	Items      []Property `json:"items"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}
