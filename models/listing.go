package models

import (
	"time"

	"github.com/google/uuid"
)

// Money is a price with its currency as reported by the source.
type Money struct {
	Amount   float64 `json:"amount" db:"price_amount"`
	Currency string  `json:"currency" db:"price_currency"`
}

// Location is a city plus whatever address detail the source exposed.
type Location struct {
	City    string   `json:"city" db:"city"`
	Address string   `json:"address,omitempty" db:"address"`
	Lat     *float64 `json:"lat,omitempty" db:"lat"`
	Lng     *float64 `json:"lng,omitempty" db:"lng"`
}

// Contact is the seller contact block scraped from the ad, if any.
type Contact struct {
	Name  string `json:"name,omitempty" db:"contact_name"`
	Phone string `json:"phone,omitempty" db:"contact_phone"`
}

// Source identifies where a listing was scraped from.
type Source struct {
	Platform   string `json:"platform" db:"source_platform"` // olx, ria, dom_ria, m2bomber
	URL        string `json:"url,omitempty" db:"source_url"`
	ExternalID string `json:"external_id,omitempty" db:"source_external_id"`
}

// Listing is an externally scraped, unverified real-estate ad moving
// through the review pipeline. PropertyType and DealType hold canonical
// values when the source vocabulary was recognized at ingest and the raw
// value otherwise; conversion refuses anything it cannot normalize.
type Listing struct {
	ID           uuid.UUID     `json:"id" db:"id"`
	Title        string        `json:"title" db:"title"`
	Description  string        `json:"description,omitempty" db:"description"`
	Price        Money         `json:"price"`
	Area         *float64      `json:"area,omitempty" db:"area"`
	Rooms        *int          `json:"rooms,omitempty" db:"rooms"`
	Floor        *int          `json:"floor,omitempty" db:"floor"`
	TotalFloors  *int          `json:"total_floors,omitempty" db:"total_floors"`
	PropertyType string        `json:"property_type" db:"property_type"`
	DealType     string        `json:"deal_type" db:"deal_type"`
	Location     Location      `json:"location"`
	Images       []string      `json:"images" db:"images"`
	Features     []string      `json:"features" db:"features"`
	Contact      Contact       `json:"contact_info"`
	Source       Source        `json:"source"`
	Status       ListingStatus `json:"status" db:"status"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	ParsedAt     time.Time     `json:"parsed_at" db:"parsed_at"`
}
