package models

import (
	"time"

	"github.com/google/uuid"
)

// Property is a canonical, CRM-owned real-estate unit. It carries its own
// identity; the optional SourceListingID is an audit back-reference to the
// listing it was converted from and is never used for lookups beyond that.
type Property struct {
	ID              uuid.UUID      `json:"id" db:"id"`
	Title           string         `json:"title" db:"title"`
	Description     string         `json:"description,omitempty" db:"description"`
	Price           Money          `json:"price"`
	Area            *float64       `json:"area,omitempty" db:"area"`
	Rooms           *int           `json:"rooms,omitempty" db:"rooms"`
	Floor           *int           `json:"floor,omitempty" db:"floor"`
	TotalFloors     *int           `json:"total_floors,omitempty" db:"total_floors"`
	PropertyType    PropertyType   `json:"property_type" db:"property_type"`
	DealType        DealType       `json:"deal_type" db:"deal_type"`
	Location        Location       `json:"location"`
	Images          []string       `json:"images" db:"images"`
	Features        []string       `json:"features" db:"features"`
	Status          PropertyStatus `json:"status" db:"status"`
	IsFeatured      bool           `json:"is_featured" db:"is_featured"`
	OwnerID         *uuid.UUID     `json:"owner_id,omitempty" db:"owner_id"`
	SourceListingID *uuid.UUID     `json:"source_listing_id,omitempty" db:"source_listing_id"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
}

// PropertyUpdate is a partial update; nil fields are left untouched.
type PropertyUpdate struct {
	Title        *string         `json:"title,omitempty"`
	Description  *string         `json:"description,omitempty"`
	Price        *Money          `json:"price,omitempty"`
	Area         *float64        `json:"area,omitempty"`
	Rooms        *int            `json:"rooms,omitempty"`
	Floor        *int            `json:"floor,omitempty"`
	TotalFloors  *int            `json:"total_floors,omitempty"`
	PropertyType *PropertyType   `json:"property_type,omitempty"`
	DealType     *DealType       `json:"deal_type,omitempty"`
	Location     *Location       `json:"location,omitempty"`
	Images       []string        `json:"images,omitempty"`
	Features     []string        `json:"features,omitempty"`
	Status       *PropertyStatus `json:"status,omitempty"`
	IsFeatured   *bool           `json:"is_featured,omitempty"`
	OwnerID      *uuid.UUID      `json:"owner_id,omitempty"`
}
