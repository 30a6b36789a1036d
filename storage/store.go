package storage

import (
	"context"

	"github.com/google/uuid"
	"backoffice/models"
)

// ConvertFunc builds the Property that materializes a listing. It runs
// inside the conversion transaction; returning an error aborts the whole
// conversion and leaves the listing untouched.
type ConvertFunc func(models.Listing) (*models.Property, error)

// Store is the single owner of persisted state. Reads never mutate;
// status writes are conditional on the expected current status so two
// concurrent commands cannot both win.
type Store interface {
	InsertListing(ctx context.Context, l *models.Listing) error
	GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	ListListings(ctx context.Context, f models.ListingFilter, p models.Page) (*models.ListingPage, error)
	// UpdateListingStatus is a compare-and-set: the write only happens if
	// the stored status still equals from. On a lost race it returns
	// models.ErrInvalidTransition; status is the only column it touches.
	UpdateListingStatus(ctx context.Context, id uuid.UUID, from, to models.ListingStatus) (*models.Listing, error)
	DeleteListing(ctx context.Context, id uuid.UUID) error
	CountListingsByStatus(ctx context.Context) (map[models.ListingStatus]int, error)
	// ConvertListing atomically moves an approved listing to converted and
	// inserts the Property produced by build. Both writes commit together
	// or not at all; a listing in any other state fails with
	// models.ErrInvalidState.
	ConvertListing(ctx context.Context, id uuid.UUID, build ConvertFunc) (*models.Property, error)

	InsertProperty(ctx context.Context, p *models.Property) error
	GetProperty(ctx context.Context, id uuid.UUID) (*models.Property, error)
	ListProperties(ctx context.Context, f models.PropertyFilter, p models.Page) (*models.PropertyPage, error)
	UpdateProperty(ctx context.Context, id uuid.UUID, upd models.PropertyUpdate) (*models.Property, error)
	DeleteProperty(ctx context.Context, id uuid.UUID) error

	Close() error
}
