package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"backoffice/models"
	"backoffice/storage"
)

// ReviewService drives the listing review workflow: querying the queue,
// advancing statuses, deleting rejects and converting approved listings
// into CRM properties. Commands return the updated entity; whether to
// re-query afterwards is the caller's business.
type ReviewService struct {
	store storage.Store
}

func NewReviewService(store storage.Store) *ReviewService {
	return &ReviewService{store: store}
}

func (s *ReviewService) List(ctx context.Context, f models.ListingFilter, p models.Page) (*models.ListingPage, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return s.store.ListListings(ctx, f, p)
}

func (s *ReviewService) Get(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	return s.store.GetListing(ctx, id)
}

// Advance moves a listing one step forward in the review pipeline. The
// target must be the immediate successor of the current status; the write
// itself is conditional on that status so a concurrent advance loses
// cleanly instead of overwriting.
func (s *ReviewService) Advance(ctx context.Context, id uuid.UUID, target models.ListingStatus) (*models.Listing, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", target, models.ErrValidation)
	}

	cur, err := s.store.GetListing(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.CanAdvance(cur.Status, target) {
		return nil, fmt.Errorf("listing %s: %s -> %s: %w", id, cur.Status, target, models.ErrInvalidTransition)
	}

	return s.store.UpdateListingStatus(ctx, id, cur.Status, target)
}

// Delete removes a listing at any status. Deleting an id that is already
// gone reports ErrNotFound so the caller can tell the two cases apart.
func (s *ReviewService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteListing(ctx, id)
}

// Convert materializes a Property from an approved listing and marks the
// listing converted. The store runs both writes in one transaction; a
// listing in any other state, converted included, fails with
// ErrInvalidState, which is what makes conversion happen at most once.
func (s *ReviewService) Convert(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	return s.store.ConvertListing(ctx, id, buildProperty)
}

// Stats returns the number of listings per review status.
func (s *ReviewService) Stats(ctx context.Context) (map[models.ListingStatus]int, error) {
	return s.store.CountListingsByStatus(ctx)
}

// buildProperty maps a listing onto a new canonical Property. Physical
// attributes copy 1:1; the deal type and property type must normalize to
// the canonical vocabulary or the whole conversion fails.
func buildProperty(l models.Listing) (*models.Property, error) {
	dealType, ok := models.NormalizeDealType(l.DealType)
	if !ok {
		return nil, fmt.Errorf("listing %s: unrecognized deal type %q: %w", l.ID, l.DealType, models.ErrValidation)
	}
	propertyType, ok := models.NormalizePropertyType(l.PropertyType)
	if !ok {
		return nil, fmt.Errorf("listing %s: unrecognized property type %q: %w", l.ID, l.PropertyType, models.ErrValidation)
	}

	now := time.Now().UTC()
	sourceID := l.ID
	return &models.Property{
		ID:              uuid.New(),
		Title:           l.Title,
		Description:     l.Description,
		Price:           l.Price,
		Area:            l.Area,
		Rooms:           l.Rooms,
		Floor:           l.Floor,
		TotalFloors:     l.TotalFloors,
		PropertyType:    propertyType,
		DealType:        dealType,
		Location:        l.Location,
		Images:          l.Images,
		Features:        l.Features,
		Status:          models.PropertyActive,
		SourceListingID: &sourceID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}
