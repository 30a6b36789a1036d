package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"backoffice/models"
	"backoffice/storage"
)

// PropertyService is the CRM-side CRUD surface over canonical properties,
// covering both converted listings and manually entered inventory.
type PropertyService struct {
	store storage.Store
}

func NewPropertyService(store storage.Store) *PropertyService {
	return &PropertyService{store: store}
}

func (s *PropertyService) List(ctx context.Context, f models.PropertyFilter, p models.Page) (*models.PropertyPage, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return s.store.ListProperties(ctx, f, p)
}

func (s *PropertyService) Get(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	return s.store.GetProperty(ctx, id)
}

// Create inserts a manually entered property. Title and price are the
// minimum a usable CRM record needs.
func (s *PropertyService) Create(ctx context.Context, p *models.Property) (*models.Property, error) {
	if p.Title == "" {
		return nil, fmt.Errorf("property title is required: %w", models.ErrValidation)
	}
	if p.Price.Amount < 0 {
		return nil, fmt.Errorf("negative price: %w", models.ErrValidation)
	}
	if p.Status == "" {
		p.Status = models.PropertyActive
	}
	if !p.Status.Valid() {
		return nil, fmt.Errorf("unknown property status %q: %w", p.Status, models.ErrValidation)
	}

	p.ID = uuid.New()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.SourceListingID = nil // manual entries have no scraped origin

	if err := s.store.InsertProperty(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PropertyService) Update(ctx context.Context, id uuid.UUID, upd models.PropertyUpdate) (*models.Property, error) {
	if upd.Status != nil && !upd.Status.Valid() {
		return nil, fmt.Errorf("unknown property status %q: %w", *upd.Status, models.ErrValidation)
	}
	if upd.Price != nil && upd.Price.Amount < 0 {
		return nil, fmt.Errorf("negative price: %w", models.ErrValidation)
	}
	return s.store.UpdateProperty(ctx, id, upd)
}

func (s *PropertyService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteProperty(ctx, id)
}

// SetFeatured toggles the listing's placement on the featured shelf.
func (s *PropertyService) SetFeatured(ctx context.Context, id uuid.UUID, featured bool) (*models.Property, error) {
	return s.store.UpdateProperty(ctx, id, models.PropertyUpdate{IsFeatured: &featured})
}
