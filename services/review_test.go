package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"backoffice/models"
	"backoffice/storage"
)

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func seedListing(t *testing.T, store storage.Store, status models.ListingStatus) *models.Listing {
	t.Helper()
	now := time.Now().UTC()
	l := &models.Listing{
		ID:           uuid.New(),
		Title:        "2-room apt",
		Price:        models.Money{Amount: 45000, Currency: "USD"},
		Area:         floatPtr(62.5),
		Rooms:        intPtr(2),
		PropertyType: "kvartira",
		DealType:     "prodazh",
		Location:     models.Location{City: "Lviv", Address: "Shevchenka 10"},
		Images:       []string{"https://img.example/a.jpg"},
		Features:     []string{"balcony"},
		Source:       models.Source{Platform: "olx"},
		Status:       status,
		CreatedAt:    now,
		ParsedAt:     now,
	}
	if err := store.InsertListing(context.Background(), l); err != nil {
		t.Fatalf("seed listing: %v", err)
	}
	return l
}

func TestAdvanceChain(t *testing.T) {
	store := newTestStore(t)
	svc := NewReviewService(store)
	ctx := context.Background()

	l := seedListing(t, store, models.ListingNew)

	for _, target := range []models.ListingStatus{models.ListingProcessed, models.ListingApproved} {
		updated, err := svc.Advance(ctx, l.ID, target)
		if err != nil {
			t.Fatalf("advance to %s failed: %v", target, err)
		}
		if updated.Status != target {
			t.Fatalf("status = %q, want %q", updated.Status, target)
		}
	}
}

func TestAdvanceSkipRejected(t *testing.T) {
	store := newTestStore(t)
	svc := NewReviewService(store)
	ctx := context.Background()

	l := seedListing(t, store, models.ListingNew)

	_, err := svc.Advance(ctx, l.ID, models.ListingApproved)
	if !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for new -> approved, got %v", err)
	}

	got, err := svc.Get(ctx, l.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != models.ListingNew {
		t.Fatalf("rejected advance must leave status unchanged, got %q", got.Status)
	}
}

func TestAdvanceRevertRejected(t *testing.T) {
	store := newTestStore(t)
	svc := NewReviewService(store)
	ctx := context.Background()

	l := seedListing(t, store, models.ListingApproved)

	_, err := svc.Advance(ctx, l.ID, models.ListingProcessed)
	if !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for approved -> processed, got %v", err)
	}
}

func TestAdvanceErrors(t *testing.T) {
	store := newTestStore(t)
	svc := NewReviewService(store)
	ctx := context.Background()

	_, err := svc.Advance(ctx, uuid.New(), models.ListingProcessed)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	l := seedListing(t, store, models.ListingNew)
	_, err = svc.Advance(ctx, l.ID, "archived")
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown target, got %v", err)
	}
}

func TestConvertFieldMapping(t *testing.T) {
	store := newTestStore(t)
	svc := NewReviewService(store)
	ctx := context.Background()

	l := seedListing(t, store, models.ListingApproved)

	prop, err := svc.Convert(ctx, l.ID)
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	if prop.Title != "2-room apt" {
		t.Fatalf("title = %q", prop.Title)
	}
	if prop.Price.Amount != 45000 || prop.Price.Currency != "USD" {
		t.Fatalf("price = %+v", prop.Price)
	}
	if prop.Area == nil || *prop.Area != 62.5 {
		t.Fatalf("area = %v", prop.Area)
	}
	if prop.Rooms == nil || *prop.Rooms != 2 {
		t.Fatalf("rooms = %v", prop.Rooms)
	}
	if prop.DealType != models.DealSale {
		t.Fatalf("deal type = %q, want sale", prop.DealType)
	}
	if prop.PropertyType != models.TypeApartment {
		t.Fatalf("property type = %q, want apartment", prop.PropertyType)
	}
	if prop.Location.City != "Lviv" || prop.Location.Address != "Shevchenka 10" {
		t.Fatalf("location = %+v", prop.Location)
	}
	if prop.Status != models.PropertyActive {
		t.Fatalf("property status = %q, want active", prop.Status)
	}
	if prop.ID == l.ID {
		t.Fatal("property must get its own identity")
	}
	if prop.SourceListingID == nil || *prop.SourceListingID != l.ID {
		t.Fatal("property must back-reference the listing")
	}

	got, err := svc.Get(ctx, l.ID)
	if err != nil {
		t.Fatalf("get listing failed: %v", err)
	}
	if got.Status != models.ListingConverted {
		t.Fatalf("listing status = %q, want converted", got.Status)
	}
}

func TestConvertTwice(t *testing.T) {
	store := newTestStore(t)
	svc := NewReviewService(store)
	ctx := context.Background()

	l := seedListing(t, store, models.ListingApproved)

	if _, err := svc.Convert(ctx, l.ID); err != nil {
		t.Fatalf("first convert failed: %v", err)
	}
	_, err := svc.Convert(ctx, l.ID)
	if !errors.Is(err, models.ErrInvalidState) {
		t.Fatalf("second convert must fail with ErrInvalidState, got %v", err)
	}
}

func TestConvertConcurrent(t *testing.T) {
	store := newTestStore(t)
	svc := NewReviewService(store)
	ctx := context.Background()

	l := seedListing(t, store, models.ListingApproved)

	const workers = 4
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Convert(ctx, l.ID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		if !errors.Is(err, models.ErrInvalidState) {
			t.Fatalf("loser must fail with ErrInvalidState, got %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("exactly one convert must win, got %d", successes)
	}

	page, err := store.ListProperties(ctx, models.PropertyFilter{}, models.Page{})
	if err != nil {
		t.Fatalf("list properties failed: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("expected exactly one property, got %d", page.Total)
	}
}

func TestConvertUnknownVocabulary(t *testing.T) {
	store := newTestStore(t)
	svc := NewReviewService(store)
	ctx := context.Background()

	l := seedListing(t, store, models.ListingApproved)
	now := time.Now().UTC()
	bad := &models.Listing{
		ID:           uuid.New(),
		Title:        "mystery deal",
		Price:        models.Money{Amount: 1000, Currency: "USD"},
		PropertyType: "kvartira",
		DealType:     "exchange",
		Location:     models.Location{City: "Lviv"},
		Source:       models.Source{Platform: "olx"},
		Status:       models.ListingApproved,
		CreatedAt:    now,
		ParsedAt:     now,
	}
	if err := store.InsertListing(ctx, bad); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	_, err := svc.Convert(ctx, bad.ID)
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("unknown deal type must fail with ErrValidation, got %v", err)
	}

	got, err := svc.Get(ctx, bad.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != models.ListingApproved {
		t.Fatalf("failed convert must leave status approved, got %q", got.Status)
	}

	// The valid listing is unaffected and still converts.
	if _, err := svc.Convert(ctx, l.ID); err != nil {
		t.Fatalf("convert of valid listing failed: %v", err)
	}
}

func TestDeleteSignal(t *testing.T) {
	store := newTestStore(t)
	svc := NewReviewService(store)
	ctx := context.Background()

	l := seedListing(t, store, models.ListingConverted)

	if err := svc.Delete(ctx, l.ID); err != nil {
		t.Fatalf("first delete failed: %v", err)
	}
	err := svc.Delete(ctx, l.ID)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("second delete must report ErrNotFound, got %v", err)
	}
}

func TestListValidatesFilter(t *testing.T) {
	store := newTestStore(t)
	svc := NewReviewService(store)

	_, err := svc.List(context.Background(), models.ListingFilter{
		MinPrice: floatPtr(900000),
		MaxPrice: floatPtr(100000),
	}, models.Page{})
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("inverted bounds must fail with ErrValidation, got %v", err)
	}
}
