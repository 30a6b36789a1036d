package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"backoffice/models"
	"backoffice/services"
	"backoffice/storage"
)

type testEnvelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func newTestServer(t *testing.T) (http.Handler, storage.Store) {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	handler := NewHandler(services.NewReviewService(store), services.NewPropertyService(store))
	return NewServer("0", handler).Router(), store
}

func seedListing(t *testing.T, store storage.Store, status models.ListingStatus) *models.Listing {
	t.Helper()
	now := time.Now().UTC()
	l := &models.Listing{
		ID:           uuid.New(),
		Title:        "2-room apt",
		Price:        models.Money{Amount: 45000, Currency: "USD"},
		PropertyType: "kvartira",
		DealType:     "prodazh",
		Location:     models.Location{City: "Lviv", Address: "Shevchenka 10"},
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

func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env testEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: non-JSON response %q: %v", method, path, rec.Body.String(), err)
	}
	return rec, env
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestServer(t)
	rec, env := doRequest(t, router, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK || env.Status != "success" {
		t.Fatalf("health: code %d, status %q", rec.Code, env.Status)
	}
}

func TestListingLifecycleEndpoints(t *testing.T) {
	router, store := newTestServer(t)
	l := seedListing(t, store, models.ListingNew)

	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/listings?status=new", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: code %d, message %q", rec.Code, env.Message)
	}
	var page models.ListingPage
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 {
		t.Fatalf("expected one listing, got total=%d items=%d", page.Total, len(page.Items))
	}

	rec, env = doRequest(t, router, http.MethodGet, "/api/v1/listings/"+l.ID.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: code %d, message %q", rec.Code, env.Message)
	}

	rec, env = doRequest(t, router, http.MethodPatch, "/api/v1/listings/"+l.ID.String()+"/status",
		map[string]string{"status": "processed"})
	if rec.Code != http.StatusOK {
		t.Fatalf("advance: code %d, message %q", rec.Code, env.Message)
	}
	var updated models.Listing
	if err := json.Unmarshal(env.Data, &updated); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if updated.Status != models.ListingProcessed {
		t.Fatalf("status = %q, want processed", updated.Status)
	}

	// Skipping a step is a conflict, not a server error.
	rec, env = doRequest(t, router, http.MethodPatch, "/api/v1/listings/"+l.ID.String()+"/status",
		map[string]string{"status": "converted"})
	if rec.Code != http.StatusConflict || env.Status != "error" {
		t.Fatalf("skip: code %d, status %q", rec.Code, env.Status)
	}

	rec, env = doRequest(t, router, http.MethodDelete, "/api/v1/listings/"+l.ID.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: code %d, message %q", rec.Code, env.Message)
	}
	rec, _ = doRequest(t, router, http.MethodDelete, "/api/v1/listings/"+l.ID.String(), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: code %d, want 404", rec.Code)
	}
}

func TestListingBadRequests(t *testing.T) {
	router, _ := newTestServer(t)

	rec, _ := doRequest(t, router, http.MethodGet, "/api/v1/listings/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id: code %d, want 400", rec.Code)
	}

	rec, _ = doRequest(t, router, http.MethodGet, "/api/v1/listings?min_price=500000&max_price=100000", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("inverted bounds: code %d, want 400", rec.Code)
	}

	rec, _ = doRequest(t, router, http.MethodGet, "/api/v1/listings/"+uuid.NewString(), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing listing: code %d, want 404", rec.Code)
	}
}

func TestConvertEndpoint(t *testing.T) {
	router, store := newTestServer(t)
	l := seedListing(t, store, models.ListingApproved)

	rec, env := doRequest(t, router, http.MethodPost, "/api/v1/listings/"+l.ID.String()+"/convert", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("convert: code %d, message %q", rec.Code, env.Message)
	}
	var prop models.Property
	if err := json.Unmarshal(env.Data, &prop); err != nil {
		t.Fatalf("decode property: %v", err)
	}
	if prop.DealType != models.DealSale || prop.PropertyType != models.TypeApartment {
		t.Fatalf("normalized types = %q / %q", prop.DealType, prop.PropertyType)
	}
	if prop.SourceListingID == nil || *prop.SourceListingID != l.ID {
		t.Fatal("converted property must reference the listing")
	}

	rec, _ = doRequest(t, router, http.MethodPost, "/api/v1/listings/"+l.ID.String()+"/convert", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second convert: code %d, want 409", rec.Code)
	}
}

func TestListingStatsEndpoint(t *testing.T) {
	router, store := newTestServer(t)
	seedListing(t, store, models.ListingNew)
	seedListing(t, store, models.ListingNew)
	seedListing(t, store, models.ListingApproved)

	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/listings/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: code %d, message %q", rec.Code, env.Message)
	}
	var stats map[models.ListingStatus]int
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats[models.ListingNew] != 2 || stats[models.ListingApproved] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}
}

func TestPropertyEndpoints(t *testing.T) {
	router, _ := newTestServer(t)

	rec, env := doRequest(t, router, http.MethodPost, "/api/v1/properties", models.Property{
		Title:        "Office on Rynok Square",
		Price:        models.Money{Amount: 120000, Currency: "USD"},
		PropertyType: models.TypeCommercial,
		DealType:     models.DealSale,
		Location:     models.Location{City: "Lviv"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: code %d, message %q", rec.Code, env.Message)
	}
	var created models.Property
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode property: %v", err)
	}

	rec, _ = doRequest(t, router, http.MethodPost, "/api/v1/properties", models.Property{
		Price: models.Money{Amount: 100, Currency: "USD"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("create without title: code %d, want 400", rec.Code)
	}

	path := fmt.Sprintf("/api/v1/properties/%s/featured", created.ID)
	rec, env = doRequest(t, router, http.MethodPatch, path, map[string]bool{"featured": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("feature: code %d, message %q", rec.Code, env.Message)
	}

	rec, env = doRequest(t, router, http.MethodGet, "/api/v1/properties?featured=true", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list featured: code %d", rec.Code)
	}
	var page models.PropertyPage
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("expected one featured property, got %d", page.Total)
	}

	rec, _ = doRequest(t, router, http.MethodDelete, "/api/v1/properties/"+created.ID.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: code %d", rec.Code)
	}
}
