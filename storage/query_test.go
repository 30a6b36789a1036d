package storage

import (
	"testing"

	"backoffice/models"
)

func TestListingFilterSQLEmpty(t *testing.T) {
	where, args := listingFilterSQL(models.ListingFilter{})
	if where != "" || args != nil {
		t.Fatalf("empty filter must produce no WHERE, got %q / %v", where, args)
	}
}

func TestListingFilterSQLConjunction(t *testing.T) {
	min, max := 400000.0, 600000.0
	rooms := 2
	f := models.ListingFilter{
		Status:   "approved",
		Source:   "olx",
		MinPrice: &min,
		MaxPrice: &max,
		Rooms:    &rooms,
		City:     "Lviv",
	}
	where, args := listingFilterSQL(f)

	want := " WHERE status = ? AND source_platform = ? AND price_amount >= ? AND price_amount <= ? AND rooms = ? AND LOWER(city) = ?"
	if where != want {
		t.Fatalf("unexpected WHERE:\n got %q\nwant %q", where, want)
	}
	if len(args) != 6 {
		t.Fatalf("expected 6 args, got %d: %v", len(args), args)
	}
	if args[5] != "lviv" {
		t.Fatalf("city must be lowercased, got %v", args[5])
	}
}

func TestListingFilterSQLSearch(t *testing.T) {
	where, args := listingFilterSQL(models.ListingFilter{Search: "Shevchenka"})
	want := " WHERE (LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(city) LIKE ? OR LOWER(address) LIKE ?)"
	if where != want {
		t.Fatalf("unexpected WHERE: %q", where)
	}
	if len(args) != 4 {
		t.Fatalf("expected 4 args, got %d", len(args))
	}
	for _, a := range args {
		if a != "%shevchenka%" {
			t.Fatalf("expected lowercased substring pattern, got %v", a)
		}
	}
}

func TestPropertyFilterSQLFeatured(t *testing.T) {
	featured := true
	where, args := propertyFilterSQL(models.PropertyFilter{Status: "active", Featured: &featured})
	want := " WHERE status = ? AND is_featured = ?"
	if where != want {
		t.Fatalf("unexpected WHERE: %q", where)
	}
	if len(args) != 2 || args[1] != true {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestToPositional(t *testing.T) {
	got := toPositional("SELECT * FROM listings WHERE status = ? AND rooms = ? LIMIT ? OFFSET ?")
	want := "SELECT * FROM listings WHERE status = $1 AND rooms = $2 LIMIT $3 OFFSET $4"
	if got != want {
		t.Fatalf("toPositional:\n got %q\nwant %q", got, want)
	}
	if toPositional("no placeholders") != "no placeholders" {
		t.Fatal("query without placeholders must pass through")
	}
}
