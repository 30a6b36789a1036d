package ingest

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"backoffice/config"
	"backoffice/models"
)

// ScrapedListingDTO is the wire shape scrapers publish. Vocabulary fields
// arrive in whatever form the source site uses.
type ScrapedListingDTO struct {
	ExternalID   string   `json:"external_id"`
	URL          string   `json:"url"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Price        MoneyDTO `json:"price"`
	Area         *float64 `json:"area"`
	Rooms        *int     `json:"rooms"`
	Floor        *int     `json:"floor"`
	TotalFloors  *int     `json:"total_floors"`
	PropertyType string   `json:"property_type"`
	DealType     string   `json:"deal_type"`
	City         string   `json:"city"`
	Address      string   `json:"address"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	Images       []string `json:"images"`
	Features     []string `json:"features"`
	Contact      struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	} `json:"contact"`
	ParsedAt time.Time `json:"parsed_at"`
}

type MoneyDTO struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// ToListing maps a scraped payload onto a new review-queue listing. The
// per-source alias table gets first shot at the vocabulary fields, then
// the shared normalization tables; a value neither recognizes is stored
// raw so the review UI shows exactly what the site said. Conversion is
// where unknown vocabulary becomes a hard failure.
func (d ScrapedListingDTO) ToListing(source *config.SourceConfig) *models.Listing {
	now := time.Now().UTC()
	parsedAt := d.ParsedAt
	if parsedAt.IsZero() {
		parsedAt = now
	}

	platform := ""
	if source != nil {
		platform = source.ID
	}

	return &models.Listing{
		ID:           uuid.New(),
		Title:        d.Title,
		Description:  d.Description,
		Price:        models.Money{Amount: d.Price.Amount, Currency: strings.ToUpper(d.Price.Currency)},
		Area:         d.Area,
		Rooms:        d.Rooms,
		Floor:        d.Floor,
		TotalFloors:  d.TotalFloors,
		PropertyType: normalizePropertyType(d.PropertyType, source),
		DealType:     normalizeDealType(d.DealType, source),
		Location: models.Location{
			City:    d.City,
			Address: d.Address,
			Lat:     d.Lat,
			Lng:     d.Lng,
		},
		Images:   d.Images,
		Features: d.Features,
		Contact:  models.Contact{Name: d.Contact.Name, Phone: d.Contact.Phone},
		Source: models.Source{
			Platform:   platform,
			URL:        d.URL,
			ExternalID: d.ExternalID,
		},
		Status:    models.ListingNew,
		CreatedAt: now,
		ParsedAt:  parsedAt,
	}
}

func normalizeDealType(raw string, source *config.SourceConfig) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if source != nil {
		if canonical, ok := source.DealTypes[key]; ok {
			return canonical
		}
	}
	if canonical, ok := models.NormalizeDealType(raw); ok {
		return string(canonical)
	}
	return raw
}

func normalizePropertyType(raw string, source *config.SourceConfig) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if source != nil {
		if canonical, ok := source.PropertyTypes[key]; ok {
			return canonical
		}
	}
	if canonical, ok := models.NormalizePropertyType(raw); ok {
		return string(canonical)
	}
	return raw
}
