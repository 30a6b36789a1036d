package models

import "strings"

// DealType is the canonical transaction kind used by Property.
type DealType string

const (
	DealSale DealType = "sale"
	DealRent DealType = "rent"
)

// PropertyType is the canonical property kind used by Property.
type PropertyType string

const (
	TypeApartment  PropertyType = "apartment"
	TypeHouse      PropertyType = "house"
	TypeCommercial PropertyType = "commercial"
	TypeLand       PropertyType = "land"
)

// Scraped ads mix canonical values with platform vocabulary (transliterated
// and cyrillic). The tables below cover the variants the supported sources
// emit; per-source aliases from config extend them at ingest.
var dealTypeAliases = map[string]DealType{
	"sale":    DealSale,
	"sell":    DealSale,
	"prodazh": DealSale,
	"prodaja": DealSale,
	"продаж":  DealSale,
	"продажа": DealSale,
	"rent":    DealRent,
	"orenda":  DealRent,
	"arenda":  DealRent,
	"оренда":  DealRent,
	"аренда":  DealRent,
}

var propertyTypeAliases = map[string]PropertyType{
	"apartment":    TypeApartment,
	"flat":         TypeApartment,
	"kvartira":     TypeApartment,
	"квартира":     TypeApartment,
	"house":        TypeHouse,
	"dom":          TypeHouse,
	"budynok":      TypeHouse,
	"будинок":      TypeHouse,
	"commercial":   TypeCommercial,
	"komerts":      TypeCommercial,
	"комерційна":   TypeCommercial,
	"коммерческая": TypeCommercial,
	"land":         TypeLand,
	"uchastok":     TypeLand,
	"zemlya":       TypeLand,
	"ділянка":      TypeLand,
}

// NormalizeDealType maps a raw source value to the canonical deal type.
// ok is false for anything outside the alias table; callers must treat
// that as a hard failure, never a default.
func NormalizeDealType(raw string) (DealType, bool) {
	dt, ok := dealTypeAliases[strings.ToLower(strings.TrimSpace(raw))]
	return dt, ok
}

// NormalizePropertyType maps a raw source value to the canonical property
// type. Same contract as NormalizeDealType.
func NormalizePropertyType(raw string) (PropertyType, bool) {
	pt, ok := propertyTypeAliases[strings.ToLower(strings.TrimSpace(raw))]
	return pt, ok
}
