package models

import "testing"

func TestNormalizeDealType(t *testing.T) {
	cases := []struct {
		raw  string
		want DealType
		ok   bool
	}{
		{"sale", DealSale, true},
		{"prodazh", DealSale, true},
		{"продаж", DealSale, true},
		{"rent", DealRent, true},
		{"orenda", DealRent, true},
		{"ORENDA", DealRent, true},
		{" arenda ", DealRent, true},
		{"lease", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := NormalizeDealType(c.raw)
		if ok != c.ok {
			t.Fatalf("NormalizeDealType(%q) ok = %v, want %v", c.raw, ok, c.ok)
		}
		if ok && got != c.want {
			t.Fatalf("NormalizeDealType(%q) = %q, want %q", c.raw, got, c.want)
		}
	}
}

func TestNormalizePropertyType(t *testing.T) {
	cases := []struct {
		raw  string
		want PropertyType
		ok   bool
	}{
		{"apartment", TypeApartment, true},
		{"kvartira", TypeApartment, true},
		{"Квартира", TypeApartment, true},
		{"dom", TypeHouse, true},
		{"commercial", TypeCommercial, true},
		{"uchastok", TypeLand, true},
		{"garage", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := NormalizePropertyType(c.raw)
		if ok != c.ok {
			t.Fatalf("NormalizePropertyType(%q) ok = %v, want %v", c.raw, ok, c.ok)
		}
		if ok && got != c.want {
			t.Fatalf("NormalizePropertyType(%q) = %q, want %q", c.raw, got, c.want)
		}
	}
}
