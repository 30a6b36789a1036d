package storage

import (
	"fmt"
	"strings"

	"backoffice/models"
)

// Both backends hand-build their SQL; the filter translation lives here so
// the predicate semantics cannot drift between them. Conditions use ?
// placeholders; toPositional rewrites them for pgx.

// stableOrder breaks created_at ties by id so repeated queries paginate
// over a stable sequence.
const stableOrder = " ORDER BY created_at DESC, id ASC"

func listingFilterSQL(f models.ListingFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, vals ...any) {
		conds = append(conds, cond)
		args = append(args, vals...)
	}

	if f.Status != "" {
		add("status = ?", f.Status)
	}
	if f.Source != "" {
		add("source_platform = ?", f.Source)
	}
	if f.PropertyType != "" {
		add("property_type = ?", f.PropertyType)
	}
	if f.DealType != "" {
		add("deal_type = ?", f.DealType)
	}
	if f.MinPrice != nil {
		add("price_amount >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("price_amount <= ?", *f.MaxPrice)
	}
	if f.Rooms != nil {
		add("rooms = ?", *f.Rooms)
	}
	if f.City != "" {
		add("LOWER(city) = ?", strings.ToLower(f.City))
	}
	if f.Search != "" {
		pat := "%" + strings.ToLower(f.Search) + "%"
		add("(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(city) LIKE ? OR LOWER(address) LIKE ?)",
			pat, pat, pat, pat)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func propertyFilterSQL(f models.PropertyFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, vals ...any) {
		conds = append(conds, cond)
		args = append(args, vals...)
	}

	if f.Status != "" {
		add("status = ?", f.Status)
	}
	if f.PropertyType != "" {
		add("property_type = ?", f.PropertyType)
	}
	if f.DealType != "" {
		add("deal_type = ?", f.DealType)
	}
	if f.MinPrice != nil {
		add("price_amount >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("price_amount <= ?", *f.MaxPrice)
	}
	if f.Rooms != nil {
		add("rooms = ?", *f.Rooms)
	}
	if f.City != "" {
		add("LOWER(city) = ?", strings.ToLower(f.City))
	}
	if f.Featured != nil {
		add("is_featured = ?", *f.Featured)
	}
	if f.Search != "" {
		pat := "%" + strings.ToLower(f.Search) + "%"
		add("(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(city) LIKE ? OR LOWER(address) LIKE ?)",
			pat, pat, pat, pat)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// toPositional rewrites ? placeholders to $1..$n for pgx. Queries here
// never contain literal question marks.
func toPositional(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
