package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"backoffice/models"
)

// SQLiteStore is the embedded backend used for single-node deployments and
// tests. It satisfies the same Store contract as Postgres.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS listings (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		price_amount REAL NOT NULL DEFAULT 0,
		price_currency TEXT NOT NULL DEFAULT 'USD',
		area REAL,
		rooms INTEGER,
		floor INTEGER,
		total_floors INTEGER,
		property_type TEXT,
		deal_type TEXT,
		city TEXT,
		address TEXT,
		lat REAL,
		lng REAL,
		images JSON,
		features JSON,
		contact_name TEXT,
		contact_phone TEXT,
		source_platform TEXT,
		source_url TEXT,
		source_external_id TEXT,
		status TEXT NOT NULL DEFAULT 'new',
		created_at DATETIME NOT NULL,
		parsed_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS properties (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		price_amount REAL NOT NULL DEFAULT 0,
		price_currency TEXT NOT NULL DEFAULT 'USD',
		area REAL,
		rooms INTEGER,
		floor INTEGER,
		total_floors INTEGER,
		property_type TEXT,
		deal_type TEXT,
		city TEXT,
		address TEXT,
		lat REAL,
		lng REAL,
		images JSON,
		features JSON,
		status TEXT NOT NULL DEFAULT 'active',
		is_featured BOOLEAN NOT NULL DEFAULT FALSE,
		owner_id TEXT,
		source_listing_id TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_listings_status ON listings(status);
	CREATE INDEX IF NOT EXISTS idx_listings_source ON listings(source_platform);
	CREATE INDEX IF NOT EXISTS idx_listings_city ON listings(city);
	CREATE INDEX IF NOT EXISTS idx_listings_created ON listings(created_at);
	CREATE INDEX IF NOT EXISTS idx_properties_status ON properties(status);
	CREATE INDEX IF NOT EXISTS idx_properties_city ON properties(city);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_properties_source_listing
		ON properties(source_listing_id) WHERE source_listing_id IS NOT NULL;
	`
	_, err := s.db.Exec(schema)
	return err
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// Listings
// =============================================================================

const listingColumns = `id, title, description, price_amount, price_currency, area, rooms, floor,
	total_floors, property_type, deal_type, city, address, lat, lng, images, features,
	contact_name, contact_phone, source_platform, source_url, source_external_id,
	status, created_at, parsed_at`

func (s *SQLiteStore) InsertListing(ctx context.Context, l *models.Listing) error {
	images, features, err := encodeLists(l.Images, l.Features)
	if err != nil {
		return fmt.Errorf("encode listing %s: %w", l.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO listings (`+listingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID.String(), l.Title, l.Description, l.Price.Amount, l.Price.Currency,
		l.Area, l.Rooms, l.Floor, l.TotalFloors, l.PropertyType, l.DealType,
		l.Location.City, l.Location.Address, l.Location.Lat, l.Location.Lng,
		images, features, l.Contact.Name, l.Contact.Phone,
		l.Source.Platform, l.Source.URL, l.Source.ExternalID,
		string(l.Status), l.CreatedAt, l.ParsedAt,
	)
	if err != nil {
		return storeErr("insert listing", err)
	}
	return nil
}

func (s *SQLiteStore) GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	return s.getListing(ctx, s.db, id)
}

func (s *SQLiteStore) getListing(ctx context.Context, q querier, id uuid.UUID) (*models.Listing, error) {
	row := q.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = ?`, id.String())
	l, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("listing %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, storeErr("get listing", err)
	}
	return l, nil
}

func (s *SQLiteStore) ListListings(ctx context.Context, f models.ListingFilter, p models.Page) (*models.ListingPage, error) {
	p = p.Normalize()
	where, args := listingFilterSQL(f)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings`+where, args...).Scan(&total); err != nil {
		return nil, storeErr("count listings", err)
	}

	query := `SELECT ` + listingColumns + ` FROM listings` + where + stableOrder + ` LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, p.Size, p.Offset())...)
	if err != nil {
		return nil, storeErr("list listings", err)
	}
	defer rows.Close()

	items := []models.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, storeErr("scan listing", err)
		}
		items = append(items, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list listings", err)
	}

	return &models.ListingPage{
		Items:      items,
		Total:      total,
		Page:       p.Number,
		PageSize:   p.Size,
		TotalPages: models.TotalPages(total, p.Size),
	}, nil
}

func (s *SQLiteStore) UpdateListingStatus(ctx context.Context, id uuid.UUID, from, to models.ListingStatus) (*models.Listing, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE listings SET status = ? WHERE id = ? AND status = ?`,
		string(to), id.String(), string(from))
	if err != nil {
		return nil, storeErr("update listing status", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, storeErr("update listing status", err)
	}
	if n == 0 {
		cur, err := s.GetListing(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("listing %s is %s, expected %s: %w", id, cur.Status, from, models.ErrInvalidTransition)
	}

	return s.GetListing(ctx, id)
}

func (s *SQLiteStore) DeleteListing(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM listings WHERE id = ?`, id.String())
	if err != nil {
		return storeErr("delete listing", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("delete listing", err)
	}
	if n == 0 {
		return fmt.Errorf("listing %s: %w", id, models.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) CountListingsByStatus(ctx context.Context) (map[models.ListingStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM listings GROUP BY status`)
	if err != nil {
		return nil, storeErr("count listings by status", err)
	}
	defer rows.Close()

	counts := make(map[models.ListingStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, storeErr("count listings by status", err)
		}
		counts[models.ListingStatus(status)] = n
	}
	return counts, rows.Err()
}

func (s *SQLiteStore) ConvertListing(ctx context.Context, id uuid.UUID, build ConvertFunc) (*models.Property, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr("begin convert", err)
	}
	defer tx.Rollback()

	// The conditional update is the first statement of the transaction so
	// two concurrent converts serialize on the write lock; the loser then
	// sees the already-converted row and affects nothing.
	res, err := tx.ExecContext(ctx,
		`UPDATE listings SET status = ? WHERE id = ? AND status = ?`,
		string(models.ListingConverted), id.String(), string(models.ListingApproved))
	if err != nil {
		return nil, storeErr("convert listing", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, storeErr("convert listing", err)
	}
	if n == 0 {
		var status string
		err := tx.QueryRowContext(ctx, `SELECT status FROM listings WHERE id = ?`, id.String()).Scan(&status)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("listing %s: %w", id, models.ErrNotFound)
		}
		if err != nil {
			return nil, storeErr("convert listing", err)
		}
		return nil, fmt.Errorf("listing %s is %s, expected %s: %w", id, status, models.ListingApproved, models.ErrInvalidState)
	}

	l, err := s.getListing(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	prop, err := build(*l)
	if err != nil {
		return nil, err
	}

	if err := s.insertProperty(ctx, tx, prop); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, storeErr("commit convert", err)
	}
	return prop, nil
}

// =============================================================================
// Properties
// =============================================================================

const propertyColumns = `id, title, description, price_amount, price_currency, area, rooms, floor,
	total_floors, property_type, deal_type, city, address, lat, lng, images, features,
	status, is_featured, owner_id, source_listing_id, created_at, updated_at`

func (s *SQLiteStore) InsertProperty(ctx context.Context, p *models.Property) error {
	return s.insertProperty(ctx, s.db, p)
}

func (s *SQLiteStore) insertProperty(ctx context.Context, q querier, p *models.Property) error {
	images, features, err := encodeLists(p.Images, p.Features)
	if err != nil {
		return fmt.Errorf("encode property %s: %w", p.ID, err)
	}

	var ownerID, sourceListingID any
	if p.OwnerID != nil {
		ownerID = p.OwnerID.String()
	}
	if p.SourceListingID != nil {
		sourceListingID = p.SourceListingID.String()
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO properties (`+propertyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID.String(), p.Title, p.Description, p.Price.Amount, p.Price.Currency,
		p.Area, p.Rooms, p.Floor, p.TotalFloors, string(p.PropertyType), string(p.DealType),
		p.Location.City, p.Location.Address, p.Location.Lat, p.Location.Lng,
		images, features, string(p.Status), p.IsFeatured, ownerID, sourceListingID,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return storeErr("insert property", err)
	}
	return nil
}

func (s *SQLiteStore) GetProperty(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = ?`, id.String())
	p, err := scanProperty(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("property %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, storeErr("get property", err)
	}
	return p, nil
}

func (s *SQLiteStore) ListProperties(ctx context.Context, f models.PropertyFilter, p models.Page) (*models.PropertyPage, error) {
	p = p.Normalize()
	where, args := propertyFilterSQL(f)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM properties`+where, args...).Scan(&total); err != nil {
		return nil, storeErr("count properties", err)
	}

	query := `SELECT ` + propertyColumns + ` FROM properties` + where + stableOrder + ` LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, p.Size, p.Offset())...)
	if err != nil {
		return nil, storeErr("list properties", err)
	}
	defer rows.Close()

	items := []models.Property{}
	for rows.Next() {
		prop, err := scanProperty(rows)
		if err != nil {
			return nil, storeErr("scan property", err)
		}
		items = append(items, *prop)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list properties", err)
	}

	return &models.PropertyPage{
		Items:      items,
		Total:      total,
		Page:       p.Number,
		PageSize:   p.Size,
		TotalPages: models.TotalPages(total, p.Size),
	}, nil
}

func (s *SQLiteStore) UpdateProperty(ctx context.Context, id uuid.UUID, upd models.PropertyUpdate) (*models.Property, error) {
	cur, err := s.GetProperty(ctx, id)
	if err != nil {
		return nil, err
	}

	applyPropertyUpdate(cur, upd)

	images, features, err := encodeLists(cur.Images, cur.Features)
	if err != nil {
		return nil, fmt.Errorf("encode property %s: %w", id, err)
	}
	var ownerID any
	if cur.OwnerID != nil {
		ownerID = cur.OwnerID.String()
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE properties SET title = ?, description = ?, price_amount = ?, price_currency = ?,
			area = ?, rooms = ?, floor = ?, total_floors = ?, property_type = ?, deal_type = ?,
			city = ?, address = ?, lat = ?, lng = ?, images = ?, features = ?,
			status = ?, is_featured = ?, owner_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		cur.Title, cur.Description, cur.Price.Amount, cur.Price.Currency,
		cur.Area, cur.Rooms, cur.Floor, cur.TotalFloors, string(cur.PropertyType), string(cur.DealType),
		cur.Location.City, cur.Location.Address, cur.Location.Lat, cur.Location.Lng,
		images, features, string(cur.Status), cur.IsFeatured, ownerID, id.String(),
	)
	if err != nil {
		return nil, storeErr("update property", err)
	}

	return s.GetProperty(ctx, id)
}

func (s *SQLiteStore) DeleteProperty(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM properties WHERE id = ?`, id.String())
	if err != nil {
		return storeErr("delete property", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("delete property", err)
	}
	if n == 0 {
		return fmt.Errorf("property %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// =============================================================================
// Scan helpers
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (*models.Listing, error) {
	var l models.Listing
	var idStr string
	var description, propertyType, dealType, city, address sql.NullString
	var contactName, contactPhone, platform, sourceURL, externalID sql.NullString
	var images, features sql.NullString
	var area, lat, lng sql.NullFloat64
	var rooms, floor, totalFloors sql.NullInt64
	var parsedAt sql.NullTime

	err := row.Scan(&idStr, &l.Title, &description, &l.Price.Amount, &l.Price.Currency,
		&area, &rooms, &floor, &totalFloors, &propertyType, &dealType,
		&city, &address, &lat, &lng, &images, &features,
		&contactName, &contactPhone, &platform, &sourceURL, &externalID,
		(*string)(&l.Status), &l.CreatedAt, &parsedAt)
	if err != nil {
		return nil, err
	}

	l.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse listing id %q: %w", idStr, err)
	}
	l.Description = description.String
	l.PropertyType = propertyType.String
	l.DealType = dealType.String
	l.Location.City = city.String
	l.Location.Address = address.String
	l.Location.Lat = nullFloat(lat)
	l.Location.Lng = nullFloat(lng)
	l.Contact.Name = contactName.String
	l.Contact.Phone = contactPhone.String
	l.Source.Platform = platform.String
	l.Source.URL = sourceURL.String
	l.Source.ExternalID = externalID.String
	l.Area = nullFloat(area)
	l.Rooms = nullInt(rooms)
	l.Floor = nullInt(floor)
	l.TotalFloors = nullInt(totalFloors)
	if parsedAt.Valid {
		l.ParsedAt = parsedAt.Time
	}
	if l.Images, err = decodeList(images); err != nil {
		return nil, err
	}
	if l.Features, err = decodeList(features); err != nil {
		return nil, err
	}
	return &l, nil
}

func scanProperty(row rowScanner) (*models.Property, error) {
	var p models.Property
	var idStr string
	var description, city, address, ownerID, sourceListingID sql.NullString
	var images, features sql.NullString
	var area, lat, lng sql.NullFloat64
	var rooms, floor, totalFloors sql.NullInt64

	err := row.Scan(&idStr, &p.Title, &description, &p.Price.Amount, &p.Price.Currency,
		&area, &rooms, &floor, &totalFloors, (*string)(&p.PropertyType), (*string)(&p.DealType),
		&city, &address, &lat, &lng, &images, &features,
		(*string)(&p.Status), &p.IsFeatured, &ownerID, &sourceListingID,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse property id %q: %w", idStr, err)
	}
	p.Description = description.String
	p.Location.City = city.String
	p.Location.Address = address.String
	p.Location.Lat = nullFloat(lat)
	p.Location.Lng = nullFloat(lng)
	p.Area = nullFloat(area)
	p.Rooms = nullInt(rooms)
	p.Floor = nullInt(floor)
	p.TotalFloors = nullInt(totalFloors)
	if ownerID.Valid {
		id, err := uuid.Parse(ownerID.String)
		if err != nil {
			return nil, fmt.Errorf("parse owner id %q: %w", ownerID.String, err)
		}
		p.OwnerID = &id
	}
	if sourceListingID.Valid {
		id, err := uuid.Parse(sourceListingID.String)
		if err != nil {
			return nil, fmt.Errorf("parse source listing id %q: %w", sourceListingID.String, err)
		}
		p.SourceListingID = &id
	}
	if p.Images, err = decodeList(images); err != nil {
		return nil, err
	}
	if p.Features, err = decodeList(features); err != nil {
		return nil, err
	}
	return &p, nil
}

func encodeLists(images, features []string) (string, string, error) {
	if images == nil {
		images = []string{}
	}
	if features == nil {
		features = []string{}
	}
	imgJSON, err := json.Marshal(images)
	if err != nil {
		return "", "", err
	}
	featJSON, err := json.Marshal(features)
	if err != nil {
		return "", "", err
	}
	return string(imgJSON), string(featJSON), nil
}

func decodeList(ns sql.NullString) ([]string, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		return nil, fmt.Errorf("decode list column: %w", err)
	}
	return out, nil
}

func nullFloat(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	v := nf.Float64
	return &v
}

func nullInt(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}

func applyPropertyUpdate(p *models.Property, upd models.PropertyUpdate) {
	if upd.Title != nil {
		p.Title = *upd.Title
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.Price != nil {
		p.Price = *upd.Price
	}
	if upd.Area != nil {
		p.Area = upd.Area
	}
	if upd.Rooms != nil {
		p.Rooms = upd.Rooms
	}
	if upd.Floor != nil {
		p.Floor = upd.Floor
	}
	if upd.TotalFloors != nil {
		p.TotalFloors = upd.TotalFloors
	}
	if upd.PropertyType != nil {
		p.PropertyType = *upd.PropertyType
	}
	if upd.DealType != nil {
		p.DealType = *upd.DealType
	}
	if upd.Location != nil {
		p.Location = *upd.Location
	}
	if upd.Images != nil {
		p.Images = upd.Images
	}
	if upd.Features != nil {
		p.Features = upd.Features
	}
	if upd.Status != nil {
		p.Status = *upd.Status
	}
	if upd.IsFeatured != nil {
		p.IsFeatured = *upd.IsFeatured
	}
	if upd.OwnerID != nil {
		p.OwnerID = upd.OwnerID
	}
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, models.ErrStoreUnavailable, err)
}
