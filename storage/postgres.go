package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"backoffice/models"
)

// PostgresStore is the primary backend.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS listings (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		price_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
		price_currency TEXT NOT NULL DEFAULT 'USD',
		area DOUBLE PRECISION,
		rooms INT,
		floor INT,
		total_floors INT,
		property_type TEXT,
		deal_type TEXT,
		city TEXT,
		address TEXT,
		lat DOUBLE PRECISION,
		lng DOUBLE PRECISION,
		images TEXT[],
		features TEXT[],
		contact_name TEXT,
		contact_phone TEXT,
		source_platform TEXT,
		source_url TEXT,
		source_external_id TEXT,
		status TEXT NOT NULL DEFAULT 'new',
		created_at TIMESTAMPTZ NOT NULL,
		parsed_at TIMESTAMPTZ
	);

	CREATE TABLE IF NOT EXISTS properties (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		price_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
		price_currency TEXT NOT NULL DEFAULT 'USD',
		area DOUBLE PRECISION,
		rooms INT,
		floor INT,
		total_floors INT,
		property_type TEXT,
		deal_type TEXT,
		city TEXT,
		address TEXT,
		lat DOUBLE PRECISION,
		lng DOUBLE PRECISION,
		images TEXT[],
		features TEXT[],
		status TEXT NOT NULL DEFAULT 'active',
		is_featured BOOLEAN NOT NULL DEFAULT FALSE,
		owner_id UUID,
		source_listing_id UUID,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
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
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// =============================================================================
// Listings
// =============================================================================

func (s *PostgresStore) InsertListing(ctx context.Context, l *models.Listing) error {
	query := `
		INSERT INTO listings (
			id, title, description, price_amount, price_currency, area, rooms, floor,
			total_floors, property_type, deal_type, city, address, lat, lng, images, features,
			contact_name, contact_phone, source_platform, source_url, source_external_id,
			status, created_at, parsed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22, $23, $24, $25
		)`

	_, err := s.pool.Exec(ctx, query,
		l.ID, l.Title, l.Description, l.Price.Amount, l.Price.Currency,
		l.Area, l.Rooms, l.Floor, l.TotalFloors, l.PropertyType, l.DealType,
		l.Location.City, l.Location.Address, l.Location.Lat, l.Location.Lng,
		l.Images, l.Features, l.Contact.Name, l.Contact.Phone,
		l.Source.Platform, l.Source.URL, l.Source.ExternalID,
		string(l.Status), l.CreatedAt, l.ParsedAt,
	)
	if err != nil {
		return storeErr("insert listing", err)
	}
	return nil
}

const pgListingColumns = `id, title, description, price_amount, price_currency, area, rooms, floor,
	total_floors, property_type, deal_type, city, address, lat, lng, images, features,
	contact_name, contact_phone, source_platform, source_url, source_external_id,
	status, created_at, parsed_at`

func (s *PostgresStore) GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	return s.getListing(ctx, s.pool, id)
}

// pgQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (s *PostgresStore) getListing(ctx context.Context, q pgQuerier, id uuid.UUID) (*models.Listing, error) {
	row := q.QueryRow(ctx, `SELECT `+pgListingColumns+` FROM listings WHERE id = $1`, id)
	l, err := scanPgListing(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("listing %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, storeErr("get listing", err)
	}
	return l, nil
}

func (s *PostgresStore) ListListings(ctx context.Context, f models.ListingFilter, p models.Page) (*models.ListingPage, error) {
	p = p.Normalize()
	where, args := listingFilterSQL(f)

	var total int
	countQuery := toPositional(`SELECT COUNT(*) FROM listings` + where)
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, storeErr("count listings", err)
	}

	query := toPositional(`SELECT ` + pgListingColumns + ` FROM listings` + where + stableOrder + ` LIMIT ? OFFSET ?`)
	rows, err := s.pool.Query(ctx, query, append(args, p.Size, p.Offset())...)
	if err != nil {
		return nil, storeErr("list listings", err)
	}
	defer rows.Close()

	items := []models.Listing{}
	for rows.Next() {
		l, err := scanPgListing(rows)
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

func (s *PostgresStore) UpdateListingStatus(ctx context.Context, id uuid.UUID, from, to models.ListingStatus) (*models.Listing, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE listings SET status = $1 WHERE id = $2 AND status = $3`,
		string(to), id, string(from))
	if err != nil {
		return nil, storeErr("update listing status", err)
	}
	if tag.RowsAffected() == 0 {
		cur, err := s.GetListing(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("listing %s is %s, expected %s: %w", id, cur.Status, from, models.ErrInvalidTransition)
	}

	return s.GetListing(ctx, id)
}

func (s *PostgresStore) DeleteListing(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return storeErr("delete listing", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("listing %s: %w", id, models.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) CountListingsByStatus(ctx context.Context) (map[models.ListingStatus]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM listings GROUP BY status`)
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

func (s *PostgresStore) ConvertListing(ctx context.Context, id uuid.UUID, build ConvertFunc) (*models.Property, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, storeErr("begin convert", err)
	}
	defer tx.Rollback(ctx)

	// Compare-and-set as the first write of the transaction: of two
	// concurrent converts only one update takes effect, the other sees
	// zero affected rows once the winner commits.
	tag, err := tx.Exec(ctx,
		`UPDATE listings SET status = $1 WHERE id = $2 AND status = $3`,
		string(models.ListingConverted), id, string(models.ListingApproved))
	if err != nil {
		return nil, storeErr("convert listing", err)
	}
	if tag.RowsAffected() == 0 {
		var status string
		err := tx.QueryRow(ctx, `SELECT status FROM listings WHERE id = $1`, id).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
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

	if err := insertPgProperty(ctx, tx, prop); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storeErr("commit convert", err)
	}
	return prop, nil
}

// =============================================================================
// Properties
// =============================================================================

const pgPropertyColumns = `id, title, description, price_amount, price_currency, area, rooms, floor,
	total_floors, property_type, deal_type, city, address, lat, lng, images, features,
	status, is_featured, owner_id, source_listing_id, created_at, updated_at`

func insertPgProperty(ctx context.Context, q pgQuerier, p *models.Property) error {
	query := `
		INSERT INTO properties (
			id, title, description, price_amount, price_currency, area, rooms, floor,
			total_floors, property_type, deal_type, city, address, lat, lng, images, features,
			status, is_featured, owner_id, source_listing_id, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22, $23
		)`

	_, err := q.Exec(ctx, query,
		p.ID, p.Title, p.Description, p.Price.Amount, p.Price.Currency,
		p.Area, p.Rooms, p.Floor, p.TotalFloors, string(p.PropertyType), string(p.DealType),
		p.Location.City, p.Location.Address, p.Location.Lat, p.Location.Lng,
		p.Images, p.Features, string(p.Status), p.IsFeatured, p.OwnerID, p.SourceListingID,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return storeErr("insert property", err)
	}
	return nil
}

func (s *PostgresStore) InsertProperty(ctx context.Context, p *models.Property) error {
	return insertPgProperty(ctx, s.pool, p)
}

func (s *PostgresStore) GetProperty(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+pgPropertyColumns+` FROM properties WHERE id = $1`, id)
	p, err := scanPgProperty(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("property %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, storeErr("get property", err)
	}
	return p, nil
}

func (s *PostgresStore) ListProperties(ctx context.Context, f models.PropertyFilter, p models.Page) (*models.PropertyPage, error) {
	p = p.Normalize()
	where, args := propertyFilterSQL(f)

	var total int
	countQuery := toPositional(`SELECT COUNT(*) FROM properties` + where)
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, storeErr("count properties", err)
	}

	query := toPositional(`SELECT ` + pgPropertyColumns + ` FROM properties` + where + stableOrder + ` LIMIT ? OFFSET ?`)
	rows, err := s.pool.Query(ctx, query, append(args, p.Size, p.Offset())...)
	if err != nil {
		return nil, storeErr("list properties", err)
	}
	defer rows.Close()

	items := []models.Property{}
	for rows.Next() {
		prop, err := scanPgProperty(rows)
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

func (s *PostgresStore) UpdateProperty(ctx context.Context, id uuid.UUID, upd models.PropertyUpdate) (*models.Property, error) {
	cur, err := s.GetProperty(ctx, id)
	if err != nil {
		return nil, err
	}

	applyPropertyUpdate(cur, upd)

	_, err = s.pool.Exec(ctx, `
		UPDATE properties SET title = $1, description = $2, price_amount = $3, price_currency = $4,
			area = $5, rooms = $6, floor = $7, total_floors = $8, property_type = $9, deal_type = $10,
			city = $11, address = $12, lat = $13, lng = $14, images = $15, features = $16,
			status = $17, is_featured = $18, owner_id = $19, updated_at = NOW()
		WHERE id = $20`,
		cur.Title, cur.Description, cur.Price.Amount, cur.Price.Currency,
		cur.Area, cur.Rooms, cur.Floor, cur.TotalFloors, string(cur.PropertyType), string(cur.DealType),
		cur.Location.City, cur.Location.Address, cur.Location.Lat, cur.Location.Lng,
		cur.Images, cur.Features, string(cur.Status), cur.IsFeatured, cur.OwnerID, id,
	)
	if err != nil {
		return nil, storeErr("update property", err)
	}

	return s.GetProperty(ctx, id)
}

func (s *PostgresStore) DeleteProperty(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return storeErr("delete property", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("property %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// =============================================================================
// Scan helpers
// =============================================================================

func scanPgListing(row pgx.Row) (*models.Listing, error) {
	var l models.Listing
	var status string
	err := row.Scan(&l.ID, &l.Title, &l.Description, &l.Price.Amount, &l.Price.Currency,
		&l.Area, &l.Rooms, &l.Floor, &l.TotalFloors, &l.PropertyType, &l.DealType,
		&l.Location.City, &l.Location.Address, &l.Location.Lat, &l.Location.Lng,
		&l.Images, &l.Features, &l.Contact.Name, &l.Contact.Phone,
		&l.Source.Platform, &l.Source.URL, &l.Source.ExternalID,
		&status, &l.CreatedAt, &l.ParsedAt)
	if err != nil {
		return nil, err
	}
	l.Status = models.ListingStatus(status)
	return &l, nil
}

func scanPgProperty(row pgx.Row) (*models.Property, error) {
	var p models.Property
	var status, propertyType, dealType string
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Price.Amount, &p.Price.Currency,
		&p.Area, &p.Rooms, &p.Floor, &p.TotalFloors, &propertyType, &dealType,
		&p.Location.City, &p.Location.Address, &p.Location.Lat, &p.Location.Lng,
		&p.Images, &p.Features, &status, &p.IsFeatured, &p.OwnerID, &p.SourceListingID,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.PropertyType = models.PropertyType(propertyType)
	p.DealType = models.DealType(dealType)
	p.Status = models.PropertyStatus(status)
	return &p, nil
}
