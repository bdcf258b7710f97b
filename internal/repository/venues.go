package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/barpulse/internal/domain"
)

// VenuesRepository provides persistence helpers for bars and their aggregates.
type VenuesRepository struct {
	pool *pgxpool.Pool
}

const venueColumns = `
    id,
    admin_id,
    name,
    address,
    phone,
    latitude::float8,
    longitude::float8,
    verified,
    line_length::float8,
    line_length_category,
    line_length_distribution,
    cover_category,
    cover_category_distribution,
    cover_price::float8,
    created_at,
    updated_at
`

const aggregateColumns = `
    line_length::float8,
    line_length_category,
    line_length_distribution,
    cover_category,
    cover_category_distribution,
    cover_price::float8
`

// VenueCreateParams bundles the fields required to create a venue. Aggregate
// fields start at their column defaults.
type VenueCreateParams struct {
	AdminID   *uuid.UUID
	Name      string
	Address   *string
	Phone     string
	Latitude  *float64
	Longitude *float64
}

// Create inserts a new venue row and returns the stored entity.
func (r *VenuesRepository) Create(ctx context.Context, params VenueCreateParams) (domain.Venue, error) {
	query := fmt.Sprintf(`
        INSERT INTO bars (admin_id, name, address, phone, latitude, longitude)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING %s
    `, venueColumns)

	row := r.pool.QueryRow(ctx, query, params.AdminID, params.Name, params.Address, params.Phone, params.Latitude, params.Longitude)
	venue, err := scanVenue(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Venue{}, ErrNotFound
		}
		return domain.Venue{}, err
	}
	return venue, nil
}

// GetByID fetches a venue and its aggregate by identifier.
func (r *VenuesRepository) GetByID(ctx context.Context, id int64) (domain.Venue, error) {
	query := fmt.Sprintf(`SELECT %s FROM bars WHERE id = $1`, venueColumns)
	venue, err := scanVenue(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Venue{}, ErrNotFound
		}
		return domain.Venue{}, err
	}
	return venue, nil
}

// AdminID returns the administering user of a venue, or nil when unclaimed.
func (r *VenuesRepository) AdminID(ctx context.Context, id int64) (*uuid.UUID, error) {
	var admin *uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT admin_id FROM bars WHERE id = $1`, id).Scan(&admin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return admin, nil
}

// GetAggregate reads only the aggregate fields of a venue.
func (r *VenuesRepository) GetAggregate(ctx context.Context, id int64) (domain.VenueAggregate, error) {
	query := fmt.Sprintf(`SELECT %s FROM bars WHERE id = $1`, aggregateColumns)
	agg, err := scanAggregate(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.VenueAggregate{}, ErrNotFound
		}
		return domain.VenueAggregate{}, fmt.Errorf("get venue aggregate: %w", err)
	}
	return agg, nil
}

// UpdateAggregate writes all aggregate fields in a single statement.
func (r *VenuesRepository) UpdateAggregate(ctx context.Context, id int64, agg domain.VenueAggregate) error {
	const query = `
        UPDATE bars
        SET line_length = $2,
            line_length_category = $3,
            line_length_distribution = $4,
            cover_category = $5,
            cover_category_distribution = $6,
            cover_price = $7,
            updated_at = now()
        WHERE id = $1
    `

	tag, err := r.pool.Exec(ctx, query,
		id,
		agg.LineLength,
		string(agg.LineLengthCategory),
		toStrings(agg.LineLengthDistribution),
		string(agg.CoverCategory),
		toStrings(agg.CoverCategoryDistribution),
		agg.CoverPrice,
	)
	if err != nil {
		return fmt.Errorf("update venue aggregate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanVenue(row pgx.Row) (domain.Venue, error) {
	var (
		venue     domain.Venue
		lineDist  []string
		coverDist []string
		lineCat   string
		coverCat  string
	)

	err := row.Scan(
		&venue.ID,
		&venue.AdminID,
		&venue.Name,
		&venue.Address,
		&venue.Phone,
		&venue.Latitude,
		&venue.Longitude,
		&venue.Verified,
		&venue.Stats.LineLength,
		&lineCat,
		&lineDist,
		&coverCat,
		&coverDist,
		&venue.Stats.CoverPrice,
		&venue.CreatedAt,
		&venue.UpdatedAt,
	)
	if err != nil {
		return domain.Venue{}, err
	}

	venue.Stats.LineLengthCategory = domain.LineLengthCategory(lineCat)
	venue.Stats.LineLengthDistribution = fromStrings[domain.LineLengthCategory](lineDist)
	venue.Stats.CoverCategory = domain.CoverCategory(coverCat)
	venue.Stats.CoverCategoryDistribution = fromStrings[domain.CoverCategory](coverDist)
	return venue, nil
}

func scanAggregate(row pgx.Row) (domain.VenueAggregate, error) {
	var (
		agg       domain.VenueAggregate
		lineDist  []string
		coverDist []string
		lineCat   string
		coverCat  string
	)
	if err := row.Scan(&agg.LineLength, &lineCat, &lineDist, &coverCat, &coverDist, &agg.CoverPrice); err != nil {
		return domain.VenueAggregate{}, err
	}
	agg.LineLengthCategory = domain.LineLengthCategory(lineCat)
	agg.LineLengthDistribution = fromStrings[domain.LineLengthCategory](lineDist)
	agg.CoverCategory = domain.CoverCategory(coverCat)
	agg.CoverCategoryDistribution = fromStrings[domain.CoverCategory](coverDist)
	return agg, nil
}

func toStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func fromStrings[T ~string](values []string) []T {
	out := make([]T, len(values))
	for i, v := range values {
		out[i] = T(v)
	}
	return out
}
