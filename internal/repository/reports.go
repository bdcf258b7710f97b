package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/barpulse/internal/domain"
)

// ReportsRepository stores venue reports. Reports are append-only: there is
// no update or delete.
type ReportsRepository struct {
	pool *pgxpool.Pool
}

const reportColumns = `
    id,
    bar_id,
    user_id,
    line_length_category,
    line_length,
    wait_time,
    cover_category,
    cover_price::float8,
    created_at
`

// ReportInsertParams captures the payload required to store a report.
// CreatedAt defaults to the database clock when nil.
type ReportInsertParams struct {
	VenueID            int64
	UserID             uuid.UUID
	LineLengthCategory domain.LineLengthCategory
	LineLength         *int
	WaitTime           *int
	CoverCategory      *domain.CoverCategory
	CoverPrice         *float64
	CreatedAt          *time.Time
}

// Insert stores a new report. A missing venue or user yields ErrNotFound.
func (r *ReportsRepository) Insert(ctx context.Context, params ReportInsertParams) (domain.Report, error) {
	query := fmt.Sprintf(`
        INSERT INTO bar_reports (bar_id, user_id, line_length_category, line_length, wait_time, cover_category, cover_price, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,COALESCE($8, now()))
        RETURNING %s
    `, reportColumns)

	var cover *string
	if params.CoverCategory != nil {
		c := string(*params.CoverCategory)
		cover = &c
	}

	row := r.pool.QueryRow(ctx, query,
		params.VenueID,
		params.UserID,
		string(params.LineLengthCategory),
		params.LineLength,
		params.WaitTime,
		cover,
		params.CoverPrice,
		params.CreatedAt,
	)
	report, err := scanReport(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Report{}, ErrNotFound
		}
		return domain.Report{}, err
	}
	return report, nil
}

// ListInWindow returns a venue's reports created within [start, end],
// oldest first.
func (r *ReportsRepository) ListInWindow(ctx context.Context, venueID int64, start, end time.Time) ([]domain.Report, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM bar_reports
        WHERE bar_id = $1 AND created_at >= $2 AND created_at <= $3
        ORDER BY created_at ASC, id ASC
    `, reportColumns)
	return r.query(ctx, query, venueID, start, end)
}

// ListByVenue returns a page of a venue's reports, newest first.
func (r *ReportsRepository) ListByVenue(ctx context.Context, venueID int64, limit, offset int) ([]domain.Report, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM bar_reports
        WHERE bar_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2 OFFSET $3
    `, reportColumns)
	return r.query(ctx, query, venueID, limit, offset)
}

func (r *ReportsRepository) query(ctx context.Context, query string, args ...interface{}) ([]domain.Report, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.Report, 0)
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, report)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func scanReport(row pgx.Row) (domain.Report, error) {
	var (
		report  domain.Report
		lineCat string
		cover   *string
	)
	err := row.Scan(
		&report.ID,
		&report.VenueID,
		&report.UserID,
		&lineCat,
		&report.LineLength,
		&report.WaitTime,
		&cover,
		&report.CoverPrice,
		&report.CreatedAt,
	)
	if err != nil {
		return domain.Report{}, err
	}
	report.LineLengthCategory = domain.LineLengthCategory(lineCat)
	if cover != nil {
		c := domain.CoverCategory(*cover)
		report.CoverCategory = &c
	}
	return report, nil
}
