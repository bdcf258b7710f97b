// Package reports ingests venue reports and keeps the venue's daily
// statistics in step with them.
package reports

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Clark-Hu/barpulse/internal/domain"
	"github.com/Clark-Hu/barpulse/internal/metrics"
	"github.com/Clark-Hu/barpulse/internal/repository"
	"github.com/Clark-Hu/barpulse/internal/stats"
	"github.com/Clark-Hu/barpulse/internal/validation"
)

const (
	DefaultListLimit = 10
	MaxListLimit     = 100
)

// Payload is the client-supplied body of a report submission. Upper bounds
// follow the storage columns: line length and cover price feed NUMERIC(10,2)
// aggregates and wait time is an INTEGER.
type Payload struct {
	VenueID            int64                     `json:"barId" validate:"required,gt=0"`
	LineLengthCategory domain.LineLengthCategory `json:"lineLengthCategory" validate:"required,oneof=small medium long"`
	LineLength         *int                      `json:"lineLength" validate:"omitempty,gte=0,lte=99999999"`
	WaitTime           *int                      `json:"waitTime" validate:"omitempty,gte=0,lte=2147483647"`
	CoverCategory      *domain.CoverCategory     `json:"coverCategory" validate:"omitempty,oneof=free cheap moderate expensive"`
	CoverPrice         *float64                  `json:"coverPrice" validate:"omitempty,gte=0,lte=99999999.99"`
}

// ReportStore persists reports. Reports are only ever inserted.
type ReportStore interface {
	Insert(ctx context.Context, params repository.ReportInsertParams) (domain.Report, error)
	ListInWindow(ctx context.Context, venueID int64, start, end time.Time) ([]domain.Report, error)
	ListByVenue(ctx context.Context, venueID int64, limit, offset int) ([]domain.Report, error)
}

// VenueStore reads venues and writes their aggregate statistics.
type VenueStore interface {
	GetByID(ctx context.Context, id int64) (domain.Venue, error)
	AdminID(ctx context.Context, id int64) (*uuid.UUID, error)
	GetAggregate(ctx context.Context, id int64) (domain.VenueAggregate, error)
	UpdateAggregate(ctx context.Context, id int64, agg domain.VenueAggregate) error
}

// Option customises a Service.
type Option func(*Service)

// WithClock replaces time.Now as the source of the aggregation instant.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the timezone whose civil day bounds the window.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLocker sets the per-venue lock used around recomputation.
func WithLocker(l VenueLocker) Option {
	return func(s *Service) {
		if l != nil {
			s.locker = l
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Service accepts reports and recomputes venue statistics.
type Service struct {
	reports ReportStore
	venues  VenueStore
	locker  VenueLocker
	logger  *zap.Logger
	now     func() time.Time
	loc     *time.Location
}

// NewService wires a Service. Without options it uses the wall clock, the
// default stats timezone and an in-process locker.
func NewService(reports ReportStore, venues VenueStore, opts ...Option) *Service {
	s := &Service{
		reports: reports,
		venues:  venues,
		locker:  NewLocalLocker(),
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	if loc, err := time.LoadLocation(stats.DefaultTimezone); err == nil {
		s.loc = loc
	} else {
		s.loc = time.UTC
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("reports")
	return s
}

// Submit validates and stores a report, then recomputes the venue statistics.
//
// When the report is stored but recomputation fails, the stored report is
// returned together with an *AggregationError.
func (s *Service) Submit(ctx context.Context, caller domain.Identity, p Payload) (domain.Report, error) {
	if err := validation.Struct(p); err != nil {
		metrics.RecordSubmission("rejected")
		return domain.Report{}, err
	}

	admin, err := s.venues.AdminID(ctx, p.VenueID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RecordSubmission("rejected")
			return domain.Report{}, ErrVenueNotFound
		}
		metrics.RecordSubmission("error")
		return domain.Report{}, &StorageError{Op: "load venue", Err: err}
	}
	if admin != nil && *admin == caller.UserID {
		metrics.RecordSubmission("rejected")
		return domain.Report{}, ErrOwnVenue
	}

	report, err := s.reports.Insert(ctx, repository.ReportInsertParams{
		VenueID:            p.VenueID,
		UserID:             caller.UserID,
		LineLengthCategory: p.LineLengthCategory,
		LineLength:         p.LineLength,
		WaitTime:           p.WaitTime,
		CoverCategory:      p.CoverCategory,
		CoverPrice:         p.CoverPrice,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RecordSubmission("rejected")
			return domain.Report{}, ErrVenueNotFound
		}
		metrics.RecordSubmission("error")
		return domain.Report{}, &StorageError{Op: "insert report", Err: err}
	}
	metrics.RecordSubmission("stored")

	// The row's timestamp comes from the database clock; bucketing by it keeps
	// the new report inside the window it triggers.
	at := report.CreatedAt
	if at.IsZero() {
		at = s.now()
	}
	if err := s.recompute(ctx, p.VenueID, at); err != nil {
		s.logger.Error("venue stats not updated",
			zap.Int64("venue_id", p.VenueID),
			zap.Int64("report_id", report.ID),
			zap.Error(err),
		)
		return report, &AggregationError{VenueID: p.VenueID, ReportID: report.ID, Err: err}
	}
	return report, nil
}

// Recompute rebuilds the venue aggregate from the reports inside the current
// window. Fields with no contributing report keep their previous value.
func (s *Service) Recompute(ctx context.Context, venueID int64) error {
	return s.recompute(ctx, venueID, s.now())
}

func (s *Service) recompute(ctx context.Context, venueID int64, at time.Time) (err error) {
	started := time.Now()
	defer func() {
		metrics.RecordRecompute(time.Since(started), err)
	}()

	unlock, err := s.locker.Lock(ctx, venueID)
	if err != nil {
		return err
	}
	defer unlock()
	metrics.VenueLockWait.Observe(time.Since(started).Seconds())

	window := stats.CurrentWindow(at, s.loc)

	prev, err := s.venues.GetAggregate(ctx, venueID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrVenueNotFound
		}
		return &StorageError{Op: "load aggregate", Err: err}
	}

	inWindow, err := s.reports.ListInWindow(ctx, venueID, window.Start, window.End)
	if err != nil {
		return &StorageError{Op: "load window", Err: err}
	}

	next := stats.Compute(inWindow).Merge(prev)
	if err := s.venues.UpdateAggregate(ctx, venueID, next); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrVenueNotFound
		}
		return &StorageError{Op: "update aggregate", Err: err}
	}

	s.logger.Debug("venue stats updated",
		zap.Int64("venue_id", venueID),
		zap.Int("reports", len(inWindow)),
		zap.Time("window_start", window.Start),
	)
	return nil
}

// GetVenue returns the venue with its persisted statistics. Nothing is
// recomputed.
func (s *Service) GetVenue(ctx context.Context, venueID int64) (domain.Venue, error) {
	v, err := s.venues.GetByID(ctx, venueID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Venue{}, ErrVenueNotFound
		}
		return domain.Venue{}, &StorageError{Op: "load venue", Err: err}
	}
	return v, nil
}

// List returns a page of the venue's reports, newest first. limit is clamped
// to [1, MaxListLimit] with DefaultListLimit for non-positive values.
func (s *Service) List(ctx context.Context, venueID int64, limit, offset int) ([]domain.Report, error) {
	if _, err := s.GetVenue(ctx, venueID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	items, err := s.reports.ListByVenue(ctx, venueID, limit, offset)
	if err != nil {
		return nil, &StorageError{Op: "list reports", Err: err}
	}
	return items, nil
}
