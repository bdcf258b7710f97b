package reports

import (
	"errors"
	"fmt"
)

var (
	// ErrVenueNotFound is returned when the referenced venue does not exist.
	ErrVenueNotFound = errors.New("reports: venue not found")
	// ErrOwnVenue is returned when a venue admin reports on their own venue.
	ErrOwnVenue = errors.New("reports: cannot report line length of your own bar")
)

// StorageError wraps a failure of the report or venue store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("reports: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// AggregationError means the report was stored but the venue statistics
// could not be recomputed. The next report for the venue repairs them.
type AggregationError struct {
	VenueID  int64
	ReportID int64
	Err      error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("reports: report %d stored but venue %d stats not updated: %v", e.ReportID, e.VenueID, e.Err)
}

func (e *AggregationError) Unwrap() error {
	return e.Err
}
