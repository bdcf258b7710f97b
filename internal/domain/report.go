package domain

import (
	"time"

	"github.com/google/uuid"
)

// Report is a single user's observation of a venue. Reports are never
// modified after they are stored.
type Report struct {
	ID                 int64
	VenueID            int64
	UserID             uuid.UUID
	LineLengthCategory LineLengthCategory
	LineLength         *int
	WaitTime           *int
	CoverCategory      *CoverCategory
	CoverPrice         *float64
	CreatedAt          time.Time
}
