package domain

import (
	"time"

	"github.com/google/uuid"
)

// LineLengthCategory buckets how long the queue outside a venue is.
type LineLengthCategory string

const (
	LineLengthSmall  LineLengthCategory = "small"
	LineLengthMedium LineLengthCategory = "medium"
	LineLengthLong   LineLengthCategory = "long"
)

// LineLengthCategories lists the categories in declaration order.
var LineLengthCategories = []LineLengthCategory{LineLengthSmall, LineLengthMedium, LineLengthLong}

// CoverCategory buckets the cover charge at the door.
type CoverCategory string

const (
	CoverFree      CoverCategory = "free"
	CoverCheap     CoverCategory = "cheap"
	CoverModerate  CoverCategory = "moderate"
	CoverExpensive CoverCategory = "expensive"
)

// CoverCategories lists the categories in declaration order.
var CoverCategories = []CoverCategory{CoverFree, CoverCheap, CoverModerate, CoverExpensive}

// VenueAggregate holds the rolling daily statistics derived from reports.
// Every field always carries a value.
type VenueAggregate struct {
	LineLength                float64
	LineLengthCategory        LineLengthCategory
	LineLengthDistribution    []LineLengthCategory
	CoverCategory             CoverCategory
	CoverCategoryDistribution []CoverCategory
	CoverPrice                float64
}

// DefaultVenueAggregate mirrors the column defaults applied when a venue is created.
func DefaultVenueAggregate() VenueAggregate {
	return VenueAggregate{
		LineLength:                10,
		LineLengthCategory:        LineLengthMedium,
		LineLengthDistribution:    []LineLengthCategory{LineLengthMedium},
		CoverCategory:             CoverModerate,
		CoverCategoryDistribution: []CoverCategory{CoverModerate},
		CoverPrice:                10,
	}
}

// Venue represents a bar together with its aggregate statistics.
type Venue struct {
	ID        int64
	AdminID   *uuid.UUID
	Name      string
	Address   *string
	Phone     string
	Latitude  *float64
	Longitude *float64
	Verified  bool
	Stats     VenueAggregate
	CreatedAt time.Time
	UpdatedAt time.Time
}
