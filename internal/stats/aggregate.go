package stats

import (
	"math"

	"github.com/Clark-Hu/barpulse/internal/domain"
)

// Result carries the metrics computed over one window. Absent metrics fall
// back to the venue's previous values when merged.
type Result struct {
	LineLength                Value[float64]
	LineLengthCategory        Value[domain.LineLengthCategory]
	LineLengthDistribution    Value[[]domain.LineLengthCategory]
	CoverCategory             Value[domain.CoverCategory]
	CoverCategoryDistribution Value[[]domain.CoverCategory]
	CoverPrice                Value[float64]
}

// Compute aggregates reports, which must already be restricted to the window
// and ordered by creation time ascending. Null columns are skipped per metric.
func Compute(reports []domain.Report) Result {
	var (
		lineLengths []float64
		lineCats    []domain.LineLengthCategory
		coverCats   []domain.CoverCategory
		coverPrices []float64
	)
	for _, r := range reports {
		if r.LineLength != nil {
			lineLengths = append(lineLengths, float64(*r.LineLength))
		}
		if r.LineLengthCategory != "" {
			lineCats = append(lineCats, r.LineLengthCategory)
		}
		if r.CoverCategory != nil {
			coverCats = append(coverCats, *r.CoverCategory)
		}
		if r.CoverPrice != nil {
			coverPrices = append(coverPrices, *r.CoverPrice)
		}
	}

	return Result{
		LineLength:                Mean(lineLengths),
		LineLengthCategory:        Mode(lineCats, domain.LineLengthCategories),
		LineLengthDistribution:    Distribution(lineCats),
		CoverCategory:             Mode(coverCats, domain.CoverCategories),
		CoverCategoryDistribution: Distribution(coverCats),
		CoverPrice:                Mean(coverPrices),
	}
}

// Merge folds the result into the previous aggregate field by field.
func (r Result) Merge(prev domain.VenueAggregate) domain.VenueAggregate {
	return domain.VenueAggregate{
		LineLength:                r.LineLength.OrElse(prev.LineLength),
		LineLengthCategory:        r.LineLengthCategory.OrElse(prev.LineLengthCategory),
		LineLengthDistribution:    r.LineLengthDistribution.OrElse(prev.LineLengthDistribution),
		CoverCategory:             r.CoverCategory.OrElse(prev.CoverCategory),
		CoverCategoryDistribution: r.CoverCategoryDistribution.OrElse(prev.CoverCategoryDistribution),
		CoverPrice:                r.CoverPrice.OrElse(prev.CoverPrice),
	}
}

// Mean returns the arithmetic mean rounded to two decimal places, matching
// the NUMERIC(10,2) columns it is stored in.
func Mean(values []float64) Value[float64] {
	if len(values) == 0 {
		return None[float64]()
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return Some(math.Round(sum/float64(len(values))*100) / 100)
}

// Mode returns the most frequent value. Ties go to the value listed first in
// order; values missing from order rank after it by first appearance.
func Mode[T comparable](values []T, order []T) Value[T] {
	if len(values) == 0 {
		return None[T]()
	}
	counts := make(map[T]int, len(order))
	for _, v := range values {
		counts[v]++
	}

	candidates := make([]T, 0, len(order))
	seen := make(map[T]struct{}, len(order))
	for _, v := range order {
		candidates = append(candidates, v)
		seen[v] = struct{}{}
	}
	for _, v := range values {
		if _, ok := seen[v]; !ok {
			candidates = append(candidates, v)
			seen[v] = struct{}{}
		}
	}

	var best T
	bestCount := 0
	for _, c := range candidates {
		if counts[c] > bestCount {
			best = c
			bestCount = counts[c]
		}
	}
	return Some(best)
}

// Distribution returns a copy of values in their original order.
func Distribution[T any](values []T) Value[[]T] {
	if len(values) == 0 {
		return None[[]T]()
	}
	out := make([]T, len(values))
	copy(out, values)
	return Some(out)
}
