package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestCurrentWindow_Bounds(t *testing.T) {
	ny := mustLoad(t, DefaultTimezone)
	now := time.Date(2026, time.June, 10, 15, 30, 0, 0, ny)

	w := CurrentWindow(now, ny)

	assert.True(t, w.Start.Equal(time.Date(2026, time.June, 10, 0, 0, 0, 0, ny)))
	assert.True(t, w.End.Equal(time.Date(2026, time.June, 10, 23, 59, 59, 999999000, ny)))
}

func TestCurrentWindow_UsesCivilDayOfTimezone(t *testing.T) {
	ny := mustLoad(t, DefaultTimezone)
	// 02:00 UTC on June 11 is still June 10 in New York.
	now := time.Date(2026, time.June, 11, 2, 0, 0, 0, time.UTC)

	w := CurrentWindow(now, ny)

	y, m, d := w.Start.Date()
	assert.Equal(t, 2026, y)
	assert.Equal(t, time.June, m)
	assert.Equal(t, 10, d)
	assert.True(t, w.Contains(now))
}

func TestCurrentWindow_BoundaryInclusion(t *testing.T) {
	ny := mustLoad(t, DefaultTimezone)
	w := CurrentWindow(time.Date(2026, time.June, 10, 12, 0, 0, 0, ny), ny)

	lastInstant := time.Date(2026, time.June, 10, 23, 59, 59, 999999000, ny)
	nextMidnight := time.Date(2026, time.June, 11, 0, 0, 0, 0, ny)

	assert.True(t, w.Contains(w.Start))
	assert.True(t, w.Contains(lastInstant))
	assert.True(t, w.Contains(lastInstant.UTC()))
	assert.False(t, w.Contains(nextMidnight))
	assert.False(t, w.Contains(w.Start.Add(-time.Microsecond)))
}

func TestCurrentWindow_DaylightSavingDay(t *testing.T) {
	ny := mustLoad(t, DefaultTimezone)
	// Clocks spring forward on 2026-03-08, so the civil day is 23 hours long.
	w := CurrentWindow(time.Date(2026, time.March, 8, 12, 0, 0, 0, ny), ny)

	assert.Equal(t, 23*time.Hour-time.Microsecond, w.End.Sub(w.Start))
}

func TestCurrentWindow_NilLocationIsUTC(t *testing.T) {
	now := time.Date(2026, time.January, 2, 23, 0, 0, 0, time.UTC)
	w := CurrentWindow(now, nil)

	assert.True(t, w.Start.Equal(time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.UTC, w.Start.Location())
}
