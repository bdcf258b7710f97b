package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/barpulse/internal/domain"
	"github.com/Clark-Hu/barpulse/internal/testinfra"
)

type testEnv struct {
	ctx        context.Context
	pool       *pgxpool.Pool
	repository *Repository
}

func newTestEnv(t testing.TB) *testEnv {
	t.Helper()
	pool := testinfra.NewPostgres(t, "barpulse_test")
	return &testEnv{
		ctx:        context.Background(),
		pool:       pool,
		repository: NewWithPool(pool),
	}
}

func mustCreateUser(t testing.TB, env *testEnv, role domain.Role) uuid.UUID {
	t.Helper()
	id := uuid.New()
	if err := env.repository.Users.Upsert(env.ctx, id, "user-"+id.String()[:8], role); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return id
}

func mustCreateVenue(t testing.TB, env *testEnv, name string, admin *uuid.UUID) domain.Venue {
	t.Helper()
	venue, err := env.repository.Venues.Create(env.ctx, VenueCreateParams{
		AdminID: admin,
		Name:    name,
		Phone:   "+1 (555) 123-4567",
	})
	if err != nil {
		t.Fatalf("create venue %q: %v", name, err)
	}
	return venue
}

func ptr[T any](v T) *T { return &v }

func TestVenuesRepository_CreateDefaults(t *testing.T) {
	env := newTestEnv(t)

	admin := mustCreateUser(t, env, domain.RoleBarAdmin)
	venue := mustCreateVenue(t, env, "The Cozy Corner", &admin)

	if venue.AdminID == nil || *venue.AdminID != admin {
		t.Fatalf("AdminID = %v, want %v", venue.AdminID, admin)
	}
	want := domain.DefaultVenueAggregate()
	if venue.Stats.LineLength != want.LineLength || venue.Stats.CoverPrice != want.CoverPrice {
		t.Fatalf("numeric defaults = %+v, want %+v", venue.Stats, want)
	}
	if venue.Stats.LineLengthCategory != want.LineLengthCategory || venue.Stats.CoverCategory != want.CoverCategory {
		t.Fatalf("category defaults = %+v, want %+v", venue.Stats, want)
	}
	if len(venue.Stats.LineLengthDistribution) != 1 || venue.Stats.LineLengthDistribution[0] != domain.LineLengthMedium {
		t.Fatalf("line distribution default = %v", venue.Stats.LineLengthDistribution)
	}

	got, err := env.repository.Venues.GetByID(env.ctx, venue.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "The Cozy Corner" {
		t.Fatalf("Name = %s, want The Cozy Corner", got.Name)
	}

	adminID, err := env.repository.Venues.AdminID(env.ctx, venue.ID)
	if err != nil {
		t.Fatalf("AdminID: %v", err)
	}
	if adminID == nil || *adminID != admin {
		t.Fatalf("AdminID() = %v, want %v", adminID, admin)
	}
}

func TestVenuesRepository_NotFound(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.repository.Venues.GetByID(env.ctx, 999); err != ErrNotFound {
		t.Fatalf("GetByID err = %v, want ErrNotFound", err)
	}
	if _, err := env.repository.Venues.AdminID(env.ctx, 999); err != ErrNotFound {
		t.Fatalf("AdminID err = %v, want ErrNotFound", err)
	}
	if _, err := env.repository.Venues.GetAggregate(env.ctx, 999); err != ErrNotFound {
		t.Fatalf("GetAggregate err = %v, want ErrNotFound", err)
	}
	if err := env.repository.Venues.UpdateAggregate(env.ctx, 999, domain.DefaultVenueAggregate()); err != ErrNotFound {
		t.Fatalf("UpdateAggregate err = %v, want ErrNotFound", err)
	}
}

func TestVenuesRepository_UpdateAggregateRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	venue := mustCreateVenue(t, env, "Round Trip", nil)
	if venue.AdminID != nil {
		t.Fatalf("AdminID = %v, want nil", venue.AdminID)
	}

	agg := domain.VenueAggregate{
		LineLength:                12.5,
		LineLengthCategory:        domain.LineLengthLong,
		LineLengthDistribution:    []domain.LineLengthCategory{"long", "small", "long"},
		CoverCategory:             domain.CoverExpensive,
		CoverCategoryDistribution: []domain.CoverCategory{"expensive"},
		CoverPrice:                22.75,
	}
	if err := env.repository.Venues.UpdateAggregate(env.ctx, venue.ID, agg); err != nil {
		t.Fatalf("UpdateAggregate: %v", err)
	}

	got, err := env.repository.Venues.GetAggregate(env.ctx, venue.ID)
	if err != nil {
		t.Fatalf("GetAggregate: %v", err)
	}
	if got.LineLength != 12.5 || got.CoverPrice != 22.75 {
		t.Fatalf("numeric fields = %+v", got)
	}
	if fmt.Sprint(got.LineLengthDistribution) != "[long small long]" {
		t.Fatalf("LineLengthDistribution = %v", got.LineLengthDistribution)
	}
	if got.CoverCategory != domain.CoverExpensive {
		t.Fatalf("CoverCategory = %s", got.CoverCategory)
	}
}

func TestReportsRepository_InsertAndWindow(t *testing.T) {
	env := newTestEnv(t)
	user := mustCreateUser(t, env, domain.RoleUser)
	venue := mustCreateVenue(t, env, "Window Bar", nil)

	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load tz: %v", err)
	}
	start := time.Date(2026, time.June, 10, 0, 0, 0, 0, ny)
	end := time.Date(2026, time.June, 10, 23, 59, 59, 999999000, ny)

	times := []time.Time{
		start.Add(-time.Microsecond),
		start,
		start.Add(6 * time.Hour),
		end,
		end.Add(time.Microsecond),
	}
	for i, at := range times {
		at := at
		_, err := env.repository.Reports.Insert(env.ctx, ReportInsertParams{
			VenueID:            venue.ID,
			UserID:             user,
			LineLengthCategory: domain.LineLengthSmall,
			LineLength:         ptr(i),
			CreatedAt:          &at,
		})
		if err != nil {
			t.Fatalf("insert report %d: %v", i, err)
		}
	}

	inWindow, err := env.repository.Reports.ListInWindow(env.ctx, venue.ID, start, end)
	if err != nil {
		t.Fatalf("ListInWindow: %v", err)
	}
	if len(inWindow) != 3 {
		t.Fatalf("in-window reports = %d, want 3", len(inWindow))
	}
	for i, r := range inWindow {
		if r.LineLength == nil || *r.LineLength != i+1 {
			t.Fatalf("report %d line length = %v, want %d (ascending order)", i, r.LineLength, i+1)
		}
	}

	page, err := env.repository.Reports.ListByVenue(env.ctx, venue.ID, 2, 0)
	if err != nil {
		t.Fatalf("ListByVenue: %v", err)
	}
	if len(page) != 2 || *page[0].LineLength != 4 || *page[1].LineLength != 3 {
		t.Fatalf("ListByVenue page = %+v, want newest first", page)
	}
	next, err := env.repository.Reports.ListByVenue(env.ctx, venue.ID, 2, 4)
	if err != nil {
		t.Fatalf("ListByVenue offset: %v", err)
	}
	if len(next) != 1 || *next[0].LineLength != 0 {
		t.Fatalf("ListByVenue offset page = %+v", next)
	}
}

func TestReportsRepository_OptionalColumns(t *testing.T) {
	env := newTestEnv(t)
	user := mustCreateUser(t, env, domain.RoleUser)
	venue := mustCreateVenue(t, env, "Optional Bar", nil)

	cheap := domain.CoverCheap
	full, err := env.repository.Reports.Insert(env.ctx, ReportInsertParams{
		VenueID:            venue.ID,
		UserID:             user,
		LineLengthCategory: domain.LineLengthMedium,
		LineLength:         ptr(5),
		WaitTime:           ptr(12),
		CoverCategory:      &cheap,
		CoverPrice:         ptr(5.25),
	})
	if err != nil {
		t.Fatalf("insert full report: %v", err)
	}
	if full.ID == 0 || full.CreatedAt.IsZero() {
		t.Fatalf("generated fields missing: %+v", full)
	}
	if full.UserID != user || full.VenueID != venue.ID {
		t.Fatalf("references = %+v", full)
	}
	if full.CoverCategory == nil || *full.CoverCategory != cheap || full.CoverPrice == nil || *full.CoverPrice != 5.25 {
		t.Fatalf("cover fields = %+v", full)
	}
	if full.WaitTime == nil || *full.WaitTime != 12 {
		t.Fatalf("wait time = %v", full.WaitTime)
	}

	bare, err := env.repository.Reports.Insert(env.ctx, ReportInsertParams{
		VenueID:            venue.ID,
		UserID:             user,
		LineLengthCategory: domain.LineLengthLong,
	})
	if err != nil {
		t.Fatalf("insert bare report: %v", err)
	}
	if bare.LineLength != nil || bare.CoverCategory != nil || bare.CoverPrice != nil || bare.WaitTime != nil {
		t.Fatalf("optional fields should be nil: %+v", bare)
	}
}

func TestReportsRepository_InsertMissingVenue(t *testing.T) {
	env := newTestEnv(t)
	user := mustCreateUser(t, env, domain.RoleUser)

	_, err := env.repository.Reports.Insert(env.ctx, ReportInsertParams{
		VenueID:            12345,
		UserID:             user,
		LineLengthCategory: domain.LineLengthSmall,
	})
	if err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUsersRepository_Role(t *testing.T) {
	env := newTestEnv(t)
	id := mustCreateUser(t, env, domain.RoleUser)

	if err := env.repository.Users.Upsert(env.ctx, id, "promoted", domain.RoleSuperuser); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	role, err := env.repository.Users.Role(env.ctx, id)
	if err != nil {
		t.Fatalf("Role: %v", err)
	}
	if role != domain.RoleSuperuser {
		t.Fatalf("role = %s, want superuser", role)
	}
	if _, err := env.repository.Users.Role(env.ctx, uuid.New()); err != ErrNotFound {
		t.Fatalf("missing user err = %v, want ErrNotFound", err)
	}
}

func TestReportsRepository_ConcurrentInserts(t *testing.T) {
	env := newTestEnv(t)
	venue := mustCreateVenue(t, env, "Concurrent Bar", nil)

	const workers = 10
	users := make([]uuid.UUID, workers)
	for i := range users {
		users[i] = mustCreateUser(t, env, domain.RoleUser)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(user uuid.UUID) {
			defer wg.Done()
			_, err := env.repository.Reports.Insert(env.ctx, ReportInsertParams{
				VenueID:            venue.ID,
				UserID:             user,
				LineLengthCategory: domain.LineLengthMedium,
			})
			if err != nil {
				t.Errorf("insert failed for %s: %v", user, err)
			}
		}(users[i])
	}
	wg.Wait()

	all, err := env.repository.Reports.ListByVenue(env.ctx, venue.ID, 100, 0)
	if err != nil {
		t.Fatalf("list after concurrent inserts: %v", err)
	}
	if len(all) != workers {
		t.Fatalf("reports = %d, want %d", len(all), workers)
	}
}

func BenchmarkReportsRepositoryInsert(b *testing.B) {
	env := newTestEnv(b)
	user := mustCreateUser(b, env, domain.RoleUser)
	venue := mustCreateVenue(b, env, "Bench Bar", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := env.repository.Reports.Insert(env.ctx, ReportInsertParams{
			VenueID:            venue.ID,
			UserID:             user,
			LineLengthCategory: domain.LineLengthSmall,
		})
		if err != nil {
			b.Fatalf("insert: %v", err)
		}
	}
}
