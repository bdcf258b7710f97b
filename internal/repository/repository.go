package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/barpulse/internal/store"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("repository: not found")

const pgForeignKeyViolation = "23503"

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Users   *UsersRepository
	Venues  *VenuesRepository
	Reports *ReportsRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{
		Users:   &UsersRepository{pool: pool},
		Venues:  &VenuesRepository{pool: pool},
		Reports: &ReportsRepository{pool: pool},
	}
}

// isForeignKeyViolation reports whether err was raised by a dangling reference.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}
