package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/barpulse/internal/domain"
)

// UsersRepository mirrors accounts owned by the external auth provider.
type UsersRepository struct {
	pool *pgxpool.Pool
}

// Upsert records a user id and role, updating the role if the user exists.
func (r *UsersRepository) Upsert(ctx context.Context, id uuid.UUID, username string, role domain.Role) error {
	const query = `
        INSERT INTO users (id, username, role)
        VALUES ($1, $2, $3)
        ON CONFLICT (id) DO UPDATE SET role = EXCLUDED.role
    `
	_, err := r.pool.Exec(ctx, query, id, username, string(role))
	return err
}

// Role returns the stored role for a user.
func (r *UsersRepository) Role(ctx context.Context, id uuid.UUID) (domain.Role, error) {
	var role string
	err := r.pool.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, id).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return domain.Role(role), nil
}
