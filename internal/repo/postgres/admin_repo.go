package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/doriangym/contratos-backend/internal/domain"
)

type AdminRepo interface {
	Create(ctx context.Context, username, passwordHash string) (*domain.Admin, error)
	FindByUsername(ctx context.Context, username string) (*domain.Admin, error)
}

type adminRepo struct {
	pool *pgxpool.Pool
}

func NewAdminRepo(pool *pgxpool.Pool) AdminRepo {
	return &adminRepo{pool: pool}
}

const adminCols = `id, username, password_hash, created_at`

func (r *adminRepo) Create(ctx context.Context, username, passwordHash string) (*domain.Admin, error) {
	const q = `INSERT INTO admins (username, password_hash) VALUES ($1, $2) RETURNING ` + adminCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var a domain.Admin
	err := r.pool.QueryRow(ctx, q, username, passwordHash).Scan(
		&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &a, nil
}

func (r *adminRepo) FindByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	const q = `SELECT ` + adminCols + ` FROM admins WHERE username=$1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var a domain.Admin
	err := r.pool.QueryRow(ctx, q, username).Scan(
		&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &a, err
}
