package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS members (
		id                bigserial PRIMARY KEY,
		nombre            text NOT NULL,
		apellido          text NOT NULL,
		cedula            text NOT NULL UNIQUE,
		plan_contratado   text NOT NULL,
		fecha_inscripcion timestamptz NOT NULL,
		fecha_expiracion  timestamptz NOT NULL,
		direccion         text NOT NULL,
		telefono          text NOT NULL,
		correo            text NOT NULL UNIQUE,
		sucursal          text NOT NULL,
		estado            text NOT NULL DEFAULT 'activo',
		qr_code           text NOT NULL DEFAULT '',
		created_at        timestamptz NOT NULL DEFAULT now(),
		updated_at        timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS admins (
		id            bigserial PRIMARY KEY,
		username      text NOT NULL UNIQUE,
		password_hash text NOT NULL,
		created_at    timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_members_estado ON members (estado)`,
	`CREATE INDEX IF NOT EXISTS idx_members_created_at ON members (created_at DESC)`,
}

// Migrate applies the schema at startup. Statements are idempotent so the
// service can be restarted against an existing database.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
