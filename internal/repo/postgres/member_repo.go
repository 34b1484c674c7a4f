package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/doriangym/contratos-backend/internal/domain"
)

type MemberRepo interface {
	Create(ctx context.Context, m *domain.Member) (*domain.Member, error)
	GetByID(ctx context.Context, id int64) (*domain.Member, error)
	GetByCedula(ctx context.Context, cedula string) (*domain.Member, error)
	List(ctx context.Context, limit, offset int) ([]domain.Member, error)
	Update(ctx context.Context, id int64, m *domain.Member) (*domain.Member, error)
	UpdateEstado(ctx context.Context, id int64, estado domain.Status) (*domain.Member, error)
	UpdateQRCode(ctx context.Context, id int64, qrCode string) error
	Delete(ctx context.Context, id int64) error
}

type memberRepo struct {
	pool *pgxpool.Pool
}

func NewMemberRepo(pool *pgxpool.Pool) MemberRepo {
	return &memberRepo{pool: pool}
}

const memberCols = `id, nombre, apellido, cedula, plan_contratado,
fecha_inscripcion, fecha_expiracion, direccion, telefono, correo,
sucursal, estado, qr_code, created_at, updated_at`

func scanMember(row pgx.Row) (*domain.Member, error) {
	var m domain.Member
	err := row.Scan(
		&m.ID, &m.Nombre, &m.Apellido, &m.Cedula, &m.Plan,
		&m.FechaInscripcion, &m.FechaExpiracion, &m.Direccion, &m.Telefono, &m.Correo,
		&m.Sucursal, &m.Estado, &m.QRCode, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// mapError converts driver errors to domain sentinels. A 23505 on cedula or
// correo is the store enforcing the uniqueness invariant under concurrency.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrConflict
	}
	return err
}

func (r *memberRepo) Create(ctx context.Context, m *domain.Member) (*domain.Member, error) {
	const q = `INSERT INTO members (
		nombre, apellido, cedula, plan_contratado,
		fecha_inscripcion, fecha_expiracion, direccion, telefono, correo,
		sucursal, estado, qr_code
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	RETURNING ` + memberCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	created, err := scanMember(r.pool.QueryRow(ctx, q,
		m.Nombre, m.Apellido, m.Cedula, m.Plan,
		m.FechaInscripcion, m.FechaExpiracion, m.Direccion, m.Telefono, m.Correo,
		m.Sucursal, m.Estado, m.QRCode,
	))
	if err != nil {
		return nil, mapError(err)
	}
	return created, nil
}

func (r *memberRepo) GetByID(ctx context.Context, id int64) (*domain.Member, error) {
	const q = `SELECT ` + memberCols + ` FROM members WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	m, err := scanMember(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

func (r *memberRepo) GetByCedula(ctx context.Context, cedula string) (*domain.Member, error) {
	const q = `SELECT ` + memberCols + ` FROM members WHERE cedula=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	m, err := scanMember(r.pool.QueryRow(ctx, q, cedula))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

func (r *memberRepo) List(ctx context.Context, limit, offset int) ([]domain.Member, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	const q = `SELECT ` + memberCols + ` FROM members ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (r *memberRepo) Update(ctx context.Context, id int64, m *domain.Member) (*domain.Member, error) {
	const q = `
		UPDATE members
		SET
			nombre            = $2,
			apellido          = $3,
			plan_contratado   = $4,
			fecha_inscripcion = $5,
			fecha_expiracion  = $6,
			direccion         = $7,
			telefono          = $8,
			correo            = $9,
			sucursal          = $10,
			estado            = $11,
			qr_code           = $12,
			updated_at        = now()
		WHERE id=$1
		RETURNING ` + memberCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	updated, err := scanMember(r.pool.QueryRow(ctx, q,
		id,
		m.Nombre, m.Apellido, m.Plan,
		m.FechaInscripcion, m.FechaExpiracion,
		m.Direccion, m.Telefono, m.Correo, m.Sucursal,
		m.Estado, m.QRCode,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	return updated, nil
}

// UpdateEstado changes the status only. Expiration and QR payload are left
// untouched; the full edit path is the one that recomputes them.
func (r *memberRepo) UpdateEstado(ctx context.Context, id int64, estado domain.Status) (*domain.Member, error) {
	const q = `UPDATE members SET estado=$2, updated_at=now() WHERE id=$1 RETURNING ` + memberCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	m, err := scanMember(r.pool.QueryRow(ctx, q, id, estado))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

func (r *memberRepo) UpdateQRCode(ctx context.Context, id int64, qrCode string) error {
	const q = `UPDATE members SET qr_code=$2, updated_at=now() WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, qrCode)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *memberRepo) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM members WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
