package offering

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turnoapp/turno/internal/platform/apperr"
	"github.com/turnoapp/turno/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const cols = `id, professional_id, name, description, price_cents, duration_minutes,
	deposit_percentage, active, created_at, updated_at`

func scanOffering(row pgx.Row) (*Offering, error) {
	var o Offering
	err := row.Scan(&o.ID, &o.ProfessionalID, &o.Name, &o.Description, &o.PriceCents, &o.DurationMinutes,
		&o.DepositPercentage, &o.Active, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("service")
	}
	if err != nil {
		return nil, fmt.Errorf("scan service: %w", err)
	}
	return &o, nil
}

func (r *repoPG) Create(ctx context.Context, o *Offering) error {
	o.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO service (id, professional_id, name, description, price_cents, duration_minutes,
			deposit_percentage, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		o.ID, o.ProfessionalID, o.Name, o.Description, o.PriceCents, o.DurationMinutes,
		o.DepositPercentage, o.Active,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Offering, error) {
	return scanOffering(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM service WHERE id = $1`, id))
}

func (r *repoPG) GetForProfessional(ctx context.Context, id, professionalID uuid.UUID) (*Offering, error) {
	return scanOffering(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM service WHERE id = $1 AND professional_id = $2`, id, professionalID))
}

func (r *repoPG) Update(ctx context.Context, o *Offering) error {
	return r.conn(ctx).QueryRow(ctx, `
		UPDATE service SET name=$2, description=$3, price_cents=$4, duration_minutes=$5,
			deposit_percentage=$6, active=$7, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		o.ID, o.Name, o.Description, o.PriceCents, o.DurationMinutes, o.DepositPercentage, o.Active,
	).Scan(&o.UpdatedAt)
}

func (r *repoPG) ListByProfessional(ctx context.Context, professionalID uuid.UUID, activeOnly bool) ([]*Offering, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+cols+` FROM service
		WHERE professional_id = $1 AND (active OR NOT $2)
		ORDER BY name`, professionalID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Offering
	for rows.Next() {
		o, err := scanOffering(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}
