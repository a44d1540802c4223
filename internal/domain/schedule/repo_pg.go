package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turnoapp/turno/internal/platform/apperr"
	"github.com/turnoapp/turno/internal/platform/db"
	"github.com/turnoapp/turno/pkg/wallclock"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const blockCols = `id, professional_id, day_of_week, start_minute, end_minute, active, created_at, updated_at`

func scanBlock(row pgx.Row) (*Block, error) {
	var b Block
	var day int16
	err := row.Scan(&b.ID, &b.ProfessionalID, &day, &b.StartTime, &b.EndTime, &b.Active, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("schedule block")
	}
	if err != nil {
		return nil, fmt.Errorf("scan schedule block: %w", err)
	}
	b.DayOfWeek = int(day)
	return &b, nil
}

func collectBlocks(rows pgx.Rows, err error) ([]*Block, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Block
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

// overlapErr maps the schedule_block_no_overlap constraint to the domain error.
func overlapErr(err error) error {
	if db.IsExclusionViolation(err) {
		return fmt.Errorf("%w: %w", apperr.ErrConflict, ErrBlockOverlap)
	}
	return err
}

func (r *repoPG) Create(ctx context.Context, b *Block) error {
	b.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO schedule_block (id, professional_id, day_of_week, start_minute, end_minute, active)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at`,
		b.ID, b.ProfessionalID, b.DayOfWeek, b.StartTime, b.EndTime, b.Active,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	return overlapErr(err)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Block, error) {
	return scanBlock(r.conn(ctx).QueryRow(ctx, `SELECT `+blockCols+` FROM schedule_block WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, b *Block) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE schedule_block SET start_minute=$2, end_minute=$3, active=$4, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		b.ID, b.StartTime, b.EndTime, b.Active,
	).Scan(&b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("schedule block")
	}
	return overlapErr(err)
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM schedule_block WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("schedule block")
	}
	return nil
}

func (r *repoPG) ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]*Block, error) {
	return collectBlocks(r.conn(ctx).Query(ctx, `
		SELECT `+blockCols+` FROM schedule_block
		WHERE professional_id = $1
		ORDER BY day_of_week, start_minute`, professionalID))
}

func (r *repoPG) ListActive(ctx context.Context, professionalID uuid.UUID) ([]*Block, error) {
	return collectBlocks(r.conn(ctx).Query(ctx, `
		SELECT `+blockCols+` FROM schedule_block
		WHERE professional_id = $1 AND active
		ORDER BY day_of_week, start_minute`, professionalID))
}

func (r *repoPG) ListActiveByDay(ctx context.Context, professionalID uuid.UUID, day int) ([]*Block, error) {
	return collectBlocks(r.conn(ctx).Query(ctx, `
		SELECT `+blockCols+` FROM schedule_block
		WHERE professional_id = $1 AND day_of_week = $2 AND active
		ORDER BY start_minute`, professionalID, day))
}

func (r *repoPG) FindOverlapping(ctx context.Context, professionalID uuid.UUID, day int, start, end wallclock.Time, excludeID uuid.UUID) ([]*Block, error) {
	return collectBlocks(r.conn(ctx).Query(ctx, `
		SELECT `+blockCols+` FROM schedule_block
		WHERE professional_id = $1 AND day_of_week = $2 AND active AND id <> $3
			AND start_minute < $5 AND end_minute > $4
		ORDER BY start_minute`, professionalID, day, excludeID, start, end))
}
