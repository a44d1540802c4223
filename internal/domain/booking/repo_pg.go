package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turnoapp/turno/internal/platform/apperr"
	"github.com/turnoapp/turno/internal/platform/db"
	"github.com/turnoapp/turno/pkg/wallclock"
)

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const apptCols = `id, professional_id, client_id, service_id, appointment_date, start_minute, end_minute,
	status, notes, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var status string
	err := row.Scan(&a.ID, &a.ProfessionalID, &a.ClientID, &a.ServiceID, &a.Date,
		&a.StartTime, &a.EndTime, &status, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("appointment")
	}
	if err != nil {
		return nil, fmt.Errorf("scan appointment: %w", err)
	}
	a.Status = Status(status)
	a.Date = time.Date(a.Date.Year(), a.Date.Month(), a.Date.Day(), 0, 0, 0, 0, time.UTC)
	return &a, nil
}

func collectAppointments(rows pgx.Rows, err error) ([]*Appointment, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

// overlapErr turns an appointment_no_overlap violation into a lost race.
func overlapErr(err error) error {
	if db.IsExclusionViolation(err) {
		return fmt.Errorf("%w: %w", apperr.ErrConflict, ErrOverlap)
	}
	return err
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointment (id, professional_id, client_id, service_id, appointment_date,
			start_minute, end_minute, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at`,
		a.ID, a.ProfessionalID, a.ClientID, a.ServiceID, a.Date,
		a.StartTime, a.EndTime, string(a.Status), a.Notes,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	return overlapErr(err)
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+` FROM appointment WHERE id = $1`, id))
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE appointment SET appointment_date=$2, start_minute=$3, end_minute=$4, status=$5,
			notes=$6, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		a.ID, a.Date, a.StartTime, a.EndTime, string(a.Status), a.Notes,
	).Scan(&a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("appointment")
	}
	return overlapErr(err)
}

func (r *appointmentRepoPG) listPage(ctx context.Context, column string, id uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointment WHERE `+column+` = $1`, id).Scan(&total); err != nil {
		return nil, 0, err
	}
	items, err := collectAppointments(r.conn(ctx).Query(ctx, `
		SELECT `+apptCols+` FROM appointment
		WHERE `+column+` = $1
		ORDER BY appointment_date DESC, start_minute DESC
		LIMIT $2 OFFSET $3`, id, limit, offset))
	return items, total, err
}

func (r *appointmentRepoPG) ListByProfessional(ctx context.Context, professionalID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.listPage(ctx, "professional_id", professionalID, limit, offset)
}

func (r *appointmentRepoPG) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.listPage(ctx, "client_id", clientID, limit, offset)
}

func (r *appointmentRepoPG) ListByDate(ctx context.Context, professionalID uuid.UUID, date time.Time, excluding Status) ([]*Appointment, error) {
	return collectAppointments(r.conn(ctx).Query(ctx, `
		SELECT `+apptCols+` FROM appointment
		WHERE professional_id = $1 AND appointment_date = $2 AND status <> $3
		ORDER BY start_minute`, professionalID, date, string(excluding)))
}

func (r *appointmentRepoPG) ListByDateRange(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]*Appointment, error) {
	return collectAppointments(r.conn(ctx).Query(ctx, `
		SELECT `+apptCols+` FROM appointment
		WHERE professional_id = $1 AND appointment_date BETWEEN $2 AND $3
		ORDER BY appointment_date, start_minute`, professionalID, from, to))
}

func (r *appointmentRepoPG) FindOverlapping(ctx context.Context, professionalID uuid.UUID, date time.Time, start, end wallclock.Time, excludeID uuid.UUID) ([]*Appointment, error) {
	return collectAppointments(r.conn(ctx).Query(ctx, `
		SELECT `+apptCols+` FROM appointment
		WHERE professional_id = $1 AND appointment_date = $2 AND status <> 'CANCELLED'
			AND id <> $3 AND start_minute < $5 AND end_minute > $4`,
		professionalID, date, excludeID, start, end))
}
