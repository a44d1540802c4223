package schedule

import (
	"context"

	"github.com/google/uuid"

	"github.com/turnoapp/turno/pkg/wallclock"
)

type Repository interface {
	Create(ctx context.Context, b *Block) error
	GetByID(ctx context.Context, id uuid.UUID) (*Block, error)
	Update(ctx context.Context, b *Block) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListByProfessional returns every block, active or not, by weekday then start.
	ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]*Block, error)
	ListActive(ctx context.Context, professionalID uuid.UUID) ([]*Block, error)
	ListActiveByDay(ctx context.Context, professionalID uuid.UUID, day int) ([]*Block, error)
	// FindOverlapping returns active blocks of the weekday that overlap
	// [start, end), ignoring excludeID.
	FindOverlapping(ctx context.Context, professionalID uuid.UUID, day int, start, end wallclock.Time, excludeID uuid.UUID) ([]*Block, error)
}

// Locker serializes writers of one professional's weekday.
type Locker interface {
	WithinWeekday(ctx context.Context, professionalID uuid.UUID, day int, fn func(context.Context) error) error
}
