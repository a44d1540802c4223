package offering

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, o *Offering) error
	GetByID(ctx context.Context, id uuid.UUID) (*Offering, error)
	// GetForProfessional returns the offering only when professionalID owns it.
	GetForProfessional(ctx context.Context, id, professionalID uuid.UUID) (*Offering, error)
	Update(ctx context.Context, o *Offering) error
	ListByProfessional(ctx context.Context, professionalID uuid.UUID, activeOnly bool) ([]*Offering, error)
}
