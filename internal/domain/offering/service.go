package offering

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/turnoapp/turno/internal/domain/identity"
	"github.com/turnoapp/turno/internal/platform/apperr"
)

// ProfessionalLookup resolves the owner of a new offering.
type ProfessionalLookup interface {
	GetProfessional(ctx context.Context, id uuid.UUID) (*identity.Professional, error)
}

type Service struct {
	repo          Repository
	professionals ProfessionalLookup
	logger        zerolog.Logger
}

func NewService(repo Repository, professionals ProfessionalLookup, logger zerolog.Logger) *Service {
	return &Service{repo: repo, professionals: professionals, logger: logger}
}

func (s *Service) CreateOffering(ctx context.Context, professionalID uuid.UUID, o *Offering) error {
	if _, err := s.professionals.GetProfessional(ctx, professionalID); err != nil {
		return err
	}
	o.ProfessionalID = professionalID
	o.Active = true
	if err := o.Validate(); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return err
	}
	s.logger.Info().Str("service_id", o.ID.String()).Str("professional_id", professionalID.String()).Msg("service created")
	return nil
}

// GetOffering returns any offering by id, active or not.
func (s *Service) GetOffering(ctx context.Context, id uuid.UUID) (*Offering, error) {
	return s.repo.GetByID(ctx, id)
}

// GetBookable returns the offering when it is active and, if professionalID
// is set, owned by that professional. Anything else reads as not found.
func (s *Service) GetBookable(ctx context.Context, id, professionalID uuid.UUID) (*Offering, error) {
	var o *Offering
	var err error
	if professionalID == uuid.Nil {
		o, err = s.repo.GetByID(ctx, id)
	} else {
		o, err = s.repo.GetForProfessional(ctx, id, professionalID)
	}
	if err != nil {
		return nil, err
	}
	if !o.Active {
		return nil, apperr.NotFound("service")
	}
	return o, nil
}

func (s *Service) GetOwnOffering(ctx context.Context, id, professionalID uuid.UUID) (*Offering, error) {
	return s.repo.GetForProfessional(ctx, id, professionalID)
}

func (s *Service) UpdateOffering(ctx context.Context, id, professionalID uuid.UUID, p Patch) (*Offering, error) {
	o, err := s.repo.GetForProfessional(ctx, id, professionalID)
	if err != nil {
		return nil, err
	}
	p.Apply(o)
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// DeactivateOffering is a soft delete: existing appointments keep their service.
func (s *Service) DeactivateOffering(ctx context.Context, id, professionalID uuid.UUID) error {
	o, err := s.repo.GetForProfessional(ctx, id, professionalID)
	if err != nil {
		return err
	}
	o.Active = false
	if err := s.repo.Update(ctx, o); err != nil {
		return err
	}
	s.logger.Info().Str("service_id", id.String()).Msg("service deactivated")
	return nil
}

func (s *Service) ToggleOffering(ctx context.Context, id, professionalID uuid.UUID) (*Offering, error) {
	o, err := s.repo.GetForProfessional(ctx, id, professionalID)
	if err != nil {
		return nil, err
	}
	o.Active = !o.Active
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) ListOwn(ctx context.Context, professionalID uuid.UUID) ([]*Offering, error) {
	return s.repo.ListByProfessional(ctx, professionalID, false)
}

// ListCatalog returns a professional's active offerings for the public booking page.
func (s *Service) ListCatalog(ctx context.Context, professionalID uuid.UUID) ([]*Offering, error) {
	if _, err := s.professionals.GetProfessional(ctx, professionalID); err != nil {
		return nil, err
	}
	return s.repo.ListByProfessional(ctx, professionalID, true)
}
