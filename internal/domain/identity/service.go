package identity

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Service struct {
	professionals ProfessionalRepository
	clients       ClientRepository
	logger        zerolog.Logger
}

func NewService(pros ProfessionalRepository, clients ClientRepository, logger zerolog.Logger) *Service {
	return &Service{professionals: pros, clients: clients, logger: logger}
}

// -- Professional --

func (s *Service) RegisterProfessional(ctx context.Context, p *Professional) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.professionals.Create(ctx, p); err != nil {
		return err
	}
	s.logger.Info().Str("professional_id", p.ID.String()).Msg("professional registered")
	return nil
}

func (s *Service) GetProfessional(ctx context.Context, id uuid.UUID) (*Professional, error) {
	return s.professionals.GetByID(ctx, id)
}

func (s *Service) GetProfessionalByURL(ctx context.Context, customURL string) (*Professional, error) {
	return s.professionals.GetByCustomURL(ctx, customURL)
}

// UpdateSiteConfig replaces the professional's site configuration document.
func (s *Service) UpdateSiteConfig(ctx context.Context, id uuid.UUID, siteConfig json.RawMessage) (*Professional, error) {
	if err := validateSiteConfig(siteConfig); err != nil {
		return nil, err
	}
	if err := s.professionals.UpdateSiteConfig(ctx, id, siteConfig); err != nil {
		return nil, err
	}
	return s.professionals.GetByID(ctx, id)
}

func (s *Service) ListProfessionals(ctx context.Context, limit, offset int) ([]*Professional, int, error) {
	return s.professionals.List(ctx, limit, offset)
}

// -- Client --

func (s *Service) RegisterClient(ctx context.Context, cl *Client) error {
	if err := cl.Validate(); err != nil {
		return err
	}
	if err := s.clients.Create(ctx, cl); err != nil {
		return err
	}
	s.logger.Info().Str("client_id", cl.ID.String()).Msg("client registered")
	return nil
}

func (s *Service) GetClient(ctx context.Context, id uuid.UUID) (*Client, error) {
	return s.clients.GetByID(ctx, id)
}

func (s *Service) ListClients(ctx context.Context, limit, offset int) ([]*Client, int, error) {
	return s.clients.List(ctx, limit, offset)
}
