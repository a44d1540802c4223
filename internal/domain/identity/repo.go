package identity

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

type ProfessionalRepository interface {
	Create(ctx context.Context, p *Professional) error
	GetByID(ctx context.Context, id uuid.UUID) (*Professional, error)
	GetByCustomURL(ctx context.Context, customURL string) (*Professional, error)
	UpdateSiteConfig(ctx context.Context, id uuid.UUID, siteConfig json.RawMessage) error
	List(ctx context.Context, limit, offset int) ([]*Professional, int, error)
}

type ClientRepository interface {
	Create(ctx context.Context, cl *Client) error
	GetByID(ctx context.Context, id uuid.UUID) (*Client, error)
	List(ctx context.Context, limit, offset int) ([]*Client, int, error)
}
