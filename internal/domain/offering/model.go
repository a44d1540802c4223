// Package offering is the professional's service catalog. A professional
// offers services of a fixed duration; the booking engine reads only the
// duration and the active flag.
package offering

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turnoapp/turno/internal/platform/apperr"
)

const maxNameLength = 100

type Offering struct {
	ID                uuid.UUID `json:"id"`
	ProfessionalID    uuid.UUID `json:"professional_id"`
	Name              string    `json:"name"`
	Description       *string   `json:"description,omitempty"`
	PriceCents        int64     `json:"price_cents"`
	DurationMinutes   int       `json:"duration_minutes"`
	DepositPercentage int       `json:"deposit_percentage"`
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Patch carries the fields of a partial update; nil means unchanged.
type Patch struct {
	Name              *string `json:"name"`
	Description       *string `json:"description"`
	PriceCents        *int64  `json:"price_cents"`
	DurationMinutes   *int    `json:"duration_minutes"`
	DepositPercentage *int    `json:"deposit_percentage"`
}

func (o *Offering) Validate() error {
	name := strings.TrimSpace(o.Name)
	if name == "" {
		return apperr.Validation("name is required")
	}
	if len(name) > maxNameLength {
		return apperr.Validation("name must be at most %d characters", maxNameLength)
	}
	if o.PriceCents <= 0 {
		return apperr.Validation("price_cents must be positive")
	}
	if o.DurationMinutes <= 0 {
		return apperr.Validation("duration_minutes must be at least 1")
	}
	if o.DepositPercentage < 0 || o.DepositPercentage > 100 {
		return apperr.Validation("deposit_percentage must be between 0 and 100")
	}
	return nil
}

// Apply copies the set fields of p onto o.
func (p Patch) Apply(o *Offering) {
	if p.Name != nil {
		o.Name = *p.Name
	}
	if p.Description != nil {
		o.Description = p.Description
	}
	if p.PriceCents != nil {
		o.PriceCents = *p.PriceCents
	}
	if p.DurationMinutes != nil {
		o.DurationMinutes = *p.DurationMinutes
	}
	if p.DepositPercentage != nil {
		o.DepositPercentage = *p.DepositPercentage
	}
}
