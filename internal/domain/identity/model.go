package identity

import (
	"encoding/json"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turnoapp/turno/internal/platform/apperr"
)

// Professional offers services and owns a weekly schedule.
type Professional struct {
	ID         uuid.UUID `json:"id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email"`
	Profession string    `json:"profession,omitempty"`
	CustomURL  *string   `json:"custom_url,omitempty"`
	// SiteConfig is stored and returned as-is.
	SiteConfig json.RawMessage `json:"site_config,omitempty"`
	Active     bool            `json:"active"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Client books appointments.
type Client struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var customURLPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func validatePerson(first, last, email string) error {
	if strings.TrimSpace(first) == "" || strings.TrimSpace(last) == "" {
		return apperr.Validation("first_name and last_name are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperr.Validation("invalid email %q", email)
	}
	return nil
}

func (p *Professional) Validate() error {
	if err := validatePerson(p.FirstName, p.LastName, p.Email); err != nil {
		return err
	}
	if p.CustomURL != nil && !customURLPattern.MatchString(*p.CustomURL) {
		return apperr.Validation("custom_url must be lowercase letters, digits and single hyphens")
	}
	return validateSiteConfig(p.SiteConfig)
}

func (cl *Client) Validate() error {
	return validatePerson(cl.FirstName, cl.LastName, cl.Email)
}

func validateSiteConfig(raw json.RawMessage) error {
	if len(raw) > 0 && !json.Valid(raw) {
		return apperr.Validation("site_config must be a JSON document")
	}
	return nil
}
