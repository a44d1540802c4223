// Package booking computes availability from a professional's weekly
// schedule and admits appointments that fit it without colliding.
package booking

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/turnoapp/turno/internal/platform/apperr"
	"github.com/turnoapp/turno/pkg/wallclock"
)

// DateLayout is the calendar-date format used on the wire and in logs.
const DateLayout = "2006-01-02"

type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusCompleted Status = "COMPLETED"
	StatusNoShow    Status = "NO_SHOW"
	StatusCancelled Status = "CANCELLED"
)

const maxNotesLength = 500

type Appointment struct {
	ID             uuid.UUID      `json:"id"`
	ProfessionalID uuid.UUID      `json:"professional_id"`
	ClientID       uuid.UUID      `json:"client_id"`
	ServiceID      uuid.UUID      `json:"service_id"`
	Date           time.Time      `json:"date"`
	StartTime      wallclock.Time `json:"start_time"`
	EndTime        wallclock.Time `json:"end_time"`
	Status         Status         `json:"status"`
	Notes          *string        `json:"notes,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (a Appointment) MarshalJSON() ([]byte, error) {
	type alias Appointment
	return json.Marshal(struct {
		alias
		Date string `json:"date"`
	}{alias(a), a.Date.Format(DateLayout)})
}

func (a *Appointment) Interval() wallclock.Interval {
	return wallclock.Interval{Start: a.StartTime, End: a.EndTime}
}

// IsModifiable reports whether the appointment can still change state.
func (a *Appointment) IsModifiable() bool {
	return a.Status == StatusConfirmed
}

// ParseDate parses a YYYY-MM-DD calendar date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, apperr.Validation("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}

func dateKey(d time.Time) string { return d.Format(DateLayout) }

func validateNotes(notes *string) error {
	if notes != nil && len([]rune(*notes)) > maxNotesLength {
		return apperr.Validation("notes must be at most %d characters", maxNotesLength)
	}
	return nil
}

// TimeSlot is one bookable candidate on a date.
type TimeSlot struct {
	StartTime wallclock.Time `json:"start_time"`
	EndTime   wallclock.Time `json:"end_time"`
	Available bool           `json:"available"`
}

type SlotAvailability struct {
	ProfessionalID  uuid.UUID  `json:"professional_id"`
	ServiceID       uuid.UUID  `json:"service_id"`
	Date            string     `json:"date"`
	ServiceDuration int        `json:"service_duration"`
	Slots           []TimeSlot `json:"slots"`
}

type DateAvailability struct {
	Date            string `json:"date"`
	HasAvailability bool   `json:"has_availability"`
}

type DateRangeAvailability struct {
	ProfessionalID uuid.UUID          `json:"professional_id"`
	ServiceID      uuid.UUID          `json:"service_id"`
	Availability   []DateAvailability `json:"availability"`
}

func (s Status) String() string { return string(s) }
