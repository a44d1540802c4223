// Package schedule stores each professional's weekly recurring availability
// as blocks of wall-clock time on a weekday.
package schedule

import (
	"time"

	"github.com/google/uuid"

	"github.com/turnoapp/turno/internal/platform/apperr"
	"github.com/turnoapp/turno/pkg/wallclock"
)

// Block is one availability window, e.g. Monday 09:00-13:00. DayOfWeek
// follows time.Weekday: 0 is Sunday.
type Block struct {
	ID             uuid.UUID      `json:"id"`
	ProfessionalID uuid.UUID      `json:"professional_id"`
	DayOfWeek      int            `json:"day_of_week"`
	StartTime      wallclock.Time `json:"start_time"`
	EndTime        wallclock.Time `json:"end_time"`
	Active         bool           `json:"active"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (b *Block) Interval() wallclock.Interval {
	return wallclock.Interval{Start: b.StartTime, End: b.EndTime}
}

func (b *Block) Validate() error {
	if b.DayOfWeek < 0 || b.DayOfWeek > 6 {
		return apperr.Validation("day_of_week must be between 0 (Sunday) and 6 (Saturday), got %d", b.DayOfWeek)
	}
	if !b.StartTime.Before(b.EndTime) {
		return apperr.Validation("start_time %s must be before end_time %s", b.StartTime, b.EndTime)
	}
	return nil
}

// Patch is a partial block update; the weekday cannot change.
type Patch struct {
	StartTime *wallclock.Time `json:"start_time"`
	EndTime   *wallclock.Time `json:"end_time"`
	Active    *bool           `json:"active"`
}

func (p Patch) Apply(b *Block) {
	if p.StartTime != nil {
		b.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		b.EndTime = *p.EndTime
	}
	if p.Active != nil {
		b.Active = *p.Active
	}
}
