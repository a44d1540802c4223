// Package calendar publishes a professional's weekly schedule and upcoming
// appointments as an iCalendar feed.
package calendar

import (
	"context"
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/teambition/rrule-go"

	"github.com/turnoapp/turno/internal/domain/booking"
	"github.com/turnoapp/turno/internal/domain/identity"
	"github.com/turnoapp/turno/internal/domain/schedule"
	"github.com/turnoapp/turno/pkg/wallclock"
)

const (
	productID          = "-//turno//booking//ES"
	DefaultHorizonDays = 30
)

// weekdays is indexed by schedule.Block.DayOfWeek.
var weekdays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

type BlockLister interface {
	ListActive(ctx context.Context, professionalID uuid.UUID) ([]*schedule.Block, error)
}

type AppointmentLister interface {
	Upcoming(ctx context.Context, professionalID uuid.UUID, days int) ([]*booking.Appointment, error)
}

type ProfessionalLookup interface {
	GetProfessional(ctx context.Context, id uuid.UUID) (*identity.Professional, error)
}

type Exporter struct {
	blocks        BlockLister
	appointments  AppointmentLister
	professionals ProfessionalLookup
	loc           *time.Location
	horizonDays   int
	now           func() time.Time
	logger        zerolog.Logger
}

func NewExporter(blocks BlockLister, appointments AppointmentLister, professionals ProfessionalLookup, loc *time.Location, horizonDays int, logger zerolog.Logger) *Exporter {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	return &Exporter{
		blocks:        blocks,
		appointments:  appointments,
		professionals: professionals,
		loc:           loc,
		horizonDays:   horizonDays,
		now:           time.Now,
		logger:        logger,
	}
}

// at places a wall-clock time on a calendar date in the exporter's zone.
func (e *Exporter) at(date time.Time, t wallclock.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, e.loc)
}

// weeklyRule returns the RRULE of a block and its first occurrence on or after from.
func (e *Exporter) weeklyRule(b *schedule.Block, from time.Time) (string, time.Time, error) {
	if b.DayOfWeek < 0 || b.DayOfWeek > 6 {
		return "", time.Time{}, fmt.Errorf("block %s has weekday %d", b.ID, b.DayOfWeek)
	}
	dtstart := e.at(from, b.StartTime)
	opt := rrule.ROption{Freq: rrule.WEEKLY, Byweekday: []rrule.Weekday{weekdays[b.DayOfWeek]}}
	withStart := opt
	withStart.Dtstart = dtstart
	r, err := rrule.NewRRule(withStart)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("build rrule: %w", err)
	}
	return opt.RRuleString(), r.After(dtstart, true), nil
}

// Export renders the feed of one professional.
func (e *Exporter) Export(ctx context.Context, professionalID uuid.UUID) ([]byte, error) {
	p, err := e.professionals.GetProfessional(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	blocks, err := e.blocks.ListActive(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	appts, err := e.appointments.Upcoming(ctx, professionalID, e.horizonDays)
	if err != nil {
		return nil, err
	}

	now := e.now().In(e.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, e.loc)

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(p.FirstName + " " + p.LastName)
	cal.SetXWRTimezone(e.loc.String())

	for _, b := range blocks {
		rule, first, err := e.weeklyRule(b, today)
		if err != nil {
			return nil, err
		}
		ev := cal.AddEvent("block-" + b.ID.String() + "@turno")
		ev.SetDtStampTime(now)
		ev.SetStartAt(first)
		ev.SetEndAt(first.Add(time.Duration(b.Interval().Minutes()) * time.Minute))
		ev.SetSummary("Available")
		ev.AddProperty(ical.ComponentPropertyRrule, rule)
	}

	for _, a := range appts {
		ev := cal.AddEvent("appointment-" + a.ID.String() + "@turno")
		ev.SetDtStampTime(now)
		ev.SetStartAt(e.at(a.Date, a.StartTime))
		ev.SetEndAt(e.at(a.Date, a.EndTime))
		ev.SetSummary("Appointment")
		ev.SetStatus(ical.ObjectStatusConfirmed)
		if a.Notes != nil {
			ev.SetDescription(*a.Notes)
		}
	}

	e.logger.Debug().
		Str("professional_id", professionalID.String()).
		Int("blocks", len(blocks)).
		Int("appointments", len(appts)).
		Msg("calendar exported")
	return []byte(cal.Serialize()), nil
}
