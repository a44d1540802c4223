package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/turnoapp/turno/internal/platform/apperr"
	"github.com/turnoapp/turno/pkg/wallclock"
)

// ErrOverlap is returned when a booking would share time with another
// non-cancelled appointment of the professional. A booking that loses a
// race at the database also matches apperr.ErrConflict.
var ErrOverlap = fmt.Errorf("%w: requested time overlaps an existing appointment", apperr.ErrValidation)

type CreateRequest struct {
	ServiceID uuid.UUID
	Date      time.Time
	StartTime wallclock.Time
	Notes     *string
}

type RescheduleRequest struct {
	Date      time.Time
	StartTime wallclock.Time
}

// endFor computes the booking interval or rejects one that passes midnight.
func endFor(start wallclock.Time, duration int) (wallclock.Interval, error) {
	end, err := start.AddMinutes(duration)
	if err != nil {
		return wallclock.Interval{}, apperr.Validation("appointment starting at %s for %d minutes ends after 23:59", start, duration)
	}
	return wallclock.Interval{Start: start, End: end}, nil
}

func (s *Service) checkNotPast(date time.Time) error {
	if date.Before(s.today()) {
		return apperr.Validation("cannot book on past date %s", dateKey(date))
	}
	return nil
}

// admit checks the placement of a against the schedule and the other
// appointments of its date. It must run under the date lock.
func (s *Service) admit(ctx context.Context, a *Appointment) error {
	blocks, err := s.blocks.ListActiveByDay(ctx, a.ProfessionalID, WeekdayIndex(a.Date))
	if err != nil {
		return err
	}
	if len(blocks) == 0 {
		return apperr.Validation("professional has no schedule on %s", a.Date.Weekday())
	}
	if !containedInAny(a.Interval(), blocks) {
		return apperr.Validation("%s is outside the professional's schedule", a.Interval())
	}
	overlapping, err := s.appts.FindOverlapping(ctx, a.ProfessionalID, a.Date, a.StartTime, a.EndTime, a.ID)
	if err != nil {
		return err
	}
	if len(overlapping) > 0 {
		return ErrOverlap
	}
	return nil
}

func (s *Service) logRejection(err error, msg string, a *Appointment) {
	if errors.Is(err, apperr.ErrValidation) || errors.Is(err, apperr.ErrConflict) {
		s.logger.Warn().Err(err).
			Str("professional_id", a.ProfessionalID.String()).
			Str("date", dateKey(a.Date)).
			Str("start", a.StartTime.String()).
			Msg(msg)
	}
}

// withinDates holds the locks of both dates, taken in date order.
func (s *Service) withinDates(ctx context.Context, professionalID uuid.UUID, a, b time.Time, fn func(context.Context) error) error {
	if a.Equal(b) {
		return s.locker.WithinDay(ctx, professionalID, a, fn)
	}
	if b.Before(a) {
		a, b = b, a
	}
	return s.locker.WithinDay(ctx, professionalID, a, func(ctx context.Context) error {
		return s.locker.WithinDay(ctx, professionalID, b, fn)
	})
}

// CreateAppointment books req for clientID. The professional is the owner
// of the service. The appointment is created CONFIRMED.
func (s *Service) CreateAppointment(ctx context.Context, req CreateRequest, clientID uuid.UUID) (*Appointment, error) {
	if _, err := s.clients.GetClient(ctx, clientID); err != nil {
		return nil, err
	}
	svc, err := s.offerings.GetBookable(ctx, req.ServiceID, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if err := validateNotes(req.Notes); err != nil {
		return nil, err
	}
	if err := s.checkNotPast(req.Date); err != nil {
		return nil, err
	}
	iv, err := endFor(req.StartTime, svc.DurationMinutes)
	if err != nil {
		return nil, err
	}

	a := &Appointment{
		ProfessionalID: svc.ProfessionalID,
		ClientID:       clientID,
		ServiceID:      svc.ID,
		Date:           req.Date,
		StartTime:      iv.Start,
		EndTime:        iv.End,
		Status:         StatusConfirmed,
		Notes:          req.Notes,
	}
	err = s.locker.WithinDay(ctx, a.ProfessionalID, a.Date, func(ctx context.Context) error {
		if err := s.admit(ctx, a); err != nil {
			return err
		}
		return s.appts.Create(ctx, a)
	})
	if err != nil {
		s.logRejection(err, "appointment rejected", a)
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", a.ID.String()).
		Str("professional_id", a.ProfessionalID.String()).
		Str("client_id", clientID.String()).
		Str("date", dateKey(a.Date)).
		Str("start", a.StartTime.String()).
		Str("end", a.EndTime.String()).
		Msg("appointment created")
	s.events.Publish(EventCreated, a.ID, a)
	return a, nil
}

// RescheduleAppointment moves a CONFIRMED appointment to a new date and
// start time, recomputing its end from the service duration.
func (s *Service) RescheduleAppointment(ctx context.Context, id uuid.UUID, req RescheduleRequest, actor Actor) (*Appointment, error) {
	current, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.ownsAsProfessional(current) && !actor.ownsAsClient(current) {
		return nil, apperr.Permission("not allowed to reschedule this appointment")
	}
	svc, err := s.offerings.GetOffering(ctx, current.ServiceID)
	if err != nil {
		return nil, err
	}
	if err := s.checkNotPast(req.Date); err != nil {
		return nil, err
	}
	iv, err := endFor(req.StartTime, svc.DurationMinutes)
	if err != nil {
		return nil, err
	}

	var moved *Appointment
	err = s.withinDates(ctx, current.ProfessionalID, current.Date, req.Date, func(ctx context.Context) error {
		a, err := s.appts.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !a.IsModifiable() {
			return apperr.Validation("appointment in status %s is not modifiable", a.Status)
		}
		a.Date, a.StartTime, a.EndTime = req.Date, iv.Start, iv.End
		if err := s.admit(ctx, a); err != nil {
			return err
		}
		if err := s.appts.Update(ctx, a); err != nil {
			return err
		}
		moved = a
		return nil
	})
	if err != nil {
		s.logRejection(err, "reschedule rejected", &Appointment{ProfessionalID: current.ProfessionalID, Date: req.Date, StartTime: req.StartTime})
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", id.String()).
		Str("date", dateKey(moved.Date)).
		Str("start", moved.StartTime.String()).
		Msg("appointment rescheduled")
	s.events.Publish(EventRescheduled, moved.ID, moved)
	return moved, nil
}

// UpdateAppointmentStatus moves a CONFIRMED appointment to a terminal status.
func (s *Service) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, next Status, actor Actor) (*Appointment, error) {
	current, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(current, next, actor); err != nil {
		return nil, err
	}

	var updated *Appointment
	err = s.locker.WithinDay(ctx, current.ProfessionalID, current.Date, func(ctx context.Context) error {
		a, err := s.appts.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := checkTransition(a, next, actor); err != nil {
			return err
		}
		a.Status = next
		if err := s.appts.Update(ctx, a); err != nil {
			return err
		}
		updated = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", id.String()).
		Str("status", string(next)).
		Str("actor_id", actor.ID.String()).
		Msg("appointment status updated")
	s.events.Publish(EventStatusChanged, updated.ID, updated)
	return updated, nil
}
