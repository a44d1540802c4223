package booking

import (
	"github.com/google/uuid"

	"github.com/turnoapp/turno/internal/platform/apperr"
)

// Valid reports whether s is a known appointment status.
func (s Status) Valid() bool {
	switch s {
	case StatusConfirmed, StatusCompleted, StatusNoShow, StatusCancelled:
		return true
	}
	return false
}

// Terminal statuses never change again.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusNoShow || s == StatusCancelled
}

// Actor is the caller changing an appointment.
type Actor struct {
	ID             uuid.UUID
	IsProfessional bool
}

func (a Actor) ownsAsProfessional(appt *Appointment) bool {
	return a.IsProfessional && appt.ProfessionalID == a.ID
}

func (a Actor) ownsAsClient(appt *Appointment) bool {
	return !a.IsProfessional && appt.ClientID == a.ID
}

// checkTransition validates moving appt to next on behalf of actor. Only
// CONFIRMED appointments move; COMPLETED and NO_SHOW belong to the owning
// professional, CANCELLED to either owner.
func checkTransition(appt *Appointment, next Status, actor Actor) error {
	if !appt.IsModifiable() {
		return apperr.Validation("appointment in status %s is not modifiable", appt.Status)
	}
	switch next {
	case StatusCompleted, StatusNoShow:
		if !actor.IsProfessional {
			return apperr.Permission("only the professional can mark an appointment %s", next)
		}
		if !actor.ownsAsProfessional(appt) {
			return apperr.Permission("appointment belongs to another professional")
		}
	case StatusCancelled:
		if !actor.ownsAsProfessional(appt) && !actor.ownsAsClient(appt) {
			return apperr.Permission("not allowed to cancel this appointment")
		}
	case StatusConfirmed:
		return apperr.Validation("appointment cannot go back to %s", StatusConfirmed)
	default:
		return apperr.Validation("unknown status %q", next)
	}
	return nil
}
