package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/turnoapp/turno/internal/domain/schedule"
)

// AvailableSlots lists every candidate slot of the service on date with its
// availability. A weekday without active blocks yields no slots.
func (s *Service) AvailableSlots(ctx context.Context, professionalID, serviceID uuid.UUID, date time.Time) (*SlotAvailability, error) {
	svc, err := s.offerings.GetBookable(ctx, serviceID, professionalID)
	if err != nil {
		return nil, err
	}
	out := &SlotAvailability{
		ProfessionalID:  professionalID,
		ServiceID:       serviceID,
		Date:            dateKey(date),
		ServiceDuration: svc.DurationMinutes,
		Slots:           []TimeSlot{},
	}

	blocks, err := s.blocks.ListActiveByDay(ctx, professionalID, WeekdayIndex(date))
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		s.logger.Debug().Str("professional_id", professionalID.String()).Str("date", out.Date).Msg("no schedule for weekday")
		return out, nil
	}

	appts, err := s.appts.ListByDate(ctx, professionalID, date, StatusCancelled)
	if err != nil {
		return nil, err
	}
	for _, c := range GenerateSlots(blocks, svc.DurationMinutes) {
		out.Slots = append(out.Slots, TimeSlot{StartTime: c.Start, EndTime: c.End, Available: isFree(c, appts)})
	}
	return out, nil
}

// AvailabilityByDates reports, for each date in [start, end], whether at
// least one slot of the service is free. It issues one query each for the
// service, the appointments of the range and the active blocks.
func (s *Service) AvailabilityByDates(ctx context.Context, professionalID, serviceID uuid.UUID, start, end time.Time) (*DateRangeAvailability, error) {
	svc, err := s.offerings.GetBookable(ctx, serviceID, professionalID)
	if err != nil {
		return nil, err
	}
	out := &DateRangeAvailability{
		ProfessionalID: professionalID,
		ServiceID:      serviceID,
		Availability:   []DateAvailability{},
	}

	appts, err := s.appts.ListByDateRange(ctx, professionalID, start, end)
	if err != nil {
		return nil, err
	}
	blocks, err := s.blocks.ListActive(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		s.logger.Debug().Str("professional_id", professionalID.String()).Msg("professional has no schedule")
		return out, nil
	}

	byDay := make(map[int][]*schedule.Block, 7)
	for _, b := range blocks {
		byDay[b.DayOfWeek] = append(byDay[b.DayOfWeek], b)
	}
	byDate := make(map[string][]*Appointment)
	for _, a := range appts {
		if a.Status == StatusCancelled {
			continue
		}
		k := dateKey(a.Date)
		byDate[k] = append(byDate[k], a)
	}

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		k := dateKey(d)
		dayBlocks := byDay[WeekdayIndex(d)]
		out.Availability = append(out.Availability, DateAvailability{
			Date:            k,
			HasAvailability: len(dayBlocks) > 0 && hasFreeSlot(dayBlocks, svc.DurationMinutes, byDate[k]),
		})
	}
	return out, nil
}
