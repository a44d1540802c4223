package booking

import (
	"time"

	"github.com/turnoapp/turno/internal/domain/schedule"
	"github.com/turnoapp/turno/pkg/wallclock"
)

// WeekdayIndex maps a date to the schedule weekday, 0 for Sunday.
func WeekdayIndex(date time.Time) int {
	return int(date.Weekday())
}

// GenerateSlots cuts each block into back-to-back candidates of duration
// minutes starting at the block start. A trailing remainder shorter than
// the duration is dropped. Blocks are never merged, so output follows block
// order and is chronological within a block.
func GenerateSlots(blocks []*schedule.Block, duration int) []wallclock.Interval {
	if duration <= 0 {
		return nil
	}
	var out []wallclock.Interval
	for _, b := range blocks {
		forEachCandidate(b, duration, func(c wallclock.Interval) bool {
			out = append(out, c)
			return true
		})
	}
	return out
}

// forEachCandidate stops early when fn returns false.
func forEachCandidate(b *schedule.Block, duration int, fn func(wallclock.Interval) bool) {
	end := b.EndTime.Minutes()
	for cur := b.StartTime.Minutes(); cur+duration <= end; cur += duration {
		c := wallclock.Interval{Start: wallclock.Time(cur), End: wallclock.Time(cur + duration)}
		if !fn(c) {
			return
		}
	}
}

// isFree reports whether c overlaps none of the given appointments.
func isFree(c wallclock.Interval, appts []*Appointment) bool {
	for _, a := range appts {
		if wallclock.Overlaps(c.Start, c.End, a.StartTime, a.EndTime) {
			return false
		}
	}
	return true
}

// hasFreeSlot returns on the first free candidate.
func hasFreeSlot(blocks []*schedule.Block, duration int, appts []*Appointment) bool {
	found := false
	for _, b := range blocks {
		forEachCandidate(b, duration, func(c wallclock.Interval) bool {
			found = isFree(c, appts)
			return !found
		})
		if found {
			return true
		}
	}
	return false
}

// containedInAny reports whether iv lies inside one single block.
func containedInAny(iv wallclock.Interval, blocks []*schedule.Block) bool {
	for _, b := range blocks {
		if b.Interval().Contains(iv) {
			return true
		}
	}
	return false
}
