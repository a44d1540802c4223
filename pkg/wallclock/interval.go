package wallclock

import "fmt"

// Overlaps reports whether [startA, endA) and [startB, endB) share an instant.
// Touching intervals do not overlap. Callers guarantee start < end.
func Overlaps(startA, endA, startB, endB Time) bool {
	return startA < endB && endA > startB
}

// Interval is a half-open [Start, End) range within one day.
type Interval struct {
	Start Time `json:"start_time"`
	End   Time `json:"end_time"`
}

// NewInterval validates start < end.
func NewInterval(start, end Time) (Interval, error) {
	if !start.Before(end) {
		return Interval{}, fmt.Errorf("start time %s must be before end time %s", start, end)
	}
	return Interval{Start: start, End: end}, nil
}

// Overlaps applies the package-level predicate to two intervals.
func (iv Interval) Overlaps(o Interval) bool {
	return Overlaps(iv.Start, iv.End, o.Start, o.End)
}

// Contains reports whether o lies entirely inside iv (bounds inclusive).
func (iv Interval) Contains(o Interval) bool {
	return iv.Start <= o.Start && o.End <= iv.End
}

// Minutes returns the length of the interval.
func (iv Interval) Minutes() int { return int(iv.End - iv.Start) }

func (iv Interval) String() string {
	return iv.Start.String() + "-" + iv.End.String()
}
