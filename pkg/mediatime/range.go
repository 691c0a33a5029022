package mediatime

import (
	"errors"
	"fmt"
)

var (
	ErrNegativeDuration = errors.New("negative duration")
	ErrOutsideRange     = errors.New("time outside range")
)

// Range is a half-open span [Start, Start+Duration).
type Range struct {
	Start    Time `yaml:"start" json:"start"`
	Duration Time `yaml:"duration" json:"duration"`
}

// NewRange validates duration >= 0.
func NewRange(start, duration Time) (Range, error) {
	if duration.Sign() < 0 {
		return Range{}, fmt.Errorf("%w: %s", ErrNegativeDuration, duration)
	}
	return Range{Start: start, Duration: duration}, nil
}

// Span builds the range [start, end). It fails when end < start.
func Span(start, end Time) (Range, error) {
	return NewRange(start, end.Sub(start))
}

// End returns Start+Duration.
func (r Range) End() Time {
	return r.Start.Add(r.Duration)
}

// IsEmpty reports whether the range covers no time.
func (r Range) IsEmpty() bool {
	return r.Duration.Sign() <= 0
}

// Contains reports Start <= t < End.
func (r Range) Contains(t Time) bool {
	return !t.Before(r.Start) && t.Before(r.End())
}

// ContainsRange reports whether o lies entirely within r.
func (r Range) ContainsRange(o Range) bool {
	return !o.Start.Before(r.Start) && !o.End().After(r.End())
}

// Intersect returns the overlap of r and o. ok is false when the overlap is empty.
func (r Range) Intersect(o Range) (out Range, ok bool) {
	start := Max(r.Start, o.Start)
	end := Min(r.End(), o.End())
	if !start.Before(end) {
		return Range{Start: start, Duration: Zero}, false
	}
	return Range{Start: start, Duration: end.Sub(start)}, true
}

// Overlaps reports whether r and o share any time.
func (r Range) Overlaps(o Range) bool {
	_, ok := r.Intersect(o)
	return ok
}

// SplitAt cuts r at t into [Start,t) and [t,End). t must lie strictly inside r.
func (r Range) SplitAt(t Time) (left, right Range, err error) {
	if !t.After(r.Start) || !t.Before(r.End()) {
		return Range{}, Range{}, fmt.Errorf("%w: %s not inside %s", ErrOutsideRange, t, r)
	}
	left = Range{Start: r.Start, Duration: t.Sub(r.Start)}
	right = Range{Start: t, Duration: r.End().Sub(t)}
	return left, right, nil
}

// Shift moves the range by d.
func (r Range) Shift(d Time) Range {
	return Range{Start: r.Start.Add(d), Duration: r.Duration}
}

// Truncate limits the range to end no later than limit.
func (r Range) Truncate(limit Time) Range {
	if !r.End().After(limit) {
		return r
	}
	if !r.Start.Before(limit) {
		return Range{Start: r.Start, Duration: Zero}
	}
	return Range{Start: r.Start, Duration: limit.Sub(r.Start)}
}

// Equal compares ranges exactly.
func (r Range) Equal(o Range) bool {
	return r.Start.Equal(o.Start) && r.Duration.Equal(o.Duration)
}

func (r Range) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start, r.End())
}
