// Package segment defines the schedulable units of a sample: clips paired
// with transcript text and the rules that decide when they may play.
package segment

import (
	"cmp"
	"fmt"
)

// Timestamp is a point in the generated stream, in seconds from the start.
type Timestamp struct {
	Seconds float64
}

// At returns a timestamp for an absolute position.
func At(seconds float64) Timestamp {
	return Timestamp{Seconds: seconds}
}

// AtPercentage resolves a relative position against the run's target
// duration.
func AtPercentage(percentage, duration float64) Timestamp {
	return Timestamp{Seconds: percentage * duration}
}

// Before reports whether t is at or before other.
func (t Timestamp) Before(other Timestamp) bool {
	return t.Seconds <= other.Seconds
}

// Between reports whether start <= t <= end.
func (t Timestamp) Between(start, end Timestamp) bool {
	return start.Seconds <= t.Seconds && t.Seconds <= end.Seconds
}

// Compare orders timestamps by seconds.
func (t Timestamp) Compare(other Timestamp) int {
	return cmp.Compare(t.Seconds, other.Seconds)
}

func (t Timestamp) String() string {
	return fmt.Sprintf("%.2fs", t.Seconds)
}
