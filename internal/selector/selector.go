// Package selector decides which segment plays next.
//
// Each call first honours due one-shot timestamps, then draws a weighted
// random candidate among the segments whose section or always rule is in
// force, skipping those still cooling down. When every candidate is cooling
// down the cooldowns are relaxed one step at a time until one qualifies.
package selector

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/dgnsrekt/murmur/internal/segment"
)

var (
	// ErrNoEligibleSegment means no segment has a rule covering the current
	// time.
	ErrNoEligibleSegment = errors.New("no eligible segment")

	// ErrUnsatisfiableCooldown means relaxation ran past the largest
	// cooldown without finding a candidate. It indicates a bug.
	ErrUnsatisfiableCooldown = errors.New("cooldown could not be satisfied")
)

// History is the view of the result buffer the selector needs.
type History interface {
	Duration() float64
	RecentlyChosen(seg *segment.Segment, n int) bool
}

type candidate struct {
	seg  *segment.Segment
	desc segment.Descriptor
}

// Selector picks segments for a single run. It owns the per-run progress
// through every segment's timestamps, so the segments themselves are never
// modified and can be reused across runs.
type Selector struct {
	segments []*segment.Segment
	cursors  []int
	rng      *rand.Rand

	candidates []candidate
	eligible   []candidate
	relaxed    int
}

// New returns a selector over segments in declaration order.
func New(segments []*segment.Segment, rng *rand.Rand) *Selector {
	return &Selector{
		segments: segments,
		cursors:  make([]int, len(segments)),
		rng:      rng,
	}
}

// Next returns the segment to append after the content of h.
func (s *Selector) Next(h History) (*segment.Segment, error) {
	now := segment.At(h.Duration())

	if seg := s.due(now); seg != nil {
		return seg, nil
	}

	s.collect(now)
	if len(s.candidates) == 0 {
		return nil, fmt.Errorf("%w at %s", ErrNoEligibleSegment, now)
	}

	maxCooldown := 0
	for _, c := range s.candidates {
		maxCooldown = max(maxCooldown, c.desc.Cooldown)
	}

	for relax := 0; relax <= maxCooldown; relax++ {
		s.filter(h, relax)
		if len(s.eligible) > 0 {
			if relax > 0 {
				s.relaxed++
			}
			return s.pick(), nil
		}
	}
	return nil, fmt.Errorf("%w at %s", ErrUnsatisfiableCooldown, now)
}

// due consumes and returns the first segment, in declaration order, whose
// next timestamp has been reached.
func (s *Selector) due(now segment.Timestamp) *segment.Segment {
	for i, seg := range s.segments {
		c := s.cursors[i]
		if c < len(seg.Timestamps) && seg.Timestamps[c].Before(now) {
			s.cursors[i]++
			return seg
		}
	}
	return nil
}

func (s *Selector) collect(now segment.Timestamp) {
	s.candidates = s.candidates[:0]
	for _, seg := range s.segments {
		desc, ok := segment.ResolveDescriptor(seg, now)
		if !ok || desc.Weight <= 0 {
			continue
		}
		s.candidates = append(s.candidates, candidate{seg: seg, desc: desc})
	}
}

// filter keeps the candidates that honour their cooldown reduced by relax.
func (s *Selector) filter(h History, relax int) {
	s.eligible = s.eligible[:0]
	for _, c := range s.candidates {
		window := c.desc.Cooldown - relax
		if window <= 0 || !h.RecentlyChosen(c.seg, window) {
			s.eligible = append(s.eligible, c)
		}
	}
}

// pick draws from the eligible candidates with probability proportional to
// their weight.
func (s *Selector) pick() *segment.Segment {
	total := 0
	for _, c := range s.eligible {
		total += c.desc.Weight
	}

	n := s.rng.IntN(total) + 1
	for _, c := range s.eligible {
		n -= c.desc.Weight
		if n <= 0 {
			return c.seg
		}
	}
	return s.eligible[len(s.eligible)-1].seg
}

// Drain returns every segment that still has pending timestamps, in
// declaration order, consuming one timestamp from each.
func (s *Selector) Drain() []*segment.Segment {
	var out []*segment.Segment
	for i, seg := range s.segments {
		if s.cursors[i] < len(seg.Timestamps) {
			s.cursors[i]++
			out = append(out, seg)
		}
	}
	return out
}

// Pending returns how many timestamps of the i-th segment have not fired.
func (s *Selector) Pending(i int) int {
	return len(s.segments[i].Timestamps) - s.cursors[i]
}

// HasPending reports whether any timestamp has not fired yet.
func (s *Selector) HasPending() bool {
	for i := range s.segments {
		if s.Pending(i) > 0 {
			return true
		}
	}
	return false
}

// Relaxed returns how many selections needed cooldown relaxation.
func (s *Selector) Relaxed() int {
	return s.relaxed
}

// NewRand returns the random source for a run: seeded when seed is set,
// otherwise seeded from the runtime's entropy.
func NewRand(seed *int64) *rand.Rand {
	if seed == nil {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(uint64(*seed), 0))
}
