package segment

import (
	"slices"

	"github.com/dgnsrekt/murmur/internal/audio"
)

// DefaultTextJoiner separates consecutive transcript entries.
const DefaultTextJoiner = ". "

// AlwaysOccurrence is the weight and cooldown a segment uses whenever none of
// its sections is active.
type AlwaysOccurrence struct {
	Weight   int
	Cooldown int
}

// Section overrides a segment's weight and cooldown inside [Start, End].
type Section struct {
	Weight   int
	Cooldown int
	Start    Timestamp
	End      Timestamp
}

// Covers reports whether now falls inside the section window, both ends
// inclusive.
func (s Section) Covers(now Timestamp) bool {
	return now.Between(s.Start, s.End)
}

// Segment pairs a clip with its transcript text and scheduling rules.
type Segment struct {
	ID         string
	Text       string
	TextJoiner string
	Audio      *audio.Buffer

	Always   *AlwaysOccurrence
	Sections []Section

	// Timestamps are one-shot insertion points, sorted ascending. They are
	// never consumed in place; the selector tracks progress per run.
	Timestamps []Timestamp
}

// New builds a segment and sorts its timestamps.
func New(id, text, joiner string, clip *audio.Buffer, always *AlwaysOccurrence, sections []Section, timestamps []Timestamp) *Segment {
	ts := slices.Clone(timestamps)
	slices.SortStableFunc(ts, Timestamp.Compare)
	return &Segment{
		ID:         id,
		Text:       text,
		TextJoiner: joiner,
		Audio:      clip,
		Always:     always,
		Sections:   sections,
		Timestamps: ts,
	}
}

// Duration returns the clip length in seconds.
func (s *Segment) Duration() float64 {
	return s.Audio.Duration()
}

// SectionAt returns the first section covering now.
func (s *Segment) SectionAt(now Timestamp) (Section, bool) {
	for _, sec := range s.Sections {
		if sec.Covers(now) {
			return sec, true
		}
	}
	return Section{}, false
}

// Descriptor is the weight and cooldown a segment competes with at a given
// moment.
type Descriptor struct {
	Weight   int
	Cooldown int
}

// ResolveDescriptor picks the rules in force for seg at now: a covering
// section wins over the always occurrence. It returns false when the segment
// is not a candidate at all.
func ResolveDescriptor(seg *Segment, now Timestamp) (Descriptor, bool) {
	if sec, ok := seg.SectionAt(now); ok {
		return Descriptor{Weight: sec.Weight, Cooldown: sec.Cooldown}, true
	}
	if seg.Always != nil {
		return Descriptor{Weight: seg.Always.Weight, Cooldown: seg.Always.Cooldown}, true
	}
	return Descriptor{}, false
}
