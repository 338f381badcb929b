// Package result accumulates the segments chosen for a sample: their audio in
// bounded chunks, the running transcript and per-segment statistics.
package result

import (
	"maps"
	"strings"

	"github.com/dgnsrekt/murmur/internal/audio"
	"github.com/dgnsrekt/murmur/internal/segment"
)

// ChunkThreshold is the chunk length in seconds after which a new chunk is
// opened. Appending to one ever-growing slice copies the whole stream each
// time it reallocates; bounded chunks keep that cost flat.
const ChunkThreshold = 10 * 60

// Entry records when a segment started playing.
type Entry struct {
	Segment *segment.Segment
	Start   float64
}

// Buffer collects the output of one run. It is owned by a single task and is
// not safe for concurrent use.
type Buffer struct {
	format audio.Format

	chunks       []*audio.Buffer
	sealedFrames int64

	chosen  []*segment.Segment
	entries []Entry
	text    strings.Builder
	lastSeg *segment.Segment
	stats   *Stats
}

// NewBuffer returns an empty buffer for clips of the given format.
func NewBuffer(format audio.Format) *Buffer {
	return &Buffer{
		format: format,
		chunks: []*audio.Buffer{audio.NewBuffer(format)},
		stats:  NewStats(),
	}
}

// Append adds seg's audio to the stream. Unless isPause is set the segment is
// also added to the chosen sequence and the transcript, and counted in the
// histogram when recordStats is set.
func (b *Buffer) Append(seg *segment.Segment, isPause, recordStats bool) error {
	start := b.Duration()
	last := b.chunks[len(b.chunks)-1]
	if err := last.Append(seg.Audio); err != nil {
		return err
	}
	if last.Duration() > ChunkThreshold {
		b.sealedFrames += int64(last.Frames())
		b.chunks = append(b.chunks, audio.NewBuffer(b.format))
	}

	if isPause {
		return nil
	}
	b.entries = append(b.entries, Entry{Segment: seg, Start: start})
	b.chosen = append(b.chosen, seg)
	b.appendText(seg)
	if recordStats {
		b.stats.Record(seg.ID)
	}
	return nil
}

func (b *Buffer) appendText(seg *segment.Segment) {
	if b.lastSeg != nil {
		b.text.WriteString(b.lastSeg.TextJoiner)
	}
	b.text.WriteString(seg.Text)
	b.lastSeg = seg
}

// Duration returns the total length in seconds in constant time.
func (b *Buffer) Duration() float64 {
	last := b.chunks[len(b.chunks)-1]
	frames := b.sealedFrames + int64(last.Frames())
	return float64(frames) / float64(b.format.SampleRate)
}

// Format returns the audio format of the stream.
func (b *Buffer) Format() audio.Format {
	return b.format
}

// ChunkCount returns the number of audio chunks, including the open one.
func (b *Buffer) ChunkCount() int {
	return len(b.chunks)
}

// Chunks returns the audio chunks in order.
func (b *Buffer) Chunks() []*audio.Buffer {
	return b.chunks
}

// Concat joins all chunks into a single buffer.
func (b *Buffer) Concat() (*audio.Buffer, error) {
	return audio.Concat(b.format, b.chunks...)
}

// Chosen returns the selected segments in order, pauses excluded.
func (b *Buffer) Chosen() []*segment.Segment {
	return b.chosen
}

// Entries returns each selection with its start time in the stream.
func (b *Buffer) Entries() []Entry {
	return b.entries
}

// RecentlyChosen reports whether seg is among the last n selections.
func (b *Buffer) RecentlyChosen(seg *segment.Segment, n int) bool {
	if n <= 0 {
		return false
	}
	start := len(b.chosen) - n
	if start < 0 {
		start = 0
	}
	for _, s := range b.chosen[start:] {
		if s == seg {
			return true
		}
	}
	return false
}

// Text returns the transcript built so far.
func (b *Buffer) Text() string {
	return b.text.String()
}

// Stats returns the selection statistics.
func (b *Buffer) Stats() *Stats {
	return b.stats
}

// Stats counts how often each segment id was selected.
type Stats struct {
	histogram map[string]int
	order     []string
	total     int
}

// NewStats returns empty statistics.
func NewStats() *Stats {
	return &Stats{histogram: make(map[string]int)}
}

// Record counts one selection of id.
func (s *Stats) Record(id string) {
	if _, ok := s.histogram[id]; !ok {
		s.order = append(s.order, id)
	}
	s.histogram[id]++
	s.total++
}

// Count returns the number of selections of id.
func (s *Stats) Count(id string) int {
	return s.histogram[id]
}

// Total returns the number of recorded selections.
func (s *Stats) Total() int {
	return s.total
}

// IDs returns the recorded ids in first-seen order.
func (s *Stats) IDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Histogram returns a copy of the id to count map.
func (s *Stats) Histogram() map[string]int {
	return maps.Clone(s.histogram)
}
