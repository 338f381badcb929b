package audio

import (
	"errors"
	"fmt"
	"math"
)

// ErrFormatMismatch is returned when two buffers with different formats are
// combined.
var ErrFormatMismatch = errors.New("audio format mismatch")

// Format describes the sample rate and channel count of a buffer.
type Format struct {
	SampleRate int
	Channels   int
}

// DefaultFormat is CD quality stereo.
var DefaultFormat = Format{SampleRate: 44100, Channels: 2}

// Validate checks that the format can be used for playback and export.
func (f Format) Validate() error {
	if f.SampleRate < 8000 || f.SampleRate > 192000 {
		return fmt.Errorf("sample rate must be between 8000 and 192000 Hz, got %d", f.SampleRate)
	}
	if f.Channels != 1 && f.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", f.Channels)
	}
	return nil
}

func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch", f.SampleRate, f.Channels)
}

// Buffer is a block of interleaved signed 16-bit PCM.
type Buffer struct {
	Format  Format
	Samples []int16
}

// NewBuffer returns an empty buffer of the given format.
func NewBuffer(format Format) *Buffer {
	return &Buffer{Format: format}
}

// Silence returns a buffer of digital silence lasting ms milliseconds.
func Silence(format Format, ms int) *Buffer {
	if ms <= 0 {
		return NewBuffer(format)
	}
	frames := int(int64(ms) * int64(format.SampleRate) / 1000)
	return &Buffer{
		Format:  format,
		Samples: make([]int16, frames*format.Channels),
	}
}

// Frames returns the number of sample frames (samples per channel).
func (b *Buffer) Frames() int {
	if b == nil || b.Format.Channels == 0 {
		return 0
	}
	return len(b.Samples) / b.Format.Channels
}

// Duration returns the length of the buffer in seconds.
func (b *Buffer) Duration() float64 {
	if b == nil || b.Format.SampleRate == 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.Format.SampleRate)
}

// Empty reports whether the buffer holds no samples.
func (b *Buffer) Empty() bool {
	return b == nil || len(b.Samples) == 0
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{Format: b.Format, Samples: make([]int16, len(b.Samples))}
	copy(out.Samples, b.Samples)
	return out
}

// Append concatenates other onto the end of b.
func (b *Buffer) Append(other *Buffer) error {
	if other.Empty() {
		return nil
	}
	if other.Format != b.Format {
		return fmt.Errorf("%w: %s vs %s", ErrFormatMismatch, b.Format, other.Format)
	}
	b.Samples = append(b.Samples, other.Samples...)
	return nil
}

// Concat joins buffers into a single new buffer, allocating once.
func Concat(format Format, bufs ...*Buffer) (*Buffer, error) {
	total := 0
	for _, buf := range bufs {
		if buf.Empty() {
			continue
		}
		if buf.Format != format {
			return nil, fmt.Errorf("%w: %s vs %s", ErrFormatMismatch, format, buf.Format)
		}
		total += len(buf.Samples)
	}

	out := &Buffer{Format: format, Samples: make([]int16, 0, total)}
	for _, buf := range bufs {
		if buf.Empty() {
			continue
		}
		out.Samples = append(out.Samples, buf.Samples...)
	}
	return out, nil
}

// GainFactor converts a gain in decibels to a linear amplitude factor.
func GainFactor(db float64) float64 {
	return math.Pow(10, db/20)
}

// Gain applies a flat gain in decibels in place. A gain of 0 dB leaves the
// samples untouched.
func (b *Buffer) Gain(db float64) {
	if db == 0 || b.Empty() {
		return
	}
	factor := GainFactor(db)
	for i, s := range b.Samples {
		b.Samples[i] = clip(float64(s) * factor)
	}
}

// OverlayLoop mixes track into b starting at offset 0, repeating track until
// the whole length of b is covered. The length of b does not change.
func (b *Buffer) OverlayLoop(track *Buffer) error {
	if track.Empty() || b.Empty() {
		return nil
	}
	if track.Format != b.Format {
		return fmt.Errorf("%w: %s vs %s", ErrFormatMismatch, b.Format, track.Format)
	}

	n := len(track.Samples)
	for i := range b.Samples {
		mixed := int32(b.Samples[i]) + int32(track.Samples[i%n])
		b.Samples[i] = clip(float64(mixed))
	}
	return nil
}

// clip rounds and saturates a sample to the int16 range.
func clip(v float64) int16 {
	v = math.Round(v)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// Bytes returns the samples as little-endian bytes, the layout oto and the
// disk cache expect.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, len(b.Samples)*2)
	for i, s := range b.Samples {
		out[i*2] = byte(uint16(s))
		out[i*2+1] = byte(uint16(s) >> 8)
	}
	return out
}

// FromBytes rebuilds a buffer from little-endian PCM bytes. A trailing odd
// byte is dropped.
func FromBytes(format Format, data []byte) *Buffer {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(uint16(data[i*2]) | uint16(data[i*2+1])<<8)
	}
	return &Buffer{Format: format, Samples: samples}
}
