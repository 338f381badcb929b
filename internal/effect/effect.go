// Package effect holds the post-processing applied to a finished sample.
package effect

import (
	"fmt"

	"github.com/dgnsrekt/murmur/internal/audio"
)

// Type names an effect kind as written in task files.
type Type string

const (
	TypeOverlay        Type = "overlay"
	TypePostVolumeGain Type = "post_volume_gain"
)

// Types lists every known effect kind.
var Types = []Type{TypeOverlay, TypePostVolumeGain}

// Effect is one of Overlay or PostVolumeGain. The set is closed; Apply
// switches over every kind.
type Effect interface {
	Type() Type
	effect()
}

// Overlay loops Track, adjusted by Gain decibels, under the whole sample
// starting at offset 0.
type Overlay struct {
	Name  string
	Track *audio.Buffer
	Gain  float64
}

func (Overlay) Type() Type { return TypeOverlay }
func (Overlay) effect()    {}

// PostVolumeGain applies a flat gain in decibels to the whole sample.
type PostVolumeGain struct {
	Gain float64
}

func (PostVolumeGain) Type() Type { return TypePostVolumeGain }
func (PostVolumeGain) effect()    {}

// ApplyTo mutates buf with a single effect.
func ApplyTo(buf *audio.Buffer, e Effect) error {
	switch e := e.(type) {
	case Overlay:
		if e.Track == nil {
			return fmt.Errorf("overlay %q: no track", e.Name)
		}
		track := e.Track.Clone()
		track.Gain(e.Gain)
		if err := buf.OverlayLoop(track); err != nil {
			return fmt.Errorf("overlay %q: %w", e.Name, err)
		}
		return nil
	case PostVolumeGain:
		buf.Gain(e.Gain)
		return nil
	default:
		panic(fmt.Sprintf("effect: unhandled effect %T", e))
	}
}

// Failure pairs a failed effect with its position in the chain.
type Failure struct {
	Index  int
	Effect Effect
	Err    error
}

func (f Failure) Error() string {
	return fmt.Sprintf("effect %d (%s): %v", f.Index, f.Effect.Type(), f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Apply runs effects in order. A failing effect is skipped and reported; the
// rest still run. progress, when set, is called after each effect.
func Apply(buf *audio.Buffer, effects []Effect, progress func(done int)) []Failure {
	var failures []Failure
	for i, e := range effects {
		if err := ApplyTo(buf, e); err != nil {
			failures = append(failures, Failure{Index: i, Effect: e, Err: err})
		}
		if progress != nil {
			progress(i + 1)
		}
	}
	return failures
}
