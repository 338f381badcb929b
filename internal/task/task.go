// Package task runs the generation loop: it asks the selector for segments
// until the target duration is reached, appends a breath pause after each,
// flushes timestamps that never fired and finally applies the effects.
package task

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/murmur/internal/audio"
	"github.com/dgnsrekt/murmur/internal/effect"
	"github.com/dgnsrekt/murmur/internal/result"
	"github.com/dgnsrekt/murmur/internal/segment"
	"github.com/dgnsrekt/murmur/internal/selector"
)

// DefaultDuration is used when neither the task file nor the command line
// sets a duration.
const DefaultDuration = 30

// Settings controls a single run.
type Settings struct {
	// Seed makes runs reproducible. A random seed is drawn when nil.
	Seed *int64
	// Duration is the target length in seconds.
	Duration float64
	// BreathPause is the silence in milliseconds after every segment.
	BreathPause int
}

// Validate checks the settings.
func (s Settings) Validate() error {
	if s.Duration <= 0 {
		return ErrInvalidDuration
	}
	if s.BreathPause < 0 {
		return ErrInvalidPause
	}
	return nil
}

// Progress is reported while a task runs.
type Progress struct {
	State    StateType
	Fraction float64
	Elapsed  time.Duration
}

// ProgressFunc receives progress updates. It is called from the goroutine
// running the task.
type ProgressFunc func(Progress)

// Result is the outcome of a finished run.
type Result struct {
	Buffer *result.Buffer
	Audio  *audio.Buffer

	Seed          int64
	SeedGenerated bool
	Relaxed       int
	Elapsed       time.Duration

	// EffectFailures lists effects that were skipped.
	EffectFailures []effect.Failure
}

// Task owns everything needed for one run. It is single use.
type Task struct {
	Format   audio.Format
	Settings Settings
	Segments []*segment.Segment
	Effects  []effect.Effect

	pause    *segment.Segment
	sm       *stateMachine
	progress ProgressFunc
	started  time.Time
}

// New validates the inputs and returns a task ready to run.
func New(format audio.Format, settings Settings, segments []*segment.Segment, effects []effect.Effect) (*Task, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, ErrNoSegments
	}
	for _, seg := range segments {
		if seg.Audio.Empty() {
			return nil, fmt.Errorf("%w: %s", ErrEmptySegment, seg.ID)
		}
	}

	t := &Task{
		Format:   format,
		Settings: settings,
		Segments: segments,
		Effects:  effects,
		pause:    segment.New("silent", "", "", audio.Silence(format, settings.BreathPause), nil, nil, nil),
		sm:       newStateMachine(),
	}
	t.sm.onEnter = func(from, to StateType) {
		log.Debug("task state", "from", from, "to", to, "elapsed", time.Since(t.started).Round(time.Millisecond))
	}
	return t, nil
}

// State returns the current phase.
func (t *Task) State() StateType {
	return t.sm.current
}

// Execute generates a sample of roughly the target duration. The context is
// checked between selections.
func (t *Task) Execute(ctx context.Context, progress ProgressFunc) (*Result, error) {
	if t.sm.current != StateInitialized {
		return nil, &RunError{State: t.sm.current, Err: ErrAlreadyRun}
	}
	t.progress = progress
	t.started = time.Now()

	seed, generated := t.seed()
	sel := selector.New(t.Segments, selector.NewRand(&seed))
	buf := result.NewBuffer(t.Format)

	t.sm.transition(StateScheduling)
	for buf.Duration() < t.Settings.Duration {
		if err := ctx.Err(); err != nil {
			return nil, t.fail(err)
		}
		seg, err := sel.Next(buf)
		if err != nil {
			return nil, t.fail(err)
		}
		if err := t.appendWithPause(buf, seg); err != nil {
			return nil, t.fail(err)
		}
		t.report(min(buf.Duration()/t.Settings.Duration, 1))
	}

	t.sm.transition(StateDraining)
	drained := sel.Drain()
	for _, seg := range drained {
		if err := t.appendWithPause(buf, seg); err != nil {
			return nil, t.fail(err)
		}
	}
	if len(drained) > 0 {
		log.Debug("appended segments with pending timestamps", "count", len(drained))
	}

	res, err := t.finalize(buf)
	if err != nil {
		return nil, err
	}
	res.Seed = seed
	res.SeedGenerated = generated
	res.Relaxed = sel.Relaxed()
	return res, nil
}

// Preview appends every segment once, in declaration order, each followed by
// the breath pause.
func (t *Task) Preview(progress ProgressFunc) (*Result, error) {
	if t.sm.current != StateInitialized {
		return nil, &RunError{State: t.sm.current, Err: ErrAlreadyRun}
	}
	t.progress = progress
	t.started = time.Now()

	buf := result.NewBuffer(t.Format)
	for _, seg := range t.Segments {
		if err := t.appendWithPause(buf, seg); err != nil {
			return nil, t.fail(err)
		}
	}
	return t.finalize(buf)
}

func (t *Task) appendWithPause(buf *result.Buffer, seg *segment.Segment) error {
	if err := buf.Append(seg, false, true); err != nil {
		return err
	}
	return buf.Append(t.pause, true, false)
}

func (t *Task) finalize(buf *result.Buffer) (*Result, error) {
	t.sm.transition(StateFinalizing)
	steps := float64(1 + len(t.Effects))

	final, err := buf.Concat()
	if err != nil {
		return nil, t.fail(err)
	}
	t.report(1 / steps)

	failures := effect.Apply(final, t.Effects, func(done int) {
		t.report(float64(1+done) / steps)
	})
	for _, f := range failures {
		log.Warn("effect skipped", "index", f.Index, "type", f.Effect.Type(), "err", f.Err)
	}

	t.sm.transition(StateDone)
	t.report(1)

	return &Result{
		Buffer:         buf,
		Audio:          final,
		Elapsed:        time.Since(t.started),
		EffectFailures: failures,
	}, nil
}

func (t *Task) seed() (int64, bool) {
	if t.Settings.Seed != nil {
		return *t.Settings.Seed, false
	}
	return rand.Int64(), true
}

func (t *Task) fail(err error) error {
	state := t.sm.current
	t.sm.transition(StateFailed)

	var runErr *RunError
	if errors.As(err, &runErr) {
		return err
	}
	return &RunError{State: state, Err: err}
}

func (t *Task) report(fraction float64) {
	if t.progress == nil {
		return
	}
	t.progress(Progress{
		State:    t.sm.current,
		Fraction: fraction,
		Elapsed:  time.Since(t.started),
	})
}
