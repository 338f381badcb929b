package taskfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/dgnsrekt/murmur/internal/audio"
	"github.com/dgnsrekt/murmur/internal/cache"
	"github.com/dgnsrekt/murmur/internal/effect"
	"github.com/dgnsrekt/murmur/internal/segment"
	"github.com/dgnsrekt/murmur/internal/task"
)

// Options are the inputs to Build that do not come from the document.
type Options struct {
	AudioDir string
	Format   audio.Format

	// Duration and Seed override the document when set.
	Duration *float64
	Seed     *int64

	// Workers bounds parallel clip decoding. 0 uses GOMAXPROCS.
	Workers int

	// Cache serves decoded clips. Nil decodes every clip.
	Cache *cache.Manager
}

// Build validates doc, loads every clip it references and returns a task
// ready to run. Nothing is scheduled until the task is executed.
func Build(ctx context.Context, doc *Document, opts Options) (*task.Task, error) {
	settings, err := resolveSettings(doc, opts)
	if err != nil {
		return nil, err
	}

	pending, err := resolveSegments(doc, settings.Duration)
	if err != nil {
		return nil, err
	}

	clips, err := loadClips(ctx, doc, opts)
	if err != nil {
		return nil, err
	}

	for i, p := range pending {
		if clips[p.audio].Empty() {
			return nil, fieldErr(doc.Path, fmt.Sprintf("segments[%d].audio", i), fmt.Errorf("%w: clip %s has no audio", ErrInvalidValue, p.audio))
		}
	}

	segments := make([]*segment.Segment, len(pending))
	for i, s := range pending {
		segments[i] = segment.New(s.id, s.text, s.joiner, clips[s.audio], s.always, s.sections, s.timestamps)
	}

	effects, err := buildEffects(doc, clips)
	if err != nil {
		return nil, err
	}

	t, err := task.New(opts.Format, settings, segments, effects)
	if err != nil {
		return nil, &ConfigError{Path: doc.Path, Field: "settings", Err: err}
	}
	return t, nil
}

func resolveSettings(doc *Document, opts Options) (task.Settings, error) {
	var s task.Settings

	s.Seed = doc.Settings.Seed
	if opts.Seed != nil {
		s.Seed = opts.Seed
	}

	switch {
	case opts.Duration != nil:
		s.Duration = *opts.Duration
	case doc.Settings.Duration != nil:
		s.Duration = *doc.Settings.Duration
	default:
		log.Info("No duration specified, using the default", "seconds", task.DefaultDuration)
		s.Duration = task.DefaultDuration
	}
	if s.Duration <= 0 {
		return s, fieldErr(doc.Path, "settings.duration", fmt.Errorf("%w: must be positive, got %v", ErrInvalidValue, s.Duration))
	}

	if doc.Settings.BreathPauseLength == nil {
		return s, fieldErr(doc.Path, "settings.breath_pause_length", ErrMissingField)
	}
	s.BreathPause = *doc.Settings.BreathPauseLength
	if s.BreathPause < 0 {
		return s, fieldErr(doc.Path, "settings.breath_pause_length", fmt.Errorf("%w: must not be negative", ErrInvalidValue))
	}
	return s, nil
}

// pendingSegment is a validated segment waiting for its clip.
type pendingSegment struct {
	id, text, joiner, audio string
	always                  *segment.AlwaysOccurrence
	sections                []segment.Section
	timestamps              []segment.Timestamp
}

func resolveSegments(doc *Document, duration float64) ([]pendingSegment, error) {
	if len(doc.Segments) == 0 {
		return nil, fieldErr(doc.Path, "segments", ErrMissingField)
	}

	pending := make([]pendingSegment, 0, len(doc.Segments))
	ids := make(map[string]int, len(doc.Segments))

	for i, seg := range doc.Segments {
		field := fmt.Sprintf("segments[%d]", i)
		if seg.Text == nil {
			return nil, fieldErr(doc.Path, field+".text", ErrMissingField)
		}
		if seg.Audio == "" {
			return nil, fieldErr(doc.Path, field+".audio", ErrMissingField)
		}

		p := pendingSegment{
			id:     seg.ID,
			text:   *seg.Text,
			joiner: segment.DefaultTextJoiner,
			audio:  seg.Audio,
		}
		if p.id == "" {
			p.id = p.text
		}
		if prev, ok := ids[p.id]; ok {
			return nil, fieldErr(doc.Path, field+".id", fmt.Errorf("%w %q, first used by segments[%d]", ErrDuplicateID, p.id, prev))
		}
		ids[p.id] = i
		if seg.TextAppenderSymbol != nil {
			p.joiner = *seg.TextAppenderSymbol
		}

		if seg.Always != nil {
			weight, cooldown, err := occurrence(*seg.Always, nil)
			if err != nil {
				return nil, fieldErr(doc.Path, field+".always"+err.field, err.err)
			}
			p.always = &segment.AlwaysOccurrence{Weight: weight, Cooldown: cooldown}
		}

		for j, sec := range seg.Sections {
			secField := fmt.Sprintf("%s.sections[%d]", field, j)
			defaultWeight := 1
			weight, cooldown, err := occurrence(sec.Occurrence, &defaultWeight)
			if err != nil {
				return nil, fieldErr(doc.Path, secField+err.field, err.err)
			}
			if sec.Start == nil {
				return nil, fieldErr(doc.Path, secField+".start", ErrMissingField)
			}
			if sec.End == nil {
				return nil, fieldErr(doc.Path, secField+".end", ErrMissingField)
			}
			start := sec.Start.resolve(duration)
			end := sec.End.resolve(duration)
			if end.Seconds < start.Seconds {
				return nil, fieldErr(doc.Path, secField, fmt.Errorf("%w: end %s is before start %s", ErrInvalidValue, end, start))
			}
			p.sections = append(p.sections, segment.Section{Weight: weight, Cooldown: cooldown, Start: start, End: end})
		}

		for j, ts := range seg.Timestamps {
			resolved := ts.resolve(duration)
			if resolved.Seconds < 0 {
				return nil, fieldErr(doc.Path, fmt.Sprintf("%s.timestamps[%d]", field, j), fmt.Errorf("%w: negative timestamp", ErrInvalidValue))
			}
			p.timestamps = append(p.timestamps, resolved)
		}

		if p.always == nil && len(p.sections) == 0 && len(p.timestamps) == 0 {
			log.Warn("segment has no always rule, sections or timestamps and will only play in previews", "id", p.id)
		}
		pending = append(pending, p)
	}
	return pending, nil
}

type occurrenceErr struct {
	field string
	err   error
}

// occurrence validates a weight and cooldown pair. A nil defaultWeight makes
// the weight required.
func occurrence(o Occurrence, defaultWeight *int) (int, int, *occurrenceErr) {
	weight := defaultWeight
	if o.Weight != nil {
		weight = o.Weight
	}
	if weight == nil {
		return 0, 0, &occurrenceErr{".weight", ErrMissingField}
	}
	if *weight < 0 {
		return 0, 0, &occurrenceErr{".weight", fmt.Errorf("%w: weight must not be negative, got %d", ErrInvalidValue, *weight)}
	}

	cooldown := 0
	if c := o.cooldown(); c != nil {
		cooldown = *c
	}
	if cooldown < 0 {
		return 0, 0, &occurrenceErr{".cool_down", fmt.Errorf("%w: cooldown must not be negative, got %d", ErrInvalidValue, cooldown)}
	}
	return *weight, cooldown, nil
}

// resolve converts a document timestamp to seconds. Seconds win over a
// percentage; neither means the start of the run.
func (t Timestamp) resolve(duration float64) segment.Timestamp {
	if t.Seconds != nil {
		return segment.At(*t.Seconds)
	}
	if t.Percentage != nil {
		return segment.AtPercentage(*t.Percentage, duration)
	}
	return segment.At(0)
}

// loadClips decodes every referenced clip once, in parallel.
func loadClips(ctx context.Context, doc *Document, opts Options) (map[string]*audio.Buffer, error) {
	names := doc.ReferencedClips()
	clips := make(map[string]*audio.Buffer, len(names))
	var mu sync.Mutex

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(opts.AudioDir, name)
			if !audio.IsSupported(path) {
				return fieldErr(doc.Path, "audio", fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedPattern, name, strings.Join(audio.SupportedExtensions, ", ")))
			}

			buf, err := opts.Cache.LoadClip(path, opts.Format)
			if errors.Is(err, fs.ErrNotExist) {
				return missingClip(doc.Path, opts.AudioDir, name)
			}
			if err != nil {
				return fmt.Errorf("loading %s: %w", name, err)
			}
			log.Debug("loaded clip", "name", name, "seconds", buf.Duration())

			mu.Lock()
			clips[name] = buf
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return clips, nil
}

func missingClip(path, dir, name string) error {
	err := fmt.Errorf("%w: %s", ErrMissingClip, filepath.Join(dir, name))
	if found, derr := Discover(dir); derr == nil {
		if s := Suggest(name, found, 3); len(s) > 0 {
			err = fmt.Errorf("%w (did you mean %s?)", err, strings.Join(s, ", "))
		}
	}
	return fieldErr(path, "audio", err)
}

func buildEffects(doc *Document, clips map[string]*audio.Buffer) ([]effect.Effect, error) {
	var effects []effect.Effect
	for i, e := range doc.Effects {
		switch effect.Type(e.Type) {
		case effect.TypeOverlay:
			if e.Audio == "" {
				return nil, fieldErr(doc.Path, fmt.Sprintf("effects[%d].audio", i), ErrMissingField)
			}
			effects = append(effects, effect.Overlay{Name: e.Audio, Track: clips[e.Audio], Gain: e.Gain})
		case effect.TypePostVolumeGain:
			effects = append(effects, effect.PostVolumeGain{Gain: e.Gain})
		default:
			log.Warn("skipping effect", "index", i, "err", fmt.Errorf("%w %q", ErrUnknownEffectType, e.Type))
		}
	}
	return effects, nil
}
