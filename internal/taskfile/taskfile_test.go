package taskfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgnsrekt/murmur/internal/audio"
	"github.com/dgnsrekt/murmur/internal/effect"
	"github.com/dgnsrekt/murmur/internal/task"
)

var testFormat = audio.Format{SampleRate: 8000, Channels: 1}

// writeClips creates WAV clips of the given lengths in milliseconds.
func writeClips(t *testing.T, clips map[string]int) string {
	t.Helper()
	dir := t.TempDir()
	for name, ms := range clips {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := audio.WriteWAVFile(path, audio.Silence(testFormat, ms)); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func decode(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := Decode(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	return doc
}

func build(t *testing.T, doc *Document, dir string) (*task.Task, error) {
	t.Helper()
	return Build(context.Background(), doc, Options{AudioDir: dir, Format: testFormat, Workers: 2})
}

const endToEndYAML = `
settings:
  seed: 1
  duration: 10
  breath_pause_length: 0
segments:
  - id: hello
    text: Hello
    audio: hello.wav
    always: {weight: 1, cooldown: 0}
`

func TestBuildAndExecute(t *testing.T) {
	dir := writeClips(t, map[string]int{"hello.wav": 2000})
	tk, err := build(t, decode(t, endToEndYAML), dir)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	res, err := tk.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := res.Buffer.Stats().Count("hello"); got != 5 {
		t.Errorf("hello selected %d times, want 5", got)
	}
	if d := res.Audio.Duration(); d != 10 {
		t.Errorf("duration = %v, want 10", d)
	}
}

func TestDecodeJSON(t *testing.T) {
	src := "{\n\t\"settings\": {\"duration\": 60, \"breath_pause_length\": 250},\n" +
		"\t\"segments\": [{\"text\": \"Hi\", \"audio\": \"hi.mp3\", \"always\": {\"weight\": 2, \"cool_down\": 1}}]\n}"
	doc := decode(t, src)

	if *doc.Settings.Duration != 60 || *doc.Settings.BreathPauseLength != 250 {
		t.Errorf("settings = %+v", doc.Settings)
	}
	always := doc.Segments[0].Always
	if *always.Weight != 2 || *always.cooldown() != 1 {
		t.Errorf("always = %+v", always)
	}
}

func TestResolveSegments(t *testing.T) {
	doc := decode(t, `
settings: {duration: 200, breath_pause_length: 0}
segments:
  - text: Plain
    audio: a.wav
    always: {weight: 3}
  - id: windowed
    text: Windowed
    text_appender_symbol: " ... "
    audio: b.wav
    sections:
      - {start: {percentage: 0.25}, end: {seconds: 100}, cool_down: 2}
    timestamps:
      - {percentage: 0.5}
      - {seconds: 5}
      - {}
`)
	pending, err := resolveSegments(doc, 200)
	if err != nil {
		t.Fatalf("resolveSegments failed: %v", err)
	}

	plain := pending[0]
	if plain.id != "Plain" || plain.joiner != ". " {
		t.Errorf("defaults not applied: id=%q joiner=%q", plain.id, plain.joiner)
	}
	if plain.always.Weight != 3 || plain.always.Cooldown != 0 {
		t.Errorf("always = %+v", plain.always)
	}

	w := pending[1]
	if w.joiner != " ... " {
		t.Errorf("joiner = %q", w.joiner)
	}
	sec := w.sections[0]
	if sec.Weight != 1 || sec.Cooldown != 2 || sec.Start.Seconds != 50 || sec.End.Seconds != 100 {
		t.Errorf("section = %+v", sec)
	}
	want := []float64{100, 5, 0}
	for i, ts := range w.timestamps {
		if ts.Seconds != want[i] {
			t.Errorf("timestamps[%d] = %v, want %v", i, ts.Seconds, want[i])
		}
	}
}

func TestConfigErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
		want  error
	}{
		{
			"missing pause",
			"settings: {duration: 10}\nsegments: [{text: a, audio: a.wav, always: {weight: 1}}]",
			"settings.breath_pause_length", ErrMissingField,
		},
		{
			"negative duration",
			"settings: {duration: -1, breath_pause_length: 0}\nsegments: [{text: a, audio: a.wav}]",
			"settings.duration", ErrInvalidValue,
		},
		{
			"no segments",
			"settings: {breath_pause_length: 0}",
			"segments", ErrMissingField,
		},
		{
			"missing text",
			"settings: {breath_pause_length: 0}\nsegments: [{audio: a.wav}]",
			"segments[0].text", ErrMissingField,
		},
		{
			"missing audio",
			"settings: {breath_pause_length: 0}\nsegments: [{text: a}]",
			"segments[0].audio", ErrMissingField,
		},
		{
			"duplicate id",
			"settings: {breath_pause_length: 0}\nsegments: [{text: a, audio: a.wav}, {text: a, audio: b.wav}]",
			"segments[1].id", ErrDuplicateID,
		},
		{
			"always without weight",
			"settings: {breath_pause_length: 0}\nsegments: [{text: a, audio: a.wav, always: {cool_down: 1}}]",
			"segments[0].always.weight", ErrMissingField,
		},
		{
			"negative weight",
			"settings: {breath_pause_length: 0}\nsegments: [{text: a, audio: a.wav, always: {weight: -1}}]",
			"segments[0].always.weight", ErrInvalidValue,
		},
		{
			"negative cooldown",
			"settings: {breath_pause_length: 0}\nsegments: [{text: a, audio: a.wav, always: {weight: 1, cooldown: -2}}]",
			"segments[0].always.cool_down", ErrInvalidValue,
		},
		{
			"section end before start",
			"settings: {breath_pause_length: 0}\nsegments: [{text: a, audio: a.wav, sections: [{start: {seconds: 9}, end: {seconds: 3}}]}]",
			"segments[0].sections[0]", ErrInvalidValue,
		},
		{
			"section without end",
			"settings: {breath_pause_length: 0}\nsegments: [{text: a, audio: a.wav, sections: [{start: {seconds: 9}}]}]",
			"segments[0].sections[0].end", ErrMissingField,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := decode(t, tt.src)
			doc.Path = "task.yml"
			_, err := build(t, doc, t.TempDir())

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("error = %v, want ConfigError", err)
			}
			if cfgErr.Field != tt.field || !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want field %s wrapping %v", err, tt.field, tt.want)
			}
			if !IsConfigError(err) || !strings.HasPrefix(err.Error(), "task.yml: ") {
				t.Errorf("error message %q lacks the task file path", err)
			}
		})
	}
}

func TestMissingClipSuggestions(t *testing.T) {
	dir := writeClips(t, map[string]int{"hello.wav": 100, "sub/goodbye.wav": 100})
	doc := decode(t, `
settings: {breath_pause_length: 0}
segments:
  - {text: hi, audio: helo.wav, always: {weight: 1}}
`)
	_, err := build(t, doc, dir)
	if !errors.Is(err, ErrMissingClip) {
		t.Fatalf("error = %v, want ErrMissingClip", err)
	}
	if !strings.Contains(err.Error(), "did you mean hello.wav") {
		t.Errorf("error %q lacks a suggestion", err)
	}
}

func TestUnsupportedClip(t *testing.T) {
	doc := decode(t, "settings: {breath_pause_length: 0}\nsegments: [{text: a, audio: a.ogg, always: {weight: 1}}]")
	if _, err := build(t, doc, t.TempDir()); !errors.Is(err, ErrUnsupportedPattern) {
		t.Errorf("error = %v, want ErrUnsupportedPattern", err)
	}
}

func TestBuildEffects(t *testing.T) {
	dir := writeClips(t, map[string]int{"a.wav": 500, "rain.wav": 300})
	doc := decode(t, `
settings: {duration: 1, breath_pause_length: 0}
segments:
  - {text: a, audio: a.wav, always: {weight: 1}}
effects:
  - {type: overlay, audio: rain.wav, gain: -6}
  - {type: reverb}
  - {type: post_volume_gain, gain: 2}
`)
	tk, err := build(t, doc, dir)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(tk.Effects) != 2 {
		t.Fatalf("got %d effects, want 2 (unknown type skipped)", len(tk.Effects))
	}
	overlay, ok := tk.Effects[0].(effect.Overlay)
	if !ok || overlay.Track == nil || overlay.Gain != -6 {
		t.Errorf("effects[0] = %#v", tk.Effects[0])
	}
	if gain, ok := tk.Effects[1].(effect.PostVolumeGain); !ok || gain.Gain != 2 {
		t.Errorf("effects[1] = %#v", tk.Effects[1])
	}
}

func TestOverridesWinOverDocument(t *testing.T) {
	dir := writeClips(t, map[string]int{"hello.wav": 2000})
	duration := 4.0
	seed := int64(77)
	tk, err := Build(context.Background(), decode(t, endToEndYAML), Options{
		AudioDir: dir,
		Format:   testFormat,
		Duration: &duration,
		Seed:     &seed,
	})
	if err != nil {
		t.Fatal(err)
	}
	if tk.Settings.Duration != 4 || *tk.Settings.Seed != 77 {
		t.Errorf("settings = %+v", tk.Settings)
	}
}

func TestDefaultDuration(t *testing.T) {
	doc := decode(t, "settings: {breath_pause_length: 0}\nsegments: [{text: a, audio: a.wav}]")
	s, err := resolveSettings(doc, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if s.Duration != task.DefaultDuration || s.Seed != nil {
		t.Errorf("settings = %+v, want default duration and no seed", s)
	}
}

func TestDiscoverAndUnused(t *testing.T) {
	dir := writeClips(t, map[string]int{"a.wav": 10, "b.wav": 10, "nested/c.wav": 10})
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	found, err := Discover(dir)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(found, ",") != "a.wav,b.wav,nested/c.wav" {
		t.Errorf("Discover() = %v", found)
	}

	doc := decode(t, "segments: [{text: a, audio: a.wav}]\neffects: [{type: overlay, audio: nested/c.wav}]")
	if unused := doc.UnusedClips(found); len(unused) != 1 || unused[0] != "b.wav" {
		t.Errorf("UnusedClips() = %v, want [b.wav]", unused)
	}
}

func TestDecodeErrors(t *testing.T) {
	for _, src := range []string{"", "   \n", "segments: [unclosed"} {
		if _, err := Decode(strings.NewReader(src)); !IsConfigError(err) {
			t.Errorf("Decode(%q) error = %v, want ConfigError", src, err)
		}
	}
}

func TestEmptyClipRejected(t *testing.T) {
	dir := writeClips(t, map[string]int{"ok.wav": 500, "empty.wav": 0})
	doc := decode(t, `
settings: {duration: 10, breath_pause_length: 0}
segments:
  - {text: ok, audio: ok.wav, sections: [{start: {seconds: 5}, end: {seconds: 6}}]}
  - {text: silent, audio: empty.wav, always: {weight: 1}}
`)
	doc.Path = "task.yml"
	_, err := build(t, doc, dir)

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error = %v, want ConfigError", err)
	}
	if cfgErr.Field != "segments[1].audio" || !errors.Is(err, ErrInvalidValue) {
		t.Errorf("error = %v, want segments[1].audio wrapping ErrInvalidValue", err)
	}
}
