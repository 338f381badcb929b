package audio

import (
	"errors"
	"math"
	"testing"
)

var monoFormat = Format{SampleRate: 1000, Channels: 1}

func constant(format Format, frames int, value int16) *Buffer {
	b := &Buffer{Format: format, Samples: make([]int16, frames*format.Channels)}
	for i := range b.Samples {
		b.Samples[i] = value
	}
	return b
}

func TestFormatValidate(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		wantErr bool
	}{
		{"default", DefaultFormat, false},
		{"mono 16k", Format{SampleRate: 16000, Channels: 1}, false},
		{"rate too low", Format{SampleRate: 100, Channels: 1}, true},
		{"surround", Format{SampleRate: 48000, Channels: 6}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.format.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSilenceDuration(t *testing.T) {
	tests := []struct {
		ms   int
		want float64
	}{
		{0, 0},
		{-5, 0},
		{500, 0.5},
		{2000, 2},
	}
	for _, tt := range tests {
		got := Silence(monoFormat, tt.ms).Duration()
		if got != tt.want {
			t.Errorf("Silence(%d).Duration() = %v, want %v", tt.ms, got, tt.want)
		}
	}

	stereo := Silence(Format{SampleRate: 44100, Channels: 2}, 1000)
	if stereo.Frames() != 44100 || len(stereo.Samples) != 88200 {
		t.Errorf("stereo silence frames=%d samples=%d", stereo.Frames(), len(stereo.Samples))
	}
}

func TestAppendAndConcat(t *testing.T) {
	a := constant(monoFormat, 1000, 1)
	b := constant(monoFormat, 500, 2)

	if err := a.Append(b); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if a.Duration() != 1.5 {
		t.Errorf("Duration after append = %v, want 1.5", a.Duration())
	}
	if a.Samples[999] != 1 || a.Samples[1000] != 2 {
		t.Error("Append did not preserve sample order")
	}

	joined, err := Concat(monoFormat, b, nil, NewBuffer(monoFormat), b)
	if err != nil {
		t.Fatalf("Concat failed: %v", err)
	}
	if joined.Frames() != 1000 {
		t.Errorf("Concat frames = %d, want 1000", joined.Frames())
	}
}

func TestFormatMismatch(t *testing.T) {
	a := constant(monoFormat, 10, 1)
	b := constant(Format{SampleRate: 2000, Channels: 1}, 10, 1)

	if err := a.Append(b); !errors.Is(err, ErrFormatMismatch) {
		t.Errorf("Append mismatch error = %v", err)
	}
	if _, err := Concat(monoFormat, a, b); !errors.Is(err, ErrFormatMismatch) {
		t.Errorf("Concat mismatch error = %v", err)
	}
	if err := a.OverlayLoop(b); !errors.Is(err, ErrFormatMismatch) {
		t.Errorf("OverlayLoop mismatch error = %v", err)
	}
}

func TestGainIdentity(t *testing.T) {
	b := &Buffer{Format: monoFormat, Samples: []int16{0, 1, -1, 12345, -32768, 32767}}
	want := append([]int16(nil), b.Samples...)

	b.Gain(0)
	for i := range want {
		if b.Samples[i] != want[i] {
			t.Errorf("0 dB changed sample %d: %d -> %d", i, want[i], b.Samples[i])
		}
	}
}

func TestGain(t *testing.T) {
	b := &Buffer{Format: monoFormat, Samples: []int16{1000, -1000, 30000}}
	b.Gain(20 * math.Log10(2)) // double

	want := []int16{2000, -2000, 32767}
	for i := range want {
		if b.Samples[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, b.Samples[i], want[i])
		}
	}

	b = &Buffer{Format: monoFormat, Samples: []int16{1000}}
	b.Gain(-6.0206) // roughly half
	if b.Samples[0] != 500 {
		t.Errorf("-6 dB sample = %d, want 500", b.Samples[0])
	}
}

func TestOverlayLoop(t *testing.T) {
	base := &Buffer{Format: monoFormat, Samples: []int16{10, 10, 10, 10, 10}}
	track := &Buffer{Format: monoFormat, Samples: []int16{1, 2}}

	if err := base.OverlayLoop(track); err != nil {
		t.Fatalf("OverlayLoop failed: %v", err)
	}
	want := []int16{11, 12, 11, 12, 11}
	for i := range want {
		if base.Samples[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, base.Samples[i], want[i])
		}
	}
	if base.Frames() != 5 {
		t.Errorf("overlay changed length to %d", base.Frames())
	}
}

func TestOverlayLoopClips(t *testing.T) {
	base := &Buffer{Format: monoFormat, Samples: []int16{32000, -32000}}
	track := &Buffer{Format: monoFormat, Samples: []int16{32000, -32000}}
	if err := base.OverlayLoop(track); err != nil {
		t.Fatal(err)
	}
	if base.Samples[0] != math.MaxInt16 || base.Samples[1] != math.MinInt16 {
		t.Errorf("overlay did not clip: %v", base.Samples)
	}
}

func TestBytesLayout(t *testing.T) {
	b := &Buffer{Format: monoFormat, Samples: []int16{256, -1}}
	data := b.Bytes()
	if len(data) != 4 {
		t.Fatalf("len = %d, want 4", len(data))
	}
	// 256 = 0x0100 -> [0x00, 0x01]
	if data[0] != 0x00 || data[1] != 0x01 {
		t.Errorf("256 encoded as [%02x %02x]", data[0], data[1])
	}
	if data[2] != 0xff || data[3] != 0xff {
		t.Errorf("-1 encoded as [%02x %02x]", data[2], data[3])
	}

	back := FromBytes(monoFormat, append(data, 0x7f))
	if len(back.Samples) != 2 || back.Samples[0] != 256 || back.Samples[1] != -1 {
		t.Errorf("FromBytes = %v", back.Samples)
	}
}

func TestIsSupported(t *testing.T) {
	for path, want := range map[string]bool{
		"a.mp3":      true,
		"b.WAV":      true,
		"c/d.flac":   true,
		"notes.txt":  false,
		"noext":      false,
		"clip.mp3.x": false,
	} {
		if got := IsSupported(path); got != want {
			t.Errorf("IsSupported(%q) = %v, want %v", path, got, want)
		}
	}
}
