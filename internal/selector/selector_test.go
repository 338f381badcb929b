package selector

import (
	"errors"
	"math"
	"testing"

	"github.com/dgnsrekt/murmur/internal/audio"
	"github.com/dgnsrekt/murmur/internal/result"
	"github.com/dgnsrekt/murmur/internal/segment"
)

var testFormat = audio.Format{SampleRate: 100, Channels: 1}

func newSeg(id string, always *segment.AlwaysOccurrence, sections []segment.Section, ts ...float64) *segment.Segment {
	stamps := make([]segment.Timestamp, len(ts))
	for i, s := range ts {
		stamps[i] = segment.At(s)
	}
	return segment.New(id, id, segment.DefaultTextJoiner, audio.Silence(testFormat, 1000), always, sections, stamps)
}

func always(weight, cooldown int) *segment.AlwaysOccurrence {
	return &segment.AlwaysOccurrence{Weight: weight, Cooldown: cooldown}
}

// staticHistory reports a fixed time and an empty selection history.
type staticHistory struct{ now float64 }

func (h staticHistory) Duration() float64                         { return h.now }
func (h staticHistory) RecentlyChosen(*segment.Segment, int) bool { return false }

// run selects and appends n segments into a fresh buffer.
func run(t *testing.T, sel *Selector, n int) *result.Buffer {
	t.Helper()
	buf := result.NewBuffer(testFormat)
	for i := range n {
		seg, err := sel.Next(buf)
		if err != nil {
			t.Fatalf("Next() call %d failed: %v", i, err)
		}
		if err := buf.Append(seg, false, true); err != nil {
			t.Fatal(err)
		}
	}
	return buf
}

func TestRelaxationAlwaysTerminates(t *testing.T) {
	for _, cooldown := range []int{0, 1, 5, 50} {
		seed := int64(cooldown)
		sel := New([]*segment.Segment{newSeg("only", always(1, cooldown), nil)}, NewRand(&seed))
		buf := run(t, sel, 20)
		if got := buf.Stats().Count("only"); got != 20 {
			t.Errorf("cooldown %d: Count = %d, want 20", cooldown, got)
		}
	}
}

func TestZeroCooldownNeverRelaxes(t *testing.T) {
	seed := int64(7)
	a := newSeg("a", always(1, 0), nil)
	b := newSeg("b", always(1, 3), nil)
	sel := New([]*segment.Segment{a, b}, NewRand(&seed))
	run(t, sel, 200)

	if sel.Relaxed() != 0 {
		t.Errorf("Relaxed() = %d, want 0 while a zero cooldown segment exists", sel.Relaxed())
	}
}

func TestTimestampsFireOnce(t *testing.T) {
	seed := int64(1)
	filler := newSeg("filler", always(1, 0), nil)
	shot := newSeg("shot", nil, nil, 20, 5, 5)
	sel := New([]*segment.Segment{filler, shot}, NewRand(&seed))

	buf := result.NewBuffer(testFormat)
	for buf.Duration() < 30 {
		seg, err := sel.Next(buf)
		if err != nil {
			t.Fatal(err)
		}
		if err := buf.Append(seg, false, true); err != nil {
			t.Fatal(err)
		}
	}

	var fired []float64
	for _, e := range buf.Entries() {
		if e.Segment == shot {
			fired = append(fired, e.Start)
		}
	}
	want := []float64{5, 6, 20}
	if len(fired) != len(want) {
		t.Fatalf("shot fired at %v, want %v", fired, want)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Errorf("firing %d at %vs, want %vs", i, fired[i], want[i])
		}
	}
	if sel.HasPending() {
		t.Error("HasPending() = true after all timestamps fired")
	}
	if len(shot.Timestamps) != 3 {
		t.Error("segment timestamps must not be modified")
	}
}

func TestTimestampsInDeclarationOrder(t *testing.T) {
	seed := int64(1)
	first := newSeg("first", nil, nil, 0)
	second := newSeg("second", nil, nil, 0)
	sel := New([]*segment.Segment{first, second}, NewRand(&seed))

	h := staticHistory{now: 0}
	for _, want := range []*segment.Segment{first, second} {
		got, err := sel.Next(h)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("Next() = %s, want %s", got.ID, want.ID)
		}
	}
	if _, err := sel.Next(h); !errors.Is(err, ErrNoEligibleSegment) {
		t.Errorf("error = %v, want ErrNoEligibleSegment", err)
	}
}

func TestWeightedRatio(t *testing.T) {
	seed := int64(42)
	a := newSeg("a", always(1, 0), nil)
	b := newSeg("b", always(3, 0), nil)
	sel := New([]*segment.Segment{a, b}, NewRand(&seed))

	const trials = 10000
	counts := map[string]int{}
	for range trials {
		seg, err := sel.Next(staticHistory{})
		if err != nil {
			t.Fatal(err)
		}
		counts[seg.ID]++
	}

	share := float64(counts["a"]) / trials
	if math.Abs(share-0.25) > 0.02 {
		t.Errorf("a selected %d/%d times (%.3f), want about 0.25", counts["a"], trials, share)
	}
}

func TestCooldownPreventsRepeats(t *testing.T) {
	tests := []struct {
		name        string
		ids         []string
		minDistance int
		wantRelaxed bool
	}{
		{"three segments", []string{"a", "b", "c"}, 3, false},
		{"two segments relax", []string{"a", "b"}, 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var segs []*segment.Segment
			for _, id := range tt.ids {
				segs = append(segs, newSeg(id, always(1, 2), nil))
			}
			seed := int64(3)
			sel := New(segs, NewRand(&seed))
			chosen := run(t, sel, 300).Chosen()

			for i := range chosen {
				for d := 1; d < tt.minDistance && i-d >= 0; d++ {
					if chosen[i] == chosen[i-d] {
						t.Fatalf("%s repeated at positions %d and %d", chosen[i].ID, i-d, i)
					}
				}
			}
			if got := sel.Relaxed() > 0; got != tt.wantRelaxed {
				t.Errorf("relaxed = %v, want %v", got, tt.wantRelaxed)
			}
		})
	}
}

func TestSectionOverridesAlways(t *testing.T) {
	seed := int64(9)
	// b only competes inside its window, where it dominates.
	a := newSeg("a", always(1, 0), nil)
	b := newSeg("b", nil, []segment.Section{{Weight: 1_000_000, Start: segment.At(10), End: segment.At(12)}})
	sel := New([]*segment.Segment{a, b}, NewRand(&seed))

	for _, tc := range []struct {
		now  float64
		want *segment.Segment
	}{
		{0, a}, {9.99, a}, {10, b}, {12, b}, {12.01, a},
	} {
		got, err := sel.Next(staticHistory{now: tc.now})
		if err != nil {
			t.Fatal(err)
		}
		if got != tc.want {
			t.Errorf("at %vs Next() = %s, want %s", tc.now, got.ID, tc.want.ID)
		}
	}
}

func TestNoEligibleSegment(t *testing.T) {
	seed := int64(1)
	tests := []struct {
		name string
		segs []*segment.Segment
	}{
		{"section not active", []*segment.Segment{newSeg("a", nil, []segment.Section{{Weight: 1, Start: segment.At(10), End: segment.At(20)}})}},
		{"zero weight", []*segment.Segment{newSeg("a", always(0, 0), nil)}},
		{"empty set", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.segs, NewRand(&seed)).Next(staticHistory{})
			if !errors.Is(err, ErrNoEligibleSegment) {
				t.Errorf("error = %v, want ErrNoEligibleSegment", err)
			}
		})
	}
}

func TestSeedIsDeterministic(t *testing.T) {
	segs := []*segment.Segment{
		newSeg("a", always(2, 1), nil),
		newSeg("b", always(1, 0), nil),
		newSeg("c", always(5, 2), nil),
	}
	sequence := func() string {
		seed := int64(1234)
		out := ""
		for _, seg := range run(t, New(segs, NewRand(&seed)), 100).Chosen() {
			out += seg.ID
		}
		return out
	}
	if first, second := sequence(), sequence(); first != second {
		t.Errorf("same seed produced different sequences:\n%s\n%s", first, second)
	}
}

func TestDrain(t *testing.T) {
	seed := int64(1)
	a := newSeg("a", always(1, 0), nil, 100, 200)
	b := newSeg("b", always(1, 0), nil)
	c := newSeg("c", nil, nil, 50)
	sel := New([]*segment.Segment{a, b, c}, NewRand(&seed))

	drained := sel.Drain()
	if len(drained) != 2 || drained[0] != a || drained[1] != c {
		t.Fatalf("Drain() returned %d segments, want [a c]", len(drained))
	}
	if sel.Pending(0) != 1 || sel.Pending(2) != 0 {
		t.Errorf("Pending = %d, %d; want 1, 0", sel.Pending(0), sel.Pending(2))
	}
}
