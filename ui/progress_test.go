package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dgnsrekt/murmur/internal/task"
)

func TestThrottle(t *testing.T) {
	var got []task.Progress
	fn := throttle(time.Hour, func(p task.Progress) { got = append(got, p) })

	updates := []task.Progress{
		{State: task.StateScheduling, Fraction: 0.1},
		{State: task.StateScheduling, Fraction: 0.2},
		{State: task.StateScheduling, Fraction: 0.3},
		{State: task.StateScheduling, Fraction: 1},
		{State: task.StateFinalizing, Fraction: 0.5},
		{State: task.StateFinalizing, Fraction: 0.6},
	}
	for _, u := range updates {
		fn(u)
	}

	want := []float64{0.1, 1, 0.5}
	if len(got) != len(want) {
		t.Fatalf("forwarded %d updates, want %d: %v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].Fraction != w {
			t.Errorf("update %d fraction = %v, want %v", i, got[i].Fraction, w)
		}
	}
}

func TestProgressModel(t *testing.T) {
	var m tea.Model = newProgressModel("sample", 80)

	m, cmd := m.Update(progressMsg{State: task.StateScheduling, Fraction: 0.5, Elapsed: time.Second})
	if cmd == nil {
		t.Error("progress update should animate the bar")
	}
	pm := m.(progressModel)
	if pm.state != task.StateScheduling || pm.fraction != 0.5 {
		t.Errorf("model = %+v", pm)
	}
	if view := pm.View(); !strings.Contains(view, "sample") || !strings.Contains(view, "scheduling") {
		t.Errorf("View() = %q", view)
	}

	boom := errors.New("boom")
	m, cmd = m.Update(doneMsg{err: boom})
	pm = m.(progressModel)
	if !pm.done || !errors.Is(pm.err, boom) {
		t.Errorf("done not recorded: %+v", pm)
	}
	if cmd == nil {
		t.Fatal("done should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("done should return tea.Quit")
	}
	if pm.View() != "" {
		t.Error("finished model should render nothing")
	}
}

func TestProgressModelCancel(t *testing.T) {
	m, cmd := newProgressModel("sample", 0).Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !m.(progressModel).canceled || cmd == nil {
		t.Error("ctrl+c should cancel")
	}
}

func TestBarWidth(t *testing.T) {
	tests := []struct {
		width int
		want  int
	}{
		{0, maxBarWidth},
		{200, maxBarWidth},
		{50, 50 - len("abc") - 24},
		{20, 10},
	}
	for _, tt := range tests {
		if got := barWidth(tt.width, "abc"); got != tt.want {
			t.Errorf("barWidth(%d) = %d, want %d", tt.width, got, tt.want)
		}
	}
}

func TestRunWithoutTUI(t *testing.T) {
	var calls int
	want := errors.New("job failed")
	err := Run(context.Background(), Config{NoTUI: true}, "sample", func(_ context.Context, progress task.ProgressFunc) error {
		progress(task.Progress{State: task.StateScheduling, Fraction: 0.5})
		calls++
		return want
	})
	if !errors.Is(err, want) || calls != 1 {
		t.Errorf("Run() = %v after %d calls", err, calls)
	}
	if (Config{TTY: true}).UseTUI() != true || (Config{TTY: true, NoTUI: true}).UseTUI() {
		t.Error("UseTUI mismatch")
	}
}
