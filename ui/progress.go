// Package ui shows generation progress: an animated view when stdout is a
// terminal and throttled log lines otherwise.
package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/murmur/internal/task"
)

// ErrCanceled is returned when the user quits the progress view.
var ErrCanceled = errors.New("canceled")

const (
	tuiInterval = 50 * time.Millisecond
	logInterval = time.Second

	maxBarWidth = 60
)

var (
	mintGreen = lipgloss.AdaptiveColor{Light: "#89F0CB", Dark: "#89F0CB"}
	grayFg    = lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"}

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Render

	stateStyle = lipgloss.NewStyle().
			Foreground(grayFg).
			Render

	spinnerStyle = lipgloss.NewStyle().
			Foreground(mintGreen)
)

// Job is the work Run reports on.
type Job func(ctx context.Context, progress task.ProgressFunc) error

// Run runs job while showing its progress.
func Run(ctx context.Context, cfg Config, label string, job Job) error {
	if !cfg.UseTUI() {
		return runLogged(ctx, label, job)
	}
	return runTUI(ctx, cfg, label, job)
}

func runLogged(ctx context.Context, label string, job Job) error {
	return job(ctx, throttle(logInterval, func(p task.Progress) {
		log.Info(label,
			"state", p.State,
			"progress", fmt.Sprintf("%3.0f%%", p.Fraction*100),
			"elapsed", p.Elapsed.Round(time.Millisecond),
		)
	}))
}

func runTUI(ctx context.Context, cfg Config, label string, job Job) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newProgressModel(label, cfg.Width), tea.WithOutput(os.Stderr))

	errc := make(chan error, 1)
	go func() {
		err := job(ctx, throttle(tuiInterval, func(pr task.Progress) {
			p.Send(progressMsg(pr))
		}))
		errc <- err
		p.Send(doneMsg{err: err})
	}()

	final, err := p.Run()
	if err != nil {
		cancel()
		<-errc
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	if m, ok := final.(progressModel); ok && m.canceled {
		cancel()
		<-errc
		return ErrCanceled
	}
	return <-errc
}

// throttle forwards at most one update per interval, but never drops a state
// change or the final update of a phase.
func throttle(every time.Duration, fn task.ProgressFunc) task.ProgressFunc {
	limiter := rate.NewLimiter(rate.Every(every), 1)
	last := task.StateType(-1)
	return func(p task.Progress) {
		allowed := limiter.Allow()
		if allowed || p.State != last || p.Fraction >= 1 {
			last = p.State
			fn(p)
		}
	}
}

type (
	progressMsg task.Progress
	doneMsg     struct{ err error }
)

type progressModel struct {
	label   string
	bar     progress.Model
	spinner spinner.Model

	state    task.StateType
	fraction float64
	elapsed  time.Duration

	done     bool
	canceled bool
	err      error
}

func newProgressModel(label string, width int) progressModel {
	return progressModel{
		label: label,
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(barWidth(width, label)),
		),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(spinnerStyle),
		),
	}
}

func barWidth(width int, label string) int {
	if width <= 0 {
		return maxBarWidth
	}
	return max(10, min(maxBarWidth, width-lipgloss.Width(label)-24))
}

func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.canceled = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.bar.Width = barWidth(msg.Width, m.label)

	case progressMsg:
		m.state = msg.State
		m.fraction = msg.Fraction
		m.elapsed = msg.Elapsed
		return m, m.bar.SetPercent(msg.Fraction)

	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		if b, ok := bar.(progress.Model); ok {
			m.bar = b
		}
		return m, cmd
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.done || m.canceled {
		return ""
	}
	return fmt.Sprintf("%s %s %s %s\n",
		m.spinner.View(),
		labelStyle(m.label),
		m.bar.View(),
		stateStyle(fmt.Sprintf("%s %s", m.state, m.elapsed.Round(100*time.Millisecond))),
	)
}
