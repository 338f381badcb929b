package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/muesli/termenv"

	"github.com/dgnsrekt/murmur/internal/task"
)

// Summary describes a finished run.
type Summary struct {
	RunID uuid.UUID
	Task  string

	Seed          int64
	SeedGenerated bool
	Preview       bool

	Duration   float64
	Target     float64
	Selections int
	Segments   int
	Relaxed    int
	Elapsed    time.Duration

	// Outputs maps written files to their size in bytes.
	Outputs []Output

	EffectFailures []string
}

// Output is a file written by the run.
type Output struct {
	Path string
	Size int64
}

// NewSummary collects the figures of res.
func NewSummary(runID uuid.UUID, taskPath string, tk *task.Task, res *task.Result) Summary {
	s := Summary{
		RunID:         runID,
		Task:          taskPath,
		Seed:          res.Seed,
		SeedGenerated: res.SeedGenerated,
		Duration:      res.Audio.Duration(),
		Target:        tk.Settings.Duration,
		Selections:    res.Buffer.Stats().Total(),
		Segments:      len(tk.Segments),
		Relaxed:       res.Relaxed,
		Elapsed:       res.Elapsed,
	}
	for _, f := range res.EffectFailures {
		s.EffectFailures = append(s.EffectFailures, f.Error())
	}
	return s
}

// Markdown renders the summary as a markdown document.
func (s Summary) Markdown() string {
	var sb strings.Builder
	title := "Sample"
	if s.Preview {
		title = "Preview"
	}
	fmt.Fprintf(&sb, "# %s `%s`\n\n", title, shortID(s.RunID))

	sb.WriteString("| | |\n|---|---|\n")
	row := func(k, v string) { fmt.Fprintf(&sb, "| %s | %s |\n", k, v) }
	if s.Task != "" {
		row("Task", "`"+s.Task+"`")
	}
	seed := fmt.Sprint(s.Seed)
	if s.SeedGenerated {
		seed += " (generated)"
	}
	row("Seed", seed)
	row("Duration", fmt.Sprintf("%s of %s", seconds(s.Duration), seconds(s.Target)))
	row("Selections", fmt.Sprintf("%s from %s segments", humanize.Comma(int64(s.Selections)), humanize.Comma(int64(s.Segments))))
	if s.Relaxed > 0 {
		row("Cooldown relaxed", humanize.Comma(int64(s.Relaxed))+" times")
	}
	row("Generated in", s.Elapsed.Round(time.Millisecond).String())

	if len(s.Outputs) > 0 {
		sb.WriteString("\n## Files\n\n")
		for _, o := range s.Outputs {
			fmt.Fprintf(&sb, "- `%s` (%s)\n", o.Path, humanize.Bytes(uint64(max(o.Size, 0))))
		}
	}
	if len(s.EffectFailures) > 0 {
		sb.WriteString("\n## Skipped effects\n\n")
		for _, f := range s.EffectFailures {
			fmt.Fprintf(&sb, "- %s\n", f)
		}
	}
	return sb.String()
}

// Render renders markdown for the terminal. An empty style picks one from
// the terminal background, or the plain notty style when color is off.
func Render(markdown, style string, width int, profile termenv.Profile) (string, error) {
	if style == "" {
		style = styles.AutoStyle
		if profile == termenv.Ascii {
			style = styles.NoTTYStyle
		}
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithColorProfile(profile),
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("unable to create renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("unable to render markdown: %w", err)
	}
	return out, nil
}

func shortID(id uuid.UUID) string {
	return strings.SplitN(id.String(), "-", 2)[0]
}

func seconds(s float64) string {
	return time.Duration(s * float64(time.Second)).Round(10 * time.Millisecond).String()
}
