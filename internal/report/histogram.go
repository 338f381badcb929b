// Package report renders what a run produced: a histogram of how often each
// segment was picked, a timeline of when it played and a markdown summary.
package report

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"

	"github.com/dgnsrekt/murmur/internal/result"
)

// MaxLabelWidth caps the id column.
const MaxLabelWidth = 24

const minBarWidth = 10

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#3C3C3C", Dark: "#DDDADA"})
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00B594"))
	countStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"})
	markStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F1F1F1"))
	trackStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#3A3A3A"})
)

// Bar is one histogram row.
type Bar struct {
	ID    string
	Count int
}

// Bars returns the recorded counts ordered by count, highest first, with ties
// broken by id.
func Bars(stats *result.Stats) []Bar {
	bars := make([]Bar, 0, len(stats.IDs()))
	for _, id := range stats.IDs() {
		bars = append(bars, Bar{ID: id, Count: stats.Count(id)})
	}
	slices.SortStableFunc(bars, func(a, b Bar) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return bars
}

// Histogram draws one bar per segment, scaled to the most frequent one and
// fitted into width columns.
func Histogram(stats *result.Stats, width int) string {
	bars := Bars(stats)
	if len(bars) == 0 {
		return countStyle.Render("no segments recorded")
	}

	labels := make([]string, len(bars))
	counts := make([]string, len(bars))
	labelWidth, countWidth := 0, 0
	for i, b := range bars {
		labels[i] = label(b.ID)
		counts[i] = humanize.Comma(int64(b.Count))
		labelWidth = max(labelWidth, runewidth.StringWidth(labels[i]))
		countWidth = max(countWidth, len(counts[i]))
	}

	barWidth := max(minBarWidth, width-labelWidth-countWidth-2)
	highest := bars[0].Count

	var sb strings.Builder
	for i, b := range bars {
		n := 0
		if highest > 0 && b.Count > 0 {
			n = max(1, int(math.Round(float64(b.Count)/float64(highest)*float64(barWidth))))
		}
		fmt.Fprintf(&sb, "%s %s%s %s\n",
			labelStyle.Render(runewidth.FillRight(labels[i], labelWidth)),
			barStyle.Render(strings.Repeat("█", n)),
			strings.Repeat(" ", barWidth-n),
			countStyle.Render(fmt.Sprintf("%*s", countWidth, counts[i])),
		)
	}
	fmt.Fprintf(&sb, "%s %s", runewidth.FillRight("total", labelWidth), countStyle.Render(humanize.Comma(int64(stats.Total()))))
	return sb.String()
}

func label(id string) string {
	id = strings.ReplaceAll(id, "\n", " ")
	return truncate.StringWithTail(id, MaxLabelWidth, "…")
}
