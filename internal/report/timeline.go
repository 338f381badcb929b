package report

import (
	"fmt"
	"strings"

	runewidth "github.com/mattn/go-runewidth"

	"github.com/dgnsrekt/murmur/internal/result"
)

const (
	markRune  = "|"
	trackRune = "·"
)

// Timeline plots when each segment started, one row per segment id in order
// of first appearance. Each row is width columns spanning the whole sample.
func Timeline(entries []result.Entry, duration float64, width int) string {
	if len(entries) == 0 || duration <= 0 {
		return countStyle.Render("nothing scheduled")
	}
	width = max(width, minBarWidth)

	var ids []string
	rows := map[string][]bool{}
	for _, e := range entries {
		id := e.Segment.ID
		row, ok := rows[id]
		if !ok {
			ids = append(ids, id)
			row = make([]bool, width)
			rows[id] = row
		}
		row[column(e.Start, duration, width)] = true
	}

	labelWidth := 0
	for _, id := range ids {
		labelWidth = max(labelWidth, runewidth.StringWidth(label(id)))
	}

	var sb strings.Builder
	for _, id := range ids {
		sb.WriteString(labelStyle.Render(runewidth.FillRight(label(id), labelWidth)))
		sb.WriteByte(' ')
		for _, marked := range rows[id] {
			if marked {
				sb.WriteString(markStyle.Render(markRune))
			} else {
				sb.WriteString(trackStyle.Render(trackRune))
			}
		}
		sb.WriteByte('\n')
	}

	end := fmt.Sprintf("%.1fs", duration)
	gap := max(1, width-len("0s")-len(end))
	sb.WriteString(strings.Repeat(" ", labelWidth+1))
	sb.WriteString(countStyle.Render("0s" + strings.Repeat(" ", gap) + end))
	return sb.String()
}

// column maps a start time onto [0, width).
func column(start, duration float64, width int) int {
	c := int(start / duration * float64(width))
	return min(max(c, 0), width-1)
}
