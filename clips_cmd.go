package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/murmur/internal/taskfile"
)

var clipsCmd = &cobra.Command{
	Use:     "clips AUDIO_DIR",
	Short:   "List the clips in an audio directory",
	Example: paragraph("murmur clips clips/"),
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := expandPath(args[0])
		w := cmd.OutOrStdout()

		clips, err := taskfile.Discover(dir)
		if err != nil {
			return fmt.Errorf("unable to list clips: %w", err)
		}
		if len(clips) == 0 {
			_, _ = fmt.Fprintln(w, paragraph(faint("no clips found in "+dir)))
			return nil
		}

		mgr, err := openCache()
		if err != nil {
			log.Warn("clip cache unavailable", "err", err)
		}
		if mgr != nil {
			defer mgr.Close() //nolint:errcheck
		}

		width := 0
		for _, name := range clips {
			width = max(width, runewidth.StringWidth(name))
		}

		for _, name := range clips {
			path := filepath.Join(dir, filepath.FromSlash(name))
			line := runewidth.FillRight(name, width)

			// LoadClip decodes directly when mgr is nil.
			if buf, err := mgr.LoadClip(path, opts.Format); err != nil {
				line += "  " + faint("unreadable: "+err.Error())
			} else {
				line += fmt.Sprintf("  %8.2fs", buf.Duration())
			}
			if st, err := os.Stat(path); err == nil {
				line += "  " + faint(humanize.Bytes(uint64(st.Size()))) //nolint:gosec
			}
			_, _ = fmt.Fprintln(w, indent(line))
		}
		return nil
	},
}
