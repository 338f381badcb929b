package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/murmur/internal/taskfile"
)

var checkCmd = &cobra.Command{
	Use:     "check TASK AUDIO_DIR",
	Short:   "Validate a task file without generating",
	Long:    paragraph(fmt.Sprintf("\n%s a task file: every field, every clip it references and every effect. Clips in the audio directory that nothing references are listed.", keyword("Check"))),
	Example: paragraph("murmur check task.yml clips/"),
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskPath := expandPath(args[0])
		audioDir := expandPath(args[1])

		mgr, err := openCache()
		if err != nil {
			log.Warn("clip cache unavailable", "err", err)
		}
		if mgr != nil {
			defer mgr.Close() //nolint:errcheck
		}

		doc, tk, err := buildTask(cmd.Context(), taskPath, audioDir, mgr)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		target := time.Duration(tk.Settings.Duration * float64(time.Second))
		_, _ = fmt.Fprintln(w, paragraph(keyword("ok")+" "+taskPath))
		_, _ = fmt.Fprintln(w, indent(fmt.Sprintf("%s, %s, %s target",
			english.Plural(len(tk.Segments), "segment", ""),
			english.Plural(len(tk.Effects), "effect", ""),
			target,
		)))

		clips, err := taskfile.Discover(audioDir)
		if err != nil {
			log.Warn("could not list clips", "dir", audioDir, "err", err)
			return nil
		}
		if unused := doc.UnusedClips(clips); len(unused) > 0 {
			_, _ = fmt.Fprintln(w, indent(faint(english.Plural(len(unused), "unused clip", "")+":")))
			for _, name := range unused {
				_, _ = fmt.Fprintln(w, indent("  "+name))
			}
		}
		return nil
	},
}
