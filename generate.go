package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/murmur/internal/audio"
	"github.com/dgnsrekt/murmur/internal/cache"
	"github.com/dgnsrekt/murmur/internal/report"
	"github.com/dgnsrekt/murmur/internal/task"
	"github.com/dgnsrekt/murmur/internal/taskfile"
	"github.com/dgnsrekt/murmur/internal/transcript"
	"github.com/dgnsrekt/murmur/internal/watch"
	"github.com/dgnsrekt/murmur/ui"
)

// openCache returns the clip cache, or nil when it is disabled.
func openCache() (*cache.Manager, error) {
	if opts.CacheOff {
		return nil, nil
	}

	cfg := cache.DefaultConfig()
	cfg.MemoryCapacity = int64(viper.GetInt("cache.memory_mb")) << 20
	cfg.DiskCapacity = int64(viper.GetInt("cache.max_size_mb")) << 20
	cfg.CompressionLevel = viper.GetInt("cache.compression")
	cfg.TTL = viper.GetDuration("cache.ttl")

	dir := expandPath(viper.GetString("cache.dir"))
	if dir == "" {
		base, err := gap.NewScope(gap.User, "murmur").CacheDir()
		if err != nil {
			return nil, fmt.Errorf("unable to find cache directory: %w", err)
		}
		dir = filepath.Join(base, "clips")
	}
	cfg.DiskPath = dir
	return cache.NewManager(cfg)
}

// buildTask loads the task file and decodes every clip it references.
func buildTask(ctx context.Context, taskPath, audioDir string, mgr *cache.Manager) (*taskfile.Document, *task.Task, error) {
	doc, err := taskfile.Load(taskPath)
	if err != nil {
		return nil, nil, err
	}

	bo := taskfile.Options{
		AudioDir: audioDir,
		Format:   opts.Format,
		Workers:  opts.Workers,
		Cache:    mgr,
	}
	if opts.Duration > 0 {
		d := opts.Duration
		bo.Duration = &d
	}
	if opts.SeedSet {
		s := opts.Seed
		bo.Seed = &s
	}

	tk, err := taskfile.Build(ctx, doc, bo)
	if err != nil {
		return nil, nil, err
	}
	if mgr != nil {
		st := mgr.Stats()
		log.Debug("clip cache", "memory_hits", st.MemoryHits, "disk_hits", st.DiskHits, "misses", st.Misses)
	}
	return doc, tk, nil
}

// generate runs the task once and writes its outputs. Nothing is written
// when loading or scheduling fails.
func generate(ctx context.Context, w io.Writer, taskPath, audioDir string) error {
	runID := uuid.New()
	log.Debug("starting run", "run", runID, "task", taskPath, "audio", audioDir)

	mgr, err := openCache()
	if err != nil {
		log.Warn("clip cache unavailable", "err", err)
	}
	if mgr != nil {
		defer mgr.Close() //nolint:errcheck
	}

	_, tk, err := buildTask(ctx, taskPath, audioDir, mgr)
	if err != nil {
		return err
	}

	label := "generating"
	if opts.Preview {
		label = "previewing"
	}
	var res *task.Result
	err = ui.Run(ctx, uiConfig, label, func(ctx context.Context, progress task.ProgressFunc) error {
		var err error
		if opts.Preview {
			res, err = tk.Preview(progress)
		} else {
			res, err = tk.Execute(ctx, progress)
		}
		return err
	})
	if err != nil {
		return err
	}
	if res.SeedGenerated {
		log.Info("no seed given, drew one", "seed", res.Seed)
	}

	outputs, err := export(res)
	if err != nil {
		return err
	}

	if !opts.SummaryOff {
		summary := report.NewSummary(runID, taskPath, tk, res)
		summary.Preview = opts.Preview
		summary.Outputs = outputs
		printReport(w, summary, res)
	}

	if opts.Copy {
		if err := clipboard.WriteAll(res.Buffer.Text()); err != nil {
			log.Warn("could not copy transcript", "err", err)
		} else {
			log.Info("copied transcript to clipboard")
		}
	}

	if opts.Play {
		return play(ctx, res.Audio)
	}
	return nil
}

func export(res *task.Result) ([]report.Output, error) {
	if err := os.MkdirAll(filepath.Dir(opts.Output), 0o755); err != nil {
		return nil, fmt.Errorf("unable to create output directory: %w", err)
	}

	wavPath := opts.Output + ".wav"
	if err := audio.WriteWAVFile(wavPath, res.Audio); err != nil {
		return nil, fmt.Errorf("unable to write sample: %w", err)
	}
	outputs := []report.Output{fileOutput(wavPath)}

	if opts.NoText {
		return outputs, nil
	}
	text, err := compileTranscript(res.Buffer.Text())
	if err != nil {
		return nil, err
	}
	txtPath := opts.Output + ".txt"
	if err := os.WriteFile(txtPath, []byte(text), 0o644); err != nil { //nolint:gosec
		return nil, fmt.Errorf("unable to write transcript: %w", err)
	}
	return append(outputs, fileOutput(txtPath)), nil
}

func compileTranscript(text string) (string, error) {
	meta, err := transcript.LoadMeta(opts.MetaPath)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug("no transcript metadata", "path", opts.MetaPath)
	} else if err != nil {
		return "", fmt.Errorf("%s: %w", opts.MetaPath, err)
	}

	gen := transcript.NewGenerator(meta)
	gen.Width = opts.Width
	gen.Plain = opts.PlainText
	return gen.Compile(text) + "\n", nil
}

func fileOutput(path string) report.Output {
	out := report.Output{Path: path}
	if st, err := os.Stat(path); err == nil {
		out.Size = st.Size()
	}
	return out
}

func printReport(w io.Writer, summary report.Summary, res *task.Result) {
	md := summary.Markdown()
	out, err := report.Render(md, uiConfig.GlamourStyle, uiConfig.Width, lipgloss.ColorProfile())
	if err != nil {
		log.Debug("could not render summary", "err", err)
		out = md
	}
	_, _ = fmt.Fprint(w, out)

	_, _ = fmt.Fprintln(w, paragraph(keyword("Selections")))
	_, _ = fmt.Fprintln(w, indent(report.Histogram(res.Buffer.Stats(), uiConfig.Width-4)))

	if opts.Visualise {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, paragraph(keyword("Timeline")))
		track := uiConfig.Width - 4 - report.MaxLabelWidth - 1
		_, _ = fmt.Fprintln(w, indent(report.Timeline(res.Buffer.Entries(), res.Audio.Duration(), track)))
	}
}

func play(ctx context.Context, buf *audio.Buffer) error {
	player, err := audio.NewPlayer(buf.Format)
	if err != nil {
		return fmt.Errorf("unable to open audio device: %w", err)
	}
	defer player.Close() //nolint:errcheck

	log.Info("playing sample", "duration", buf.Duration())
	if err := audio.PlayBuffer(ctx, player, buf); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func watchAndGenerate(cmd *cobra.Command, taskPath, audioDir string) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	regenerate := func() {
		if err := generate(ctx, w, taskPath, audioDir); err != nil {
			log.Error("generation failed", "err", err)
		}
	}
	regenerate()

	paths := []string{taskPath}
	if _, err := os.Stat(opts.MetaPath); err == nil && !opts.NoText {
		paths = append(paths, opts.MetaPath)
	}
	watcher, err := watch.New(paths...)
	if err != nil {
		return err
	}
	defer watcher.Close() //nolint:errcheck

	log.Info("watching for changes", "task", taskPath)
	err = watcher.Run(ctx, func(path string) {
		log.Info("file changed, regenerating", "path", path)
		regenerate()
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
