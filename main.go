// Package main provides the entry point for the murmur CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/dgnsrekt/murmur/internal/audio"
	"github.com/dgnsrekt/murmur/ui"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	opts       options
	uiConfig   ui.Config

	rootCmd = &cobra.Command{
		Use:   "murmur TASK AUDIO_DIR",
		Short: "Generate randomized audio samples from a task file",
		Long: paragraph(
			fmt.Sprintf("\nStitch recorded clips into a %s of any length, following the weights, cooldowns and sections of a task file.", keyword("randomized sample")),
		),
		Example:          paragraph("murmur task.yml clips/ -d 600 -o out/sample\nmurmur task.yml clips/ --preview --play"),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.ExactArgs(2),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

// options are the resolved settings of one invocation.
type options struct {
	Output     string
	Duration   float64
	Seed       int64
	SeedSet    bool
	Preview    bool
	NoText     bool
	Visualise  bool
	Play       bool
	Watch      bool
	Copy       bool
	MetaPath   string
	Workers    int
	Format     audio.Format
	Width      int
	PlainText  bool
	CacheOff   bool
	Debug      bool
	SummaryOff bool
}

func validateOptions(cmd *cobra.Command) error {
	// grab config values from Viper
	opts.Output = expandPath(viper.GetString("output"))
	opts.MetaPath = expandPath(viper.GetString("transcript.meta"))
	opts.PlainText = viper.GetBool("transcript.plain")
	opts.Width = viper.GetInt("transcript.width")
	opts.Workers = viper.GetInt("workers")
	opts.CacheOff = !viper.GetBool("cache.enabled")
	opts.Debug = viper.GetBool("debug") || uiConfig.Debug
	opts.Format = audio.Format{
		SampleRate: viper.GetInt("format.sample_rate"),
		Channels:   viper.GetInt("format.channels"),
	}

	flags := cmd.Flags()
	opts.SeedSet = flags.Changed("seed")
	if noCache, _ := flags.GetBool("no-cache"); noCache {
		opts.CacheOff = true
	}
	if opts.Duration < 0 {
		return fmt.Errorf("duration must be positive, got %v", opts.Duration)
	}
	if opts.Output == "" {
		return errors.New("output path must not be empty")
	}
	if err := opts.Format.Validate(); err != nil {
		return fmt.Errorf("invalid output format: %w", err)
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	if opts.Debug {
		log.SetLevel(log.DebugLevel)
	}

	uiConfig.TTY = term.IsTerminal(int(os.Stdout.Fd()))
	if !uiConfig.TTY || termenv.EnvNoColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	// Detect terminal width
	uiConfig.Width = 80
	if uiConfig.TTY {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			uiConfig.Width = min(w, 120)
		}
	}
	return nil
}

func execute(cmd *cobra.Command, args []string) error {
	taskPath := expandPath(args[0])
	audioDir := expandPath(args[1])

	if st, err := os.Stat(audioDir); err != nil {
		return fmt.Errorf("unable to open audio directory: %w", err)
	} else if !st.IsDir() {
		return fmt.Errorf("%s is not a directory", audioDir)
	}

	if opts.Watch {
		return watchAndGenerate(cmd, taskPath, audioDir)
	}
	return generate(cmd.Context(), cmd.OutOrStdout(), taskPath, audioDir)
}

func main() {
	var err error
	uiConfig, err = env.ParseAs[ui.Config]()
	if err != nil {
		fmt.Println("error parsing config:", err)
		os.Exit(1)
	}

	closer, err := setupLog(uiConfig)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = rootCmd.ExecuteContext(ctx)
	stop()
	_ = closer()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().Bool("debug", false, "log debug messages")
	rootCmd.PersistentFlags().Bool("no-cache", false, "decode every clip instead of using the clip cache")
	rootCmd.PersistentFlags().Int("workers", 0, "clips decoded in parallel (default number of CPUs)")
	rootCmd.PersistentFlags().Int("sample-rate", audio.DefaultFormat.SampleRate, "output sample rate in Hz")
	rootCmd.PersistentFlags().Int("channels", audio.DefaultFormat.Channels, "output channels (1 or 2)")

	rootCmd.Flags().StringP("output", "o", "output", "output path without extension")
	rootCmd.Flags().Float64VarP(&opts.Duration, "duration", "d", 0, "target duration in seconds (default from the task file)")
	rootCmd.Flags().Int64VarP(&opts.Seed, "seed", "s", 0, "random seed (default from the task file, or random)")
	rootCmd.Flags().BoolVarP(&opts.Preview, "preview", "p", false, "append every segment once, in order")
	rootCmd.Flags().BoolVar(&opts.NoText, "no-text", false, "do not write the transcript")
	rootCmd.Flags().BoolVarP(&opts.Visualise, "visualise", "i", false, "print a timeline of the scheduled segments")
	rootCmd.Flags().BoolVar(&opts.Play, "play", false, "play the sample when done")
	rootCmd.Flags().BoolVar(&opts.Watch, "watch", false, "regenerate whenever the task file changes")
	rootCmd.Flags().BoolVar(&opts.Copy, "copy-transcript", false, "copy the transcript to the clipboard")
	rootCmd.Flags().BoolVarP(&opts.SummaryOff, "quiet", "q", false, "do not print the run summary")
	rootCmd.Flags().String("meta", "meta.json", "metadata for the transcript info block")
	rootCmd.Flags().Bool("plain", false, "strip markdown from the transcript")
	rootCmd.Flags().Int("width", 0, "word-wrap the transcript at width (0 disables)")

	// Config bindings
	_ = viper.BindPFlag("output", rootCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))
	_ = viper.BindPFlag("format.sample_rate", rootCmd.PersistentFlags().Lookup("sample-rate"))
	_ = viper.BindPFlag("format.channels", rootCmd.PersistentFlags().Lookup("channels"))
	_ = viper.BindPFlag("transcript.meta", rootCmd.Flags().Lookup("meta"))
	_ = viper.BindPFlag("transcript.plain", rootCmd.Flags().Lookup("plain"))
	_ = viper.BindPFlag("transcript.width", rootCmd.Flags().Lookup("width"))

	viper.SetDefault("output", "output")
	viper.SetDefault("format.sample_rate", audio.DefaultFormat.SampleRate)
	viper.SetDefault("format.channels", audio.DefaultFormat.Channels)
	viper.SetDefault("transcript.meta", "meta.json")
	viper.SetDefault("transcript.width", 0)
	viper.SetDefault("workers", 0)

	// Cache defaults
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.dir", "")
	viper.SetDefault("cache.memory_mb", 256)
	viper.SetDefault("cache.max_size_mb", 1024)
	viper.SetDefault("cache.compression", 3)
	viper.SetDefault("cache.ttl", "720h")

	rootCmd.AddCommand(configCmd, manCmd, checkCmd, clipsCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "murmur")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "murmur")}, dirs...)
	}

	if c := os.Getenv("MURMUR_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("murmur")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("murmur")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "murmur.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
