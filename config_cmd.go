package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/murmur/internal/audio"
)

const defaultConfig = `# output path without extension; .wav and .txt are appended
output: "output"
# clips decoded in parallel (0 uses every CPU)
workers: 0

# format of the generated sample
format:
  sample_rate: 44100
  # 1 for mono, 2 for stereo
  channels: 2

# transcript written next to the sample
transcript:
  # metadata shown in the info block (YAML or JSON mapping)
  meta: "meta.json"
  # word-wrap at width (0 disables)
  width: 0
  # strip markdown from segment text
  plain: false

# decoded clips are cached between runs
cache:
  enabled: true
  # default is the user cache directory
  dir: ""
  memory_mb: 256
  max_size_mb: 1024
  # zstd level, 0 stores clips uncompressed
  compression: 3
  # entries not written for this long are dropped
  ttl: "720h"
`

var (
	configPathOnly bool

	configCmd = &cobra.Command{
		Use:     "config",
		Short:   "Edit the murmur settings file",
		Long:    paragraph(fmt.Sprintf("\n%s the settings murmur uses when flags are not given: output path, sample rate and channels, transcript options and the clip cache. The file is opened in $EDITOR, created with commented defaults when missing, and checked after the editor exits.", keyword("Edit"))),
		Example: paragraph("murmur config\nmurmur config --path\nmurmur config --config path/to/murmur.yml"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := ensureConfigFile(); err != nil {
				return err
			}
			if configPathOnly {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), configFile)
				return err
			}

			c, err := editor.Cmd("murmur", configFile)
			if err != nil {
				return fmt.Errorf("unable to set config file: %w", err)
			}
			c.Stdin = os.Stdin
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			if err := c.Run(); err != nil {
				return fmt.Errorf("unable to run editor: %w", err)
			}

			if err := checkConfigFile(configFile); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), paragraph(keyword("ok")+" "+configFile))
			return err
		},
	}
)

func init() {
	configCmd.Flags().BoolVar(&configPathOnly, "path", false, "print the settings file path and exit")
}

// ensureConfigFile writes the commented defaults to configFile unless it
// already exists.
func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
	}
	if ext := path.Ext(configFile); !slices.Contains([]string{".yaml", ".yml"}, ext) {
		return fmt.Errorf("%q is not a supported settings file: use .yml or .yaml", ext)
	}

	_, err := os.Stat(configFile)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("unable to stat settings file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
		return fmt.Errorf("unable to create settings directory: %w", err)
	}
	if err := os.WriteFile(configFile, []byte(defaultConfig), 0o600); err != nil {
		return fmt.Errorf("unable to write settings file: %w", err)
	}
	log.Debug("wrote default settings", "path", configFile)
	return nil
}

// checkConfigFile reads a settings file on its own and validates the values
// murmur cannot run without.
func checkConfigFile(file string) error {
	v := viper.New()
	v.SetConfigFile(file)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}

	if v.IsSet("format.sample_rate") || v.IsSet("format.channels") {
		format := audio.Format{
			SampleRate: v.GetInt("format.sample_rate"),
			Channels:   v.GetInt("format.channels"),
		}
		if format.SampleRate == 0 {
			format.SampleRate = audio.DefaultFormat.SampleRate
		}
		if format.Channels == 0 {
			format.Channels = audio.DefaultFormat.Channels
		}
		if err := format.Validate(); err != nil {
			return fmt.Errorf("%s: format: %w", file, err)
		}
	}
	if ttl := v.GetString("cache.ttl"); ttl != "" {
		if _, err := time.ParseDuration(ttl); err != nil {
			return fmt.Errorf("%s: cache.ttl: %w", file, err)
		}
	}
	if level := v.GetInt("cache.compression"); level < 0 || level > 22 {
		return fmt.Errorf("%s: cache.compression must be between 0 and 22, got %d", file, level)
	}
	return nil
}
