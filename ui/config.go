package ui

// Config contains settings for the progress display and logging. The env
// tagged fields are read with caarlos0/env.
type Config struct {
	GlamourStyle string `env:"GLAMOUR_STYLE"`
	HomeDir      string `env:"HOME"`

	// For debugging
	Debug   bool   `env:"MURMUR_DEBUG"`
	LogFile string `env:"MURMUR_LOG_FILE"`
	NoTUI   bool   `env:"MURMUR_NO_TUI"`

	// Set from the terminal
	TTY   bool
	Width int
}

// UseTUI reports whether progress is drawn with the interactive view.
func (c Config) UseTUI() bool {
	return c.TTY && !c.NoTUI
}
