package taskfile

import (
	"errors"
	"fmt"
)

var (
	ErrMissingField       = errors.New("required field missing")
	ErrInvalidValue       = errors.New("invalid value")
	ErrDuplicateID        = errors.New("duplicate segment id")
	ErrMissingClip        = errors.New("audio file not found")
	ErrUnknownEffectType  = errors.New("unknown effect type")
	ErrUnsupportedPattern = errors.New("unsupported audio file")
)

// ConfigError points at the part of a task file that is wrong.
type ConfigError struct {
	Path  string // task file
	Field string // e.g. segments[2].sections[0].end
	Err   error
}

func (e *ConfigError) Error() string {
	switch {
	case e.Path != "" && e.Field != "":
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Field, e.Err)
	case e.Field != "":
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err was caused by the task file contents.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

func fieldErr(path, field string, err error) *ConfigError {
	return &ConfigError{Path: path, Field: field, Err: err}
}
