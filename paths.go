package main

import (
	"os"

	"github.com/mitchellh/go-homedir"
)

// expandPath expands a leading tilde and environment variables.
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if expanded, err := homedir.Expand(path); err == nil {
		path = expanded
	}
	return os.ExpandEnv(path)
}
