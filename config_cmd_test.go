package main

import (
	"os"
	"path/filepath"
	"testing"
)

func withConfigFile(t *testing.T, path string) {
	t.Helper()
	saved := configFile
	t.Cleanup(func() { configFile = saved })
	configFile = path
}

func TestEnsureConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "murmur", "murmur.yml")
	withConfigFile(t, path)

	if err := ensureConfigFile(); err != nil {
		t.Fatalf("ensureConfigFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != defaultConfig {
		t.Error("new settings file should hold the defaults")
	}
	if err := checkConfigFile(path); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}

	if err := os.WriteFile(path, []byte("output: mine\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := ensureConfigFile(); err != nil {
		t.Fatalf("ensureConfigFile failed: %v", err)
	}
	if data, _ := os.ReadFile(path); string(data) != "output: mine\n" {
		t.Errorf("existing settings overwritten: %q", data)
	}
}

func TestEnsureConfigFileRejectsExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "murmur.json")
	withConfigFile(t, path)

	if err := ensureConfigFile(); err == nil {
		t.Fatal("expected an error for a .json settings file")
	}
	if _, err := os.Stat(path); err == nil {
		t.Error("settings file created despite the error")
	}
}

func TestCheckConfigFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"empty", "", false},
		{"mono", "format: {sample_rate: 22050, channels: 1}\n", false},
		{"bad channels", "format: {channels: 3}\n", true},
		{"bad ttl", "cache: {ttl: soon}\n", true},
		{"bad compression", "cache: {compression: 40}\n", true},
		{"bad yaml", "format: [\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "murmur.yml")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			if err := checkConfigFile(path); (err != nil) != tt.wantErr {
				t.Errorf("checkConfigFile() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
