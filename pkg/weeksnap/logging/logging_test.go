package logging_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jamesainslie/weeksnap/pkg/weeksnap/logging"
)

// Tests in this file share the package's global state and must not run in parallel.

func TestInit(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     logging.Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg:  logging.Config{Level: "info", Path: filepath.Join(dir, "a.log")},
		},
		{
			name: "component overrides",
			cfg: logging.Config{
				Level:      "warn",
				Path:       filepath.Join(dir, "b.log"),
				Components: map[string]string{"rotator": "debug"},
			},
		},
		{
			name:    "invalid level",
			cfg:     logging.Config{Level: "loud", Path: filepath.Join(dir, "c.log")},
			wantErr: true,
		},
		{
			name:    "invalid component level",
			cfg:     logging.Config{Level: "info", Path: filepath.Join(dir, "d.log"), Components: map[string]string{"btrfs": "loud"}},
			wantErr: true,
		},
		{
			name:    "invalid console level",
			cfg:     logging.Config{Level: "info", Path: filepath.Join(dir, "e.log"), ConsoleLevel: "loud"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := logging.Init(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Init() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err := logging.Close(); err != nil {
				t.Errorf("Close() error = %v", err)
			}
		})
	}
}

func TestGetBeforeInitIsSilent(t *testing.T) {
	log := logging.Get("silent")
	if log == nil {
		t.Fatal("Get() returned nil")
	}
	log.Info("dropped")

	if again := logging.Get("silent"); again != log {
		t.Error("Get() returned a different logger for the same component")
	}
}

func TestLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weeksnap.log")
	if err := logging.Init(logging.Config{Level: "debug", Path: path}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	log := logging.Get("rotator").With("volume", "/mnt/data")
	log.Info("snapshot created", "path", "/mnt/data/.snapshots/head")

	if err := logging.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	content := string(data)
	for _, want := range []string{"snapshot created", "rotator", "/mnt/data/.snapshots/head", "volume=/mnt/data"} {
		if !strings.Contains(content, want) {
			t.Errorf("log file missing %q:\n%s", want, content)
		}
	}
}

func TestComponentLevelOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levels.log")
	err := logging.Init(logging.Config{
		Level:      "warn",
		Path:       path,
		Components: map[string]string{"btrfs": "debug"},
	})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	logging.Get("btrfs").Debug("ioctl issued")
	logging.Get("journal").Info("entry recorded")

	if err := logging.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "ioctl issued") {
		t.Error("debug line from overridden component missing")
	}
	if strings.Contains(string(data), "entry recorded") {
		t.Error("info line below default level was written")
	}
}

func TestConsoleOutput(t *testing.T) {
	var console bytes.Buffer
	err := logging.Init(logging.Config{
		Level:        "info",
		Path:         filepath.Join(t.TempDir(), "console.log"),
		ConsoleLevel: "debug",
		Console:      &console,
	})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer func() { _ = logging.Close() }()

	logging.Get("cli").Debug("resolved volume", "path", "/mnt/data")

	if !strings.Contains(console.String(), "resolved volume") {
		t.Errorf("console output = %q, want debug line", console.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    logging.Level
		wantErr bool
	}{
		{in: "debug", want: logging.LevelDebug},
		{in: "INFO", want: logging.LevelInfo},
		{in: "", want: logging.LevelInfo},
		{in: "warning", want: logging.LevelWarn},
		{in: "error", want: logging.LevelError},
		{in: "trace", want: logging.LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := logging.ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, logging.ErrInvalidLevel) {
				t.Errorf("error = %v, want ErrInvalidLevel", err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDefaultLogPath(t *testing.T) {
	path := logging.DefaultLogPath()
	if filepath.Base(path) != "weeksnap.log" {
		t.Errorf("DefaultLogPath() = %q, want weeksnap.log", path)
	}
	if filepath.Base(filepath.Dir(path)) != "weeksnap" {
		t.Errorf("DefaultLogPath() = %q, want weeksnap directory", path)
	}
}
