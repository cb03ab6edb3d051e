package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
)

// isolate points the XDG directories at a temp dir for the test.
func isolate(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Cleanup(xdg.Reload)
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	xdg.Reload()
	return dir
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	if err := os.MkdirAll(ConfigDir(), 0o755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	path := ConfigFile()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend != DefaultBackend {
		t.Errorf("Backend = %q, want %q", cfg.Backend, DefaultBackend)
	}
	if cfg.BtrfsBinary != DefaultBinary {
		t.Errorf("BtrfsBinary = %q, want %q", cfg.BtrfsBinary, DefaultBinary)
	}
	if cfg.Lock {
		t.Error("Lock = true, want false")
	}
	if !cfg.Journal.Enabled {
		t.Error("Journal.Enabled = false, want true")
	}
	if cfg.Journal.RetentionDays != DefaultRetentionDays {
		t.Errorf("Journal.RetentionDays = %d, want %d", cfg.Journal.RetentionDays, DefaultRetentionDays)
	}
	wantJournal := filepath.Join(dir, "state", "weeksnap", "journal")
	if cfg.Journal.Path != wantJournal {
		t.Errorf("Journal.Path = %q, want %q", cfg.Journal.Path, wantJournal)
	}
	if cfg.Logging.Level != DefaultLogLevel {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, DefaultLogLevel)
	}
	if cfg.Logging.Rotation.MaxSize != DefaultMaxLogSize {
		t.Errorf("Logging.Rotation.MaxSize = %q, want %q", cfg.Logging.Rotation.MaxSize, DefaultMaxLogSize)
	}
	if cfg.Output != DefaultOutput {
		t.Errorf("Output = %q, want %q", cfg.Output, DefaultOutput)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := isolate(t)
	writeConfig(t, `
backend: CLI
btrfs_binary: /usr/local/sbin/btrfs
lock: true
output: json
journal:
  enabled: false
  path: ~/weeksnap-journal
  retention_days: 7
logging:
  level: DEBUG
  rotation:
    max_size: 1MB
    daily: true
`)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend != "cli" {
		t.Errorf("Backend = %q, want cli", cfg.Backend)
	}
	if cfg.BtrfsBinary != "/usr/local/sbin/btrfs" {
		t.Errorf("BtrfsBinary = %q", cfg.BtrfsBinary)
	}
	if !cfg.Lock {
		t.Error("Lock = false, want true")
	}
	if cfg.Output != "json" {
		t.Errorf("Output = %q, want json", cfg.Output)
	}
	if cfg.Journal.Enabled {
		t.Error("Journal.Enabled = true, want false")
	}
	if want := filepath.Join(dir, "weeksnap-journal"); cfg.Journal.Path != want {
		t.Errorf("Journal.Path = %q, want %q", cfg.Journal.Path, want)
	}
	if cfg.Journal.RetentionDays != 7 {
		t.Errorf("Journal.RetentionDays = %d, want 7", cfg.Journal.RetentionDays)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if !cfg.Logging.Rotation.Daily {
		t.Error("Logging.Rotation.Daily = false, want true")
	}
	if cfg.Logging.Rotation.MaxBackups != 8 {
		t.Errorf("Logging.Rotation.MaxBackups = %d, want default 8", cfg.Logging.Rotation.MaxBackups)
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("backend: cli\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend != "cli" {
		t.Errorf("Backend = %q, want cli", cfg.Backend)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Load() with missing explicit file error = nil, want error")
	}
}

func TestLoad_Environment(t *testing.T) {
	isolate(t)
	writeConfig(t, "backend: ioctl\n")
	t.Setenv("WEEKSNAP_BACKEND", "cli")
	t.Setenv("WEEKSNAP_LOCK", "true")
	t.Setenv("WEEKSNAP_JOURNAL_RETENTION_DAYS", "3")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend != "cli" {
		t.Errorf("Backend = %q, want cli from environment", cfg.Backend)
	}
	if !cfg.Lock {
		t.Error("Lock = false, want true from environment")
	}
	if cfg.Journal.RetentionDays != 3 {
		t.Errorf("Journal.RetentionDays = %d, want 3", cfg.Journal.RetentionDays)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{name: "unknown backend", content: "backend: zfs\n", field: "Backend"},
		{name: "cli without binary", content: "backend: cli\nbtrfs_binary: \"\"\n", field: "BtrfsBinary"},
		{name: "unknown output", content: "output: xml\n", field: "Output"},
		{name: "negative retention", content: "journal:\n  retention_days: -1\n", field: "RetentionDays"},
		{name: "bad level", content: "logging:\n  level: loud\n", field: "Level"},
		{name: "bad component level", content: "logging:\n  components:\n    rotator: loud\n", field: "components.rotator"},
		{name: "bad size", content: "logging:\n  rotation:\n    max_size: huge\n", field: "MaxSize"},
		{name: "malformed yaml", content: "backend: [\n", field: "config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			writeConfig(t, tt.content)

			_, err := Load("")
			if err == nil {
				t.Fatal("Load() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("Load() error = %v, want mention of %s", err, tt.field)
			}
		})
	}
}

func TestConfig_YAML(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	data, err := cfg.YAML()
	if err != nil {
		t.Fatalf("YAML() error = %v", err)
	}
	for _, want := range []string{"backend: ioctl", "journal:", "retention_days: 90", "max_size: 10MB"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("YAML() missing %q in:\n%s", want, data)
		}
	}
}

func TestWriteDefault(t *testing.T) {
	isolate(t)

	created, err := WriteDefault("")
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	if !created {
		t.Error("WriteDefault() created = false on first call")
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() after WriteDefault error = %v", err)
	}
	if cfg.Backend != DefaultBackend {
		t.Errorf("Backend = %q, want %q", cfg.Backend, DefaultBackend)
	}

	if err := os.WriteFile(ConfigFile(), []byte("backend: cli\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	created, err = WriteDefault("")
	if err != nil {
		t.Fatalf("WriteDefault() second call error = %v", err)
	}
	if created {
		t.Error("WriteDefault() overwrote an existing file")
	}
	data, _ := os.ReadFile(ConfigFile())
	if string(data) != "backend: cli\n" {
		t.Errorf("existing config modified: %q", data)
	}
}

func TestExpandPath(t *testing.T) {
	dir := isolate(t)

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/abs/path", "/abs/path"},
		{"rel/path", "rel/path"},
		{"~", dir},
		{"~/journal", filepath.Join(dir, "journal")},
	}
	for _, tt := range tests {
		got, err := ExpandPath(tt.in)
		if err != nil {
			t.Fatalf("ExpandPath(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDirs(t *testing.T) {
	dir := isolate(t)

	if want := filepath.Join(dir, "config", "weeksnap"); ConfigDir() != want {
		t.Errorf("ConfigDir() = %q, want %q", ConfigDir(), want)
	}
	if want := filepath.Join(dir, "config", "weeksnap", "config.yaml"); ConfigFile() != want {
		t.Errorf("ConfigFile() = %q, want %q", ConfigFile(), want)
	}
	if want := filepath.Join(dir, "state", "weeksnap"); StateDir() != want {
		t.Errorf("StateDir() = %q, want %q", StateDir(), want)
	}
}
