// Package config loads weeksnap configuration from file, environment and
// command-line flags.
package config

// Default configuration values.
const (
	// DefaultBackend selects the native ioctl backend.
	DefaultBackend = "ioctl"

	// DefaultBinary is the btrfs-progs executable used by the cli backend.
	DefaultBinary = "btrfs"

	// DefaultRetentionDays is how long journal entries are kept.
	DefaultRetentionDays = 90

	// DefaultLogLevel is the log file level.
	DefaultLogLevel = "info"

	// DefaultMaxLogSize is the log size that triggers rotation.
	DefaultMaxLogSize = "10MB"

	// DefaultOutput is the format used by status and history.
	DefaultOutput = "pretty"

	// EnvPrefix prefixes every environment override, e.g. WEEKSNAP_BACKEND.
	EnvPrefix = "WEEKSNAP"

	appName  = "weeksnap"
	fileName = "config.yaml"
)

// Output formats.
var Outputs = []string{"pretty", "plain", "json"}

// Log levels accepted in logging.level and logging.components.
var LogLevels = []string{"debug", "info", "warn", "warning", "error"}
