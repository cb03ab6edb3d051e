package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/jamesainslie/weeksnap/pkg/weeksnap/config"
	"github.com/jamesainslie/weeksnap/pkg/weeksnap/logging"
	"github.com/jamesainslie/weeksnap/pkg/weeksnap/manifest"
	"github.com/jamesainslie/weeksnap/pkg/weeksnap/rotator"
)

func TestParseRotationConfig(t *testing.T) {
	defaults := logging.DefaultRotationConfig()

	tests := []struct {
		name     string
		input    config.RotationConfig
		expected logging.RotationConfig
	}{
		{
			name:     "decimal megabytes",
			input:    config.RotationConfig{MaxSize: "10MB", MaxAge: 30, MaxBackups: 5, Daily: true},
			expected: logging.RotationConfig{MaxSize: 10 * 1000 * 1000, MaxAge: 30, MaxBackups: 5, Daily: true},
		},
		{
			name:     "binary gigabytes",
			input:    config.RotationConfig{MaxSize: "1GiB", MaxAge: 7, MaxBackups: 3},
			expected: logging.RotationConfig{MaxSize: 1024 * 1024 * 1024, MaxAge: 7, MaxBackups: 3},
		},
		{
			name:     "empty max_size uses default",
			input:    config.RotationConfig{MaxAge: 14, MaxBackups: 2, Daily: true},
			expected: logging.RotationConfig{MaxSize: defaults.MaxSize, MaxAge: 14, MaxBackups: 2, Daily: true},
		},
		{
			name:     "invalid max_size uses default",
			input:    config.RotationConfig{MaxSize: "invalid", MaxAge: 21, MaxBackups: 4},
			expected: logging.RotationConfig{MaxSize: defaults.MaxSize, MaxAge: 21, MaxBackups: 4},
		},
		{
			name:     "zero max_size uses default",
			input:    config.RotationConfig{MaxSize: "0B"},
			expected: logging.RotationConfig{MaxSize: defaults.MaxSize},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseRotationConfig(tt.input)

			if result != tt.expected {
				t.Errorf("parseRotationConfig() = %+v, want %+v", result, tt.expected)
			}
		})
	}
}

func TestInitLoggingConsole(t *testing.T) {
	newTestEnv(t)

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	var console bytes.Buffer
	if err := initLogging(cfg, false, &console); err != nil {
		t.Fatalf("initLogging() error = %v", err)
	}
	logging.Get("cli").Info("quiet")
	if console.Len() != 0 {
		t.Errorf("console output without verbose: %q", console.String())
	}

	if err := initLogging(cfg, true, &console); err != nil {
		t.Fatalf("initLogging() error = %v", err)
	}
	logging.Get("cli").Debug("loud")
	if !bytes.Contains(console.Bytes(), []byte("loud")) {
		t.Errorf("verbose console output = %q, want debug line", console.String())
	}
}

func TestEntryFor(t *testing.T) {
	started := time.Date(2024, 5, 6, 7, 8, 9, 0, time.FixedZone("CEST", 2*60*60))
	created := started.AddDate(0, 0, -7)

	tests := []struct {
		name   string
		res    *rotator.Result
		err    error
		expect manifest.Entry
	}{
		{
			name: "first run",
			res:  &rotator.Result{Volume: "/v", Head: "/v/.snapshots/head", Started: started, Duration: time.Second},
			expect: manifest.Entry{
				Timestamp: started.UTC(), Volume: "/v", Outcome: manifest.OutcomeCreated,
				Head: "/v/.snapshots/head", Duration: time.Second,
			},
		},
		{
			name: "replacing run",
			res: &rotator.Result{
				Volume: "/v", Head: "/v/.snapshots/head", Started: started,
				Filed: &rotator.Filing{From: "/v/.snapshots/head", To: "/v/.snapshots/Mon", Slot: "Mon", Created: created, Replaced: true, Renamed: true},
			},
			expect: manifest.Entry{
				Timestamp: started.UTC(), Volume: "/v", Outcome: manifest.OutcomeCreated,
				Head: "/v/.snapshots/head", Deleted: "/v/.snapshots/Mon",
				FiledFrom: "/v/.snapshots/head", FiledTo: "/v/.snapshots/Mon", SnapshotTime: created,
			},
		},
		{
			name: "rename failed after delete",
			res: &rotator.Result{
				Volume: "/v", Started: started,
				Filed: &rotator.Filing{From: "/v/.snapshots/head", To: "/v/.snapshots/Mon", Slot: "Mon", Created: created, Replaced: true},
			},
			err: errors.New("Renaming /v/.snapshots/head to /v/.snapshots/Mon failed(busy)"),
			expect: manifest.Entry{
				Timestamp: started.UTC(), Volume: "/v", Outcome: manifest.OutcomeFailed,
				Deleted: "/v/.snapshots/Mon",
				Error:   "Renaming /v/.snapshots/head to /v/.snapshots/Mon failed(busy)",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := entryFor(tt.res, tt.err)
			if *got != tt.expect {
				t.Errorf("entryFor() = %+v, want %+v", *got, tt.expect)
			}
		})
	}
}
