package btrfs

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/jamesainslie/weeksnap/pkg/weeksnap/logging"
	"github.com/jamesainslie/weeksnap/pkg/weeksnap/types"
)

// Runner executes an external command and returns its combined output.
type Runner func(name string, args ...string) ([]byte, error)

// Command implements Volume by running the btrfs(8) tool for snapshot
// creation, deletion and inspection. Detection, rename, directory creation
// and sync are shared with Native.
type Command struct {
	binary string
	run    Runner
	native *Native
	log    *logging.Logger
}

// NewCommand returns the CLI backend. Empty binary means DefaultBinary.
func NewCommand(binary string) *Command {
	return NewCommandWithRunner(binary, runCmd)
}

// NewCommandWithRunner is NewCommand with a custom runner.
func NewCommandWithRunner(binary string, run Runner) *Command {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Command{
		binary: binary,
		run:    run,
		native: NewNative(),
		log:    logging.Get("btrfs"),
	}
}

func runCmd(name string, args ...string) ([]byte, error) {
	out, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return out, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, msg)
		}
		return out, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return out, nil
}

// IsSubvolume delegates to the native statfs/stat check.
func (c *Command) IsSubvolume(path string) (bool, error) {
	return c.native.IsSubvolume(path)
}

// CreationTime parses "Creation time:" from `btrfs subvolume show`.
func (c *Command) CreationTime(path string) (time.Time, error) {
	if err := c.native.requireSubvolume(path); err != nil {
		return time.Time{}, types.NewOpError(types.ErrInspection, path, err)
	}

	out, err := c.run(c.binary, "subvolume", "show", path)
	if err != nil {
		return time.Time{}, types.NewOpError(types.ErrInspection, path, err)
	}

	otime, err := ParseCreationTime(out)
	if err != nil {
		return time.Time{}, types.NewOpError(types.ErrInspection, path, err)
	}
	return otime, nil
}

// CreateSnapshot runs `btrfs subvolume snapshot [-r] src dst`.
func (c *Command) CreateSnapshot(src, dst string, readOnly bool) error {
	if err := c.native.requireSubvolume(src); err != nil {
		return types.NewOpError(types.ErrCreation, dst, err)
	}
	if err := requireAbsent(dst); err != nil {
		return types.NewOpError(types.ErrCreation, dst, err)
	}

	args := []string{"subvolume", "snapshot"}
	if readOnly {
		args = append(args, "-r")
	}
	args = append(args, src, dst)

	if _, err := c.run(c.binary, args...); err != nil {
		return types.NewOpError(types.ErrCreation, dst, err)
	}

	c.log.Debug("snapshot created", "source", src, "dest", dst, "readonly", readOnly, "backend", BackendCLI)
	return nil
}

// DeleteSubvolume runs `btrfs subvolume delete` on nested subvolumes
// (deepest first, when recursive) and then on path.
func (c *Command) DeleteSubvolume(path string, recursive bool) error {
	if err := c.native.requireSubvolume(path); err != nil {
		return types.NewOpError(types.ErrDeletion, path, err)
	}

	targets := []string{}
	if recursive {
		nested, err := c.native.nestedSubvolumes(path)
		if err != nil {
			return types.NewOpError(types.ErrDeletion, path, err)
		}
		targets = append(targets, nested...)
	}
	targets = append(targets, path)

	for _, target := range targets {
		if _, err := c.run(c.binary, "subvolume", "delete", "--commit-after", target); err != nil {
			return types.NewOpError(types.ErrDeletion, path, err)
		}
	}
	return nil
}

// Rename delegates to the native no-replace rename.
func (c *Command) Rename(src, dst string) error {
	return c.native.Rename(src, dst)
}

// EnsureDir creates path if it does not exist.
func (c *Command) EnsureDir(path string) error {
	return c.native.EnsureDir(path)
}

// Sync delegates to sync(2).
func (c *Command) Sync() error {
	return c.native.Sync()
}

// showTimeLayout is the timestamp format printed by `btrfs subvolume show`.
const showTimeLayout = "2006-01-02 15:04:05 -0700"

// ErrNoCreationTime is returned when `subvolume show` output has no usable
// creation time.
var ErrNoCreationTime = errors.New("no creation time in subvolume show output")

// ParseCreationTime extracts the "Creation time:" field from the output of
// `btrfs subvolume show`.
func ParseCreationTime(out []byte) (time.Time, error) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		value, ok := strings.CutPrefix(line, "Creation time:")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" || value == "-" {
			return time.Time{}, ErrNoCreationTime
		}
		t, err := time.Parse(showTimeLayout, value)
		if err != nil {
			return time.Time{}, fmt.Errorf("parsing creation time %q: %w", value, err)
		}
		return t, nil
	}
	if err := scanner.Err(); err != nil {
		return time.Time{}, err
	}
	return time.Time{}, ErrNoCreationTime
}
