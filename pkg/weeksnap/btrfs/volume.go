// Package btrfs exposes the subvolume operations weeksnap needs from a
// copy-on-write filesystem: detection, creation time lookup, read-only
// snapshot creation, recursive deletion, no-replace rename and sync.
//
// Two backends implement Volume. Native talks to the kernel through btrfs
// ioctls and needs no external tools; Command shells out to the btrfs(8)
// binary for creation, deletion and inspection.
package btrfs

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Volume is the capability the rotator needs from the filesystem.
// All operations block until the kernel (or tool) returns; none time out.
type Volume interface {
	// IsSubvolume reports whether path exists and is a subvolume root.
	// A missing path or a plain directory is (false, nil); only genuine
	// failures such as I/O errors return an error.
	IsSubvolume(path string) (bool, error)

	// CreationTime returns the subvolume's otime. Fails with ErrInspection.
	CreationTime(path string) (time.Time, error)

	// CreateSnapshot snapshots src at dst. dst must not exist.
	// Fails with ErrCreation.
	CreateSnapshot(src, dst string, readOnly bool) error

	// DeleteSubvolume removes the subvolume at path, including nested
	// subvolumes when recursive is set. Fails with ErrDeletion.
	DeleteSubvolume(path string, recursive bool) error

	// Rename atomically moves src to dst on the same filesystem.
	// dst must not exist. Fails with ErrRename.
	Rename(src, dst string) error

	// EnsureDir creates the directory at path if it is missing.
	EnsureDir(path string) error

	// Sync flushes filesystem data and metadata to stable storage.
	Sync() error
}

// Backend names accepted by Open.
const (
	BackendIoctl = "ioctl"
	BackendCLI   = "cli"
)

// Backends lists the accepted backend names.
var Backends = []string{BackendIoctl, BackendCLI}

// DefaultBinary is the btrfs tool used by the CLI backend.
const DefaultBinary = "btrfs"

// ErrNotSubvolume is the underlying cause when an operation is given a path
// that is not a subvolume root.
var ErrNotSubvolume = errors.New("not a subvolume")

// ErrUnknownBackend is returned by Open for an unrecognised backend name.
var ErrUnknownBackend = errors.New("unknown backend")

// Open returns the Volume implementation for backend. binary is only used by
// the CLI backend; empty means DefaultBinary.
func Open(backend, binary string) (Volume, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendIoctl:
		return NewNative(), nil
	case BackendCLI:
		return NewCommand(binary), nil
	default:
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownBackend, backend, strings.Join(Backends, ", "))
	}
}
