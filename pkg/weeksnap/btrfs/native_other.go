//go:build !linux

package btrfs

import (
	"time"

	"github.com/jamesainslie/weeksnap/pkg/weeksnap/logging"
	"github.com/jamesainslie/weeksnap/pkg/weeksnap/types"
)

// Native is unavailable outside Linux; every operation fails with
// types.ErrUnsupported wrapped in the operation's error kind.
type Native struct {
	log *logging.Logger
}

// NewNative returns the ioctl backend.
func NewNative() *Native {
	return &Native{log: logging.Get("btrfs")}
}

func (n *Native) IsSubvolume(path string) (bool, error) {
	return false, types.ErrUnsupported
}

func (n *Native) CreationTime(path string) (time.Time, error) {
	return time.Time{}, types.NewOpError(types.ErrInspection, path, types.ErrUnsupported)
}

func (n *Native) CreateSnapshot(src, dst string, readOnly bool) error {
	return types.NewOpError(types.ErrCreation, dst, types.ErrUnsupported)
}

func (n *Native) DeleteSubvolume(path string, recursive bool) error {
	return types.NewOpError(types.ErrDeletion, path, types.ErrUnsupported)
}

func (n *Native) Rename(src, dst string) error {
	return types.NewRenameError(src, dst, types.ErrUnsupported)
}

func (n *Native) EnsureDir(path string) error {
	return ensureDir(path)
}

func (n *Native) Sync() error {
	return types.ErrUnsupported
}

func (n *Native) requireSubvolume(path string) error {
	return types.ErrUnsupported
}

func (n *Native) nestedSubvolumes(root string) ([]string, error) {
	return nil, types.ErrUnsupported
}
