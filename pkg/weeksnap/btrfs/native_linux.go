//go:build linux

package btrfs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unsafe"

	"github.com/jamesainslie/weeksnap/pkg/weeksnap/logging"
	"github.com/jamesainslie/weeksnap/pkg/weeksnap/types"
	"golang.org/x/sys/unix"
)

// Native implements Volume with btrfs ioctls.
type Native struct {
	log *logging.Logger

	// Kernel lookups, replaced in tests.
	subvolInfo   func(path string) (time.Time, error)
	rootItem     func(path string) (time.Time, error)
	childSubvols func(dir string) ([]string, error)
}

// NewNative returns the ioctl backend.
func NewNative() *Native {
	return &Native{
		log:          logging.Get("btrfs"),
		subvolInfo:   subvolOtime,
		rootItem:     rootItemOtime,
		childSubvols: childSubvolumes,
	}
}

// IsSubvolume reports whether path is the root directory of a btrfs subvolume:
// a directory with inode 256 on a filesystem whose magic is BTRFS_SUPER_MAGIC.
func (n *Native) IsSubvolume(path string) (bool, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		if errors.Is(err, unix.ENOENT) || errors.Is(err, unix.ENOTDIR) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.Mode&unix.S_IFMT != unix.S_IFDIR || st.Ino != firstFreeObjectID {
		return false, nil
	}

	var sfs unix.Statfs_t
	if err := unix.Statfs(path, &sfs); err != nil {
		return false, fmt.Errorf("statfs %s: %w", path, err)
	}
	return uint32(sfs.Type) == uint32(unix.BTRFS_SUPER_MAGIC), nil
}

// CreationTime returns the otime recorded in the subvolume's root item.
func (n *Native) CreationTime(path string) (time.Time, error) {
	if err := n.requireSubvolume(path); err != nil {
		return time.Time{}, types.NewOpError(types.ErrInspection, path, err)
	}

	otime, err := n.otime(path)
	if err != nil {
		return time.Time{}, types.NewOpError(types.ErrInspection, path, err)
	}
	return otime, nil
}

// otime asks BTRFS_IOC_GET_SUBVOL_INFO first. Kernels before 4.18 lack it,
// so the root item is then read from the root tree. The root directory's
// inode times are inherited from the snapshot source and are never used.
func (n *Native) otime(path string) (time.Time, error) {
	otime, err := n.subvolInfo(path)
	if err == nil || !errors.Is(err, unix.ENOTTY) {
		return otime, err
	}

	n.log.Debug("subvolume info ioctl unsupported, reading root tree", "path", path)
	otime, err = n.rootItem(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("reading root item: %w", err)
	}
	return otime, nil
}

// CreateSnapshot creates a snapshot of src named dst.
func (n *Native) CreateSnapshot(src, dst string, readOnly bool) error {
	if err := n.requireSubvolume(src); err != nil {
		return types.NewOpError(types.ErrCreation, dst, err)
	}
	if err := requireAbsent(dst); err != nil {
		return types.NewOpError(types.ErrCreation, dst, err)
	}

	var args volArgsV2
	if err := setName(args.Name[:], filepath.Base(dst)); err != nil {
		return types.NewOpError(types.ErrCreation, dst, err)
	}
	if readOnly {
		args.Flags |= subvolRdonly
	}

	srcFd, err := openDir(src)
	if err != nil {
		return types.NewOpError(types.ErrCreation, dst, err)
	}
	defer unix.Close(srcFd)

	parentFd, err := openDir(filepath.Dir(dst))
	if err != nil {
		return types.NewOpError(types.ErrCreation, dst, err)
	}
	defer unix.Close(parentFd)

	args.Fd = int64(srcFd)
	if err := ioctl(parentFd, iocSnapCreateV2, unsafe.Pointer(&args)); err != nil {
		return types.NewOpError(types.ErrCreation, dst, err)
	}

	n.log.Debug("snapshot created", "source", src, "dest", dst, "readonly", readOnly)
	return nil
}

// DeleteSubvolume destroys path. With recursive set, subvolumes nested
// anywhere below path are destroyed first, deepest first.
func (n *Native) DeleteSubvolume(path string, recursive bool) error {
	if err := n.requireSubvolume(path); err != nil {
		return types.NewOpError(types.ErrDeletion, path, err)
	}

	if recursive {
		nested, err := n.nestedSubvolumes(path)
		if err != nil {
			return types.NewOpError(types.ErrDeletion, path, err)
		}
		for _, sub := range nested {
			if err := n.destroy(sub); err != nil {
				return types.NewOpError(types.ErrDeletion, path, fmt.Errorf("nested %s: %w", sub, err))
			}
		}
	}

	if err := n.destroy(path); err != nil {
		return types.NewOpError(types.ErrDeletion, path, err)
	}
	return nil
}

func (n *Native) destroy(path string) error {
	var args volArgs
	if err := setName(args.Name[:], filepath.Base(path)); err != nil {
		return err
	}

	parentFd, err := openDir(filepath.Dir(path))
	if err != nil {
		return err
	}
	defer unix.Close(parentFd)

	if err := ioctl(parentFd, iocSnapDestroy, unsafe.Pointer(&args)); err != nil {
		return err
	}

	n.log.Debug("subvolume destroyed", "path", path)
	return nil
}

// Rename moves src to dst, refusing to replace an existing dst.
func (n *Native) Rename(src, dst string) error {
	err := unix.Renameat2(unix.AT_FDCWD, src, unix.AT_FDCWD, dst, unix.RENAME_NOREPLACE)
	if err == nil {
		return nil
	}
	if !errors.Is(err, unix.EINVAL) && !errors.Is(err, unix.ENOSYS) {
		return types.NewRenameError(src, dst, err)
	}

	// Kernel or filesystem without RENAME_NOREPLACE.
	if err := requireAbsent(dst); err != nil {
		return types.NewRenameError(src, dst, err)
	}
	if err := os.Rename(src, dst); err != nil {
		return types.NewRenameError(src, dst, err)
	}
	return nil
}

// EnsureDir creates path if it does not exist.
func (n *Native) EnsureDir(path string) error {
	return ensureDir(path)
}

// Sync calls sync(2). It cannot report failure.
func (n *Native) Sync() error {
	unix.Sync()
	return nil
}

func (n *Native) requireSubvolume(path string) error {
	ok, err := n.IsSubvolume(path)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotSubvolume
	}
	return nil
}
