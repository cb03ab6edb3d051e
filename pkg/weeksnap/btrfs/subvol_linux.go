//go:build linux

package btrfs

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Offsets into the on-disk (little endian, packed) struct btrfs_root_item.
const (
	rootItemGenerationOffset   = 160
	rootItemGenerationV2Offset = 239
	rootItemOtimeOffset        = 339
	diskTimespecLen            = 12

	searchHeaderLen = 32
)

var (
	errNoRootItem      = errors.New("no root item for subvolume")
	errNoRootItemOtime = errors.New("root item has no creation time")
)

// subvolOtime reads the otime with BTRFS_IOC_GET_SUBVOL_INFO (Linux 4.18+).
func subvolOtime(path string) (time.Time, error) {
	fd, err := openDir(path)
	if err != nil {
		return time.Time{}, err
	}
	defer unix.Close(fd)

	var args subvolInfoArgs
	if err := ioctl(fd, iocGetSubvolInfo, unsafe.Pointer(&args)); err != nil {
		return time.Time{}, err
	}
	return time.Unix(int64(args.Otime.Sec), int64(args.Otime.Nsec)), nil
}

// rootItemOtime reads the otime from the subvolume's ROOT_ITEM in the root
// tree. BTRFS_IOC_TREE_SEARCH needs CAP_SYS_ADMIN.
func rootItemOtime(path string) (time.Time, error) {
	fd, err := openDir(path)
	if err != nil {
		return time.Time{}, err
	}
	defer unix.Close(fd)

	id, err := subvolumeID(fd)
	if err != nil {
		return time.Time{}, err
	}

	args := searchArgs{Key: searchKey{
		TreeID:      rootTreeObjectID,
		MinObjectID: id,
		MaxObjectID: id,
		MaxOffset:   math.MaxUint64,
		MaxTransid:  math.MaxUint64,
		MinType:     rootItemKey,
		MaxType:     rootItemKey,
		NrItems:     1,
	}}
	if err := ioctl(fd, iocTreeSearch, unsafe.Pointer(&args)); err != nil {
		return time.Time{}, fmt.Errorf("searching root tree for subvolume %d: %w", id, err)
	}

	item, err := findSearchItem(args.Buf[:], args.Key.NrItems, id, rootItemKey)
	if err != nil {
		return time.Time{}, err
	}
	return parseRootItemOtime(item)
}

// subvolumeID returns the tree ID of the subvolume containing fd.
func subvolumeID(fd int) (uint64, error) {
	args := inoLookupArgs{ObjectID: firstFreeObjectID}
	if err := ioctl(fd, iocInoLookup, unsafe.Pointer(&args)); err != nil {
		return 0, fmt.Errorf("looking up subvolume id: %w", err)
	}
	return args.TreeID, nil
}

// findSearchItem returns the data of the first item in a TREE_SEARCH result
// buffer with the given key objectid and type. Headers are in host byte
// order; item data is left as stored on disk.
func findSearchItem(buf []byte, n uint32, objectID uint64, typ uint32) ([]byte, error) {
	off := 0
	for i := uint32(0); i < n; i++ {
		if off+searchHeaderLen > len(buf) {
			break
		}
		hdr := buf[off : off+searchHeaderLen]
		obj := binary.NativeEndian.Uint64(hdr[8:])
		itemType := binary.NativeEndian.Uint32(hdr[24:])
		itemLen := int(binary.NativeEndian.Uint32(hdr[28:]))

		off += searchHeaderLen
		if off+itemLen > len(buf) {
			return nil, fmt.Errorf("search item of %d bytes overruns result buffer", itemLen)
		}
		if obj == objectID && itemType == typ {
			return buf[off : off+itemLen], nil
		}
		off += itemLen
	}
	return nil, fmt.Errorf("%w %d", errNoRootItem, objectID)
}

// parseRootItemOtime decodes the otime of an on-disk root item. Items written
// by kernels that predate the extended fields, or whose generation_v2 is
// stale, carry no usable otime.
func parseRootItemOtime(item []byte) (time.Time, error) {
	if len(item) < rootItemOtimeOffset+diskTimespecLen {
		return time.Time{}, errNoRootItemOtime
	}

	gen := binary.LittleEndian.Uint64(item[rootItemGenerationOffset:])
	genV2 := binary.LittleEndian.Uint64(item[rootItemGenerationV2Offset:])
	if gen != genV2 {
		return time.Time{}, errNoRootItemOtime
	}

	sec := binary.LittleEndian.Uint64(item[rootItemOtimeOffset:])
	nsec := binary.LittleEndian.Uint32(item[rootItemOtimeOffset+8:])
	if sec == 0 && nsec == 0 {
		return time.Time{}, errNoRootItemOtime
	}
	return time.Unix(int64(sec), int64(nsec)), nil
}

// childSubvolumes lists the subvolumes whose parent is the subvolume at dir,
// using BTRFS_IOC_GET_SUBVOL_ROOTREF and BTRFS_IOC_INO_LOOKUP_USER
// (Linux 4.18+, no privileges needed).
func childSubvolumes(dir string) ([]string, error) {
	fd, err := openDir(dir)
	if err != nil {
		return nil, err
	}
	defer unix.Close(fd)

	var (
		children []string
		args     subvolRootrefArgs
	)
	for {
		callErr := ioctl(fd, iocGetSubvolRootref, unsafe.Pointer(&args))
		if callErr != nil && !errors.Is(callErr, unix.EOVERFLOW) {
			return nil, fmt.Errorf("listing subvolumes below %s: %w", dir, callErr)
		}

		for _, ref := range args.Rootref[:args.NumItems] {
			rel, err := lookupChild(fd, ref)
			if err != nil {
				return nil, err
			}
			children = append(children, filepath.Join(dir, rel))
		}

		// EOVERFLOW means the buffer filled; the kernel advanced MinTreeID.
		if callErr == nil {
			return children, nil
		}
	}
}

func lookupChild(fd int, ref rootref) (string, error) {
	args := inoLookupUserArgs{DirID: ref.DirID, TreeID: ref.TreeID}
	if err := ioctl(fd, iocInoLookupUser, unsafe.Pointer(&args)); err != nil {
		return "", fmt.Errorf("resolving subvolume %d: %w", ref.TreeID, err)
	}
	return childRelPath(args.Path[:], args.Name[:]), nil
}

// childRelPath joins the directory path and name returned by
// BTRFS_IOC_INO_LOOKUP_USER. The path is empty when the child sits directly
// in the parent's root directory, and otherwise ends in a slash.
func childRelPath(path, name []byte) string {
	return filepath.Join(cString(path), cString(name))
}
