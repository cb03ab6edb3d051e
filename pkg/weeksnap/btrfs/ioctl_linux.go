//go:build linux

package btrfs

import (
	"bytes"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// firstFreeObjectID is the inode number of every subvolume root directory.
const firstFreeObjectID = 256

const (
	ioctlMagic    = 0x94
	pathNameMax   = 4087
	subvolNameMax = 4039
	subvolRdonly  = 1 << 1

	volNameMax           = 255
	inoLookupPathMax     = 4080
	inoLookupUserPathMax = 4080 - volNameMax - 1
	maxRootrefBuffer     = 255
	searchBufSize        = 4096 - 104

	// Root tree and item type holding each subvolume's ROOT_ITEM.
	rootTreeObjectID = 1
	rootItemKey      = 132
)

// volArgs mirrors struct btrfs_ioctl_vol_args.
type volArgs struct {
	Fd   int64
	Name [pathNameMax + 1]byte
}

// volArgsV2 mirrors struct btrfs_ioctl_vol_args_v2.
type volArgsV2 struct {
	Fd      int64
	Transid uint64
	Flags   uint64
	Unused  [4]uint64
	Name    [subvolNameMax + 1]byte
}

// ioctlTimespec mirrors struct btrfs_ioctl_timespec including tail padding.
type ioctlTimespec struct {
	Sec  uint64
	Nsec uint32
	_    [4]byte
}

// subvolInfoArgs mirrors struct btrfs_ioctl_get_subvol_info_args.
type subvolInfoArgs struct {
	TreeID       uint64
	Name         [256]byte
	ParentID     uint64
	DirID        uint64
	Generation   uint64
	Flags        uint64
	UUID         [16]byte
	ParentUUID   [16]byte
	ReceivedUUID [16]byte
	Ctransid     uint64
	Otransid     uint64
	Stransid     uint64
	Rtransid     uint64
	Ctime        ioctlTimespec
	Otime        ioctlTimespec
	Stime        ioctlTimespec
	Rtime        ioctlTimespec
	Reserved     [8]uint64
}

// inoLookupArgs mirrors struct btrfs_ioctl_ino_lookup_args.
type inoLookupArgs struct {
	TreeID   uint64
	ObjectID uint64
	Name     [inoLookupPathMax]byte
}

// rootref is one child entry of struct btrfs_ioctl_get_subvol_rootref_args.
type rootref struct {
	TreeID uint64
	DirID  uint64
}

// subvolRootrefArgs mirrors struct btrfs_ioctl_get_subvol_rootref_args.
type subvolRootrefArgs struct {
	MinTreeID uint64
	Rootref   [maxRootrefBuffer]rootref
	NumItems  uint8
	_         [7]byte
}

// inoLookupUserArgs mirrors struct btrfs_ioctl_ino_lookup_user_args.
type inoLookupUserArgs struct {
	DirID  uint64
	TreeID uint64
	Name   [volNameMax + 1]byte
	Path   [inoLookupUserPathMax]byte
}

// searchKey mirrors struct btrfs_ioctl_search_key.
type searchKey struct {
	TreeID      uint64
	MinObjectID uint64
	MaxObjectID uint64
	MinOffset   uint64
	MaxOffset   uint64
	MinTransid  uint64
	MaxTransid  uint64
	MinType     uint32
	MaxType     uint32
	NrItems     uint32
	_           uint32
	_           [4]uint64
}

// searchArgs mirrors struct btrfs_ioctl_search_args.
type searchArgs struct {
	Key searchKey
	Buf [searchBufSize]byte
}

// Request numbers use the generic _IOC layout shared by x86, arm and riscv.
const (
	iocWrite = 1
	iocRead  = 2
)

func ioc(dir, nr, size uintptr) uintptr {
	return dir<<30 | size<<16 | ioctlMagic<<8 | nr
}

var (
	iocSnapDestroy      = ioc(iocWrite, 15, unsafe.Sizeof(volArgs{}))
	iocTreeSearch       = ioc(iocRead|iocWrite, 17, unsafe.Sizeof(searchArgs{}))
	iocInoLookup        = ioc(iocRead|iocWrite, 18, unsafe.Sizeof(inoLookupArgs{}))
	iocSnapCreateV2     = ioc(iocWrite, 23, unsafe.Sizeof(volArgsV2{}))
	iocGetSubvolInfo    = ioc(iocRead, 60, unsafe.Sizeof(subvolInfoArgs{}))
	iocGetSubvolRootref = ioc(iocRead|iocWrite, 61, unsafe.Sizeof(subvolRootrefArgs{}))
	iocInoLookupUser    = ioc(iocRead|iocWrite, 62, unsafe.Sizeof(inoLookupUserArgs{}))
)

func ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// openDir opens path read-only as a directory.
func openDir(path string) (int, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
	if err != nil {
		return -1, fmt.Errorf("open %s: %w", path, err)
	}
	return fd, nil
}

// setName copies name into a fixed, NUL-terminated ioctl buffer.
func setName(dst []byte, name string) error {
	if len(name) >= len(dst) {
		return fmt.Errorf("name %q: %w", name, unix.ENAMETOOLONG)
	}
	copy(dst, name)
	dst[len(name)] = 0
	return nil
}

// cString returns b up to its first NUL.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
