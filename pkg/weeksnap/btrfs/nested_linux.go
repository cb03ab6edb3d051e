//go:build linux

package btrfs

import (
	"errors"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/charlievieth/fastwalk"
	"golang.org/x/sys/unix"
)

// nestedSubvolumes returns the subvolume roots strictly below root, children
// before their parents, so that destroying them in order never hits
// ENOTEMPTY. Children come from the root tree's back references; only kernels
// without those lookups (before 4.18) fall back to walking the directories.
func (n *Native) nestedSubvolumes(root string) ([]string, error) {
	var found []string

	var visit func(dir string) error
	visit = func(dir string) error {
		children, err := n.childSubvols(dir)
		if err != nil {
			return err
		}
		for _, child := range children {
			if err := visit(child); err != nil {
				return err
			}
			found = append(found, child)
		}
		return nil
	}

	err := visit(root)
	if errors.Is(err, unix.ENOTTY) {
		n.log.Debug("subvolume rootref ioctl unsupported, walking directories", "root", root)
		return n.walkSubvolumes(root)
	}
	if err != nil {
		return nil, err
	}

	if len(found) > 0 {
		n.log.Debug("nested subvolumes found", "root", root, "count", len(found))
	}
	return found, nil
}

// walkSubvolumes finds nested subvolumes by stat'ing every directory below
// root. Its cost grows with the file count.
func (n *Native) walkSubvolumes(root string) ([]string, error) {
	var (
		mu    sync.Mutex
		found []string
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root || !d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		st, ok := info.Sys().(*syscall.Stat_t)
		if !ok || st.Ino != firstFreeObjectID {
			return nil
		}

		mu.Lock()
		found = append(found, path)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortDeepestFirst(found)
	if len(found) > 0 {
		n.log.Debug("nested subvolumes found", "root", root, "count", len(found))
	}
	return found, nil
}

func sortDeepestFirst(paths []string) {
	sort.SliceStable(paths, func(i, j int) bool {
		di, dj := strings.Count(paths[i], "/"), strings.Count(paths[j], "/")
		if di != dj {
			return di > dj
		}
		return paths[i] < paths[j]
	})
}
