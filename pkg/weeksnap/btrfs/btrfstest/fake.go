// Package btrfstest provides an in-memory btrfs.Volume for tests.
package btrfstest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jamesainslie/weeksnap/pkg/weeksnap/btrfs"
	"github.com/jamesainslie/weeksnap/pkg/weeksnap/types"
	"github.com/spf13/afero"
)

// Op names recorded in Fake.Calls and accepted as Fake.Fail keys.
// OpInspect is never recorded since it does not mutate.
const (
	OpCreate  = "create"
	OpDelete  = "delete"
	OpRename  = "rename"
	OpMkdir   = "mkdir"
	OpSync    = "sync"
	OpInspect = "inspect"
)

// Call is one mutating operation observed by the fake.
type Call struct {
	Op   string
	Path string
	Dest string
}

// Subvolume is the fake's record of a subvolume root.
type Subvolume struct {
	// ID increases with every created subvolume, so a snapshot can be told
	// apart from an earlier one that lived at the same path.
	ID       int
	Created  time.Time
	ReadOnly bool
	Source   string
}

// Fake is an in-memory btrfs.Volume. Directories live in an afero.MemMapFs;
// subvolume metadata is kept alongside, keyed by path. Subvolumes move with
// their path on Rename and disappear with it on DeleteSubvolume.
type Fake struct {
	mu     sync.Mutex
	fs     afero.Fs
	subs   map[string]*Subvolume
	nextID int

	// Now supplies creation times for new snapshots.
	Now func() time.Time

	// Fail maps an op name to an error returned instead of performing it.
	Fail map[string]error

	// SubvolumeErr maps a path to an error returned by IsSubvolume.
	SubvolumeErr map[string]error

	// Calls records every mutating operation in order.
	Calls []Call
}

var _ btrfs.Volume = (*Fake)(nil)

// New returns an empty fake whose clock is time.Now.
func New() *Fake {
	return &Fake{
		fs:           afero.NewMemMapFs(),
		subs:         make(map[string]*Subvolume),
		Now:          time.Now,
		Fail:         make(map[string]error),
		SubvolumeErr: make(map[string]error),
	}
}

// Fs exposes the backing filesystem for assertions and setup.
func (f *Fake) Fs() afero.Fs {
	return f.fs
}

// AddSubvolume registers path as a subvolume created at t, creating its
// directory (and parents) if necessary.
func (f *Fake) AddSubvolume(path string, t time.Time) *Subvolume {
	f.mu.Lock()
	defer f.mu.Unlock()

	path = filepath.Clean(path)
	_ = f.fs.MkdirAll(path, 0o755)
	return f.register(path, t, false, "")
}

func (f *Fake) register(path string, t time.Time, readOnly bool, source string) *Subvolume {
	f.nextID++
	sub := &Subvolume{ID: f.nextID, Created: t, ReadOnly: readOnly, Source: source}
	f.subs[path] = sub
	return sub
}

// Subvolume returns the record at path, or nil.
func (f *Fake) Subvolume(path string) *Subvolume {
	f.mu.Lock()
	defer f.mu.Unlock()

	if sub, ok := f.subs[filepath.Clean(path)]; ok {
		cp := *sub
		return &cp
	}
	return nil
}

// Subvolumes returns every registered subvolume path, sorted.
func (f *Fake) Subvolumes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, len(f.subs))
	for p := range f.subs {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Mutations returns the recorded calls, excluding sync.
func (f *Fake) Mutations() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []Call
	for _, c := range f.Calls {
		if c.Op != OpSync {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls clears the call log.
func (f *Fake) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = nil
}

func (f *Fake) record(op, path, dest string) error {
	f.Calls = append(f.Calls, Call{Op: op, Path: path, Dest: dest})
	return f.Fail[op]
}

// IsSubvolume implements btrfs.Volume.
func (f *Fake) IsSubvolume(path string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path = filepath.Clean(path)
	if err := f.SubvolumeErr[path]; err != nil {
		return false, err
	}
	_, ok := f.subs[path]
	return ok, nil
}

// CreationTime implements btrfs.Volume.
func (f *Fake) CreationTime(path string) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path = filepath.Clean(path)
	if err := f.Fail[OpInspect]; err != nil {
		return time.Time{}, types.NewOpError(types.ErrInspection, path, err)
	}
	sub, ok := f.subs[path]
	if !ok {
		return time.Time{}, types.NewOpError(types.ErrInspection, path, btrfs.ErrNotSubvolume)
	}
	return sub.Created, nil
}

// CreateSnapshot implements btrfs.Volume.
func (f *Fake) CreateSnapshot(src, dst string, readOnly bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	src, dst = filepath.Clean(src), filepath.Clean(dst)
	if err := f.record(OpCreate, src, dst); err != nil {
		return types.NewOpError(types.ErrCreation, dst, err)
	}
	if _, ok := f.subs[src]; !ok {
		return types.NewOpError(types.ErrCreation, dst, btrfs.ErrNotSubvolume)
	}
	if exists, _ := afero.Exists(f.fs, dst); exists {
		return types.NewOpError(types.ErrCreation, dst, fs.ErrExist)
	}
	if isDir, _ := afero.IsDir(f.fs, filepath.Dir(dst)); !isDir {
		return types.NewOpError(types.ErrCreation, dst, fs.ErrNotExist)
	}
	if err := f.fs.Mkdir(dst, 0o555); err != nil {
		return types.NewOpError(types.ErrCreation, dst, err)
	}
	f.register(dst, f.Now(), readOnly, src)
	return nil
}

// DeleteSubvolume implements btrfs.Volume.
func (f *Fake) DeleteSubvolume(path string, recursive bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	path = filepath.Clean(path)
	if err := f.record(OpDelete, path, ""); err != nil {
		return types.NewOpError(types.ErrDeletion, path, err)
	}
	if _, ok := f.subs[path]; !ok {
		return types.NewOpError(types.ErrDeletion, path, btrfs.ErrNotSubvolume)
	}

	nested := f.below(path)
	if len(nested) > 0 && !recursive {
		return types.NewOpError(types.ErrDeletion, path, fmt.Errorf("%d nested subvolumes: %w", len(nested), errNotEmpty))
	}
	for _, p := range nested {
		delete(f.subs, p)
	}
	delete(f.subs, path)

	if err := f.fs.RemoveAll(path); err != nil {
		return types.NewOpError(types.ErrDeletion, path, err)
	}
	return nil
}

var errNotEmpty = errors.New("directory not empty")

// below returns registered subvolumes strictly under path. Caller holds mu.
func (f *Fake) below(path string) []string {
	prefix := path + string(filepath.Separator)
	var out []string
	for p := range f.subs {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	return out
}

// Rename implements btrfs.Volume.
func (f *Fake) Rename(src, dst string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	src, dst = filepath.Clean(src), filepath.Clean(dst)
	if err := f.record(OpRename, src, dst); err != nil {
		return types.NewRenameError(src, dst, err)
	}
	if exists, _ := afero.Exists(f.fs, src); !exists {
		return types.NewRenameError(src, dst, fs.ErrNotExist)
	}
	if exists, _ := afero.Exists(f.fs, dst); exists {
		return types.NewRenameError(src, dst, fs.ErrExist)
	}
	if err := f.fs.Rename(src, dst); err != nil {
		return types.NewRenameError(src, dst, err)
	}

	moved := map[string]*Subvolume{}
	prefix := src + string(filepath.Separator)
	for p, sub := range f.subs {
		switch {
		case p == src:
			moved[dst] = sub
			delete(f.subs, p)
		case strings.HasPrefix(p, prefix):
			moved[filepath.Join(dst, strings.TrimPrefix(p, prefix))] = sub
			delete(f.subs, p)
		}
	}
	for p, sub := range moved {
		f.subs[p] = sub
	}
	return nil
}

// EnsureDir implements btrfs.Volume.
func (f *Fake) EnsureDir(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	path = filepath.Clean(path)
	if err := f.record(OpMkdir, path, ""); err != nil {
		return err
	}
	if isDir, _ := afero.IsDir(f.fs, path); isDir {
		return nil
	}
	if exists, _ := afero.Exists(f.fs, path); exists {
		return fmt.Errorf("%s exists and is not a directory", path)
	}
	if isDir, _ := afero.IsDir(f.fs, filepath.Dir(path)); !isDir {
		return &os.PathError{Op: "mkdir", Path: path, Err: fs.ErrNotExist}
	}
	return f.fs.Mkdir(path, 0o755)
}

// Sync implements btrfs.Volume.
func (f *Fake) Sync() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record(OpSync, "", "")
}
