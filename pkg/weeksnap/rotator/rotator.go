// Package rotator keeps a rolling set of up to seven read-only snapshots of a
// btrfs volume, one per day of the week.
//
// Each run files the previous run's snapshot (the "head" slot) under the
// weekday of its own creation time, replacing whatever that weekday slot held
// a week earlier, and then takes a fresh head snapshot:
//
//	<volume>/.snapshots/head         newest snapshot, not yet filed
//	<volume>/.snapshots/Sun .. Sat   one snapshot per weekday
//
// A rotation is a fixed sequence of blocking filesystem calls. Any failure
// aborts the run immediately; steps that already completed are not undone.
package rotator

import (
	"fmt"
	"io"
	"time"

	"github.com/jamesainslie/weeksnap/pkg/weeksnap/btrfs"
	"github.com/jamesainslie/weeksnap/pkg/weeksnap/lock"
	"github.com/jamesainslie/weeksnap/pkg/weeksnap/logging"
	"github.com/jamesainslie/weeksnap/pkg/weeksnap/types"
)

// Releaser is a held lock.
type Releaser interface {
	Release() error
}

// Locker acquires the advisory lock at path.
type Locker func(path string) (Releaser, error)

func fileLocker(path string) (Releaser, error) {
	return lock.Acquire(path)
}

// Rotator performs day-indexed snapshot rotation against a Volume.
type Rotator struct {
	vol    btrfs.Volume
	status io.Writer
	loc    *time.Location
	log    *logging.Logger
	now    func() time.Time
	locker Locker
	lock   bool
}

// Option configures a Rotator.
type Option func(*Rotator)

// WithStatus sets where the "deleted" and "renamed" status lines go.
// Defaults to io.Discard.
func WithStatus(w io.Writer) Option {
	return func(r *Rotator) {
		if w != nil {
			r.status = w
		}
	}
}

// WithLocation sets the calendar used to map creation times to weekdays.
// Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(r *Rotator) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithLogger overrides the component logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Rotator) {
		if l != nil {
			r.log = l
		}
	}
}

// WithClock overrides the clock used to time runs.
func WithClock(now func() time.Time) Option {
	return func(r *Rotator) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLock enables holding an exclusive lock on <volume>/.snapshots/.lock
// for the duration of Rotate.
func WithLock(enabled bool) Option {
	return func(r *Rotator) {
		r.lock = enabled
	}
}

// WithLocker replaces the lock implementation used when locking is enabled.
func WithLocker(l Locker) Option {
	return func(r *Rotator) {
		if l != nil {
			r.locker = l
		}
	}
}

// New returns a Rotator operating through vol.
func New(vol btrfs.Volume, opts ...Option) *Rotator {
	r := &Rotator{
		vol:    vol,
		status: io.Discard,
		loc:    time.Local,
		log:    logging.Get("rotator"),
		now:    time.Now,
		locker: fileLocker,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Filing describes moving the previous head into its weekday slot.
type Filing struct {
	// From is the head path the snapshot was filed from.
	From string `json:"from"`

	// To is the weekday slot path.
	To string `json:"to"`

	// Slot is the weekday slot name (Sun .. Sat).
	Slot string `json:"slot"`

	// Created is the filed snapshot's own creation time.
	Created time.Time `json:"created"`

	// Replaced is set when an older snapshot in the slot was deleted.
	Replaced bool `json:"replaced"`

	// Renamed is set once the head has been moved into the slot.
	Renamed bool `json:"renamed"`
}

// Result reports what a rotation did. On failure it holds the steps that
// completed before the error.
type Result struct {
	Volume   string        `json:"volume"`
	Head     string        `json:"head,omitempty"`
	Filed    *Filing       `json:"filed,omitempty"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
}

// Rotate files the previous head into its weekday slot, if there is one, and
// creates a new read-only head snapshot of volume. It returns the new head.
func (r *Rotator) Rotate(volume string) (*Result, error) {
	res := &Result{Volume: volume, Started: r.now()}
	log := r.log.With("volume", volume)

	defer func() {
		res.Duration = r.now().Sub(res.Started)
	}()

	if err := r.requireVolume(volume); err != nil {
		return res, err
	}

	head := types.HeadPath(volume)

	if r.lock {
		release, err := r.acquire(volume)
		if err != nil {
			return res, err
		}
		defer release()
	}

	filing, err := r.fileHead(volume, head)
	res.Filed = filing
	if err != nil {
		return res, err
	}
	if filing == nil {
		log.Info("no previous head snapshot to file")
	}

	if err := r.vol.EnsureDir(types.SnapshotsPath(volume)); err != nil {
		return res, types.NewOpError(types.ErrCreation, head, err)
	}

	if err := r.vol.CreateSnapshot(volume, head, true); err != nil {
		log.Error("snapshot creation failed", "head", head, "error", err)
		return res, types.NewOpError(types.ErrCreation, head, err)
	}

	if err := r.vol.Sync(); err != nil {
		log.Warn("sync failed", "error", err)
	}

	res.Head = head
	log.Info("snapshot created", "head", head)
	return res, nil
}

func (r *Rotator) requireVolume(volume string) error {
	ok, err := r.vol.IsSubvolume(volume)
	if err != nil {
		r.log.Error("volume check failed", "volume", volume, "error", err)
		return types.NewOpError(types.ErrNotAVolume, volume, err)
	}
	if !ok {
		return types.NewOpError(types.ErrNotAVolume, volume, nil)
	}
	return nil
}

// acquire creates .snapshots early so the lock file has somewhere to live.
func (r *Rotator) acquire(volume string) (func(), error) {
	if err := r.vol.EnsureDir(types.SnapshotsPath(volume)); err != nil {
		return nil, types.NewOpError(types.ErrCreation, types.HeadPath(volume), err)
	}
	held, err := r.locker(types.LockPath(volume))
	if err != nil {
		return nil, err
	}
	return func() {
		if err := held.Release(); err != nil {
			r.log.Warn("releasing lock failed", "volume", volume, "error", err)
		}
	}, nil
}

// fileHead moves an existing head into the weekday slot of its creation
// time, deleting the slot's previous occupant first. It returns nil when
// there is no head.
func (r *Rotator) fileHead(volume, head string) (*Filing, error) {
	present, err := r.vol.IsSubvolume(head)
	if err != nil {
		return nil, types.NewOpError(types.ErrInspection, head, err)
	}
	if !present {
		return nil, nil
	}

	created, err := r.vol.CreationTime(head)
	if err != nil {
		return nil, types.NewOpError(types.ErrInspection, head, err)
	}

	name := types.SlotFor(created, r.loc)
	slot := types.SlotPath(volume, name)
	filing := &Filing{From: head, To: slot, Slot: name, Created: created}
	log := r.log.With("volume", volume, "slot", name)

	occupied, err := r.vol.IsSubvolume(slot)
	if err != nil {
		return filing, types.NewOpError(types.ErrInspection, slot, err)
	}
	if occupied {
		if err := r.vol.DeleteSubvolume(slot, true); err != nil {
			return filing, types.NewOpError(types.ErrDeletion, slot, err)
		}
		filing.Replaced = true
		r.printf("Snapshot %s deleted", slot)
		log.Info("previous weekday snapshot deleted", "path", slot)
	}

	if err := r.vol.Rename(head, slot); err != nil {
		return filing, types.NewRenameError(head, slot, err)
	}
	filing.Renamed = true
	r.printf("Snapshot %s renamed to %s", head, slot)
	log.Info("head snapshot filed", "from", head, "to", slot, "created", created)

	return filing, nil
}

func (r *Rotator) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(r.status, format+"\n", args...)
}
