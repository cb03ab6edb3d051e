// Package types provides the core vocabulary shared by the weeksnap packages:
// the on-volume slot layout, the error taxonomy, and formatting helpers for
// snapshot timestamps.
package types

import (
	"path/filepath"
	"time"
)

// Layout names below a volume root.
const (
	// SnapshotsDir is the directory below the volume that holds every slot.
	SnapshotsDir = ".snapshots"

	// HeadSlot is the staging name for the newest, not yet filed snapshot.
	HeadSlot = "head"

	// LockFile is the advisory lock taken when locking is enabled.
	LockFile = ".lock"
)

// weekdaySlots is indexed by time.Weekday (Sunday=0 ... Saturday=6).
var weekdaySlots = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// WeekdaySlots returns the seven weekday slot names in Sunday-first order.
func WeekdaySlots() []string {
	out := make([]string, len(weekdaySlots))
	copy(out, weekdaySlots[:])
	return out
}

// WeekdaySlot returns the slot name for a weekday.
func WeekdaySlot(d time.Weekday) string {
	return weekdaySlots[int(d)%len(weekdaySlots)]
}

// SlotFor returns the weekday slot a snapshot created at t belongs to.
// The weekday is taken from the calendar in loc; a nil loc means time.Local.
func SlotFor(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return WeekdaySlot(t.In(loc).Weekday())
}

// IsSlot reports whether name is head or one of the weekday slots.
func IsSlot(name string) bool {
	if name == HeadSlot {
		return true
	}
	for _, s := range weekdaySlots {
		if s == name {
			return true
		}
	}
	return false
}

// SnapshotsPath returns <volume>/.snapshots.
func SnapshotsPath(volume string) string {
	return filepath.Join(volume, SnapshotsDir)
}

// SlotPath returns <volume>/.snapshots/<slot>.
func SlotPath(volume, slot string) string {
	return filepath.Join(volume, SnapshotsDir, slot)
}

// HeadPath returns <volume>/.snapshots/head.
func HeadPath(volume string) string {
	return SlotPath(volume, HeadSlot)
}

// LockPath returns <volume>/.snapshots/.lock.
func LockPath(volume string) string {
	return SlotPath(volume, LockFile)
}
