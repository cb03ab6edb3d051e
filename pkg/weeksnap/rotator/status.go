package rotator

import (
	"time"

	"github.com/jamesainslie/weeksnap/pkg/weeksnap/types"
)

// SlotStatus describes one slot of a volume.
type SlotStatus struct {
	Slot    string    `json:"slot"`
	Path    string    `json:"path"`
	Present bool      `json:"present"`
	Created time.Time `json:"created,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// Status reports the head slot followed by the seven weekday slots.
// A slot that cannot be inspected is reported with Error set rather than
// failing the whole call.
func (r *Rotator) Status(volume string) ([]SlotStatus, error) {
	if err := r.requireVolume(volume); err != nil {
		return nil, err
	}

	names := append([]string{types.HeadSlot}, types.WeekdaySlots()...)
	out := make([]SlotStatus, 0, len(names))

	for _, name := range names {
		st := SlotStatus{Slot: name, Path: types.SlotPath(volume, name)}

		present, err := r.vol.IsSubvolume(st.Path)
		if err != nil {
			st.Error = err.Error()
			out = append(out, st)
			continue
		}
		st.Present = present

		if present {
			created, err := r.vol.CreationTime(st.Path)
			if err != nil {
				st.Error = err.Error()
			} else {
				st.Created = created
			}
		}
		out = append(out, st)
	}

	return out, nil
}

// Mismatched reports whether a filed weekday slot holds a snapshot whose
// creation weekday differs from the slot's label. That only happens when a
// snapshot was placed by hand or the time zone changed.
func (s SlotStatus) Mismatched(loc *time.Location) bool {
	if !s.Present || s.Created.IsZero() || s.Slot == types.HeadSlot {
		return false
	}
	return types.SlotFor(s.Created, loc) != s.Slot
}
