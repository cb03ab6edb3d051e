package rotator

import (
	"fmt"

	"github.com/jamesainslie/weeksnap/pkg/weeksnap/types"
)

// Plan describes what Rotate would do, without doing it.
type Plan struct {
	Volume string `json:"volume"`
	Head   string `json:"head"`

	// File is set when a head exists and would be filed.
	File *Filing `json:"file,omitempty"`
}

// Plan inspects volume and reports the rotation that Rotate would perform.
// It makes no changes.
func (r *Rotator) Plan(volume string) (*Plan, error) {
	if err := r.requireVolume(volume); err != nil {
		return nil, err
	}

	head := types.HeadPath(volume)
	p := &Plan{Volume: volume, Head: head}

	present, err := r.vol.IsSubvolume(head)
	if err != nil {
		return nil, types.NewOpError(types.ErrInspection, head, err)
	}

	if !present {
		return p, nil
	}

	created, err := r.vol.CreationTime(head)
	if err != nil {
		return nil, types.NewOpError(types.ErrInspection, head, err)
	}
	name := types.SlotFor(created, r.loc)
	slot := types.SlotPath(volume, name)

	occupied, err := r.vol.IsSubvolume(slot)
	if err != nil {
		return nil, types.NewOpError(types.ErrInspection, slot, err)
	}
	p.File = &Filing{From: head, To: slot, Slot: name, Created: created, Replaced: occupied}

	return p, nil
}

// Steps renders the plan as the status lines a real run would print,
// followed by the snapshot that would be created.
func (p *Plan) Steps() []string {
	var steps []string
	if f := p.File; f != nil {
		if f.Replaced {
			steps = append(steps, fmt.Sprintf("Snapshot %s would be deleted", f.To))
		}
		steps = append(steps, fmt.Sprintf("Snapshot %s would be renamed to %s", f.From, f.To))
	}
	steps = append(steps, fmt.Sprintf("Snapshot %s would be created", p.Head))
	return steps
}
