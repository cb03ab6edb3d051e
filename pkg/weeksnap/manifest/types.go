// Package manifest keeps a journal of rotation runs as JSON files outside
// the snapshotted volume.
package manifest

import "time"

// Outcome is the result of a recorded run.
type Outcome string

const (
	// OutcomeCreated means a new head snapshot was taken.
	OutcomeCreated Outcome = "created"
	// OutcomeFailed means the run aborted part way.
	OutcomeFailed Outcome = "failed"
)

// Entry is one journaled rotation run.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Volume    string    `json:"volume"`
	Outcome   Outcome   `json:"outcome"`

	// Head is the new head snapshot path, empty if none was created.
	Head string `json:"head,omitempty"`

	// FiledFrom and FiledTo are set when the previous head was moved into
	// a weekday slot.
	FiledFrom string `json:"filed_from,omitempty"`
	FiledTo   string `json:"filed_to,omitempty"`

	// Deleted is the slot whose previous occupant was removed.
	Deleted string `json:"deleted,omitempty"`

	// SnapshotTime is the creation time of the filed snapshot.
	SnapshotTime time.Time `json:"snapshot_time,omitempty"`

	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// ShortID returns the first block of the entry's ID.
func (e Entry) ShortID() string {
	if len(e.ID) < 8 {
		return e.ID
	}
	return e.ID[:8]
}
