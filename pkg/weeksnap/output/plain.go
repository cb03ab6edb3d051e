package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/jamesainslie/weeksnap/pkg/weeksnap/manifest"
	"github.com/jamesainslie/weeksnap/pkg/weeksnap/rotator"
	"github.com/jamesainslie/weeksnap/pkg/weeksnap/types"
)

// PlainFormatter writes uncolored, tab-aligned text for scripts and pipes.
type PlainFormatter struct{}

// Status writes one row per slot.
func (f *PlainFormatter) Status(w *bytes.Buffer, r *StatusReport) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SLOT\tCREATED\tAGE\tNOTE")

	now, loc := r.now(), r.loc()
	for _, s := range r.Slots {
		created, age := "-", "-"
		if s.Present && !s.Created.IsZero() {
			created = types.FormatTimestamp(s.Created, loc)
			age = types.FormatAge(s.Created, now)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Slot, created, age, slotNote(s, loc))
	}
	return tw.Flush()
}

// Plan writes one step per line.
func (f *PlainFormatter) Plan(w *bytes.Buffer, p *rotator.Plan) error {
	for _, step := range p.Steps() {
		w.WriteString(step)
		w.WriteByte('\n')
	}
	return nil
}

// History writes one row per entry.
func (f *PlainFormatter) History(w *bytes.Buffer, entries []manifest.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tOUTCOME\tVOLUME\tFILED")

	for i := range entries {
		e := &entries[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.ShortID(),
			types.FormatTimestamp(e.Timestamp, nil),
			e.Outcome,
			e.Volume,
			filedSummary(e))
	}
	return tw.Flush()
}

// Entry writes key/value lines for one entry.
func (f *PlainFormatter) Entry(w *bytes.Buffer, e *manifest.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, kv := range entryFields(e) {
		fmt.Fprintf(tw, "%s:\t%s\n", kv[0], kv[1])
	}
	return tw.Flush()
}

// slotNote flags slots that need attention.
func slotNote(s rotator.SlotStatus, loc *time.Location) string {
	switch {
	case s.Error != "":
		return "error: " + s.Error
	case !s.Present:
		return "empty"
	case s.Mismatched(loc):
		return "created on " + types.SlotFor(s.Created, loc)
	default:
		return ""
	}
}

// entryFields lists the populated fields of e in display order.
func entryFields(e *manifest.Entry) [][2]string {
	fields := [][2]string{
		{"ID", e.ID},
		{"Time", types.FormatTimestamp(e.Timestamp, nil)},
		{"Volume", e.Volume},
		{"Outcome", string(e.Outcome)},
	}
	if e.Head != "" {
		fields = append(fields, [2]string{"Head", e.Head})
	}
	if e.Deleted != "" {
		fields = append(fields, [2]string{"Deleted", e.Deleted})
	}
	if e.FiledTo != "" {
		fields = append(fields, [2]string{"Filed", e.FiledFrom + " -> " + e.FiledTo})
		fields = append(fields, [2]string{"Snapshot time", types.FormatTimestamp(e.SnapshotTime, nil)})
	}
	fields = append(fields, [2]string{"Duration", e.Duration.String()})
	if e.Error != "" {
		fields = append(fields, [2]string{"Error", e.Error})
	}
	return fields
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

var _ Formatter = (*PlainFormatter)(nil)
