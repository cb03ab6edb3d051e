package output

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/jamesainslie/weeksnap/pkg/weeksnap/manifest"
	"github.com/jamesainslie/weeksnap/pkg/weeksnap/rotator"
	"github.com/jamesainslie/weeksnap/pkg/weeksnap/types"
)

// jsonSlot shadows Created with a pointer so empty slots omit it.
type jsonSlot struct {
	rotator.SlotStatus
	Created    *time.Time `json:"created,omitempty"`
	Age        string     `json:"age,omitempty"`
	Mismatched bool       `json:"mismatched,omitempty"`
}

type jsonStatus struct {
	Volume string     `json:"volume"`
	Filled int        `json:"filled"`
	Slots  []jsonSlot `json:"slots"`
}

type jsonPlan struct {
	*rotator.Plan
	Steps []string `json:"steps"`
}

// JSONFormatter writes indented JSON documents.
type JSONFormatter struct{}

// Status writes the volume and its slots.
func (f *JSONFormatter) Status(w *bytes.Buffer, r *StatusReport) error {
	now, loc := r.now(), r.loc()
	out := jsonStatus{Volume: r.Volume, Filled: r.Filled(), Slots: make([]jsonSlot, len(r.Slots))}
	for i, s := range r.Slots {
		js := jsonSlot{SlotStatus: s, Mismatched: s.Mismatched(loc)}
		if s.Present && !s.Created.IsZero() {
			created := s.Created
			js.Created = &created
			js.Age = types.FormatAge(s.Created, now)
		}
		out.Slots[i] = js
	}
	return encode(w, out)
}

// Plan writes the plan with its rendered steps.
func (f *JSONFormatter) Plan(w *bytes.Buffer, p *rotator.Plan) error {
	return encode(w, jsonPlan{Plan: p, Steps: p.Steps()})
}

// History writes the entries as an array.
func (f *JSONFormatter) History(w *bytes.Buffer, entries []manifest.Entry) error {
	if entries == nil {
		entries = []manifest.Entry{}
	}
	return encode(w, entries)
}

// Entry writes one entry.
func (f *JSONFormatter) Entry(w *bytes.Buffer, e *manifest.Entry) error {
	return encode(w, e)
}

func encode(w *bytes.Buffer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

var _ Formatter = (*JSONFormatter)(nil)
