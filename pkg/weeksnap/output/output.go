// Package output renders slot status, dry-run plans and journal history in
// several formats (pretty, plain, json).
//
// Formatters are looked up by name from a registry:
//
//	f, err := output.Get("pretty")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := f.Status(&buf, report); err != nil {
//	    return err
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jamesainslie/weeksnap/pkg/weeksnap/manifest"
	"github.com/jamesainslie/weeksnap/pkg/weeksnap/rotator"
	"github.com/jamesainslie/weeksnap/pkg/weeksnap/types"
)

// StatusReport is the state of every slot of one volume.
type StatusReport struct {
	Volume string
	Slots  []rotator.SlotStatus

	// Now anchors relative ages. Zero means time.Now().
	Now time.Time

	// Location is the calendar used for timestamps and weekday checks.
	// Nil means time.Local.
	Location *time.Location
}

func (r *StatusReport) now() time.Time {
	if r.Now.IsZero() {
		return time.Now()
	}
	return r.Now
}

func (r *StatusReport) loc() *time.Location {
	if r.Location == nil {
		return time.Local
	}
	return r.Location
}

// Filled counts the occupied weekday slots, excluding head.
func (r *StatusReport) Filled() int {
	n := 0
	for _, s := range r.Slots {
		if s.Present && s.Slot != types.HeadSlot {
			n++
		}
	}
	return n
}

// Formatter renders weeksnap data.
type Formatter interface {
	// Status writes the slot table for one volume.
	Status(w *bytes.Buffer, r *StatusReport) error

	// Plan writes the steps a rotation would take.
	Plan(w *bytes.Buffer, p *rotator.Plan) error

	// History writes a list of journal entries, newest first.
	History(w *bytes.Buffer, entries []manifest.Entry) error

	// Entry writes a single journal entry in full.
	Entry(w *bytes.Buffer, e *manifest.Entry) error
}

// FormatterFactory creates a Formatter.
type FormatterFactory func() Formatter

// Registry maps formatter names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds or replaces a formatter factory.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown output format: %s", name)
	}
	return factory(), nil
}

// Available returns the registered names, sorted.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry holds the built-in formatters.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a formatter from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}

// filedSummary describes where an entry's previous head went.
func filedSummary(e *manifest.Entry) string {
	switch {
	case e.FiledTo == "":
		return "-"
	case e.Deleted != "":
		return e.FiledTo + " (replaced)"
	default:
		return e.FiledTo
	}
}
