package main

import (
	"bytes"

	"github.com/jamesainslie/weeksnap/pkg/weeksnap/logging"
	"github.com/jamesainslie/weeksnap/pkg/weeksnap/manifest"
	"github.com/jamesainslie/weeksnap/pkg/weeksnap/output"
	"github.com/jamesainslie/weeksnap/pkg/weeksnap/rotator"
	"github.com/spf13/cobra"
)

// runRotate performs one rotation of the volume named by args[0].
func (a *app) runRotate(cmd *cobra.Command, args []string) error {
	volume := args[0]

	vol, err := a.openVolume(a.cfg)
	if err != nil {
		return err
	}

	r := rotator.New(vol,
		rotator.WithStatus(cmd.ErrOrStderr()),
		rotator.WithLock(a.cfg.Lock),
		rotator.WithClock(a.now),
	)

	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		return a.printPlan(cmd, r, volume)
	}

	res, err := r.Rotate(volume)
	a.record(res, err)
	if err != nil {
		return err
	}

	printInfo(cmd, "Snapshot %s created.", res.Head)
	return nil
}

func (a *app) printPlan(cmd *cobra.Command, r *rotator.Rotator, volume string) error {
	plan, err := r.Plan(volume)
	if err != nil {
		return err
	}
	return a.render(cmd, func(f output.Formatter, buf *bytes.Buffer) error {
		return f.Plan(buf, plan)
	})
}

// record journals a rotation. Journal failures are logged and never change
// the outcome of the run.
func (a *app) record(res *rotator.Result, runErr error) {
	if res == nil || !a.cfg.Journal.Enabled {
		return
	}
	log := logging.Get("journal")

	m, err := manifest.New(a.cfg.Journal.Path)
	if err != nil {
		log.Warn("journal unavailable", "error", err)
		return
	}
	if err := m.EnsureDir(); err != nil {
		log.Warn("creating journal directory failed", "path", m.Dir(), "error", err)
		return
	}

	entry := entryFor(res, runErr)
	if err := m.Record(entry); err != nil {
		log.Warn("recording rotation failed", "error", err)
		return
	}
	log.Debug("rotation recorded", "id", entry.ID, "outcome", entry.Outcome)

	if removed, err := m.Cleanup(a.cfg.Journal.RetentionDays); err != nil {
		log.Warn("journal cleanup failed", "error", err)
	} else if removed > 0 {
		log.Info("expired journal entries removed", "count", removed)
	}
}

// entryFor converts a rotation result into a journal entry.
func entryFor(res *rotator.Result, runErr error) *manifest.Entry {
	e := &manifest.Entry{
		Timestamp: res.Started.UTC(),
		Volume:    res.Volume,
		Outcome:   manifest.OutcomeCreated,
		Head:      res.Head,
		Duration:  res.Duration,
	}

	if f := res.Filed; f != nil {
		if f.Replaced {
			e.Deleted = f.To
		}
		if f.Renamed {
			e.FiledFrom = f.From
			e.FiledTo = f.To
			e.SnapshotTime = f.Created
		}
	}

	if runErr != nil {
		e.Outcome = manifest.OutcomeFailed
		e.Error = runErr.Error()
	}
	return e
}
