package main

import (
	"bytes"

	"github.com/jamesainslie/weeksnap/pkg/weeksnap/output"
	"github.com/jamesainslie/weeksnap/pkg/weeksnap/rotator"
	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <path>",
		Short: "Show the snapshot slots of a volume",
		Long: `List the head slot and the seven weekday slots of a volume with the
creation time and age of each snapshot.

Slots holding a snapshot taken on a different weekday than their name are
flagged; that only happens when snapshots were moved by hand or the time
zone changed.`,
		Args: volumeArg,
		RunE: a.runStatus,
	}
}

func (a *app) runStatus(cmd *cobra.Command, args []string) error {
	volume := args[0]

	vol, err := a.openVolume(a.cfg)
	if err != nil {
		return err
	}

	slots, err := rotator.New(vol).Status(volume)
	if err != nil {
		return err
	}

	report := &output.StatusReport{Volume: volume, Slots: slots, Now: a.now()}
	return a.render(cmd, func(f output.Formatter, buf *bytes.Buffer) error {
		return f.Status(buf, report)
	})
}
