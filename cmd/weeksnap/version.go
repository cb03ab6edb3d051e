package main

import (
	"runtime"

	"github.com/spf13/cobra"
)

// Build-time variables set with -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Long:        `Display the version, commit hash, and build date of weeksnap.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		Run: func(cmd *cobra.Command, _ []string) {
			printInfo(cmd, "weeksnap %s", version)
			printInfo(cmd, "  commit:  %s", commit)
			printInfo(cmd, "  built:   %s", date)
			printInfo(cmd, "  go:      %s", runtime.Version())
			printInfo(cmd, "  os/arch: %s/%s", runtime.GOOS, runtime.GOARCH)
		},
	}
}
