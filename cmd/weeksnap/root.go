package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/jamesainslie/weeksnap/pkg/weeksnap/btrfs"
	"github.com/jamesainslie/weeksnap/pkg/weeksnap/config"
	"github.com/jamesainslie/weeksnap/pkg/weeksnap/logging"
	"github.com/jamesainslie/weeksnap/pkg/weeksnap/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// skipConfig marks commands that must work even when the config file is
// broken.
const skipConfig = "weeksnap/skip-config"

// app holds the state shared by all commands of one invocation.
type app struct {
	cfgFile string
	verbose bool

	v   *viper.Viper
	cfg *config.Config

	// openVolume returns the btrfs backend selected by cfg.
	openVolume func(cfg *config.Config) (btrfs.Volume, error)

	now func() time.Time
}

func newApp() *app {
	return &app{
		openVolume: func(cfg *config.Config) (btrfs.Volume, error) {
			return btrfs.Open(cfg.Backend, cfg.BtrfsBinary)
		},
		now: time.Now,
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "weeksnap <path>",
		Short: "Keep a week of rotating btrfs snapshots",
		Long: `weeksnap keeps up to seven read-only snapshots of a btrfs volume,
one for each day of the week.

Each run files the previous run's snapshot under the weekday it was taken
and then takes a fresh one:

  <path>/.snapshots/head         newest snapshot, filed on the next run
  <path>/.snapshots/Sun .. Sat   one snapshot per weekday

Run it once a day from cron or a systemd timer.

Examples:
  weeksnap /mnt/data              # rotate snapshots of /mnt/data
  weeksnap --dry-run /mnt/data    # show what a rotation would do
  weeksnap status /mnt/data       # list slots and their ages
  weeksnap history                # past rotations from the journal`,
		Args:              volumeArg,
		RunE:              a.runRotate,
		PersistentPreRunE: a.bootstrap,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/weeksnap/config.yaml)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "mirror debug logging to stderr")
	pf.StringP("output", "o", "", "output format for status and history: pretty, plain, json")
	pf.String("backend", "", "snapshot backend: ioctl or cli")
	pf.String("btrfs-binary", "", "btrfs executable for the cli backend")

	rootCmd.Flags().BoolP("dry-run", "n", false, "show what would be done without changing anything")
	rootCmd.Flags().Bool("lock", false, "hold <path>/.snapshots/.lock while rotating")
	rootCmd.SetFlagErrorFunc(flagError)

	rootCmd.AddCommand(
		newStatusCmd(a),
		newHistoryCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the command line through fang.
func Execute(ctx context.Context) error {
	defer func() {
		_ = logging.Close()
	}()

	return execute(ctx, newRootCmd(newApp()))
}

func execute(ctx context.Context, rootCmd *cobra.Command) error {
	return fang.Execute(ctx, rootCmd,
		fang.WithVersion(version),
		fang.WithCommit(commit),
		fang.WithErrorHandler(printPlainError),
	)
}

// printPlainError writes err as a single unstyled line.
func printPlainError(w io.Writer, _ fang.Styles, err error) {
	_, _ = fmt.Fprintln(w, err.Error())
}

// volumeArg requires exactly one non-empty path and prints usage otherwise.
func volumeArg(cmd *cobra.Command, args []string) error {
	if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
		return nil
	}
	_, _ = fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
	if len(args) == 1 {
		return fmt.Errorf("%w: volume path is empty", types.ErrArgument)
	}
	return fmt.Errorf("%w: expected exactly one volume path, got %d arguments", types.ErrArgument, len(args))
}

// flagError prints usage for a malformed flag. Subcommands inherit it.
func flagError(cmd *cobra.Command, err error) error {
	_, _ = fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
	return fmt.Errorf("%w: %v", types.ErrArgument, err)
}

// bootstrap loads configuration and starts logging before any command runs.
func (a *app) bootstrap(cmd *cobra.Command, _ []string) error {
	v, err := config.New(a.cfgFile)
	if err != nil {
		if cmd.Annotations[skipConfig] != "" {
			return nil
		}
		return err
	}

	flags := cmd.Flags()
	for key, name := range map[string]string{
		"backend":      "backend",
		"btrfs_binary": "btrfs-binary",
		"output":       "output",
		"lock":         "lock",
	} {
		if f := flags.Lookup(name); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
	a.v = v

	cfg, err := config.Decode(v)
	if err != nil {
		if cmd.Annotations[skipConfig] != "" {
			return nil
		}
		return err
	}
	a.cfg = cfg

	if err := initLogging(cfg, a.verbose, cmd.ErrOrStderr()); err != nil {
		printWarning(cmd, "logging disabled: %v", err)
	}
	logging.Get("cli").Debug("configuration loaded",
		"file", v.ConfigFileUsed(),
		"backend", cfg.Backend,
		"command", cmd.CommandPath())
	return nil
}

// printWarning writes a warning line to stderr.
func printWarning(cmd *cobra.Command, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: "+format+"\n", args...)
}

// printInfo writes a line to stdout.
func printInfo(cmd *cobra.Command, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}
