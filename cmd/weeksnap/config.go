package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/jamesainslie/weeksnap/pkg/weeksnap/config"
	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage weeksnap configuration settings.

Configuration is read from $XDG_CONFIG_HOME/weeksnap/config.yaml, or the
file given with --config. Every key can be overridden from the environment
with the WEEKSNAP_ prefix:
  WEEKSNAP_BACKEND=cli
  WEEKSNAP_LOCK=true
  WEEKSNAP_JOURNAL_RETENTION_DAYS=30`,
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long:  `Display the configuration after merging defaults, the config file, the environment and flags.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if used := a.v.ConfigFileUsed(); used != "" {
				printInfo(cmd, "# Config file: %s", used)
			} else {
				printInfo(cmd, "# Config file: (none found, using defaults)")
			}
			data, err := a.cfg.YAML()
			if err != nil {
				return fmt.Errorf("failed to render configuration: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	initCmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a default configuration file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.configPath()
			created, err := config.WriteDefault(path)
			if err != nil {
				return err
			}
			if !created {
				printInfo(cmd, "Config file already exists: %s", path)
				return nil
			}
			printInfo(cmd, "Created default config file: %s", path)
			return nil
		},
	}

	pathCmd := &cobra.Command{
		Use:         "path",
		Short:       "Show the configuration file path",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			printInfo(cmd, "%s", a.configPath())
			return nil
		},
	}

	editCmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit the configuration file",
		Long: `Open the configuration file in $VISUAL, $EDITOR or vi.

A default file is created first if none exists.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.configPath()
			if _, err := config.WriteDefault(path); err != nil {
				return err
			}

			editor := os.Getenv("VISUAL")
			if editor == "" {
				editor = os.Getenv("EDITOR")
			}
			if editor == "" {
				editor = "vi"
			}

			c := exec.Command(editor, path)
			c.Stdin = os.Stdin
			c.Stdout = cmd.OutOrStdout()
			c.Stderr = cmd.ErrOrStderr()
			if err := c.Run(); err != nil {
				return fmt.Errorf("editor command failed: %w", err)
			}
			return nil
		},
	}

	configCmd.AddCommand(showCmd, initCmd, pathCmd, editCmd)
	return configCmd
}

// configPath is the --config file, or the default location.
func (a *app) configPath() string {
	if a.cfgFile != "" {
		return a.cfgFile
	}
	return config.ConfigFile()
}
