package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/folio/internal/config"
	"github.com/dshills/folio/internal/redact"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage folio configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: "Create a default configuration file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := config.ConfigPath()
				if err != nil {
					return err
				}

				if _, err := os.Stat(path); err == nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Config file already exists at %s\n", path)
					return nil
				}

				if err := config.Save(config.Default()); err != nil {
					return fmt.Errorf("writing config: %w", err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Config file created at %s\n", path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Set a configuration value",
			Long:  "Set a configuration value. Keys: " + strings.Join(config.Keys, ", "),
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.LoadFile()
				if err != nil {
					// If no config file, start from defaults
					cfg = config.Default()
				}

				if err := config.SetField(&cfg, args[0], args[1]); err != nil {
					return usagef("%v", err)
				}

				if err := config.Save(cfg); err != nil {
					return fmt.Errorf("saving config: %w", err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], args[1])
				return nil
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Show effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load(buildOverrides())
				if err != nil {
					return err
				}
				cfg.GitHubToken = redact.Mask(cfg.GitHubToken)
				return writeJSON(cmd.OutOrStdout(), cfg)
			},
		},
	)
	return cmd
}
