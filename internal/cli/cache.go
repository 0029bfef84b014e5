package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/folio/internal/store"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the persistent cache",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every cached entry, including the saved session",
			Args:  cobra.NoArgs,
			RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
				insp, ok := a.store.(store.Inspector)
				if !ok {
					return fmt.Errorf("store backend %s cannot be cleared", a.cfg.Store)
				}
				if err := insp.Clear(); err != nil {
					return fmt.Errorf("clearing cache: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "show",
			Short: "Show cache statistics",
			Args:  cobra.NoArgs,
			RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
				insp, ok := a.store.(store.Inspector)
				if !ok {
					return fmt.Errorf("store backend %s has no statistics", a.cfg.Store)
				}
				stats, err := insp.Stats()
				if err != nil {
					return fmt.Errorf("reading cache stats: %w", err)
				}
				return writeJSON(cmd.OutOrStdout(), stats)
			}),
		},
	)
	return cmd
}
