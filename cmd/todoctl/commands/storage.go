package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewStorageCmd creates the storage command and its subcommands
func NewStorageCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Inspect or wipe persisted data",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "size",
		Short: "Print the size of the stored todo collection in bytes",
		Args:  cobra.NoArgs,
		RunE: run(opts, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			size := a.todos.SizeEstimate(ctx)
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"backend": a.cfg.Store.Backend,
					"bytes":   size,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d bytes (%s)\n", size, a.cfg.Store.Backend)
			return nil
		}),
	})

	var all bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every todo",
		Args:  cobra.NoArgs,
		RunE: run(opts, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			if err := a.todos.Clear(ctx); err != nil {
				return fmt.Errorf("failed to clear todos: %w", err)
			}
			if all {
				if err := a.pet.Reset(ctx); err != nil {
					return err
				}
			}
			a.manager.Refresh(ctx)
			fmt.Fprintln(cmd.OutOrStdout(), "Storage cleared")
			return nil
		}),
	}
	clearCmd.Flags().BoolVar(&all, "all", false, "Also reset the cat's progress")
	cmd.AddCommand(clearCmd)

	return cmd
}
