package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewDedupeCommand creates the dedupe command.
func NewDedupeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dedupe",
		Short: "Remove duplicate recurring occurrences from every user",
		Long: `Keep the first transaction per recurrence and calendar day, drop the rest.
Transactions that did not come from a recurrence are never touched.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			a, err := rootOpts.open(ctx)
			if err != nil {
				return err
			}
			defer a.shutdown(context.Background())

			res, err := a.deduper.Run(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "users: %d, changed: %d, removed: %d, failed: %d\n",
				res.Users, res.Changed, res.Removed, res.Failed)
			return err
		},
	}
}
