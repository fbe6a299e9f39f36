package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"spendwise/internal/report"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	At     string
	Report string
	JSON   bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one recurring transactions pass and exit",
		Long: `Run a single pass over every user: push due recurring transactions and
clean expired trash for users with auto-clean enabled.

The pass is safe to repeat. Running it twice on the same day pushes nothing new.

Example:
  spendwise run
  spendwise run --at 2025-02-28 --report ./run.csv`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPass(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.At, "at", "", "evaluate as of this date (YYYY-MM-DD) in TIMEZONE")
	cmd.Flags().StringVar(&opts.Report, "report", "", "write the run report CSV to this path")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print the summary as JSON")

	return cmd
}

func runPass(cmd *cobra.Command, opts *RunOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := opts.open(ctx)
	if err != nil {
		return err
	}
	defer a.shutdown(context.Background())

	now := time.Now().In(a.cfg.Location)
	if opts.At != "" {
		day, err := time.ParseInLocation("2006-01-02", opts.At, a.cfg.Location)
		if err != nil {
			return fmt.Errorf("invalid --at %q: want YYYY-MM-DD", opts.At)
		}
		now = day.Add(time.Minute)
	}

	sum, runErr := a.scheduler.RunOnce(ctx, now)
	if runErr != nil && sum.RunID == "" {
		return runErr
	}

	if opts.Report != "" {
		f, err := os.Create(opts.Report)
		if err != nil {
			return fmt.Errorf("failed to create report: %w", err)
		}
		if err := report.GenerateRunCSV(sum, f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(sum); err != nil {
			return err
		}
	} else {
		fmt.Fprint(out, report.FormatSummary(sum))
	}
	return runErr
}
