package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"duostudy/internal/service"
)

var errNeedsConfirmation = errors.New("refusing to reset without --yes")

func newResetCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Archive the live day and start a new one",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errNeedsConfirmation
			}
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, service.LogAlerter{})
			if err != nil {
				return err
			}
			defer a.Close()
			return runReset(cmd.Context(), a, cmd)
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	return cmd
}

func runReset(ctx context.Context, a *app, cmd *cobra.Command) error {
	res, err := a.reset.Reset(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if res.Archived {
		fmt.Fprintf(out, "Archived %s.\n", res.ArchiveDate)
	} else {
		fmt.Fprintln(out, "Nothing to archive.")
	}
	fmt.Fprintf(out, "New day %s with %d goals.\n", res.NewDate, len(res.Tasks))
	return nil
}
