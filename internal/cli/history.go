package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"duostudy/internal/service"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show archived days",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, service.LogAlerter{})
			if err != nil {
				return err
			}
			defer a.Close()

			days := a.progress.History()
			out := cmd.OutOrStdout()
			if len(days) == 0 {
				fmt.Fprintln(out, "No archived days yet.")
				return nil
			}
			if limit > 0 && len(days) > limit {
				days = days[:limit]
			}
			for _, day := range days {
				fmt.Fprintf(out, "%s  %d goals\n", day.Date, day.Goals)
				for _, p := range day.Users {
					fmt.Fprintf(out, "  %-12s %d/%d (%d%%)  %s\n", p.Name, p.Completed, p.Total, p.Percentage, service.FormatDuration(p.StudyTime))
				}
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 10, "Number of days to show")
	return cmd
}
