package cli

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"duostudy/internal/config"
)

type rootOptions struct {
	database string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "duostudy",
		Short: "DuoStudy - shared daily goals and focus time for two",
		Long: `DuoStudy keeps two study partners on one shared list of daily goals.

Each partner runs a client against the same database. The serve command runs
the Telegram bot, the sync loop, the focus timer and the optional HTTP view.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.database, "database", "", "SQLite DSN, overrides DATABASE_URL")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newResetCmd(opts))
	cmd.AddCommand(newHistoryCmd(opts))
	return cmd
}

// Execute runs the root command.
func Execute(version string) error {
	cmd := newRootCmd()
	cmd.Version = version
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (o *rootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if o.database != "" {
		cfg.DatabaseURL = o.database
	}
	log.SetLevel(cfg.LogLevel)
	return cfg, nil
}
