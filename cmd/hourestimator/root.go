package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"hour-estimator-backend/internal/config"
	"hour-estimator-backend/internal/db"
)

type rootOptions struct {
	dialect string
	dsn     string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "hourestimator",
		Short:        "Manage team hour estimates",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.dialect, "dialect", "", "database dialect (postgres|sqlite); overrides DB_DIALECT")
	cmd.PersistentFlags().StringVar(&opts.dsn, "dsn", "", "data source name; overrides the configured connection")

	cmd.AddCommand(newExportCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))

	return cmd
}

// open loads the configuration, applies flag overrides and connects.
func (o *rootOptions) open(cmd *cobra.Command) (*config.Config, *db.DB, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	if o.dialect != "" {
		cfg.DBDialect = o.dialect
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	dialect, err := db.ParseDialect(cfg.DBDialect)
	if err != nil {
		return nil, nil, nil, err
	}
	dsn := cfg.DSN()
	if o.dsn != "" {
		dsn = o.dsn
	}

	database, err := db.Open(dialect, dsn)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := database.Migrate(cmd.Context()); err != nil {
		_ = database.Close()
		return nil, nil, nil, err
	}
	return cfg, database, logger, nil
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, database, _, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer database.Close()

			cmd.Println("schema is up to date")
			return nil
		},
	}
}
