package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"hour-estimator-backend/internal/export"
	"hour-estimator-backend/internal/tasks"
)

func newExportCommand(opts *rootOptions) *cobra.Command {
	var (
		teamID     string
		outDir     string
		allowEmpty bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a team's estimates to an .xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			teamID = strings.TrimSpace(teamID)
			if !tasks.ValidTeamID(teamID) {
				return fmt.Errorf("invalid team id %q", teamID)
			}

			cfg, database, logger, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer database.Close()

			list, err := tasks.NewStore(database).GetTasks(cmd.Context(), teamID)
			if err != nil {
				return err
			}
			if len(list) == 0 && !allowEmpty {
				cmd.Printf("team %s has no tasks; nothing to export\n", teamID)
				return nil
			}

			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = cfg.ExportDir
			}

			sink := export.DirSink{Dir: outDir}
			exporter := export.New(export.WithLocation(loc), export.WithLogger(logger))
			f, err := exporter.Export(cmd.Context(), list, teamID, sink)
			if err != nil {
				return err
			}

			cmd.Printf("%s (%d tasks, %sh)\n", sink.Path(f), f.Summary.TaskCount,
				formatTotal(f.Summary.TotalHours))
			return nil
		},
	}

	cmd.Flags().StringVarP(&teamID, "team", "t", "", "team identifier")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default EXPORT_DIR)")
	cmd.Flags().BoolVar(&allowEmpty, "allow-empty", false, "write a workbook even when the team has no tasks")
	_ = cmd.MarkFlagRequired("team")

	return cmd
}

func formatTotal(h float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", h), "0"), ".")
}
