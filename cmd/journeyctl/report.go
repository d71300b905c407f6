package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"pillar_journey_backend/internal/service"

	"github.com/spf13/cobra"
)

var (
	reportUser uint
	reportCSV  bool
	reportOut  string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build the journey report for a user",
	Example: `  journeyctl report --user 42
  journeyctl report --user 42 --csv --out report.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if reportUser == 0 {
			return fmt.Errorf("--user is required")
		}
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		report, err := e.reports.Build(cmd.Context(), reportUser)
		if err != nil {
			return err
		}

		var data []byte
		if reportCSV {
			data, err = service.ExportCSV(report)
		} else {
			data, err = json.MarshalIndent(report, "", "  ")
		}
		if err != nil {
			return err
		}

		if reportOut == "" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(reportOut, data, 0o644); err != nil {
			return err
		}
		if reportCSV {
			summary, err := service.ParseCSVSummary(bytes.NewReader(data))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d completions over %d days, %d karma\n",
				reportOut, summary.TotalCompletions, summary.UniqueDaysActive, summary.TotalKarma)
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().UintVar(&reportUser, "user", 0, "user id")
	reportCmd.Flags().BoolVar(&reportCSV, "csv", false, "write CSV instead of JSON")
	reportCmd.Flags().StringVar(&reportOut, "out", "", "output file (default stdout)")
}
