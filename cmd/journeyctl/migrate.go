package main

import (
	"fmt"
	"pillar_journey_backend/pkg/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create tables and sync the pillar and badge catalogs",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		if err := database.Migrate(e.db); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migration complete")
		return nil
	},
}
