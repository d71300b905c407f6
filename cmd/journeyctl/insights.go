package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Insight maintenance",
}

var refreshUser uint

var insightsRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Regenerate insights for one user or every active journey",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		users := []uint{refreshUser}
		if refreshUser == 0 {
			active, err := e.journeys.ListActive(cmd.Context())
			if err != nil {
				return err
			}
			users = users[:0]
			for _, j := range active {
				users = append(users, j.UserID)
			}
		}

		total := 0
		for _, uid := range users {
			n, err := e.insights.Refresh(cmd.Context(), uid)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "user %d: %v\n", uid, err)
				continue
			}
			total += n
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved %d insights for %d users\n", total, len(users))
		return nil
	},
}

var insightsPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired insights",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		n, err := e.insights.PurgeExpired(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "purged %d insights\n", n)
		return nil
	},
}

func init() {
	insightsRefreshCmd.Flags().UintVar(&refreshUser, "user", 0, "user id (default: all active journeys)")
	insightsCmd.AddCommand(insightsRefreshCmd, insightsPurgeCmd)
}
