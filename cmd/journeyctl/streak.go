package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var streakCmd = &cobra.Command{
	Use:   "streak",
	Short: "Streak cache maintenance",
}

var streakRepair bool

var streakVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Compare cached streaks of active journeys against the check-in history",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		journeys, err := e.journeys.ListActive(cmd.Context())
		if err != nil {
			return err
		}

		drift := 0
		for _, j := range journeys {
			check, err := e.streaks.Verify(cmd.Context(), &j)
			if err != nil {
				return err
			}
			if check.Consistent() {
				continue
			}
			drift++
			fmt.Fprintf(cmd.OutOrStdout(), "user %d journey %d: stored %d/%d, history %d/%d\n",
				j.UserID, j.ID,
				check.Stored.Current, check.Stored.Longest,
				check.Recomputed.Current, check.Recomputed.Longest)

			if streakRepair {
				if _, err := e.streaks.Recompute(cmd.Context(), nil, &j); err != nil {
					return err
				}
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "checked %d journeys, %d inconsistent\n", len(journeys), drift)
		if drift > 0 && !streakRepair {
			return fmt.Errorf("%d streaks need repair, rerun with --repair", drift)
		}
		return nil
	},
}

func init() {
	streakVerifyCmd.Flags().BoolVar(&streakRepair, "repair", false, "rewrite inconsistent streaks from history")
	streakCmd.AddCommand(streakVerifyCmd)
}
