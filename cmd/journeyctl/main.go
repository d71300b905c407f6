// journeyctl 运维命令：迁移、导出报告、刷新洞察、校验连续天数
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:           "journeyctl",
	Short:         "Operator tools for the pillar journey engine",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "configs", "directory containing config.yaml")
	rootCmd.AddCommand(migrateCmd, reportCmd, insightsCmd, streakCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
