package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newHistoryCommand groups the workflow-history subcommands.
func newHistoryCommand(env *cliEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and manage workflow correction history",
	}
	cmd.AddCommand(
		newHistoryTrendsCommand(env),
		newHistoryClearCommand(env),
	)
	return cmd
}

func newHistoryTrendsCommand(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "trends WORK_ID",
		Short: "Show a workflow's correction trend metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trends, err := env.service.Trends(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(trends)
		},
	}
}

func newHistoryClearCommand(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "clear WORK_ID",
		Short: "Drop a workflow's recorded learning events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.service.ClearHistory(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("history cleared for %s\n", args[0])
			return nil
		},
	}
}
