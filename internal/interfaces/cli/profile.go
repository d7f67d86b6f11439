package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wucy1/ProDocuX/internal/domain/profile"
)

// newProfileCommand groups the profile inspection subcommands.
func newProfileCommand(env *cliEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Inspect and manage versioned profiles",
	}
	cmd.AddCommand(
		newProfileShowCommand(env),
		newProfileVersionsCommand(env),
		newProfileRollbackCommand(env),
	)
	return cmd
}

func newProfileShowCommand(env *cliEnv) *cobra.Command {
	var version int
	cmd := &cobra.Command{
		Use:   "show NAME",
		Short: "Print a profile (head version by default)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := env.service.GetProfile(cmd.Context(), args[0], version)
			if err != nil {
				return err
			}
			return printJSON(rs)
		},
	}
	cmd.Flags().IntVar(&version, "version", profile.LatestVersion, "specific version to show")
	return cmd
}

func newProfileVersionsCommand(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "versions NAME",
		Short: "List a profile's stored versions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			versions, err := env.service.ListVersions(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VERSION\tSAVED\tRULES")
			for _, v := range versions {
				fmt.Fprintf(tw, "%d\t%s\t%d\n", v.Version, v.SavedAt.Format("2006-01-02 15:04:05"), v.RuleCount)
			}
			return tw.Flush()
		},
	}
}

func newProfileRollbackCommand(env *cliEnv) *cobra.Command {
	var version int
	cmd := &cobra.Command{
		Use:   "rollback NAME",
		Short: "Re-activate a historical profile version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			restored, newVersion, err := env.service.Rollback(cmd.Context(), args[0], version)
			if err != nil {
				return err
			}
			fmt.Printf("restored version %d as new head v%d\n", restored.Version, newVersion)
			return printJSON(restored)
		},
	}
	cmd.Flags().IntVar(&version, "version", 0, "version to restore")
	_ = cmd.MarkFlagRequired("version")
	return cmd
}
