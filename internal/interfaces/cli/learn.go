package cli

import (
	"os"

	"github.com/spf13/cobra"

	applearning "github.com/wucy1/ProDocuX/internal/application/learning"
	domrecord "github.com/wucy1/ProDocuX/internal/domain/record"
	"github.com/wucy1/ProDocuX/pkg/types/record"
)

// newLearnCommand groups the correction-submission subcommands.
func newLearnCommand(env *cliEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "learn",
		Short: "Submit corrections and derive transformation rules",
	}
	cmd.AddCommand(
		newLearnJSONCommand(env),
		newLearnWordCommand(env),
		newLearnRepeatedCommand(env),
	)
	return cmd
}

type learnFlags struct {
	workID  string
	profile string
}

func (f *learnFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.workID, "work", "w", "", "workflow identifier")
	cmd.Flags().StringVarP(&f.profile, "profile", "p", "", "profile name")
	_ = cmd.MarkFlagRequired("work")
	_ = cmd.MarkFlagRequired("profile")
}

func newLearnJSONCommand(env *cliEnv) *cobra.Command {
	var (
		flags         learnFlags
		originalPath  string
		correctedPath string
	)
	cmd := &cobra.Command{
		Use:   "json",
		Short: "Learn from a corrected JSON record",
		RunE: func(cmd *cobra.Command, _ []string) error {
			original, err := loadRecord(originalPath)
			if err != nil {
				return err
			}
			corrected, err := loadRecord(correctedPath)
			if err != nil {
				return err
			}
			result, err := env.service.LearnFromJSON(cmd.Context(), applearning.JSONLearnRequest{
				WorkID:    flags.workID,
				Profile:   flags.profile,
				Original:  original,
				Corrected: corrected,
			})
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&originalPath, "original", "", "path to the original record (JSON)")
	cmd.Flags().StringVar(&correctedPath, "corrected", "", "path to the corrected record (JSON or raw extraction output)")
	_ = cmd.MarkFlagRequired("original")
	_ = cmd.MarkFlagRequired("corrected")
	return cmd
}

func newLearnWordCommand(env *cliEnv) *cobra.Command {
	var (
		flags        learnFlags
		originalPath string
		documentPath string
	)
	cmd := &cobra.Command{
		Use:   "word",
		Short: "Learn from a corrected Word document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			original, err := loadRecord(originalPath)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(documentPath)
			if err != nil {
				return err
			}
			result, err := env.service.LearnFromWord(cmd.Context(), applearning.WordLearnRequest{
				WorkID:   flags.workID,
				Profile:  flags.profile,
				Original: original,
				Document: data,
			})
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&originalPath, "original", "", "path to the original record (JSON)")
	cmd.Flags().StringVar(&documentPath, "document", "", "path to the corrected .docx")
	_ = cmd.MarkFlagRequired("original")
	_ = cmd.MarkFlagRequired("document")
	return cmd
}

func newLearnRepeatedCommand(env *cliEnv) *cobra.Command {
	var flags learnFlags
	cmd := &cobra.Command{
		Use:   "repeated",
		Short: "Aggregate a workflow's history into stable rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := env.service.LearnFromRepeated(cmd.Context(), flags.workID, flags.profile)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
	flags.register(cmd)
	return cmd
}

// loadRecord reads a record file through the tolerant extraction decoder,
// so both clean JSON and raw model output are accepted.
func loadRecord(path string) (record.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return domrecord.DecodeExtracted(data)
}
