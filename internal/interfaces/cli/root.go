// Package cli implements the prodocux command-line client.  It operates
// directly on a local profile store, so corrections can be fed in and
// profiles inspected without a running API server.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	applearning "github.com/wucy1/ProDocuX/internal/application/learning"
	"github.com/wucy1/ProDocuX/internal/config"
	"github.com/wucy1/ProDocuX/internal/domain/document"
	"github.com/wucy1/ProDocuX/internal/infrastructure/document/docx"
	"github.com/wucy1/ProDocuX/internal/infrastructure/monitoring/logging"
	filestore "github.com/wucy1/ProDocuX/internal/infrastructure/storage/file"
	"github.com/wucy1/ProDocuX/internal/infrastructure/storage/memory"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// rootOptions holds the global flags shared by every subcommand.
type rootOptions struct {
	configPath string
	profileDir string
	quiet      bool
}

// cliEnv carries the initialized dependencies through the command tree.
type cliEnv struct {
	cfg     *config.Config
	logger  logging.Logger
	service *applearning.Service
}

// NewRootCommand creates the root command with global flags and all
// subcommands attached.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	env := &cliEnv{}

	cmd := &cobra.Command{
		Use:           "prodocux",
		Short:         "Document extraction learning engine",
		Long:          "prodocux learns extraction corrections and maintains versioned transformation profiles.",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return env.init(opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to configuration file")
	cmd.PersistentFlags().StringVar(&opts.profileDir, "profile-dir", "", "profile store directory (overrides config)")
	cmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "suppress log output")

	cmd.AddCommand(
		newLearnCommand(env),
		newProfileCommand(env),
		newHistoryCommand(env),
	)
	return cmd
}

// init loads configuration and builds a file-backed learning service.
func (e *cliEnv) init(opts *rootOptions) error {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.Load(opts.configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return err
	}
	if opts.profileDir != "" {
		cfg.ProfileStore.Dir = opts.profileDir
	}
	e.cfg = cfg

	if opts.quiet {
		e.logger = logging.NewNopLogger()
	} else {
		logCfg := cfg.Log
		logCfg.Format = "console"
		e.logger, err = logging.NewLogger(logging.LogConfig(logCfg))
		if err != nil {
			return err
		}
	}

	store, err := filestore.NewStore(cfg.ProfileStore.Dir, e.logger)
	if err != nil {
		return err
	}
	e.service, err = applearning.NewService(cfg.Learning, cfg.ProfileStore.CacheTTL, applearning.Dependencies{
		Profiles:  store,
		Events:    memory.NewEventStore(),
		Extractor: document.NewExtractor(docx.NewParser(), e.logger),
		Logger:    e.logger,
	})
	return err
}

// printJSON renders any result as indented JSON on stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}
