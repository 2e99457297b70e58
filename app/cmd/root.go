package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lexcodex/swarmcouncil/agents"
	"github.com/lexcodex/swarmcouncil/internal/logging"
)

var (
	cfgFile   string
	workspace string

	globalCfg *agents.Config
	logger    = zap.NewNop()
)

// Execute is the entry point for the CLI.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCmd wires the cobra tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "council",
		Short:         "Run a council of LLM personas over a research topic",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ws := ensureWorkspace()
			if cfgFile == "" {
				cfgFile = agents.DefaultConfigPath(ws)
			}
			cfg, err := agents.LoadConfig(cfgFile, ws)
			if err != nil {
				return err
			}
			globalCfg = cfg
			built, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
			if err != nil {
				return err
			}
			logger = built
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&workspace, "workspace", "", "Workspace directory")
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to council config file")

	root.AddCommand(
		newRunCmd(),
		newAgentsCmd(),
		newConfigCmd(),
		newParseCmd(),
	)
	return root
}
