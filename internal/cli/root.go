// Package cli implements the revops command line: one-shot questions, the
// interactive chat, dataset import, and the gateway and MCP servers.
package cli

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/soyeahso/revops/internal/config"
	"github.com/soyeahso/revops/internal/logging"
)

var (
	cfgFile  string
	logLevel string

	// loaded at init time
	paths config.Paths
	log   *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revops",
		Short: "revops answers questions about opportunity buying groups",
		Long: "revops resolves the account or opportunity named in a question, assembles its buying group\n" +
			"and sales activities from the CRM tables, and asks a language model to answer.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env is normal.
			_ = godotenv.Load()

			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}
			log = logging.New(nil, resolveLevel())
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/revops/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newAskCmd())
	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newGroupCmd())
	cmd.AddCommand(newOpportunitiesCmd())
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newDatasetsCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMCPCmd())

	return cmd
}

// resolveLevel picks the log level: flag, then REVOPS_LOG_LEVEL, then warn
// so interactive output stays readable. Servers use logging.level instead.
func resolveLevel() string {
	if logLevel != "" {
		return logLevel
	}
	if v := os.Getenv("REVOPS_LOG_LEVEL"); v != "" {
		return v
	}
	return "warn"
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
