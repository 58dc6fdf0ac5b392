package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "stakeholder-cli",
	Short: "Stakeholder discovery pipeline",
	Long:  "Generates search queries for a project description, fetches the pages they find, and extracts stakeholder contacts with a language model.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
