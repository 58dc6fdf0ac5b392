package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server for uploads and discovery requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		env, err := initPipeline(ctx, cfg, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		srv := server.New(env.Pipeline, env.Converter,
			server.WithMaxUploadMB(cfg.Server.MaxUploadMB),
			server.WithCORSOrigins(cfg.Server.CORSOrigins),
		)
		return srv.ListenAndServe(ctx, cfg.Server.Port)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
