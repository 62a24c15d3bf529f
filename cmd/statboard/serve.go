package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/foxzi/statboard/internal/backend"
	"github.com/foxzi/statboard/internal/credential"
	"github.com/foxzi/statboard/internal/metrics"
	"github.com/foxzi/statboard/internal/stats"
	"github.com/foxzi/statboard/internal/web/server"
	"github.com/foxzi/statboard/internal/web/sessions"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web dashboard",
	Long: `Start the locally served web dashboard. Every browser signs in on its own:
its token is held in memory for that browser only, and the credential stored
by the signin command is not used.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Logging, os.Stdout, false)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		metrics.SetGlobal(m)
	}

	campaigns, err := stats.LoadCampaignData(cfg.Campaigns.DataFile)
	if err != nil {
		return err
	}

	newGateway := func(creds credential.Store) sessions.Gateway {
		return backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, creds, logger)
	}

	srv, err := server.New(cfg, newGateway, campaigns, m, logger)
	if err != nil {
		return err
	}

	// Handle shutdown signals
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		logger.Info("shutting down...")
		cancel()
	}()

	return srv.Run(ctx)
}
