package main

import (
	"chorus/internal/config"
	"chorus/internal/logger"
	"chorus/internal/orchestrator"
	"chorus/internal/provider"
	"chorus/internal/reporter"
	"chorus/internal/stats"
	httpapi "chorus/internal/transport/http"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the orchestration API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		registry := provider.NewRegistry(cfg.Models)
		engine := orchestrator.New(registry, orchestrator.Options{
			Timeout:     cfg.Orchestrate.Timeout(),
			MaxRetries:  cfg.Orchestrate.MaxRetries,
			BaseBackoff: cfg.Orchestrate.BaseBackoff(),
			MaxBackoff:  cfg.Orchestrate.MaxBackoff(),
		})
		srv, err := httpapi.NewServer(httpapi.ServerConfig{
			Addr:       cfg.App.HTTPAddr,
			Runner:     engine,
			Models:     registry,
			Stats:      stats.NewTracker(),
			Reporter:   reporter.New(cfg.Orchestrate.ReportDir),
			MaxTimeout: cfg.Orchestrate.MaxTimeout(),
		})
		if err != nil {
			return err
		}

		// Backends can be added or rotated without restarting the server.
		// Run options stay fixed for the process lifetime; only the model
		// table is swapped.
		if err := config.Watch(configPath(), func(fresh *config.Config) {
			registry.Reload(fresh.Models)
			logger.Infof("model registry reloaded: %v", registry.IDs())
		}); err != nil {
			logger.Warnf("config watch disabled: %v", err)
		}

		return srv.Run()
	},
}
