package main

import (
	"context"
	"fmt"
	"os"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/client"
	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/schema"
	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/MKhiriev/go-offline-sync/internal/tui"
	"github.com/MKhiriev/go-offline-sync/internal/workers"
	"github.com/MKhiriev/go-offline-sync/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	buildInfo := models.NewAppBuildInfo(buildVersion, buildDate, buildCommit)
	// stdout stays machine-readable for command output
	fmt.Fprint(os.Stderr, buildInfo)

	cfg, err := config.GetClientConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error getting configs: %v\n", err)
		os.Exit(2)
	}

	log := logger.NewClientLogger("go-offline-sync-client", cfg.Log.Path)
	logger.SetLevel(cfg.Log.Level)

	registry, err := schema.LoadOrDefault(cfg.Schema.ArtifactPath)
	if err != nil {
		log.Fatal().Err(err).Msg("error loading schema artifact")
	}

	syncAdapter, err := newAdapter(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create sync adapter")
	}

	services := service.NewClientServices(cfg, registry, syncAdapter, log)
	ui := tui.New(services.Engine, buildInfo, log)

	app, err := client.NewApp(services, ui, workers.NewClientWorkers(services, cfg.Workers, log), cfg.Args, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init client app error")
	}

	if err = app.Run(context.Background()); err != nil {
		log.Error().Err(err).Msg("client run error")
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newAdapter(cfg *config.ClientConfig, log *logger.Logger) (adapter.SyncAdapter, error) {
	if cfg.Adapter.Transport == config.TransportGRPC {
		return adapter.NewGRPCSyncAdapter(cfg.Adapter, cfg.App, log)
	}
	return adapter.NewHTTPSyncAdapter(cfg.Adapter, cfg.App, log)
}
