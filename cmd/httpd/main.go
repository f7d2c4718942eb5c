// Command httpd runs the contact matching and enrichment HTTP service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/accountdesk/enrichment/internal/api"
	"github.com/accountdesk/enrichment/internal/config"
	"github.com/accountdesk/enrichment/internal/directory"
	"github.com/accountdesk/enrichment/internal/jobs"
	"github.com/accountdesk/enrichment/internal/logger"
	"github.com/accountdesk/enrichment/internal/matcher"
	"github.com/accountdesk/enrichment/internal/scheduler"
	"github.com/accountdesk/enrichment/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(config.GetConfigPath("config.yml"))
	if err != nil {
		logger.Must(logger.Config{Level: "error"}).Error("failed to load configuration", logger.Error(err))
		return err
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return err
	}

	log.Info("starting enrichment service",
		logger.String("name", cfg.Service.Name),
		logger.String("version", cfg.Service.Version),
		logger.Int("port", cfg.Service.Port),
	)

	metrics := telemetry.NewProvider()
	dir := directory.NewClient(cfg.Directory, log, metrics)

	sched, err := scheduler.New(dir, cfg.Scheduler, log, metrics)
	if err != nil {
		log.Error("failed to build scheduler", logger.Error(err))
		return err
	}

	runs := jobs.NewManager(sched, log)
	handler := api.NewHandler(matcher.New(cfg.Matching), runs, dir, metrics, log)

	server := api.NewServer(handler, api.ServerConfig{
		Name:    cfg.Service.Name,
		Version: cfg.Service.Version,
		Port:    cfg.Service.Port,
		Debug:   cfg.Service.Debug,
	}, metrics, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server failed", logger.Error(err))
			return err
		}
	case sig := <-stop:
		log.Info("shutdown signal received", logger.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Service.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", logger.Error(err))
		return err
	}

	log.Info("service stopped")
	return nil
}
