package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/poolview/poolview/internal/config"
	"github.com/poolview/poolview/internal/logging"
	"github.com/poolview/poolview/internal/service"
	"github.com/poolview/poolview/telemetry"
)

func main() {
	cfgPath := flag.String("config", "", "Path to configuration file (optional, env vars still apply)")
	listen := flag.String("listen", "", "Dashboard listen address (overrides configuration)")
	configCheck := flag.Bool("config-check", false, "Validate configuration and exit")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if *configCheck {
		if err := service.Validate(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "configuration invalid: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Configuration check completed successfully.")
		return
	}

	logger, cleanup, err := logging.Setup(cfg.Logging)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to setup logger")
	}
	defer cleanup()
	log.Logger = logger

	collector := telemetry.Collector(telemetry.Noop())
	if cfg.Telemetry.Enabled {
		prom, err := telemetry.NewPrometheusCollector(nil)
		if err != nil {
			logger.Warn().Err(err).Msg("telemetry disabled")
		} else {
			collector = prom
		}
	}

	svc, err := service.New(cfg, logger, nil, collector)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create service")
	}
	defer svc.Close()

	addr := cfg.DashboardListen()
	if *listen != "" {
		addr = *listen
	}
	if err := svc.EnableDashboard(addr); err != nil {
		logger.Fatal().Err(err).Msg("failed to start dashboard")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("service stopped with error")
	}
}
