package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	_ "smokemate/docs"
	"smokemate/internal/config"
	"smokemate/internal/device"
	"smokemate/internal/handlers"
	"smokemate/internal/logger"
	"smokemate/internal/metrics"
	"smokemate/internal/poller"
	"smokemate/internal/repository"
	"smokemate/internal/repository/db"
	"smokemate/internal/server"
	"smokemate/internal/service"
)

const (
	simTick         = time.Second
	restoreTimeout  = 5 * time.Second
	shutdownTimeout = 10 * time.Second
)

type controller interface {
	poller.Fetcher
	service.Device
}

// @title        SmokeMate Relay API
// @version      1.0
// @description  Controller-compatible API backed by a polled cache, with recorded run history and an event log.
// @BasePath     /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	configDir := flag.String("config-dir", "configs", "directory holding relay.yml")
	flag.Parse()

	cfg, err := config.Load("relay", *configDir)
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(cfg.LogLevel)

	conn, err := db.InitDB(cfg.Relay.DBPath)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// wire dependencies
	repos := repository.NewRepository(conn)
	events := service.NewEventLogService(repos.EventRepo, log.Component("events"))
	recorder := service.NewRecorderService(repos, events, cfg.Relay.Retention, m, log.Component("recorder"))

	restoreCtx, restoreCancel := context.WithTimeout(ctx, restoreTimeout)
	if err := recorder.Restore(restoreCtx); err != nil {
		log.Fatalw("failed to restore run state", "err", err)
	}
	restoreCancel()

	dev := newController(ctx, cfg, log)
	store := poller.NewStore()
	p := poller.New(dev, store, cfg.Poll, log.Component("poller"),
		poller.WithMetrics(m),
		poller.WithStatusObserver(recorder.Observe),
	)
	control := service.NewControlService(dev, p, store, events, log.Component("control"))

	services := &service.Service{
		Monitoring:      service.NewMonitoringService(store),
		Control:         control,
		ConfigForwarder: control,
		EventLog:        events,
		Recorder:        recorder,
		Authorization:   service.NewAuthService(cfg.Auth),
	}
	apiHandler := handlers.NewHandler(services, log, handlers.WithGatherer(reg))

	retention, err := service.NewRetentionScheduler(recorder, cfg.Relay.CleanupSchedule, log.Component("retention"))
	if err != nil {
		log.Fatalw("invalid cleanup schedule", "err", err)
	}
	retention.Start()

	if err := p.Start(ctx); err != nil {
		log.Fatalw("failed to start poller", "err", err)
	}
	log.Infow("relaying controller", "base_url", cfg.DeviceBaseURL, "simulated", cfg.DeviceSimulate,
		"db", cfg.Relay.DBPath, "retention", cfg.Relay.Retention)

	srv := &server.Server{}
	go func() {
		log.Infow("listening", "addr", server.Addr(cfg.HTTPPort))
		if err := srv.Run(cfg.HTTPPort, apiHandler.InitRelayRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down relay...")

	retention.Stop()
	p.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
	_ = log.Sync()
}

func newController(ctx context.Context, cfg config.Config, log *logger.Logger) controller {
	if !cfg.DeviceSimulate {
		return device.NewClient(cfg.DeviceBaseURL, cfg.DeviceRequestTimeout)
	}
	sim := service.NewSimulatorService(log.Component("simulator"))
	go sim.Run(ctx, simTick)
	return sim
}
