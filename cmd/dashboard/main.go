package main

import (
	"context"
	"flag"
	"fmt"
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
	"smokemate/internal/server"
	"smokemate/internal/service"
	"smokemate/internal/session"
)

const (
	simTick         = time.Second
	shutdownTimeout = 10 * time.Second
)

// controller is what the dashboard needs from the device: polling plus
// commands. device.Client and the simulator both qualify.
type controller interface {
	poller.Fetcher
	service.Device
}

// @title        SmokeMate Dashboard API
// @version      1.0
// @description  Live status, run history and configuration editing for a smoker controller.
// @BasePath     /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	configDir := flag.String("config-dir", "configs", "directory holding config.yml")
	hashPassword := flag.String("hash-password", "", "print the bcrypt hash of the given password and exit")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := service.HashPassword(*hashPassword)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load("config", *configDir)
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(cfg.LogLevel)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dev := newController(ctx, cfg, log)

	store := poller.NewStore()
	p := poller.New(dev, store, cfg.Poll, log.Component("poller"), poller.WithMetrics(m))
	editor := session.New(store, dev, log.Component("session"), session.WithMetrics(m))

	services := &service.Service{
		Monitoring:    service.NewMonitoringService(store),
		Control:       service.NewControlService(dev, p, store, nil, log.Component("control")),
		Editor:        editor,
		Authorization: service.NewAuthService(cfg.Auth),
	}
	apiHandler := handlers.NewHandler(services, log, handlers.WithGatherer(reg))

	if err := p.Start(ctx); err != nil {
		log.Fatalw("failed to start poller", "err", err)
	}
	log.Infow("polling controller", "base_url", cfg.DeviceBaseURL, "simulated", cfg.DeviceSimulate,
		"status_every", cfg.Poll.Status, "config_every", cfg.Poll.Config, "history_every", cfg.Poll.History)

	srv := &server.Server{}
	runHTTPServer(srv, cfg.HTTPPort, apiHandler, log)

	waitForShutdown(cancel, p, srv, log)
}

// newController returns the HTTP client for the configured controller, or a
// running simulation when device.simulate is set.
func newController(ctx context.Context, cfg config.Config, log *logger.Logger) controller {
	if !cfg.DeviceSimulate {
		return device.NewClient(cfg.DeviceBaseURL, cfg.DeviceRequestTimeout)
	}
	sim := service.NewSimulatorService(log.Component("simulator"))
	go sim.Run(ctx, simTick)
	return sim
}

func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		log.Infow("listening", "addr", server.Addr(port))
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown blocks until SIGINT or SIGTERM, then stops polling and
// drains the HTTP server.
func waitForShutdown(cancel context.CancelFunc, p *poller.Poller, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down dashboard...")

	p.Stop()
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
	_ = log.Sync()
}
