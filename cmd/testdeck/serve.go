package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/waabox/testdeck/internal/api"
	"github.com/waabox/testdeck/internal/config"
	"github.com/waabox/testdeck/internal/domain"
	"github.com/waabox/testdeck/internal/events"
	"github.com/waabox/testdeck/internal/logging"
	"github.com/waabox/testdeck/internal/metrics"
	"github.com/waabox/testdeck/internal/notify"
	"github.com/waabox/testdeck/internal/registry"
	"github.com/waabox/testdeck/internal/seed"
	"github.com/waabox/testdeck/internal/supervisor"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newServeCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFrom(*configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.Server.Addr = addr
			}
			if path, _ := cmd.Flags().GetString("seed"); path != "" {
				cfg.Seed.Path = path
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, *configPath, cfg)
		},
	}
	cmd.Flags().String("addr", "", "listen address, overrides server.addr")
	cmd.Flags().String("seed", "", "YAML file of pipelines to create at startup, overrides seed.path")
	return cmd
}

func serve(ctx context.Context, configPath string, cfg config.Config) error {
	log, err := logging.New(cfg.Log.Path, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer log.Sync()
	if !log.Core().Enabled(zapcore.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}

	broker := events.NewBroker(log.Named("events"))

	// Subscribers are attached before anything is created so that seeded
	// pipelines are counted too.
	m := metrics.New()
	metricEvents, stopMetrics := broker.Subscribe(256)
	defer stopMetrics()
	go m.Run(ctx, metricEvents)

	settings := notify.NewStore(cfg.Notifications)
	notifyEvents, stopNotify := broker.Subscribe(64)
	defer stopNotify()
	dispatcher := notify.NewDispatcher(settings, notify.NewLogSender(log.Named("notify")), log.Named("notify"))
	go dispatcher.Run(ctx, notifyEvents)

	reg := registry.New(
		registry.WithLogger(log.Named("registry")),
		registry.WithPublisher(broker),
		registry.WithMaxParallel(cfg.Defaults.MaxParallel),
	)

	if cfg.Seed.Path != "" {
		defs, err := seed.LoadFile(cfg.Seed.Path)
		if err != nil {
			return err
		}
		created, err := seed.Apply(reg, defs)
		if err != nil {
			return err
		}
		log.Info("seeded pipelines", zap.String("path", cfg.Seed.Path), zap.Int("count", len(created)))
	}

	sup := supervisor.New(reg, supervisor.Config{
		Schedule:       cfg.Defaults.SupervisorSchedule,
		DefaultTimeout: cfg.DefaultTimeout(),
		Retention:      cfg.Retention(),
	}, nil, log.Named("supervisor"))
	if err := sup.Start(); err != nil {
		return err
	}
	defer func() { <-sup.Stop().Done() }()

	srv := api.New(api.Options{
		Registry: reg,
		Settings: settings,
		Broker:   broker,
		Metrics:  m.Handler(),
		System:   cfg.System(),
		SaveSettings: func(s domain.NotificationSettings) error {
			cfg.Notifications = s
			return config.Save(configPath, cfg)
		},
		Logger: log.Named("api"),
	})
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}
