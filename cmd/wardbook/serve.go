package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/application"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/glossolalia"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/repository"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/server"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/service"
	"github.com/dmehra2102/prod-golang-projects/wardbook/pkg/metrics"
	"github.com/dmehra2102/prod-golang-projects/wardbook/pkg/tracer"
)

const metricsNamespace = "wardbook"

func newServeCommand() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()
			return serve(ctx, e, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "run migrations before serving")
	return cmd
}

func serve(ctx context.Context, e *env, migrate bool) error {
	cfg, log := e.cfg, e.log

	tp, err := tracer.Init(ctx, cfg.Tracing, cfg.App.Version)
	if err != nil {
		return err
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Warn("tracer shutdown", zap.Error(err))
		}
	}()

	if migrate {
		if err := e.migrate(); err != nil {
			return err
		}
	}

	app, err := application.Load(cfg.Application.Path)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewCollector(metricsNamespace, reg)

	dispatcher, err := glossolalia.FromConfig(cfg.Glossolalia, log.Named("glossolalia"), m)
	if err != nil {
		return err
	}
	defer dispatcher.Shutdown()

	audit := service.NewAuditService(repository.NewAuditRepository(e.db), log.Named("audit"), m, service.AuditOptions{
		BufferSize:      cfg.Audit.BufferSize,
		BatchSize:       cfg.Audit.BatchSize,
		FlushInterval:   cfg.Audit.FlushInterval,
		ShutdownTimeout: cfg.Audit.ShutdownTimeout,
	})
	defer audit.Shutdown()

	srv, err := server.New(server.Deps{
		Config:   cfg,
		DB:       e.db,
		Registry: e.registry,
		App:      app,
		Notifier: dispatcher,
		Audit:    audit,
		Metrics:  m,
		Log:      log,
	})
	if err != nil {
		return fmt.Errorf("building server: %w", err)
	}

	log.Info("starting wardbook",
		zap.String("env", cfg.App.Environment),
		zap.Int("subrecord_types", len(e.registry.Types())),
		zap.Bool("glossolalia", dispatcher.Enabled()),
	)
	return srv.Run(ctx)
}
