// OrderBridge Publisher — фоновая публикация инвойсов из БД
// в очереди клиентов по расписанию.
//
// Использование:
//
//	orderbridge-publisher                  запуск по PUBLISH_SCHEDULE
//	orderbridge-publisher --once           один запуск и выход
//	orderbridge-publisher recreate-queues  пересоздать очереди инвойсов
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/shaiso/OrderBridge/internal/config"
	"github.com/shaiso/OrderBridge/internal/dispatch"
	"github.com/shaiso/OrderBridge/internal/mq"
	"github.com/shaiso/OrderBridge/internal/repo"
	"github.com/shaiso/OrderBridge/internal/scheduler"
	"github.com/shaiso/OrderBridge/internal/telemetry"
)

// publishLockKey — ключ advisory lock лидера публикации.
const publishLockKey int64 = 424243

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	logger := telemetry.SetupLogger()

	var once bool

	rootCmd := &cobra.Command{
		Use:           "orderbridge-publisher",
		Short:         "Publish pending invoices to RabbitMQ on a schedule",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublisher(cmd.Context(), logger, once)
		},
	}
	rootCmd.Flags().BoolVar(&once, "once", false, "Run a single publish and exit")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "recreate-queues",
		Short: "Delete and recreate all invoice queues (drops queued messages)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return recreateQueues(cmd.Context(), logger)
		},
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("orderbridge-publisher failed", "error", err)
		os.Exit(1)
	}
}

func runPublisher(ctx context.Context, logger *slog.Logger, once bool) error {
	logger.Info("starting orderbridge-publisher")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := scheduler.ValidateSchedule(cfg.Publish.Schedule); err != nil {
		return err
	}

	// DB pool
	pool, err := repo.NewPool(ctx, cfg.DB.URL, int(cfg.DB.MaxConns))
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to database")

	conn, err := mq.NewConnection(cfg.RabbitMQ.URL, logger)
	if err != nil {
		return fmt.Errorf("rabbitmq connect: %w", err)
	}
	defer conn.Close()
	logger.Info("connected to rabbitmq")
	go mq.WatchReconnects(ctx, conn.ReconnectNotify(), logger)

	topology, err := newTopology(cfg, conn, logger)
	if err != nil {
		return err
	}

	job := dispatch.New(dispatch.Config{
		Store: repo.NewInvoiceRepo(pool),
		Sessions: mq.NewPublisher(mq.PublisherConfig{
			Opener:         conn,
			Exchange:       cfg.RabbitMQ.Exchange,
			ConfirmTimeout: cfg.RabbitMQ.ConfirmTimeout,
			Logger:         logger,
		}),
		Topology:           topology,
		Exchange:           cfg.RabbitMQ.Exchange,
		DeadLetterExchange: cfg.RabbitMQ.DeadLetterExchange,
		WindowDays:         cfg.Publish.WindowDays,
		Logger:             logger,
	})

	if once {
		n, err := job.PublishPending(ctx)
		if err != nil {
			return err
		}
		logger.Info("publish finished", "published", n)
		return nil
	}

	elector := scheduler.NewPGElector(pool, publishLockKey, logger)
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := elector.Release(releaseCtx); err != nil {
			logger.Warn("failed to release leader lock", "error", err)
		}
	}()

	sched := scheduler.New(scheduler.Config{
		Job:      job,
		Elector:  elector,
		Schedule: cfg.Publish.Schedule,
		Logger:   logger,
	})

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !conn.IsConnected() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("rabbitmq disconnected"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              ":" + cfg.API.MetricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	return sched.Run(ctx)
}

func recreateQueues(ctx context.Context, logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	conn, err := mq.NewConnection(cfg.RabbitMQ.URL, logger)
	if err != nil {
		return fmt.Errorf("rabbitmq connect: %w", err)
	}
	defer conn.Close()

	topology, err := newTopology(cfg, conn, logger)
	if err != nil {
		return err
	}

	if err := topology.RecreateAll(ctx, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.DeadLetterExchange); err != nil {
		return err
	}
	logger.Info("invoice queues recreated")
	return nil
}

func newTopology(cfg *config.Config, conn *mq.Connection, logger *slog.Logger) (*mq.Topology, error) {
	tc := mq.TopologyConfig{Opener: conn, Logger: logger}
	if cfg.RabbitMQ.ManagementURL != "" {
		inspector, err := mq.NewManagementInspector(cfg.RabbitMQ.ManagementURL, cfg.RabbitMQ.URL, cfg.RabbitMQ.VHost)
		if err != nil {
			return nil, fmt.Errorf("management api config: %w", err)
		}
		tc.Inspector = inspector
	}
	return mq.NewTopology(tc), nil
}
