// OrderBridge API — HTTP-сервис выборки инвойсов и производственных
// заказов из RabbitMQ и планирования заказов по рецептурам.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/OrderBridge/internal/api"
	"github.com/shaiso/OrderBridge/internal/bom"
	"github.com/shaiso/OrderBridge/internal/config"
	"github.com/shaiso/OrderBridge/internal/dispatch"
	"github.com/shaiso/OrderBridge/internal/domain"
	"github.com/shaiso/OrderBridge/internal/mq"
	"github.com/shaiso/OrderBridge/internal/repo"
	"github.com/shaiso/OrderBridge/internal/telemetry"
)

var startTime = time.Now()

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting orderbridge-api")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Подключаемся к базе данных
	pool, err := repo.NewPool(context.Background(), cfg.DB.URL, int(cfg.DB.MaxConns))
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	// Подключаемся к RabbitMQ
	conn, err := mq.NewConnection(cfg.RabbitMQ.URL, logger)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer conn.Close()
	logger.Info("connected to rabbitmq")

	var inspector mq.QueueInspector
	if cfg.RabbitMQ.ManagementURL != "" {
		inspector, err = mq.NewManagementInspector(cfg.RabbitMQ.ManagementURL, cfg.RabbitMQ.URL, cfg.RabbitMQ.VHost)
		if err != nil {
			logger.Error("invalid management api config", "error", err)
			os.Exit(1)
		}
	}

	topology := mq.NewTopology(mq.TopologyConfig{
		Opener:    conn,
		Inspector: inspector,
		Logger:    logger,
	})
	consumer := mq.NewBatchConsumer(conn, logger)
	publisher := mq.NewPublisher(mq.PublisherConfig{
		Opener:         conn,
		Exchange:       cfg.RabbitMQ.Exchange,
		ConfirmTimeout: cfg.RabbitMQ.ConfirmTimeout,
		Logger:         logger,
	})

	// Рецептуры и планирование
	recipes := repo.NewRecipeRepo(pool)
	expander := bom.NewExpander(bom.ExpanderConfig{
		Recipes:      recipes,
		SpecialItems: domain.NewItemSet(cfg.BOM.SpecialItems...),
		Suffixes:     bom.RandomSuffix{},
		Logger:       logger,
	})
	planner := bom.NewPlanner(bom.PlannerConfig{
		Store:            recipes,
		Expander:         expander,
		MixtureProcesses: cfg.BOM.MixtureProcesses,
		Logger:           logger,
	})

	orders := dispatch.New(dispatch.Config{
		Store:              repo.NewInvoiceRepo(pool),
		Sessions:           publisher,
		Topology:           topology,
		Exchange:           cfg.RabbitMQ.Exchange,
		DeadLetterExchange: cfg.RabbitMQ.DeadLetterExchange,
		WindowDays:         cfg.Publish.WindowDays,
		Logger:             logger,
	})

	// Создаём API handler
	handler := api.NewHandler(api.Config{
		Drainer:            consumer,
		Topology:           topology,
		Planner:            planner,
		Orders:             orders,
		Exchange:           cfg.RabbitMQ.Exchange,
		DeadLetterExchange: cfg.RabbitMQ.DeadLetterExchange,
		DrainTimeout:       cfg.RabbitMQ.DrainTimeout,
		Logger:             logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !conn.IsConnected() {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, "rabbitmq disconnected")
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	addr := ":" + cfg.API.Port

	// Создаём HTTP сервер с возможностью graceful shutdown
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", addr, "topology", mq.TopologyInfo(cfg.RabbitMQ.Exchange, cfg.RabbitMQ.DeadLetterExchange))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Ожидаем сигнал завершения
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go mq.WatchReconnects(ctx, conn.ReconnectNotify(), logger)

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
