package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/shop/internal/health"
	"github.com/vladislavdragonenkov/shop/internal/httpapi"
	"github.com/vladislavdragonenkov/shop/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/shop/internal/service/cart"
	"github.com/vladislavdragonenkov/shop/internal/service/checkout"
	"github.com/vladislavdragonenkov/shop/internal/service/lifecycle"
	"github.com/vladislavdragonenkov/shop/internal/service/outbox"
	"github.com/vladislavdragonenkov/shop/internal/service/stock"
	"github.com/vladislavdragonenkov/shop/internal/version"
)

// Config описывает минимальные настройки запуска приложения.
type Config struct {
	HTTPAddr    string
	MetricsAddr string
	// PostgresDSN пустой — работаем in-memory.
	PostgresDSN string
	// KafkaBrokers пустой — outbox не публикуется, поток остатков не
	// читается.
	KafkaBrokers string
	StockTopic   string
	StockGroupID string
}

// DefaultConfig возвращает базовые адреса HTTP API и метрик.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:    ":8080",
		MetricsAddr: ":9090",
	}
}

func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := NewDependencies(ctx, cfg.PostgresDSN, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	if deps.InMemory() {
		deps.SeedDemoCatalog(ctx)
	}

	// Корзины живут в памяти процесса; фоновая чистка убирает просроченные
	// сессии.
	carts := cart.NewSessionStore(cart.DefaultTTL)
	cleanup := cart.NewCleanupWorker(carts, cart.WithLogger(logger.WithField("component", "cart-cleanup")))
	go cleanup.Run(ctx)

	engine := checkout.NewEngine(
		deps.Products,
		deps.Addresses,
		deps.Orders,
		deps.Outbox,
		deps.Timeline,
		deps.Tx,
		logger.WithField("component", "checkout"),
	)
	manager := lifecycle.NewManager(
		deps.Orders,
		deps.Outbox,
		deps.Timeline,
		logger.WithField("component", "lifecycle"),
	)
	updater := stock.NewBatchUpdater(deps.Products, logger.WithField("component", "stock")).
		WithOutbox(deps.Outbox)

	// Kafka опционален: без брокеров outbox копится в хранилище, а поток
	// остатков доступен только через HTTP batch.
	kafkaProducer, _ := initKafkaProducer(cfg.KafkaBrokers, logger)

	outboxOptions := []outbox.Option{outbox.WithLogger(logger.WithField("component", "outbox-worker"))}
	if kafkaProducer != nil {
		publisher := kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicOrderEvents)
		outboxWorker := outbox.NewWorker(deps.Outbox, publisher, outboxOptions...)
		go outboxWorker.Run(ctx)
	}

	processor := stock.NewProcessor(updater, logger.WithField("component", "stock-processor"))
	processor.Start(ctx)

	stockConsumer, _ := initStockConsumer(
		cfg.KafkaBrokers,
		cfg.StockGroupID,
		cfg.StockTopic,
		stock.NewUpdateHandler(processor),
		logger,
	)
	if stockConsumer != nil {
		if err := stockConsumer.Start(ctx); err != nil {
			logger.WithError(err).Warn("failed to start stock consumer")
			stockConsumer = nil
		}
	}

	api := httpapi.NewServer(carts, deps.Products, engine, manager, updater, logger.WithField("component", "httpapi"))
	apiSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: api.Engine()}

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("storage", healthcheck.NewSimpleChecker("storage", func() error {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return deps.Ping(pingCtx)
	}))

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	stopBackground := func() {
		if stockConsumer != nil {
			if err := stockConsumer.Stop(); err != nil {
				logger.WithError(err).Warn("failed to stop stock consumer")
			}
		}
		processor.Stop()
		shutdownHTTP(metricsSrv, logger)
		closeKafka(kafkaProducer, logger)
	}

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownHTTP(apiSrv, logger)
		stopBackground()
		return ctx.Err()
	case err := <-errCh:
		stopBackground()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
