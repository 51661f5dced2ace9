// Order Service — оркестратор заказов производственной платформы.
// Предоставляет REST API для создания, просмотра и отмены заказов
// и ведёт саги подтверждения и отмены через RabbitMQ.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Grupo-MACC/Order/internal/auth"
	"github.com/Grupo-MACC/Order/internal/broker"
	"github.com/Grupo-MACC/Order/internal/config"
	"github.com/Grupo-MACC/Order/internal/dedup"
	"github.com/Grupo-MACC/Order/internal/handler"
	"github.com/Grupo-MACC/Order/internal/repository"
	"github.com/Grupo-MACC/Order/internal/saga"
	"github.com/Grupo-MACC/Order/internal/service"
	"github.com/Grupo-MACC/Order/pkg/db"
	"github.com/Grupo-MACC/Order/pkg/healthcheck"
	"github.com/Grupo-MACC/Order/pkg/logger"
	"github.com/Grupo-MACC/Order/pkg/metrics"
	"github.com/Grupo-MACC/Order/pkg/rabbitmq"
	"github.com/Grupo-MACC/Order/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:   cfg.App.LogLevel,
		Pretty:  cfg.App.LogPretty,
		Service: cfg.App.ServiceName,
	})
	log := logger.Logger()

	log.Info().
		Str("env", cfg.App.Env).
		Int("port", cfg.HTTP.Port).
		Msg("Запуск Order Service")

	// Tracing
	shutdownTracer, err := tracing.InitTracer(tracing.Config{
		ServiceName:  cfg.App.ServiceName,
		OTLPEndpoint: cfg.Jaeger.OTLPEndpoint(),
		Enabled:      cfg.Jaeger.Enabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Ошибка инициализации tracing")
	}

	// MySQL
	gdb, err := db.ConnectMySQL(cfg.MySQL, cfg.IsDevelopment())
	if err != nil {
		log.Fatal().Err(err).Msg("Ошибка подключения к MySQL")
	}
	log.Info().Msg("Подключение к MySQL установлено")

	// Redis — best-effort дедупликация сообщений шины
	rdb := db.ConnectRedis(cfg.Redis)
	dedupStore := dedup.NewStore(rdb, cfg.Redis.DedupTTL)

	// RabbitMQ: соединение и топология exchange'ей
	mq, err := rabbitmq.Connect(rabbitmq.Config{
		URL:      cfg.RabbitMQ.URL(),
		Prefetch: cfg.RabbitMQ.Prefetch,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Ошибка подключения к RabbitMQ")
	}
	if err := mq.DeclareExchanges(
		cfg.RabbitMQ.EventsExchange,
		cfg.RabbitMQ.CommandsExchange,
		cfg.RabbitMQ.SagaExchange,
		cfg.RabbitMQ.LogsExchange,
	); err != nil {
		log.Fatal().Err(err).Msg("Ошибка объявления exchange'ей")
	}

	// Publishers: по каналу на exchange
	commandsPub, err := rabbitmq.NewPublisher(mq, cfg.RabbitMQ.CommandsExchange)
	if err != nil {
		log.Fatal().Err(err).Msg("Ошибка создания publisher команд")
	}
	eventsPub, err := rabbitmq.NewPublisher(mq, cfg.RabbitMQ.EventsExchange)
	if err != nil {
		log.Fatal().Err(err).Msg("Ошибка создания publisher событий")
	}
	logsPub, err := rabbitmq.NewPublisher(mq, cfg.RabbitMQ.LogsExchange)
	if err != nil {
		log.Fatal().Err(err).Msg("Ошибка создания publisher аудита")
	}

	orderPub := broker.NewOrderPublisher(commandsPub, eventsPub)
	audit := broker.NewAuditLogger(logsPub, cfg.App.ServiceID)

	// Слои приложения
	orderRepo := repository.NewOrderRepository(gdb)
	cancelRepo := repository.NewCancelSagaRepository(gdb)
	registry := saga.NewRegistry(orderRepo, cancelRepo, orderPub, audit)
	orderService := service.NewOrderService(orderRepo, cancelRepo, registry, orderPub, audit)

	// Auth: ключ из дискового кэша, обновление по auth.running
	keyStore := auth.NewKeyStore(cfg.Auth.KeyPath)
	keyFetcher := auth.NewFetcher(keyStore, cfg.Auth)
	authMW := auth.NewMiddleware(keyStore, cfg.App.AdminUserID)

	// Ingress: consumer'ы всех очередей сервиса
	ingress := broker.NewIngress(mq, cfg.RabbitMQ, registry, orderService, keyFetcher, dedupStore)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := ingress.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("Ingress завершился с ошибкой")
		}
	}()

	// Готовность: все зависимости плюс публичный ключ Auth
	readiness := healthcheck.Composite(
		func(c context.Context) error { return healthcheck.CheckMySQL(c, gdb) },
		func(c context.Context) error { return healthcheck.CheckRedis(c, rdb) },
		healthcheck.CheckRabbitMQ(mq),
		healthcheck.CheckAuthKey(keyStore),
	)

	// HTTP фасад
	router := handler.NewRouter(handler.RouterConfig{
		Orders:         orderService,
		AuthMW:         authMW,
		ReadinessCheck: handler.ReadinessChecker(readiness),
		ServiceName:    cfg.App.ServiceName,
		Debug:          cfg.IsDevelopment(),
	})
	httpServer := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("HTTP сервер запущен")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Ошибка HTTP сервера")
		}
	}()

	// Metrics Server
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(
			cfg.Metrics.Addr(),
			cfg.App.ServiceName,
			metrics.WithReadinessCheck(metrics.ReadinessChecker(readiness)),
		)
		go func() {
			if err := metricsServer.Start(); err != nil {
				log.Error().Err(err).Msg("Ошибка Metrics Server")
			}
		}()
	}

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Получен сигнал завершения, останавливаем сервис...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Ошибка остановки HTTP сервера")
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Ошибка остановки Metrics Server")
		}
	}
	if err := mq.Close(); err != nil {
		log.Error().Err(err).Msg("Ошибка закрытия соединения RabbitMQ")
	}
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("Ошибка закрытия Redis")
	}
	if sqlDB, err := gdb.DB(); err == nil && sqlDB != nil {
		if err := sqlDB.Close(); err != nil {
			log.Error().Err(err).Msg("Ошибка закрытия MySQL")
		}
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Ошибка остановки трейсера")
	}

	log.Info().Msg("Order Service остановлен")
}
