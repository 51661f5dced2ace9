package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Grupo-MACC/Order/internal/auth"
	"github.com/Grupo-MACC/Order/internal/service"
	"github.com/Grupo-MACC/Order/pkg/metrics"
)

// ReadinessChecker — функция проверки готовности сервиса.
type ReadinessChecker func(ctx context.Context) error

// RouterConfig — параметры для создания роутера.
type RouterConfig struct {
	Orders         service.OrderService
	AuthMW         *auth.Middleware
	ReadinessCheck ReadinessChecker // опциональная проверка готовности для /health
	ServiceName    string
	Debug          bool // Режим отладки Gin
}

// NewRouter создаёт и настраивает HTTP роутер.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	// OpenTelemetry tracing — создаёт spans для Jaeger
	engine.Use(otelgin.Middleware(cfg.ServiceName))

	// Prometheus метрики — requests_total, request_duration_seconds
	engine.Use(metrics.GinMetricsMiddleware())

	// Health endpoint (без auth): 503, пока сервис не готов
	// принимать запросы (нет публичного ключа Auth, нет БД).
	engine.GET("/health", healthCheck(cfg.ReadinessCheck))

	orderHandler := NewOrderHandler(cfg.Orders)

	orders := engine.Group("/order")
	if cfg.AuthMW != nil {
		orders.Use(cfg.AuthMW.Handle())
	}
	{
		orders.POST("", orderHandler.CreateOrder)
		orders.GET("", orderHandler.ListOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.GET("/:id/status", orderHandler.GetOrderStatus)
		orders.POST("/:id/cancel", orderHandler.CancelOrder)
		orders.DELETE("/:id", orderHandler.DeleteOrder)
	}

	return engine
}

// healthCheck возвращает handler проверки здоровья сервиса.
func healthCheck(check ReadinessChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			if err := check(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "unavailable",
					"error":  err.Error(),
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
