// Package config предоставляет загрузку конфигурации Order Service
// из переменных окружения.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config содержит полную конфигурацию сервиса.
type Config struct {
	App      AppConfig
	HTTP     HTTPConfig
	MySQL    MySQLConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Auth     AuthConfig
	Metrics  MetricsConfig
	Jaeger   JaegerConfig
}

// AppConfig содержит общие настройки приложения.
type AppConfig struct {
	ServiceID   string `env:"SERVICE_ID" envDefault:"order-1"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"order"`
	Env         string `env:"APP_ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty   bool   `env:"LOG_PRETTY" envDefault:"false"`

	// AdminUserID — пользователь с правами администратора:
	// видит все заказы и может удалять их физически.
	AdminUserID int64 `env:"ADMIN_USER_ID" envDefault:"1"`
}

// HTTPConfig содержит настройки HTTP фасада.
type HTTPConfig struct {
	Port         int           `env:"SERVICE_PORT" envDefault:"8000"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
}

// Addr возвращает адрес для HTTP сервера.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// MySQLConfig содержит настройки подключения к MySQL.
type MySQLConfig struct {
	Host            string        `env:"MYSQL_HOST" envDefault:"localhost"`
	Port            int           `env:"MYSQL_PORT" envDefault:"3306"`
	User            string        `env:"MYSQL_USER" envDefault:"root"`
	Password        string        `env:"MYSQL_PASSWORD" envDefault:"root"`
	Database        string        `env:"MYSQL_DATABASE" envDefault:"orders"`
	MaxOpenConns    int           `env:"MYSQL_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"MYSQL_MAX_IDLE_CONNS" envDefault:"10"`
	ConnMaxLifetime time.Duration `env:"MYSQL_CONN_MAX_LIFETIME" envDefault:"5m"`
}

// DSN возвращает строку подключения к MySQL.
func (c MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// RedisConfig содержит настройки подключения к Redis.
// Redis используется для отметок уже обработанных сообщений шины.
type RedisConfig struct {
	Host     string        `env:"REDIS_HOST" envDefault:"localhost"`
	Port     int           `env:"REDIS_PORT" envDefault:"6379"`
	Password string        `env:"REDIS_PASSWORD" envDefault:""`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	DedupTTL time.Duration `env:"REDIS_DEDUP_TTL" envDefault:"24h"`
}

// Addr возвращает адрес Redis сервера.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RabbitMQConfig содержит настройки подключения к RabbitMQ
// и имена topic exchange'ей, через которые общаются сервисы.
type RabbitMQConfig struct {
	Host     string `env:"RABBITMQ_HOST" envDefault:"localhost"`
	Port     int    `env:"RABBITMQ_PORT" envDefault:"5672"`
	User     string `env:"RABBITMQ_USER" envDefault:"guest"`
	Password string `env:"RABBITMQ_PASSWORD" envDefault:"guest"`
	VHost    string `env:"RABBITMQ_VHOST" envDefault:"/"`

	EventsExchange   string `env:"RABBITMQ_EVENTS_EXCHANGE" envDefault:"events"`
	CommandsExchange string `env:"RABBITMQ_COMMANDS_EXCHANGE" envDefault:"commands"`
	SagaExchange     string `env:"RABBITMQ_SAGA_EXCHANGE" envDefault:"saga"`
	LogsExchange     string `env:"RABBITMQ_LOGS_EXCHANGE" envDefault:"logs"`

	// WarehouseEventsBinding — шаблон подписки на события Warehouse
	// о ходе производства.
	WarehouseEventsBinding string `env:"WAREHOUSE_EVENTS_BINDING" envDefault:"warehouse.#"`

	// Prefetch ограничивает число неподтверждённых сообщений на consumer.
	Prefetch int `env:"RABBITMQ_PREFETCH" envDefault:"10"`
}

// URL возвращает AMQP URI подключения.
func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d%s", c.User, c.Password, c.Host, c.Port, c.VHost)
}

// AuthConfig содержит настройки интеграции с Auth Service.
// Публичный ключ забирается по HTTP, когда Auth сообщает о готовности
// событием auth.running, и кэшируется на диске.
type AuthConfig struct {
	// KeyURL — адрес endpoint'а публичного ключа Auth Service.
	KeyURL string `env:"AUTH_PUBLIC_KEY_URL" envDefault:"http://localhost:8001/auth/public-key"`

	// KeyPath — путь кэша публичного ключа на диске.
	// При рестарте ключ читается отсюда, не дожидаясь auth.running.
	KeyPath string `env:"AUTH_PUBLIC_KEY_PATH" envDefault:"/tmp/order_auth_public.pem"`

	// FetchTimeout — таймаут HTTP запроса за ключом.
	FetchTimeout time.Duration `env:"AUTH_FETCH_TIMEOUT" envDefault:"5s"`
}

// MetricsConfig содержит настройки Prometheus метрик.
type MetricsConfig struct {
	Enabled bool `env:"METRICS_ENABLED" envDefault:"true"`
	Port    int  `env:"METRICS_PORT" envDefault:"9090"`
}

// Addr возвращает адрес Metrics HTTP сервера.
func (c MetricsConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// JaegerConfig содержит настройки трассировки.
type JaegerConfig struct {
	Enabled  bool   `env:"JAEGER_ENABLED" envDefault:"true"`
	Host     string `env:"JAEGER_HOST" envDefault:"localhost"`
	OTLPPort int    `env:"JAEGER_OTLP_PORT" envDefault:"4317"`
}

// OTLPEndpoint возвращает OTLP gRPC endpoint.
func (c JaegerConfig) OTLPEndpoint() string {
	return fmt.Sprintf("%s:%d", c.Host, c.OTLPPort)
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подхватывает .env файл, если он существует.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга конфигурации: %w", err)
	}

	return cfg, nil
}

// IsDevelopment возвращает true в development режиме.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}
