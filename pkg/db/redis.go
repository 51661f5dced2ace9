package db

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Grupo-MACC/Order/internal/config"
	"github.com/Grupo-MACC/Order/pkg/logger"
)

// ConnectRedis создаёт клиент Redis для отметок обработанных сообщений.
// Redis — best-effort зависимость: недоступность не блокирует запуск,
// дедупликация просто пропускается до восстановления соединения.
func ConnectRedis(cfg config.RedisConfig) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().
			Err(err).
			Str("addr", cfg.Addr()).
			Msg("Redis недоступен при старте, дедупликация будет пропускаться")
	} else {
		logger.Info().Str("addr", cfg.Addr()).Msg("Подключение к Redis установлено")
	}

	return client
}
