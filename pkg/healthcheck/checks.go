// Package healthcheck предоставляет функции проверки готовности сервиса.
// Используется для /health фасада и /readyz метрик-сервера.
package healthcheck

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CheckMySQL проверяет доступность MySQL через GORM.
func CheckMySQL(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("mysql: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("mysql ping: %w", err)
	}
	return nil
}

// CheckRedis проверяет доступность Redis.
func CheckRedis(ctx context.Context, rdb *redis.Client) error {
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Closable сообщает, закрыто ли соединение. Реализуется rabbitmq.Client.
type Closable interface {
	IsClosed() bool
}

// CheckRabbitMQ проверяет, живо ли соединение с брокером.
func CheckRabbitMQ(client Closable) func(context.Context) error {
	return func(ctx context.Context) error {
		if client.IsClosed() {
			return errors.New("rabbitmq: соединение закрыто")
		}
		return nil
	}
}

// ReadyChecker сообщает о готовности компонента. Реализуется auth.KeyStore.
type ReadyChecker interface {
	Ready() bool
}

// CheckAuthKey проверяет, получен ли публичный ключ Auth Service.
func CheckAuthKey(store ReadyChecker) func(context.Context) error {
	return func(ctx context.Context) error {
		if !store.Ready() {
			return errors.New("auth: публичный ключ не получен")
		}
		return nil
	}
}

// Composite объединяет несколько проверок в одну.
// Возвращает первую ошибку или nil если все проверки пройдены.
func Composite(checks ...func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		for _, check := range checks {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}
