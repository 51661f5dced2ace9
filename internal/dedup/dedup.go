// Package dedup отмечает уже обработанные сообщения шины в Redis.
// Отметки — best-effort фильтр повторных доставок; гарантии
// идемпотентности обеспечивает транзакционная логика в БД.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "order:msg:"

// Store хранит отметки обработанных сообщений.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore создаёт хранилище отметок.
// ttl ограничивает время жизни отметки: шина не хранит сообщения вечно,
// старые message_id можно забывать.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{
		client: client,
		ttl:    ttl,
	}
}

// Seen сообщает, стоит ли уже отметка для messageID.
// Вызывается ДО обработки; саму отметку ставит MarkProcessed после
// успеха — nack-нутое сообщение при повторной доставке не должно
// выглядеть обработанным.
func (s *Store) Seen(ctx context.Context, messageID string) (bool, error) {
	n, err := s.client.Exists(ctx, keyPrefix+messageID).Result()
	if err != nil {
		return false, fmt.Errorf("ошибка проверки отметки сообщения %s: %w", messageID, err)
	}
	return n > 0, nil
}

// MarkProcessed атомарно ставит отметку для messageID.
// Возвращает true, если сообщение видим впервые.
func (s *Store) MarkProcessed(ctx context.Context, messageID string) (bool, error) {
	first, err := s.client.SetNX(ctx, keyPrefix+messageID, 1, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("ошибка отметки сообщения %s: %w", messageID, err)
	}
	return first, nil
}
