package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/Grupo-MACC/Order/internal/config"
	"github.com/Grupo-MACC/Order/pkg/circuitbreaker"
	"github.com/Grupo-MACC/Order/pkg/logger"
)

// Fetcher забирает публичный ключ Auth Service по HTTP.
// Реализует broker.KeyManager: реагирует на auth.running / auth.not_running.
type Fetcher struct {
	store   *KeyStore
	url     string
	client  *http.Client
	breaker *circuitbreaker.Breaker
}

// NewFetcher создаёт fetcher публичного ключа.
func NewFetcher(store *KeyStore, cfg config.AuthConfig) *Fetcher {
	return &Fetcher{
		store:   store,
		url:     cfg.KeyURL,
		client:  &http.Client{Timeout: cfg.FetchTimeout},
		breaker: circuitbreaker.New("auth-public-key"),
	}
}

// HandleAuthRunning забирает ключ и кладёт его в хранилище.
// Ошибка уходит наверх: сообщение auth.running будет переиздано
// (nack + requeue), повтор добьёт загрузку.
func (f *Fetcher) HandleAuthRunning(ctx context.Context) error {
	pemBytes, err := f.breaker.Execute(func() ([]byte, error) {
		return f.fetch(ctx)
	})
	if err != nil {
		return fmt.Errorf("ошибка получения публичного ключа Auth: %w", err)
	}

	if err := f.store.Set(pemBytes); err != nil {
		return err
	}

	logger.FromContext(ctx).Info().Str("url", f.url).Msg("Публичный ключ Auth обновлён")
	return nil
}

// HandleAuthStopped помечает ключ недействительным.
func (f *Fetcher) HandleAuthStopped(ctx context.Context) {
	f.store.Invalidate()
}

// fetch выполняет HTTP GET за ключом.
func (f *Fetcher) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса к Auth Service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Auth Service вернул статус %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа Auth Service: %w", err)
	}

	return body, nil
}
