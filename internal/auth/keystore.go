// Package auth отвечает за проверку JWT токенов пользователей.
// Публичный ключ Auth Service приходит по HTTP после события
// auth.running и кэшируется в памяти и на диске.
package auth

import (
	"crypto/rsa"
	"fmt"
	"os"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Grupo-MACC/Order/pkg/logger"
)

// KeyStore хранит публичный ключ Auth Service.
// Потокобезопасен: ingress обновляет ключ, HTTP middleware читает.
type KeyStore struct {
	mu   sync.RWMutex
	key  *rsa.PublicKey
	path string
}

// NewKeyStore создаёт хранилище ключа. Если на диске по path лежит
// кэш от прошлого запуска — ключ подхватывается сразу, не дожидаясь
// auth.running.
func NewKeyStore(path string) *KeyStore {
	s := &KeyStore{path: path}

	if pemBytes, err := os.ReadFile(path); err == nil {
		if key, err := jwt.ParseRSAPublicKeyFromPEM(pemBytes); err == nil {
			s.key = key
			logger.Info().Str("path", path).Msg("Публичный ключ Auth загружен из кэша")
		} else {
			logger.Warn().Err(err).Str("path", path).Msg("Кэш публичного ключа повреждён")
		}
	}

	return s
}

// Set парсит PEM, сохраняет ключ в память и обновляет кэш на диске.
// Сбой записи на диск не фатален: ключ в памяти уже действует.
func (s *KeyStore) Set(pemBytes []byte) error {
	key, err := jwt.ParseRSAPublicKeyFromPEM(pemBytes)
	if err != nil {
		return fmt.Errorf("ошибка парсинга публичного ключа: %w", err)
	}

	s.mu.Lock()
	s.key = key
	s.mu.Unlock()

	if s.path != "" {
		if err := os.WriteFile(s.path, pemBytes, 0o600); err != nil {
			logger.Warn().Err(err).Str("path", s.path).Msg("Не удалось записать кэш публичного ключа")
		}
	}

	return nil
}

// Get возвращает текущий ключ. ok == false, пока ключ не получен
// или помечен недействительным.
func (s *KeyStore) Get() (*rsa.PublicKey, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key, s.key != nil
}

// Ready сообщает, готов ли сервис проверять токены.
func (s *KeyStore) Ready() bool {
	_, ok := s.Get()
	return ok
}

// Invalidate помечает ключ недействительным (auth.not_running).
// Кэш на диске сохраняется: после рестарта Auth ключ обычно тот же.
func (s *KeyStore) Invalidate() {
	s.mu.Lock()
	s.key = nil
	s.mu.Unlock()
}
