package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Grupo-MACC/Order/pkg/logger"
)

// Ключи контекста Gin, под которыми middleware сохраняет личность.
const (
	ctxUserID  = "user_id"
	ctxIsAdmin = "is_admin"
)

// Claims — данные JWT токена Auth Service.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"user_id"` // ID пользователя
}

// Middleware проверяет JWT токены на входе HTTP фасада.
type Middleware struct {
	store       *KeyStore
	adminUserID int64
}

// NewMiddleware создаёт middleware аутентификации.
// adminUserID — пользователь с правами администратора.
func NewMiddleware(store *KeyStore, adminUserID int64) *Middleware {
	return &Middleware{
		store:       store,
		adminUserID: adminUserID,
	}
}

// Handle возвращает Gin handler function для middleware.
// Пока публичный ключ не получен — 503: сервис не может отличить
// валидный токен от подделки.
func (m *Middleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		log := logger.FromContext(ctx)

		key, ok := m.store.Get()
		if !ok {
			log.Warn().Msg("Публичный ключ Auth недоступен, запрос отклонён")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error":   "auth_unavailable",
				"message": "Сервис аутентификации недоступен",
			})
			return
		}

		token := extractBearerToken(c)
		if token == "" {
			log.Debug().Msg("Отсутствует токен авторизации")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Требуется авторизация",
			})
			return
		}

		claims := &Claims{}
		_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return key, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
		if err != nil {
			log.Warn().Err(err).Msg("Ошибка валидации токена")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Невалидный токен",
			})
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxIsAdmin, claims.UserID == m.adminUserID)

		log.Debug().
			Int64("user_id", claims.UserID).
			Msg("Пользователь аутентифицирован")

		c.Next()
	}
}

// UserID возвращает ID аутентифицированного пользователя.
func UserID(c *gin.Context) int64 {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return 0
	}
	id, _ := v.(int64)
	return id
}

// IsAdmin сообщает, обладает ли пользователь правами администратора.
func IsAdmin(c *gin.Context) bool {
	v, ok := c.Get(ctxIsAdmin)
	if !ok {
		return false
	}
	admin, _ := v.(bool)
	return admin
}

// extractBearerToken достаёт токен из заголовка Authorization.
func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
