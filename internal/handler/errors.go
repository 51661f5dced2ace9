// Package handler содержит HTTP фасад Order Service.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Grupo-MACC/Order/internal/domain"
	"github.com/Grupo-MACC/Order/pkg/logger"
)

// ErrorResponse — стандартный формат ошибки API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HandleServiceError преобразует доменную ошибку в HTTP ответ.
// Используется всеми handlers для единообразной обработки ошибок.
func HandleServiceError(c *gin.Context, err error, method string) {
	if err == nil {
		logger.Error().Str("method", method).Msg("HandleServiceError вызван с nil ошибкой — баг в коде")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Внутренняя ошибка сервера",
		})
		return
	}

	log := logger.FromContext(c.Request.Context())

	var httpStatus int
	var errorCode string

	switch {
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrCancelSagaNotFound):
		httpStatus = http.StatusNotFound
		errorCode = "not_found"
	case errors.Is(err, domain.ErrForbidden):
		httpStatus = http.StatusForbidden
		errorCode = "forbidden"
	case errors.Is(err, domain.ErrCancelNotAllowed):
		httpStatus = http.StatusConflict
		errorCode = "cancel_not_allowed"
	case errors.Is(err, domain.ErrEmptyOrder),
		errors.Is(err, domain.ErrNegativePieces),
		errors.Is(err, domain.ErrPiecesMismatch):
		httpStatus = http.StatusUnprocessableEntity
		errorCode = "invalid_order"
	default:
		httpStatus = http.StatusInternalServerError
		errorCode = "internal_error"
		log.Error().Err(err).Str("method", method).Msg("Внутренняя ошибка")
	}

	c.JSON(httpStatus, ErrorResponse{
		Error:   errorCode,
		Message: err.Error(),
	})
}
