package logger

import (
	"context"

	"github.com/rs/zerolog"
)

// Приватный тип ключей контекста — защита от коллизий с другими пакетами.
type ctxKey string

const (
	// traceIDKey — ключ trace_id (сквозной идентификатор запроса).
	traceIDKey ctxKey = "trace_id"

	// correlationIDKey — ключ correlation_id. Связывает все операции
	// одной бизнес-транзакции (обычно это order_id или saga_id).
	correlationIDKey ctxKey = "correlation_id"

	// loggerKey — ключ для передачи преднастроенного логгера через context.
	loggerKey ctxKey = "logger"
)

// WithTraceID добавляет trace_id в контекст.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceIDFromContext извлекает trace_id из контекста.
// Возвращает пустую строку, если trace_id не установлен.
func TraceIDFromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(traceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// WithCorrelationID добавляет correlation_id в контекст.
// Пример:
//
//	ctx = logger.WithCorrelationID(ctx, fmt.Sprintf("order-%d", orderID))
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey, correlationID)
}

// CorrelationIDFromContext извлекает correlation_id из контекста.
func CorrelationIDFromContext(ctx context.Context) string {
	if correlationID, ok := ctx.Value(correlationIDKey).(string); ok {
		return correlationID
	}
	return ""
}

// WithLogger добавляет логгер в контекст.
func WithLogger(ctx context.Context, l zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext извлекает логгер из контекста и добавляет к нему
// trace_id и correlation_id, если они присутствуют.
// Если логгер в контекст не клали — возвращает глобальный.
//
// Возвращается указатель: методы уровня zerolog объявлены на
// *Logger, поэтому результат можно использовать прямо в цепочке:
//
//	logger.FromContext(ctx).Info().Int64("order_id", id).Msg("Начало обработки")
func FromContext(ctx context.Context) *zerolog.Logger {
	l := log
	if ctxLogger, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		l = ctxLogger
	}

	if traceID := TraceIDFromContext(ctx); traceID != "" {
		l = l.With().Str("trace_id", traceID).Logger()
	}
	if correlationID := CorrelationIDFromContext(ctx); correlationID != "" {
		l = l.With().Str("correlation_id", correlationID).Logger()
	}

	return &l
}

// Ctx — синоним FromContext, совместимый с сигнатурой zerolog.Ctx().
func Ctx(ctx context.Context) *zerolog.Logger {
	return FromContext(ctx)
}

// NewContextWithIDs добавляет оба идентификатора за один вызов.
// Пустые значения пропускаются.
func NewContextWithIDs(ctx context.Context, traceID, correlationID string) context.Context {
	if traceID != "" {
		ctx = WithTraceID(ctx, traceID)
	}
	if correlationID != "" {
		ctx = WithCorrelationID(ctx, correlationID)
	}
	return ctx
}
