package broker

import (
	"context"

	"github.com/Grupo-MACC/Order/pkg/logger"
)

// Severity audit записей. Суффикс routing key определяет severity на приёмнике.
const (
	severityInfo  = "info"
	severityDebug = "debug"
	severityError = "error"
)

// AuditRecord — структурированная audit запись для exchange logs.
// Формат совместим с приёмником логов платформы (InfluxDB line protocol).
type AuditRecord struct {
	Measurement string         `json:"measurement"`
	Service     string         `json:"service"`
	Severity    string         `json:"severity"`
	Message     string         `json:"message"`
	Fields      map[string]any `json:"fields,omitempty"`
}

// AuditLogger публикует audit записи в exchange logs с routing key
// order.info / order.debug / order.error.
//
// Публикация best-effort: сбой шины логируется локально и никогда
// не поднимается наверх — audit не должен ронять бизнес-операции.
type AuditLogger struct {
	pub     BusPublisher
	service string
}

// NewAuditLogger создаёт audit логгер для сервиса.
func NewAuditLogger(pub BusPublisher, service string) *AuditLogger {
	return &AuditLogger{pub: pub, service: service}
}

// Info публикует audit запись уровня info.
func (a *AuditLogger) Info(ctx context.Context, message string, fields map[string]any) {
	a.publish(ctx, KeyLogInfo, severityInfo, message, fields)
}

// Debug публикует audit запись уровня debug.
func (a *AuditLogger) Debug(ctx context.Context, message string, fields map[string]any) {
	a.publish(ctx, KeyLogDebug, severityDebug, message, fields)
}

// Error публикует audit запись уровня error.
func (a *AuditLogger) Error(ctx context.Context, message string, fields map[string]any) {
	a.publish(ctx, KeyLogError, severityError, message, fields)
}

func (a *AuditLogger) publish(ctx context.Context, routingKey, severity, message string, fields map[string]any) {
	record := AuditRecord{
		Measurement: "logs",
		Service:     a.service,
		Severity:    severity,
		Message:     message,
		Fields:      fields,
	}

	if err := a.pub.Publish(ctx, routingKey, record); err != nil {
		// Fallback в локальный лог: audit запись не теряется молча.
		logger.FromContext(ctx).Warn().
			Err(err).
			Str("severity", severity).
			Str("audit_message", message).
			Msg("Ошибка публикации audit записи, записано локально")
	}
}
