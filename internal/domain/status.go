package domain

import "strings"

// NormalizeFabricationStatus приводит произвольную строку статуса от
// Warehouse к внутреннему FabricationStatus. Сравнение регистронезависимое,
// дефисы и пробелы схлопываются в подчёркивание.
//
// Неизвестный или пустой статус трактуется как InProgress: лучше показать
// «в работе», чем ошибочно отметить заказ выполненным.
func NormalizeFabricationStatus(raw string) FabricationStatus {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")

	switch s {
	case "completed", "complete", "done", "finished", "fabricated":
		return FabricationCompleted
	case "in_progress", "working", "manufacturing", "fabricating", "running":
		return FabricationInProgress
	case "requested", "queued", "pending", "created":
		return FabricationRequested
	case "failed", "error", "ko", "rejected":
		return FabricationFailed
	default:
		return FabricationInProgress
	}
}

// NormalizeDeliveryStatus приводит строку статуса от Delivery
// к внутреннему DeliveryStatus. Те же правила нормализации.
func NormalizeDeliveryStatus(raw string) DeliveryStatus {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")

	switch s {
	case "delivered", "done", "finished":
		return DeliveryDelivered
	case "failed", "error", "ko":
		return DeliveryFailed
	default:
		return DeliveryReady
	}
}
