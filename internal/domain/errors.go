package domain

import "errors"

// Доменные ошибки Order Service.
// Используются для передачи бизнес-ошибок между слоями приложения.
var (
	// ErrOrderNotFound возвращается, когда заказ не найден в базе данных.
	ErrOrderNotFound = errors.New("заказ не найден")

	// ErrEmptyOrder возвращается при попытке создать заказ без деталей.
	ErrEmptyOrder = errors.New("заказ должен содержать хотя бы одну деталь")

	// ErrNegativePieces возвращается при отрицательном количестве деталей.
	ErrNegativePieces = errors.New("количество деталей не может быть отрицательным")

	// ErrPiecesMismatch возвращается при нарушении инварианта
	// number_of_pieces = pieces_a + pieces_b.
	ErrPiecesMismatch = errors.New("общее число деталей не совпадает с суммой по типам")

	// ErrCancelNotAllowed возвращается, когда заказ нельзя отменить
	// в текущей комбинации статусов (правило допуска отмены).
	ErrCancelNotAllowed = errors.New("заказ нельзя отменить в текущем статусе")

	// ErrCancelSagaNotFound возвращается, когда запись саги отмены отсутствует.
	ErrCancelSagaNotFound = errors.New("сага отмены не найдена")

	// ErrForbidden возвращается при попытке доступа к чужому заказу.
	ErrForbidden = errors.New("доступ к заказу запрещён")
)
