package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Grupo-MACC/Order/internal/auth"
	"github.com/Grupo-MACC/Order/internal/domain"
	"github.com/Grupo-MACC/Order/internal/service"
	"github.com/Grupo-MACC/Order/pkg/logger"
)

// OrderHandler — обработчик заказов.
type OrderHandler struct {
	orders service.OrderService
}

// NewOrderHandler создаёт новый обработчик заказов.
func NewOrderHandler(orders service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// === Request/Response DTOs ===

// CreateOrderRequest — запрос на создание заказа.
// Указатели отличают «поле отсутствует» от нуля: заказ без единой
// детали отклоняется, а 0 деталей одного типа допустим.
type CreateOrderRequest struct {
	PiecesA     *int   `json:"number_of_pieces_a" binding:"required,min=0"`
	PiecesB     *int   `json:"number_of_pieces_b" binding:"required,min=0"`
	Description string `json:"description"`
	Address     string `json:"address"`
}

// OrderResponse — информация о заказе в ответе.
type OrderResponse struct {
	ID                int64  `json:"id"`
	ClientID          int64  `json:"client_id"`
	Description       string `json:"description"`
	Address           string `json:"address,omitempty"`
	PiecesA           int    `json:"number_of_pieces_a"`
	PiecesB           int    `json:"number_of_pieces_b"`
	NumberOfPieces    int    `json:"number_of_pieces"`
	CreationStatus    string `json:"creation_status"`
	FabricationStatus string `json:"fabrication_status"`
	DeliveryStatus    string `json:"delivery_status"`
	CreatedAt         int64  `json:"created_at"`
	UpdatedAt         int64  `json:"updated_at"`
}

// StatusResponse — ответ на запрос сводного статуса.
type StatusResponse struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
}

// CancelOrderResponse — ответ на запрос отмены.
type CancelOrderResponse struct {
	OrderID int64  `json:"order_id"`
	SagaID  string `json:"saga_id"`
	Status  string `json:"status"`
}

// toOrderResponse конвертирует доменную сущность в DTO.
func toOrderResponse(o *domain.Order) OrderResponse {
	return OrderResponse{
		ID:                o.ID,
		ClientID:          o.ClientID,
		Description:       o.Description,
		Address:           o.Address,
		PiecesA:           o.PiecesA,
		PiecesB:           o.PiecesB,
		NumberOfPieces:    o.NumberOfPieces,
		CreationStatus:    string(o.CreationStatus),
		FabricationStatus: string(o.FabricationStatus),
		DeliveryStatus:    string(o.DeliveryStatus),
		CreatedAt:         o.CreatedAt.Unix(),
		UpdatedAt:         o.UpdatedAt.Unix(),
	}
}

// === Handlers ===

// CreateOrder создаёт новый заказ и запускает сагу подтверждения.
// POST /order
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug().Err(err).Msg("Невалидный запрос на создание заказа")
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "invalid_request",
			Message: "Невалидные данные запроса",
		})
		return
	}

	order, err := h.orders.CreateOrder(ctx, auth.UserID(c), *req.PiecesA, *req.PiecesB, req.Description, req.Address)
	if err != nil {
		HandleServiceError(c, err, "CreateOrder")
		return
	}

	c.JSON(http.StatusCreated, toOrderResponse(order))
}

// ListOrders возвращает заказы пользователя; администратору — все.
// GET /order
func (h *OrderHandler) ListOrders(c *gin.Context) {
	ctx := c.Request.Context()

	orders, err := h.orders.ListOrders(ctx, auth.UserID(c), auth.IsAdmin(c))
	if err != nil {
		HandleServiceError(c, err, "ListOrders")
		return
	}

	resp := make([]OrderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}

	c.JSON(http.StatusOK, resp)
}

// GetOrder возвращает заказ по ID.
// GET /order/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(ctx, id, auth.UserID(c), auth.IsAdmin(c))
	if err != nil {
		HandleServiceError(c, err, "GetOrder")
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

// GetOrderStatus возвращает сводный статус заказа.
// GET /order/:id/status
func (h *OrderHandler) GetOrderStatus(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	status, err := h.orders.OrderStatus(ctx, id, auth.UserID(c), auth.IsAdmin(c))
	if err != nil {
		HandleServiceError(c, err, "GetOrderStatus")
		return
	}

	c.JSON(http.StatusOK, StatusResponse{OrderID: id, Status: status})
}

// CancelOrder запускает сагу отмены заказа.
// Ответ 202: отмена принята, её исход определится асинхронно.
// POST /order/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	sagaID, err := h.orders.RequestCancellation(ctx, id, auth.UserID(c), auth.IsAdmin(c))
	if err != nil {
		HandleServiceError(c, err, "CancelOrder")
		return
	}

	c.JSON(http.StatusAccepted, CancelOrderResponse{
		OrderID: id,
		SagaID:  sagaID,
		Status:  string(domain.CancelStateCanceling),
	})
}

// DeleteOrder физически удаляет заказ. Только администратор.
// DELETE /order/:id
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	ctx := c.Request.Context()

	if !auth.IsAdmin(c) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "forbidden",
			Message: "Удаление заказов доступно только администратору",
		})
		return
	}

	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	if err := h.orders.DeleteOrder(ctx, id); err != nil {
		HandleServiceError(c, err, "DeleteOrder")
		return
	}

	c.Status(http.StatusNoContent)
}

// orderIDParam достаёт и валидирует :id из пути.
func orderIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Некорректный ID заказа",
		})
		return 0, false
	}
	return id, true
}
