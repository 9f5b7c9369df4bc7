package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"storefront-service/internal/service"
)

const headerIdempotencyKey = "Idempotency-Key"

type OrderHandler struct {
	orderService *service.OrderService
}

func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// Action runs one of the list, create or cancel order actions for the caller.
func (h *OrderHandler) Action(c echo.Context) error {
	action, err := decodeOrderAction(c)
	if err != nil {
		return respondError(c, err)
	}

	ctx := c.Request().Context()
	owner := principal(c).ID

	switch a := action.(type) {
	case listOrders:
		orders, err := h.orderService.ListOrders(ctx, owner)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, orders)

	case createOrder:
		order, err := h.orderService.CreateOrder(ctx, owner, service.CreateOrderRequest{
			Items:          a.Items,
			DiscountCode:   a.DiscountCode,
			IdempotencyKey: c.Request().Header.Get(headerIdempotencyKey),
		})
		recordOrderOutcome("create", err)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusCreated, order)

	case cancelOrder:
		order, err := h.orderService.CancelOrder(ctx, owner, a.OrderID)
		recordOrderOutcome("cancel", err)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, order)
	}
	return badRequest(c, "unsupported order action")
}

func (h *OrderHandler) ListAllOrders(c echo.Context) error {
	orders, err := h.orderService.ListAllOrders(c.Request().Context(), principal(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOrderPrice(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return badRequest(c, "Invalid ID")
	}

	total, err := h.orderService.GetOrderPrice(c.Request().Context(), principal(c).ID, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"order_id": id, "total_price": total})
}
