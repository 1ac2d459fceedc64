package handler

import (
	"net/http"
	"storefront-api/internal/dto"
	"storefront-api/internal/middleware"
	"storefront-api/internal/model"
	"storefront-api/internal/service"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()

	identity, err := middleware.CurrentIdentity(c)
	if err != nil {
		return err
	}

	var req dto.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	order, err := h.orderService.CreateOrder(ctx, identity.UserID, &req)
	if err != nil {
		return err
	}

	return ok(c, http.StatusCreated, "order created", order)
}

func (h *OrderHandler) GetMyOrders(c echo.Context) error {
	ctx := c.Request().Context()

	identity, err := middleware.CurrentIdentity(c)
	if err != nil {
		return err
	}

	var query dto.PageQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &query); err != nil {
		return err
	}

	page, err := h.orderService.ListUserOrders(ctx, identity.UserID, query.Page, query.Limit)
	if err != nil {
		return err
	}

	return ok(c, http.StatusOK, "", page)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()

	identity, err := middleware.CurrentIdentity(c)
	if err != nil {
		return err
	}

	order, err := h.orderService.GetOrderForUser(ctx, c.Param("id"), identity)
	if err != nil {
		return err
	}

	return ok(c, http.StatusOK, "", order)
}

func (h *OrderHandler) CancelOrder(c echo.Context) error {
	ctx := c.Request().Context()

	identity, err := middleware.CurrentIdentity(c)
	if err != nil {
		return err
	}

	var req dto.CancelOrderRequest
	if c.Request().ContentLength != 0 {
		if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
			return err
		}
	}

	order, err := h.orderService.CancelOrder(ctx, c.Param("id"), identity, req.Reason)
	if err != nil {
		return err
	}

	return ok(c, http.StatusOK, "order cancelled", order)
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()

	var query dto.OrderListQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &query); err != nil {
		return err
	}
	if err := c.Validate(&query); err != nil {
		return err
	}

	page, err := h.orderService.ListOrders(ctx, query)
	if err != nil {
		return err
	}

	return ok(c, http.StatusOK, "", page)
}

func (h *OrderHandler) UpdateOrderStatus(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UpdateOrderStatusRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	order, err := h.orderService.UpdateOrderStatus(ctx, c.Param("id"), model.OrderStatus(req.Status))
	if err != nil {
		return err
	}

	return ok(c, http.StatusOK, "order status updated", order)
}

func (h *OrderHandler) Stats(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := h.orderService.Stats(ctx)
	if err != nil {
		return err
	}

	return ok(c, http.StatusOK, "", stats)
}
