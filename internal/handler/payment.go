package handler

import (
	"io"
	"log/slog"
	"net/http"
	"storefront-api/internal/dto"
	"storefront-api/internal/middleware"
	"storefront-api/internal/service"

	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	paymentService service.PaymentService
	logger         *slog.Logger
}

func NewPaymentHandler(paymentService service.PaymentService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

func (h *PaymentHandler) CreatePreference(c echo.Context) error {
	ctx := c.Request().Context()

	identity, err := middleware.CurrentIdentity(c)
	if err != nil {
		return err
	}

	pref, err := h.paymentService.CreatePaymentPreference(ctx, c.Param("id"), identity)
	if err != nil {
		return err
	}

	return ok(c, http.StatusOK, "", pref)
}

// MercadoPagoWebhook always acknowledges so the gateway does not retry on our
// internal failures; those are logged instead.
func (h *PaymentHandler) MercadoPagoWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		h.logger.WarnContext(ctx, "read webhook body", "error", err)
	}

	if err := h.paymentService.HandleWebhook(ctx, c.Request().Header, c.QueryParams(), body); err != nil {
		h.logger.ErrorContext(ctx, "handle mercadopago webhook", "error", err)
	}

	return c.JSON(http.StatusOK, dto.Envelope{Success: true})
}
