package handler

import (
	"net/http"
	"storefront-api/internal/middleware"
	"storefront-api/internal/service"

	"github.com/labstack/echo/v4"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

func (h *UserHandler) GetMe(c echo.Context) error {
	ctx := c.Request().Context()

	identity, err := middleware.CurrentIdentity(c)
	if err != nil {
		return err
	}

	profile, err := h.userService.GetProfile(ctx, identity)
	if err != nil {
		return err
	}

	return ok(c, http.StatusOK, "", profile)
}
