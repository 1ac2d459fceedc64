package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"storefront-api/internal/apperror"
	"storefront-api/internal/dto"

	"github.com/labstack/echo/v4"
)

func ok(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, dto.Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewHTTPErrorHandler renders every error in the {success:false, message, error} envelope.
func NewHTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, message, detail := describeError(err)
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request().Context(), "request failed",
				"method", c.Request().Method,
				"path", c.Path(),
				"error", err,
			)
		}

		body := dto.Envelope{Success: false, Message: message, Error: detail}
		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			logger.ErrorContext(c.Request().Context(), "write error response", "error", writeErr)
		}
	}
}

func describeError(err error) (int, string, string) {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		detail := string(appErr.Kind)
		if appErr.Kind == apperror.KindDependency {
			return appErr.StatusCode(), "internal server error", detail
		}
		return appErr.StatusCode(), appErr.Message, detail
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		message := http.StatusText(httpErr.Code)
		if httpErr.Message != nil {
			message = fmt.Sprint(httpErr.Message)
		}
		return httpErr.Code, message, http.StatusText(httpErr.Code)
	}

	return http.StatusInternalServerError, "internal server error", string(apperror.KindDependency)
}
