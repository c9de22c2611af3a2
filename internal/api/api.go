package api

import (
	"errors"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"storefront-service/internal/apperr"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "api").Logger()

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindPayment:
		return http.StatusPaymentRequired
	case apperr.KindExternal:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// errorJSON answers err with {"error": ...} and, for validation failures,
// the offending field.
func errorJSON(c echo.Context, err error) error {
	return errorJSONWith(c, err, nil)
}

// errorJSONWith adds extra fields to the error body.
func errorJSONWith(c echo.Context, err error, extra map[string]string) error {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		logger.Error().Err(err).Msgf("Unhandled error on %s %s", c.Request().Method, c.Path())
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	body := map[string]string{"error": appErr.Message}
	if appErr.Field != "" {
		body["field"] = appErr.Field
	}
	for k, v := range extra {
		body[k] = v
	}
	return c.JSON(statusFor(appErr.Kind), body)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
}
