package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/common"
	"storefront/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// respondError maps service errors onto the error envelope.
func respondError(c echo.Context, err error) error {
	var stockErr *services.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		return common.SendInsufficientStockError(c, stockErr.Error())
	case errors.Is(err, services.ErrProductNotFound):
		return common.SendNotFoundError(c, "Product")
	case errors.Is(err, services.ErrOrderNotFound):
		return common.SendNotFoundError(c, "Order")
	case errors.Is(err, services.ErrOrderNotEditable), errors.Is(err, services.ErrInvalidStatusTransition):
		return common.SendConflictError(c, err.Error())
	case errors.Is(err, services.ErrInvalidOrder):
		return common.SendClientError(c, err.Error())
	case errors.Is(err, services.ErrImageStorageDisabled):
		return common.SendUnavailableError(c, err.Error())
	}

	log.Error().Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("request failed")
	return common.SendServerError(c, "An unexpected error occurred")
}

// bindAndValidate decodes the JSON body into req and runs struct validation.
// When it returns false the response has already been written.
func bindAndValidate(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, common.SendClientError(c, "Invalid request format")
	}
	if err := c.Validate(req); err != nil {
		if details, ok := common.ValidationDetails(err); ok {
			return false, common.SendValidationErrors(c, details)
		}
		return false, respondError(c, err)
	}
	return true, nil
}

// parseID reads a positive integer path parameter. Anything else is reported as not found.
func parseID(c echo.Context, resource string) (int64, bool, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		return 0, false, common.SendNotFoundError(c, resource)
	}
	return id, true, nil
}

func queryInt(c echo.Context, name string) int {
	v, err := strconv.Atoi(strings.TrimSpace(c.QueryParam(name)))
	if err != nil {
		return 0
	}
	return v
}

// HTTPErrorHandler renders echo's own errors (404 routes, 405, auth failures) in the envelope.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "An unexpected error occurred"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	} else {
		log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
	}

	var resp *common.ErrorResponse
	switch code {
	case http.StatusNotFound:
		resp = common.CreateErrorResponse(common.CodeNotFound, message, nil)
	case http.StatusUnauthorized:
		resp = common.CreateErrorResponse(common.CodeUnauthorized, message, nil)
	case http.StatusInternalServerError:
		resp = common.CreateErrorResponse(common.CodeServer, message, nil)
	default:
		resp = common.CreateErrorResponse(common.CodeClient, message, nil)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, resp)
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to write error response")
	}
}
