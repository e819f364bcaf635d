// Package rest adapts the business services to HTTP. Every endpoint answers
// with the same envelope and maps domain error kinds onto status codes in one
// place.
package rest

import (
	"net/http"
	"strconv"

	"techshop/domain"
	"techshop/pkg/logger"
	"techshop/pkg/response"

	"github.com/labstack/echo/v4"
)

type ResponseError struct {
	Message string `json:"message"`
}

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalidInput, domain.KindInsufficientStock, domain.KindGatewayRejected:
		return http.StatusBadRequest
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the envelope for err. Expected failures surface their message;
// anything unclassified is logged and masked.
func fail(c echo.Context, err error) error {
	kind := domain.KindOf(err)
	status := statusFor(kind)

	if status == http.StatusInternalServerError {
		logger.Error("request failed", err)
		return c.JSON(status, response.Error(status, "internal server error"))
	}

	return c.JSON(status, response.Error(status, err.Error()))
}

func ok(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, response.Success(status, message, data))
}

func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, domain.NewError(domain.KindInvalidInput, "invalid "+name)
	}
	return uint(id), nil
}

func queryInt(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func pagination(c echo.Context) (page, pageSize int) {
	page = queryInt(c, "page", 1)
	pageSize = queryInt(c, "page_size", 20)
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

// accountID reads the authenticated account set by the auth middleware.
func accountID(c echo.Context) (uint, error) {
	raw, ok := c.Get("user_id").(string)
	if !ok {
		return 0, domain.NewError(domain.KindUnauthorized, "missing authentication")
	}

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, domain.NewError(domain.KindUnauthorized, "invalid authentication")
	}

	return uint(id), nil
}

type pagedData struct {
	Items    any   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

func paged(items any, total int64, page, pageSize int) pagedData {
	return pagedData{Items: items, Total: total, Page: page, PageSize: pageSize}
}
