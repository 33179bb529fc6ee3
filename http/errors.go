package http

import (
	"errors"
	"net/http"

	"cursedticket/booking"
	"cursedticket/idempotency"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

var statusByKind = map[string]int{
	"not_found":           http.StatusNotFound,
	"invalid_quantity":    http.StatusBadRequest,
	"invalid_seats":       http.StatusBadRequest,
	"validation":          http.StatusBadRequest,
	"bad_request":         http.StatusBadRequest,
	"pricing_unavailable": http.StatusUnprocessableEntity,
	"not_on_sale":         http.StatusUnprocessableEntity,
	"seat_conflict":       http.StatusConflict,
	"sold_out":            http.StatusConflict,
	"already_cancelled":   http.StatusConflict,
	"in_progress":         http.StatusConflict,
	"conflict":            http.StatusConflict,
	"forbidden":           http.StatusForbidden,
	"persistence_failure": http.StatusInternalServerError,
	"internal":            http.StatusInternalServerError,
}

func errorKind(err error) string {
	if errors.Is(err, idempotency.ErrInProgress) {
		return "in_progress"
	}
	return booking.Kind(err)
}

func respondError(c echo.Context, err error) error {
	kind := errorKind(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	message := err.Error()
	logger := log.FromContext(c.Request().Context()).WithError(err).WithField("kind", kind)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed")
		if kind == "internal" {
			message = http.StatusText(status)
		}
	} else {
		logger.Info("Request rejected")
	}

	return c.JSON(status, errorResponse{Error: errorDetail{Kind: kind, Message: message}})
}

// httpErrorHandler renders echo's own errors (bind failures, unknown routes)
// in the same envelope as domain errors.
func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) {
		_ = respondError(c, err)
		return
	}

	if httpErr.Code == 0 {
		httpErr.Code = http.StatusInternalServerError
	}

	if httpErr.Internal != nil {
		log.FromContext(c.Request().Context()).WithError(httpErr.Internal).Info("HTTP error")
	}

	kind := "bad_request"
	switch httpErr.Code {
	case http.StatusNotFound:
		kind = "not_found"
	case http.StatusMethodNotAllowed:
		kind = "method_not_allowed"
	default:
		if httpErr.Code >= http.StatusInternalServerError {
			kind = "internal"
		}
	}

	message, ok := httpErr.Message.(string)
	if !ok {
		message = http.StatusText(httpErr.Code)
	}

	_ = c.JSON(httpErr.Code, errorResponse{Error: errorDetail{Kind: kind, Message: message}})
}
