package app

import (
	"errors"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"
	"github.com/labstack/echo/v4"
)

const (
	basicChallenge      = `Basic realm="taskapi", charset="UTF-8"`
	unauthorizedMessage = "Unauthorized access"
)

type errorBody struct {
	Error string `json:"error"`
}

// errorHandler renders every error as a JSON object with a single error
// message. Internal failures are logged and their details withheld from the
// client.
func errorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		ctx := c.Request().Context()
		status, msg := toHTTPStatus(err)
		switch {
		case status == http.StatusUnauthorized:
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, basicChallenge)
			msg = unauthorizedMessage
		case status >= http.StatusInternalServerError:
			logger.ErrorContext(ctx, "request failed",
				slog.String("method", c.Request().Method),
				slog.String("uri", c.Request().RequestURI),
				slog.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				slog.Any("error", err),
			)
			msg = http.StatusText(status)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, errorBody{Error: msg})
		}
		if writeErr != nil {
			logger.ErrorContext(ctx, "failed to write error response", slog.Any("error", writeErr))
		}
	}
}

// toHTTPStatus returns the HTTP status and client-facing message for err.
// Echo errors pass through, ConnectRPC errors are mapped by code, and
// anything else is an internal error.
func toHTTPStatus(err error) (int, string) {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		msg, ok := httpErr.Message.(string)
		if !ok {
			msg = http.StatusText(httpErr.Code)
		}
		return httpErr.Code, msg
	}

	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectCodeToHTTPStatus(connectErr.Code()), connectErr.Message()
	}

	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

// connectCodeToHTTPStatus maps ConnectRPC error codes to HTTP status codes.
// AlreadyExists is reported as 422 rather than the protocol's 409.
// See: https://connectrpc.com/docs/protocol/#error-codes
func connectCodeToHTTPStatus(code connect.Code) int {
	switch code {
	case connect.CodeInvalidArgument, connect.CodeFailedPrecondition, connect.CodeOutOfRange:
		return http.StatusBadRequest // 400
	case connect.CodeUnauthenticated:
		return http.StatusUnauthorized // 401
	case connect.CodePermissionDenied:
		return http.StatusForbidden // 403
	case connect.CodeNotFound:
		return http.StatusNotFound // 404
	case connect.CodeCanceled:
		return http.StatusRequestTimeout // 408
	case connect.CodeAborted:
		return http.StatusConflict // 409
	case connect.CodeAlreadyExists:
		return http.StatusUnprocessableEntity // 422
	case connect.CodeResourceExhausted:
		return http.StatusTooManyRequests // 429
	case connect.CodeUnimplemented:
		return http.StatusNotImplemented // 501
	case connect.CodeUnavailable:
		return http.StatusServiceUnavailable // 503
	case connect.CodeDeadlineExceeded:
		return http.StatusGatewayTimeout // 504
	case connect.CodeInternal, connect.CodeDataLoss, connect.CodeUnknown:
		return http.StatusInternalServerError // 500
	default:
		return http.StatusInternalServerError // 500
	}
}
