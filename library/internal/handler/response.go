package handler

import (
	"net/http"

	"github.com/Astemirdum/library-management/pkg/validate"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	msgValidationFailed = "Validation failed"
	msgInternal         = "Internal Server Error"
	msgBookNotFound     = "Book not found"
)

type dataResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   *int   `json:"count,omitempty"`
	Data    any    `json:"data"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   any    `json:"error,omitempty"`
}

func ok(c echo.Context, code int, message string, data any) error {
	return c.JSON(code, dataResponse{Success: true, Message: message, Data: data})
}

func okList(c echo.Context, message string, data any, count int) error {
	return c.JSON(http.StatusOK, dataResponse{Success: true, Message: message, Count: &count, Data: data})
}

// ErrorHandler renders every error returned by a handler as the failure envelope.
// Anything that is neither a validation error nor an echo.HTTPError is logged
// and reported as a bare 500.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		resp := errorResponse{Message: msgInternal}

		var (
			ve      *validate.ValidationError
			httpErr *echo.HTTPError
		)
		switch {
		case errors.As(err, &ve):
			code = http.StatusBadRequest
			resp.Message = msgValidationFailed
			resp.Error = ve
		case errors.As(err, &httpErr):
			code = httpErr.Code
			if code >= http.StatusInternalServerError {
				log.Error("request failed", zap.Int("status", code), zap.Error(err))
			}
			switch m := httpErr.Message.(type) {
			case string:
				resp.Message = m
			case error:
				resp.Message = m.Error()
			default:
				resp.Message = http.StatusText(code)
			}
		default:
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, resp)
		}
		if err != nil {
			log.Error("ErrorHandler write", zap.Error(err))
		}
	}
}
