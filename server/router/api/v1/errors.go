package v1

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	aierrors "github.com/hrygo/orbita/internal/errors"
	"github.com/hrygo/orbita/plugin/ai/manager"
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// toAIError classifies err for the API boundary.
func toAIError(err error) *aierrors.AIError {
	var aiErr *aierrors.AIError
	if stderrors.As(err, &aiErr) {
		return aiErr
	}
	switch {
	case stderrors.Is(err, manager.ErrMissingThreadID), stderrors.Is(err, manager.ErrMissingUserID):
		return aierrors.InvalidArgument(err.Error())
	case stderrors.Is(err, context.DeadlineExceeded):
		return aierrors.Timeout("request timed out")
	case stderrors.Is(err, context.Canceled):
		return aierrors.ContextCanceled(err)
	default:
		return aierrors.Wrap(err, aierrors.ErrCodeServiceUnavailable, "internal error")
	}
}

// httpStatus maps an error code to an HTTP status.
func httpStatus(code aierrors.ErrorCode) int {
	switch code {
	case aierrors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case aierrors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case aierrors.ErrCodeInvalidArgument:
		return http.StatusBadRequest
	case aierrors.ErrCodeNotFound, aierrors.ErrCodeHandlerNotFound:
		return http.StatusNotFound
	case aierrors.ErrCodeServiceUnavailable, aierrors.ErrCodeLLMUnavailable, aierrors.ErrCodeMemoryUnavailable:
		return http.StatusServiceUnavailable
	case aierrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case aierrors.ErrCodeContextCanceled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c echo.Context, err error) error {
	aiErr := toAIError(err)
	status := httpStatus(aiErr.Code)
	if status >= http.StatusInternalServerError {
		slog.Error("API request failed",
			"path", c.Path(),
			"code", aiErr.Code,
			"error", err)
	}
	return c.JSON(status, errorResponse{Code: string(aiErr.Code), Message: aiErr.Message})
}
