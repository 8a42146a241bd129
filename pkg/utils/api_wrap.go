package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  "success",
		Code:    http.StatusOK,
		Message: message,
		TraceID: c.GetString("trace_id"),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: c.GetString("trace_id"),
	})
}

// HandleServiceError maps a service-layer error onto the response envelope.
func HandleServiceError(c *gin.Context, log *zap.Logger, err error) {
	var upstream *UpstreamError

	switch {
	case errors.Is(err, ErrInvalidSignature):
		RespondError(c, http.StatusBadRequest, "Invalid signature")
	case errors.Is(err, ErrInvalidPayload):
		RespondError(c, http.StatusBadRequest, "Invalid payload")
	case errors.Is(err, ErrInvalidClientID):
		RespondError(c, http.StatusBadRequest, "Invalid client id")
	case errors.Is(err, ErrInvalidRequest):
		RespondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrUnauthorized):
		RespondError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrForbidden):
		RespondError(c, http.StatusForbidden, err.Error())
	case errors.As(err, &upstream):
		if upstream.Status >= http.StatusInternalServerError {
			log.Error("payment processor error", zap.Error(err), zap.String("trace_id", c.GetString("trace_id")))
		}
		RespondError(c, upstream.Status, "Stripe error: "+upstream.Err.Error())
	case errors.Is(err, ErrConfiguration):
		log.Error("configuration error", zap.Error(err))
		RespondError(c, http.StatusInternalServerError, err.Error())
	case IsRetryable(err):
		log.Warn("store timeout", zap.Error(err), zap.String("trace_id", c.GetString("trace_id")))
		RespondError(c, http.StatusServiceUnavailable, "Store temporarily unavailable, retry later")
	case errors.Is(err, ErrDatabaseError):
		log.Error("database error", zap.Error(err), zap.String("trace_id", c.GetString("trace_id")))
		RespondError(c, http.StatusInternalServerError, "Internal server error: "+err.Error())
	default:
		log.Error("unexpected error", zap.Error(err), zap.String("trace_id", c.GetString("trace_id")))
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	}
}

// AbortWithError writes the error envelope and stops the handler chain.
func AbortWithError(c *gin.Context, err error) {
	HandleServiceError(c, zap.L(), err)
	c.Abort()
}
