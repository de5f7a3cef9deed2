package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lavilla/almacen/internal/domain/models"
)

// statusFor maps a service error to an HTTP status and a client-facing message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, models.ErrAuth):
		return http.StatusUnauthorized, models.ErrAuth.Error()
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusForbidden, models.ErrUnauthorized.Error()
	case errors.Is(err, models.ErrIndexOutOfRange), errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict, "inventory was modified concurrently, reload and retry"
	case errors.Is(err, models.ErrStoreCorrupt):
		return http.StatusInternalServerError, "inventory file is corrupt, restore it from the .bak copy"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func respondError(c *gin.Context, logger *zap.Logger, msg string, err error) {
	status, body := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, zap.Error(err))
	} else {
		logger.Warn(msg, zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": body})
}
