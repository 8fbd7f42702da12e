package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/playground/internal/playground"
	"github.com/GriffinCanCode/playground/internal/preview"
	"github.com/GriffinCanCode/playground/internal/projectfs"
	"github.com/GriffinCanCode/playground/internal/shared/utils"
	"github.com/GriffinCanCode/playground/internal/transpiler"
	"github.com/GriffinCanCode/playground/internal/vfs"
)

// statusOf maps a domain error to an HTTP status
func statusOf(err error) int {
	var cerr *preview.CompilationError
	switch {
	case errors.As(err, &cerr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, playground.ErrProjectNotFound),
		errors.Is(err, playground.ErrTemplateNotFound),
		errors.Is(err, vfs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, vfs.ErrPathExists),
		errors.Is(err, vfs.ErrLastFile),
		errors.Is(err, playground.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, vfs.ErrInvalidPath),
		errors.Is(err, projectfs.ErrFormat):
		return http.StatusBadRequest
	case errors.Is(err, projectfs.ErrBinary),
		errors.Is(err, projectfs.ErrEncoding):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, utils.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, playground.ErrTooManyProjects):
		return http.StatusTooManyRequests
	case errors.Is(err, transpiler.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
}

// respondError writes the JSON error envelope for err
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := statusOf(err)
	body := gin.H{"error": err.Error()}
	if rid := tracing.RequestID(c); rid != "" {
		body["request_id"] = rid
	}
	var cerr *preview.CompilationError
	if errors.As(err, &cerr) {
		body["compilation"] = cerr
	}

	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", tracing.RequestID(c)),
			zap.Error(err))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

// badRequest rejects a malformed request body or parameter
func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}
