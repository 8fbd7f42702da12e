package http

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/shared/utils"
)

// GetLogs returns the project's log records, the last n with ?limit=n
func (h *Handlers) GetLogs(c *gin.Context) {
	s, ok := h.project(c)
	if !ok {
		return
	}
	records := s.Log().List()
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return
		}
		if n < len(records) {
			records = records[len(records)-n:]
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"logs":  records,
		"count": len(records),
	})
}

// ClearLogs empties the project's log
func (h *Handlers) ClearLogs(c *gin.Context) {
	s, ok := h.project(c)
	if !ok {
		return
	}
	s.Log().Clear()
	c.Status(http.StatusNoContent)
}

// RelayConsole accepts one console message posted by a preview running in
// a browser, as beaconed by the console shim
func (h *Handlers) RelayConsole(c *gin.Context) {
	s, ok := h.project(c)
	if !ok {
		return
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, utils.MaxConsoleMessage+1))
	if err != nil {
		badRequest(c, "failed to read message")
		return
	}
	if err := utils.ValidateSize(data, utils.MaxConsoleMessage); err != nil {
		h.respondError(c, err)
		return
	}

	if !s.Receive(data) {
		h.logger.Debug("Console message rejected",
			zap.String("project_id", s.ID.String()),
			zap.Int("bytes", len(data)))
		badRequest(c, "not a console message")
		return
	}
	c.Status(http.StatusAccepted)
}
