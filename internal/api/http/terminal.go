package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/playground/internal/shared/types"
)

// Execute runs one terminal line against the project
func (h *Handlers) Execute(c *gin.Context) {
	s, ok := h.project(c)
	if !ok {
		return
	}
	var req types.CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	res := s.Execute(req.Command)
	if res == nil {
		c.JSON(http.StatusOK, gin.H{"records": []types.LogRecord{}})
		return
	}

	body := gin.H{
		"verb":    res.Verb,
		"records": res.Records,
		"cleared": res.Cleared,
		"ok":      res.OK(),
		"active":  s.Active(),
	}
	if res.Err != nil {
		body["error"] = res.Err.Error()
	}
	c.JSON(http.StatusOK, body)
}
