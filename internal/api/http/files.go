package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/playground/internal/projectfs"
	"github.com/GriffinCanCode/playground/internal/shared/types"
)

// filePath returns the *path parameter without its leading slash
func filePath(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("path"), "/")
}

// ListFiles returns the snapshot, flat or as a tree with ?tree=true
func (h *Handlers) ListFiles(c *gin.Context) {
	s, ok := h.project(c)
	if !ok {
		return
	}
	if c.Query("tree") == "true" {
		c.JSON(http.StatusOK, s.Tree())
		return
	}
	files := s.Files()
	c.JSON(http.StatusOK, gin.H{
		"files":  files,
		"count":  len(files),
		"active": s.Active(),
	})
}

// GetFile serves one file's raw content
func (h *Handlers) GetFile(c *gin.Context) {
	s, ok := h.project(c)
	if !ok {
		return
	}
	f, err := s.File(filePath(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	data := []byte(f.Content)
	c.Header("Cache-Control", "no-store")
	c.Header("Content-Security-Policy", "sandbox")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Data(http.StatusOK, projectfs.ContentType(data), data)
}

// PutFile creates or overwrites one file
func (h *Handlers) PutFile(c *gin.Context) {
	s, ok := h.project(c)
	if !ok {
		return
	}
	var req types.FileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	p := filePath(c)
	if err := projectfs.CheckContent(p, []byte(req.Content)); err != nil {
		h.respondError(c, err)
		return
	}
	f, err := s.Write(p, req.Content)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// DeleteFile removes a file, or a directory and everything under it
func (h *Handlers) DeleteFile(c *gin.Context) {
	s, ok := h.project(c)
	if !ok {
		return
	}
	removed, err := s.Delete(filePath(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"removed": removed,
		"active":  s.Active(),
	})
}

// ApplyChanges applies a batch edit atomically and returns per-file diffs
func (h *Handlers) ApplyChanges(c *gin.Context) {
	s, ok := h.project(c)
	if !ok {
		return
	}
	var cs types.ChangeSet
	if err := c.ShouldBindJSON(&cs); err != nil {
		badRequest(c, "invalid change set: "+err.Error())
		return
	}
	for _, fc := range cs.FileChanges {
		if err := projectfs.CheckContent(fc.Path, []byte(fc.Content)); err != nil {
			h.respondError(c, err)
			return
		}
	}
	diffs, err := s.Apply(cs)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"changes": diffs,
		"active":  s.Active(),
	})
}

// GetActive returns the file open in the editor
func (h *Handlers) GetActive(c *gin.Context) {
	s, ok := h.project(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": s.Active()})
}

type activeRequest struct {
	Path string `json:"path" binding:"required"`
}

// SetActive opens an existing file in the editor
func (h *Handlers) SetActive(c *gin.Context) {
	s, ok := h.project(c)
	if !ok {
		return
	}
	var req activeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	f, err := s.File(req.Path)
	if err != nil {
		h.respondError(c, err)
		return
	}
	s.SetActive(f.Path)
	c.JSON(http.StatusOK, gin.H{"active": f.Path})
}
