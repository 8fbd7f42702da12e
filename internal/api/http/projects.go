package http

import (
	"errors"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/playground"
	"github.com/GriffinCanCode/playground/internal/projectfs"
	"github.com/GriffinCanCode/playground/internal/shared/types"
	"github.com/GriffinCanCode/playground/internal/shared/utils"
	"github.com/GriffinCanCode/playground/internal/vfs"
)

// projectView is the full description of one project
type projectView struct {
	playground.Info
	Tree *vfs.Node `json:"tree"`
}

func view(s *playground.Session) projectView {
	return projectView{Info: s.Info(), Tree: s.Tree()}
}

// ListProjects lists every live project
func (h *Handlers) ListProjects(c *gin.Context) {
	projects := h.projects.List()
	c.JSON(http.StatusOK, gin.H{
		"projects": projects,
		"count":    len(projects),
	})
}

// ListTemplates lists the templates CreateProject accepts
func (h *Handlers) ListTemplates(c *gin.Context) {
	names, err := h.projects.Templates()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": names})
}

// CreateProject opens a project from files, a template, or the starter
func (h *Handlers) CreateProject(c *gin.Context) {
	var req types.CreateProjectRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body: "+err.Error())
			return
		}
	}

	s, err := h.projects.Create(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view(s))
}

// ImportProject opens a project from an uploaded archive or manifest. The
// format comes from the format query parameter, else the uploaded file
// name.
func (h *Handlers) ImportProject(c *gin.Context) {
	data, name, err := readUpload(c)
	if err != nil {
		if errors.Is(err, utils.ErrTooLarge) {
			h.respondError(c, err)
		} else {
			badRequest(c, "invalid upload: "+err.Error())
		}
		return
	}

	format := c.Query("format")
	if format == "" {
		format = name
	}

	var files []types.ProjectFile
	if mf, err := projectfs.ParseManifestFormat(format); err == nil && format != "" {
		m, err := projectfs.DecodeManifest(data, mf)
		if err != nil {
			h.respondError(c, err)
			return
		}
		files = m.Files
	} else {
		af, err := projectfs.ParseFormat(format)
		if err != nil {
			h.respondError(c, err)
			return
		}
		if files, err = projectfs.ReadArchive(data, af); err != nil {
			h.respondError(c, err)
			return
		}
	}
	if len(files) == 0 {
		badRequest(c, "upload contains no files")
		return
	}

	s, err := h.projects.Create(c.Request.Context(), types.CreateProjectRequest{Files: files})
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.logger.Info("Project imported",
		zap.String("project_id", s.ID.String()),
		zap.String("format", format),
		zap.Int("files", len(files)))
	c.JSON(http.StatusCreated, view(s))
}

// readUpload reads a multipart "file" field, or the raw body
func readUpload(c *gin.Context) ([]byte, string, error) {
	limit := int64(utils.MaxProjectSize) + 1
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, "", err
		}
		f, err := fh.Open()
		if err != nil {
			return nil, "", err
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, limit))
		if err != nil {
			return nil, "", err
		}
		return data, path.Base(fh.Filename), utils.ValidateSize(data, utils.MaxProjectSize)
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, limit))
	if err != nil {
		return nil, "", err
	}
	return data, "", utils.ValidateSize(data, utils.MaxProjectSize)
}

// GetProject describes one project
func (h *Handlers) GetProject(c *gin.Context) {
	s, ok := h.project(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, view(s))
}

// DeleteProject closes a project
func (h *Handlers) DeleteProject(c *gin.Context) {
	if err := h.projects.Delete(c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
