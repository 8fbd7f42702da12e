package http

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/playground/internal/projectfs"
)

// Export downloads the project as an archive
func (h *Handlers) Export(c *gin.Context) {
	s, ok := h.project(c)
	if !ok {
		return
	}
	format, err := projectfs.ParseFormat(c.Query("format"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := projectfs.WriteArchive(&buf, s.Files(), format); err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s%s"`, s.ID, format.Extension()))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

var manifestTypes = map[projectfs.ManifestFormat]string{
	projectfs.ManifestJSON: "application/json",
	projectfs.ManifestYAML: "application/yaml",
	projectfs.ManifestTOML: "application/toml",
}

// Manifest downloads the project as a single manifest document
func (h *Handlers) Manifest(c *gin.Context) {
	s, ok := h.project(c)
	if !ok {
		return
	}
	format, err := projectfs.ParseManifestFormat(c.Query("format"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	var buf bytes.Buffer
	m := projectfs.NewManifest(s.ID.String(), s.Files())
	if err := projectfs.EncodeManifest(&buf, m, format); err != nil {
		h.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, manifestTypes[format], buf.Bytes())
}
