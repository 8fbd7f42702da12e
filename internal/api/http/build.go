package http

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/playground/internal/playground"
	"github.com/GriffinCanCode/playground/internal/preview"
	"github.com/GriffinCanCode/playground/internal/shared/types"
)

// PreviewCSP confines a served preview to an opaque origin that may run
// scripts and show dialogs, as the editor's iframe sandbox does
const PreviewCSP = "sandbox allow-scripts allow-modals"

// build runs one traced build of s
func (h *Handlers) build(c *gin.Context, s *playground.Session) (*types.PreviewDocument, error) {
	span, ctx := h.tracer.StartSpan(c.Request.Context(), "build")
	span.SetTag("project_id", s.ID.String())
	defer func() {
		span.Finish()
		h.tracer.Submit(span)
	}()

	doc, err := s.Build(ctx)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	span.SetTag("build_id", doc.BuildID)
	return doc, nil
}

// Build builds the current snapshot and renders it in the sandbox
func (h *Handlers) Build(c *gin.Context) {
	s, ok := h.project(c)
	if !ok {
		return
	}
	doc, err := h.build(c, s)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"build": doc,
		"logs":  s.Log().List(),
	})
}

// Preview serves the last built document, building first if there is
// none. A compilation error is served as an error page.
func (h *Handlers) Preview(c *gin.Context) {
	s, ok := h.project(c)
	if !ok {
		return
	}

	doc, buildErr := s.Document()
	if doc == nil && buildErr == nil {
		var err error
		doc, err = h.build(c, s)
		var cerr *preview.CompilationError
		switch {
		case errors.As(err, &cerr):
			buildErr = err
		case err != nil:
			h.respondError(c, err)
			return
		}
	}

	c.Header("Content-Security-Policy", PreviewCSP)
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Content-Type-Options", "nosniff")

	if buildErr != nil {
		page, err := errorPage(buildErr)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.Data(http.StatusUnprocessableEntity, "text/html; charset=utf-8", page)
		return
	}

	etag := `"` + doc.Hash + `"`
	c.Header("ETag", etag)
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc.HTML))
}

var errorTemplate = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Compilation error</title>
<style>
body { margin: 0; padding: 16px; background: #1e1e1e; color: #f48771; font-family: Menlo, Consolas, monospace; }
h1 { font-size: 16px; margin: 0 0 12px; }
pre { white-space: pre-wrap; margin: 0; }
.where { color: #cccccc; margin-bottom: 8px; }
</style>
</head>
<body>
<h1>Compilation error</h1>
{{with .Compilation}}<div class="where">{{.Path}}{{if .Line}}:{{.Line}}:{{.Column}}{{end}}</div>
<pre>{{.Message}}</pre>{{else}}<pre>{{.Message}}</pre>{{end}}
</body>
</html>
`))

// errorPage renders the page shown in place of a preview that did not build
func errorPage(err error) ([]byte, error) {
	data := struct {
		Compilation *preview.CompilationError
		Message     string
	}{Message: err.Error()}
	errors.As(err, &data.Compilation)

	var buf bytes.Buffer
	if err := errorTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
