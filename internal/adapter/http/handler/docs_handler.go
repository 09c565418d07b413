package handler

import (
	"encoding/json"
	"net/http"

	"rwa-signing-gateway/pkg/apperror"
	"rwa-signing-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"
)

// DocsHandler serves the OpenAPI document and a Swagger UI page for it.
type DocsHandler struct {
	spec []byte
}

func NewDocsHandler(spec []byte) *DocsHandler {
	return &DocsHandler{spec: spec}
}

// Spec returns the document as YAML, or as JSON with ?format=json.
func (h *DocsHandler) Spec(c *gin.Context) {
	if len(h.spec) == 0 {
		response.Error(c, apperror.ErrNotFound("OpenAPI document"))
		return
	}
	if c.Query("format") != "json" {
		c.Data(http.StatusOK, "application/yaml", h.spec)
		return
	}
	var doc map[string]any
	if err := yaml.Unmarshal(h.spec, &doc); err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}
	out, err := json.Marshal(doc)
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}
	c.Data(http.StatusOK, "application/json", out)
}

const swaggerUIPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>RWA Signing Gateway API</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>SwaggerUIBundle({ url: '/swagger/spec?format=json', dom_id: '#swagger-ui' });</script>
</body>
</html>`

func (h *DocsHandler) UI(c *gin.Context) {
	if len(h.spec) == 0 {
		response.Error(c, apperror.ErrNotFound("OpenAPI document"))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(swaggerUIPage))
}
