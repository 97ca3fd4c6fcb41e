package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger serves the OpenAPI description of the application routes.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(r *gin.Engine) {
	r.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})
	r.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>appcatalog - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "appcatalog", "version": "v0.1.0" },
  "paths": {
    "/api/v1/apps": {
      "get": { "summary": "List installed applications", "parameters": [{"name":"fields","in":"query","schema":{"type":"string"}}], "responses": { "200": { "description": "applications" } } },
      "post": {
        "summary": "Install an application and provision its bot",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["name"],"properties":{"name":{"type":"string"},"displayName":{"type":"string"},"description":{"type":"string"},"owner":{"type":"object"},"appConfiguration":{"type":"object"},"appSchedule":{"type":"object","properties":{"scheduleType":{"type":"string","enum":["Hourly","Daily","Weekly","Monthly","Custom"]},"cronExpression":{"type":"string"}}}}}}}},
        "responses": { "201": { "description": "installed" }, "400": { "description": "invalid request" }, "409": { "description": "name taken" } }
      }
    },
    "/api/v1/apps/{id}": {
      "get": { "summary": "Get an application", "responses": { "200": { "description": "application" }, "404": { "description": "not found" } } },
      "patch": { "summary": "Change configuration, schedule or owner", "responses": { "200": { "description": "updated" }, "404": { "description": "not found" } } },
      "delete": { "summary": "Uninstall an application", "parameters": [{"name":"hardDelete","in":"query","schema":{"type":"boolean"}}], "responses": { "200": { "description": "deleted" }, "500": { "description": "scheduler failure" } } }
    },
    "/api/v1/apps/name/{name}": {
      "get": { "summary": "Get an application by name", "responses": { "200": { "description": "application" }, "404": { "description": "not found" } } }
    },
    "/api/v1/apps/{id}/runs": {
      "get": { "summary": "Page through run history, newest first", "parameters": [{"name":"limit","in":"query","schema":{"type":"integer"}},{"name":"offset","in":"query","schema":{"type":"integer"}}], "responses": { "200": { "description": "runs and total" }, "400": { "description": "bad paging" } } }
    },
    "/api/v1/apps/{id}/runs/latest": {
      "get": { "summary": "Most recent run", "responses": { "200": { "description": "run record" }, "404": { "description": "no runs" } } }
    },
    "/api/v1/apps/{id}/trigger": {
      "post": { "summary": "Run an application now", "responses": { "200": { "description": "run record" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
