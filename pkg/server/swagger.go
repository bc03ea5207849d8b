package server

import (
	"embed"
	"html/template"
	"net/http"

	"gameassets/pkg/log"

	"github.com/labstack/echo/v4"
)

//go:embed web/swagger.yml web/swagger-ui.html
var webFS embed.FS

var swaggerUITemplate = template.Must(template.ParseFS(webFS, "web/swagger-ui.html"))

func (srv *Server) serveSwaggerUI(ctx echo.Context) error {
	data := struct {
		Title       string
		SwaggerPath string
	}{
		Title:       "Game Assets API Documentation",
		SwaggerPath: "/swagger.yml",
	}

	ctx.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	ctx.Response().WriteHeader(http.StatusOK)
	if err := swaggerUITemplate.Execute(ctx.Response().Writer, data); err != nil {
		log.Error().Err(err).Msg("Failed to render swagger UI")
		return err
	}
	return nil
}

func (srv *Server) serveSwaggerSpec(ctx echo.Context) error {
	spec, err := webFS.ReadFile("web/swagger.yml")
	if err != nil {
		log.Error().Err(err).Msg("Failed to read swagger document")
		return ctx.String(http.StatusInternalServerError, "Failed to load API document")
	}
	return ctx.Blob(http.StatusOK, "application/yaml", spec)
}
