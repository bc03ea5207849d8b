package server

import (
	"net/http"

	"gameassets/pkg/log"

	"github.com/labstack/echo/v4"
)

// getPublicIP proxies the external public IP lookup.
func (srv *Server) getPublicIP(ctx echo.Context) error {
	ip, err := srv.ip.Lookup(ctx.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("Public IP lookup failed")
		return ctx.String(http.StatusInternalServerError, "Failed to look up public IP")
	}
	return ctx.String(http.StatusOK, ip)
}
