package server

import (
	"net/http"

	"gameassets/pkg/log"
	"gameassets/pkg/models"

	"github.com/labstack/echo/v4"
)

const msgAssetNotFound = "Asset not found"

func (srv *Server) getAsset(kind models.AssetKind) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		filename := ctx.Param("filename")
		if !validFilename(filename) {
			return ctx.String(http.StatusBadRequest, msgInvalidFilename)
		}

		asset, found, err := srv.assets.GetAssetByFilename(ctx.Request().Context(), kind, filename)
		if err != nil {
			log.Error().Err(err).Str("kind", string(kind)).Str("file_name", filename).Msg("Failed to look up asset")
			return ctx.String(http.StatusInternalServerError, "Failed to look up asset")
		}
		if !found {
			return ctx.String(http.StatusNotFound, msgAssetNotFound)
		}

		return ctx.JSON(http.StatusOK, asset)
	}
}

func (srv *Server) listAssets(kind models.AssetKind) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		return streamJSON(ctx, kind.Collection(), srv.assets.ListAssets(ctx.Request().Context(), kind))
	}
}
