package server

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"gameassets/pkg/assets"
	"gameassets/pkg/log"
	"gameassets/pkg/models"

	"github.com/labstack/echo/v4"
)

const (
	msgFileRequired    = "file parameter is required"
	msgInvalidFilename = "Invalid filename"
	msgTooLarge        = "File exceeds maximum upload size"

	// multipartOverhead is the room left for boundaries and part headers
	// on top of the asset size limit.
	multipartOverhead = 64 << 10
)

var errNoFilePart = errors.New("no file part in request")

func (srv *Server) uploadAsset(kind models.AssetKind) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		log.Info().Str("kind", string(kind)).Msg("Asset upload request received")

		req := ctx.Request()
		if limit := srv.assets.MaxSize(); limit > 0 {
			req.Body = http.MaxBytesReader(ctx.Response(), req.Body, limit+multipartOverhead)
		}

		part, filename, err := filePart(req)
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				return ctx.String(http.StatusRequestEntityTooLarge, msgTooLarge)
			}
			log.Debug().Err(err).Msg("File parameter is required")
			return ctx.String(http.StatusBadRequest, msgFileRequired)
		}
		defer func() {
			if err := part.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close upload part")
			}
		}()

		if !validFilename(filename) {
			log.Debug().Str("file_name", filename).Msg("Rejected upload filename")
			return ctx.String(http.StatusBadRequest, msgInvalidFilename)
		}

		id, err := srv.assets.SaveAsset(req.Context(), kind, filename, part.Header.Get(echo.HeaderContentType), part)
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.Is(err, assets.ErrAssetTooLarge) || errors.As(err, &maxBytesErr) {
				log.Warn().Str("file_name", filename).Msg("Upload exceeds size limit")
				return ctx.String(http.StatusRequestEntityTooLarge, msgTooLarge)
			}
			log.Error().Err(err).Str("kind", string(kind)).Str("file_name", filename).Msg("Failed to save asset")
			return ctx.String(http.StatusInternalServerError, fmt.Sprintf("Failed to save %s", kind))
		}

		return ctx.String(http.StatusOK, fmt.Sprintf("%s metadata saved, ID: %s", kind.Label(), id))
	}
}

// filePart advances the multipart body to the part named "file" and returns
// it with the filename exactly as sent, without the base-naming applied by
// multipart.Part.FileName.
func filePart(req *http.Request) (*multipart.Part, string, error) {
	reader, err := req.MultipartReader()
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", errNoFilePart, err)
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, "", errNoFilePart
		}
		if err != nil {
			return nil, "", err
		}

		if part.FormName() != "file" {
			_ = part.Close()
			continue
		}

		_, params, err := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
		if err != nil {
			_ = part.Close()
			return nil, "", fmt.Errorf("%w: %w", errNoFilePart, err)
		}
		return part, params["filename"], nil
	}
}
