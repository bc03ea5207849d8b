package server

import (
	"errors"
	"fmt"
	"net/http"

	"gameassets/pkg/log"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

const (
	msgScoreOutOfRange = "Score out of valid range"
	msgInvalidName     = "Invalid player name"
	msgInvalidBody     = "Invalid request body"
)

// scoreRequest is the body of POST /player_score. A missing score reads as 0.
type scoreRequest struct {
	Score      int    `json:"score" validate:"min=0,max=1000000"`
	PlayerName string `json:"player_name" validate:"notblank"`
}

func (srv *Server) submitScore(ctx echo.Context) error {
	var req scoreRequest
	if err := ctx.Bind(&req); err != nil {
		log.Debug().Err(err).Msg("Malformed score submission")
		return ctx.String(http.StatusBadRequest, msgInvalidBody)
	}

	if err := ctx.Validate(&req); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			log.Error().Err(err).Msg("Score validation failed")
			return ctx.String(http.StatusInternalServerError, "Failed to record score")
		}
		return ctx.String(http.StatusBadRequest, scoreValidationMessage(validationErrs))
	}

	id, err := srv.scores.AddScore(ctx.Request().Context(), req.PlayerName, req.Score)
	if err != nil {
		log.Error().Err(err).Str("player_name", req.PlayerName).Msg("Failed to record score")
		return ctx.String(http.StatusInternalServerError, "Failed to record score")
	}

	return ctx.String(http.StatusOK, fmt.Sprintf("Score recorded, ID: %s", id))
}

// scoreValidationMessage reports the score range before the player name.
func scoreValidationMessage(errs validator.ValidationErrors) string {
	for _, fieldErr := range errs {
		if fieldErr.Field() == "score" {
			return msgScoreOutOfRange
		}
	}
	return msgInvalidName
}

func (srv *Server) listScores(ctx echo.Context) error {
	return streamJSON(ctx, "scores", srv.scores.ListScores(ctx.Request().Context()))
}
