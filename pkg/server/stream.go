package server

import (
	"encoding/json"
	"iter"
	"net/http"

	"gameassets/pkg/log"

	"github.com/labstack/echo/v4"
)

// streamJSON writes seq as a JSON array, flushing after every element.
// The status line is held back until the first element (or the end of an
// empty sequence), so an error before that still produces a 500. An error
// after that aborts the connection, leaving the array unterminated.
func streamJSON[T any](ctx echo.Context, what string, seq iter.Seq2[T, error]) error {
	resp := ctx.Response()
	count := 0

	for item, err := range seq {
		if err == nil {
			var data []byte
			data, err = json.Marshal(item)
			if err == nil {
				if count == 0 {
					resp.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
					resp.WriteHeader(http.StatusOK)
					_, err = resp.Write([]byte{'['})
				} else {
					_, err = resp.Write([]byte{','})
				}
			}
			if err == nil {
				_, err = resp.Write(data)
			}
		}

		if err != nil {
			if count == 0 && !resp.Committed {
				log.Error().Err(err).Str("listing", what).Msg("Failed to start listing")
				return ctx.String(http.StatusInternalServerError, "Failed to list "+what)
			}
			log.Error().Err(err).Str("listing", what).Int("written", count).Msg("Listing aborted mid-stream")
			panic(http.ErrAbortHandler)
		}

		count++
		resp.Flush()
	}

	if count == 0 {
		return ctx.JSONBlob(http.StatusOK, []byte("[]"))
	}

	if _, err := resp.Write([]byte{']'}); err != nil {
		log.Warn().Err(err).Str("listing", what).Msg("Failed to finish listing")
	}
	log.Debug().Str("listing", what).Int("count", count).Msg("Listing streamed")
	return nil
}
