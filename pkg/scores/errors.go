package scores

import "errors"

// ErrMalformedScore is returned when a stored score document lacks a string
// player_name or an integer score.
var ErrMalformedScore = errors.New("malformed score document")
