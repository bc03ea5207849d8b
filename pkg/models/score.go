package models

// Score bounds accepted on submission.
const (
	MinScore = 0
	MaxScore = 1_000_000
)

// PlayerScore is one submitted score.
type PlayerScore struct {
	PlayerName string `json:"player_name"`
	Score      int    `json:"score"`
}
