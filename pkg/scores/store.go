// Package scores stores player score submissions.
package scores

import (
	"context"
	"fmt"
	"iter"

	"gameassets/pkg/docstore"
	"gameassets/pkg/log"
	"gameassets/pkg/models"
)

const (
	fieldPlayerName = "player_name"
	fieldScore      = "score"
)

// Store reads and writes score documents.
type Store struct {
	coll docstore.Collection
}

// NewStore returns a Store on the scores collection of client.
func NewStore(client docstore.Client) *Store {
	return &Store{coll: client.Collection(docstore.CollectionScores)}
}

// AddScore inserts a score as given; callers validate beforehand.
func (s *Store) AddScore(ctx context.Context, playerName string, score int) (string, error) {
	id, err := s.coll.Insert(ctx, docstore.Document{
		fieldPlayerName: playerName,
		fieldScore:      score,
	})
	if err != nil {
		return "", err
	}

	log.Info().Str("player_name", playerName).Int("score", score).Str("id", id).Msg("Score recorded")
	return id, nil
}

// ListScores lazily lists every score in backend order.
func (s *Store) ListScores(ctx context.Context) iter.Seq2[models.PlayerScore, error] {
	return docstore.All(ctx, s.coll, scoreFromDocument)
}

// scoreFromDocument projects a stored document without any coercion.
func scoreFromDocument(doc docstore.Document) (models.PlayerScore, error) {
	name, ok := doc[fieldPlayerName].(string)
	if !ok {
		return models.PlayerScore{}, fmt.Errorf("%w: player_name is %T", ErrMalformedScore, doc[fieldPlayerName])
	}

	score, err := doc.Integer(fieldScore)
	if err != nil {
		return models.PlayerScore{}, fmt.Errorf("%w: %w", ErrMalformedScore, err)
	}

	return models.PlayerScore{PlayerName: name, Score: score}, nil
}
