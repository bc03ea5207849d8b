package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"

	"gameassets/pkg/docstore"
)

// ModelsTestSuite tests the asset and score models.
type ModelsTestSuite struct {
	suite.Suite
}

// TestAssetKinds tests collection and label mapping.
func (s *ModelsTestSuite) TestAssetKinds() {
	s.Equal(docstore.CollectionSprites, KindSprite.Collection())
	s.Equal(docstore.CollectionAudio, KindAudio.Collection())
	s.Equal("Sprite", KindSprite.Label())
	s.Equal("Audio", KindAudio.Label())
	s.True(KindSprite.Valid())
	s.True(KindAudio.Valid())

	unknown := AssetKind("video")
	s.False(unknown.Valid())
	s.Empty(unknown.Collection())
	s.Equal("video", unknown.Label())
}

// TestDecode tests payload decoding.
func (s *ModelsTestSuite) TestDecode() {
	data, err := Asset{FileName: "a.png", Content: "AAECAw=="}.Decode()
	s.Require().NoError(err)
	s.Equal([]byte{0, 1, 2, 3}, data)

	data, err = Asset{}.Decode()
	s.Require().NoError(err)
	s.Empty(data)

	_, err = Asset{FileName: "broken.png", Content: "not base64!"}.Decode()
	s.ErrorContains(err, "broken.png")
}

// TestJSONShape tests the wire names of the models.
func (s *ModelsTestSuite) TestJSONShape() {
	asset, err := json.Marshal(Asset{FileName: "a.png", ContentType: "image/png", Size: 3, Content: "YWJj"})
	s.Require().NoError(err)
	s.JSONEq(`{"file_name":"a.png","content_type":"image/png","size":3,"content":"YWJj"}`, string(asset))

	score, err := json.Marshal(PlayerScore{PlayerName: "Alice", Score: 500})
	s.Require().NoError(err)
	s.JSONEq(`{"player_name":"Alice","score":500}`, string(score))
}

func TestModelsSuite(t *testing.T) {
	suite.Run(t, new(ModelsTestSuite))
}
