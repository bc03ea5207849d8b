package models

import (
	"encoding/base64"
	"fmt"

	"gameassets/pkg/docstore"
)

// UnknownContentType is stored when an upload carries no Content-Type.
const UnknownContentType = "unknown"

// AssetKind distinguishes sprites from audio clips.
type AssetKind string

const (
	KindSprite AssetKind = "sprite"
	KindAudio  AssetKind = "audio"
)

// Collection returns the document collection holding assets of this kind.
func (k AssetKind) Collection() string {
	switch k {
	case KindSprite:
		return docstore.CollectionSprites
	case KindAudio:
		return docstore.CollectionAudio
	default:
		return ""
	}
}

// Label is the capitalised name used in confirmation messages.
func (k AssetKind) Label() string {
	switch k {
	case KindSprite:
		return "Sprite"
	case KindAudio:
		return "Audio"
	default:
		return string(k)
	}
}

// Valid reports whether k is a known kind.
func (k AssetKind) Valid() bool {
	return k.Collection() != ""
}

// Asset is a stored sprite or audio file: metadata plus the base64 payload.
type Asset struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Content     string `json:"content"`
}

// Decode returns the raw bytes of the payload.
func (a Asset) Decode() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(a.Content)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", a.FileName, err)
	}
	return data, nil
}
