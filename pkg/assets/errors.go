package assets

import "errors"

var (
	// ErrAssetTooLarge is returned when an upload exceeds the configured maximum size.
	ErrAssetTooLarge = errors.New("asset exceeds maximum upload size")

	// ErrUnknownKind is returned for an asset kind with no collection.
	ErrUnknownKind = errors.New("unknown asset kind")
)
