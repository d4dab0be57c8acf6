package storage

import (
	"encoding/base64"
	"errors"
	"strings"
)

const maxImageBytes = 4 << 20

// ErrImageTooLarge is returned when a decoded image exceeds the size cap.
var ErrImageTooLarge = errors.New("image exceeds maximum size")

// ErrInvalidDataURL is returned for payloads that are not base64 image
// data-URLs.
var ErrInvalidDataURL = errors.New("invalid image data URL")

// Image is a decoded data-URL payload.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

var imageExts = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ParseDataURL decodes "data:image/<type>;base64,<payload>" strings as sent
// by browser FileReader APIs.
func ParseDataURL(raw string) (Image, error) {
	rest, ok := strings.CutPrefix(raw, "data:")
	if !ok {
		return Image{}, ErrInvalidDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Image{}, ErrInvalidDataURL
	}
	contentType, enc, ok := strings.Cut(meta, ";")
	if !ok || enc != "base64" {
		return Image{}, ErrInvalidDataURL
	}
	ext, ok := imageExts[contentType]
	if !ok {
		return Image{}, ErrInvalidDataURL
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > maxImageBytes {
		return Image{}, ErrImageTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, ErrInvalidDataURL
	}
	if len(data) == 0 {
		return Image{}, ErrInvalidDataURL
	}
	return Image{Data: data, ContentType: contentType, Ext: ext}, nil
}
