package utils

import (
	"encoding/base64"
	"strings"

	"foodgram-backend/domain"
)

const dataURIPrefix = "data:image/"

// DecodeBase64Image decodes a "data:image/<ext>;base64,<payload>" string
// into the raw image bytes, the extension and the content type. Anything
// that is not a decodable image data URI is a validation error.
func DecodeBase64Image(encoded string) ([]byte, string, string, error) {
	if !strings.HasPrefix(encoded, dataURIPrefix) {
		return nil, "", "", domain.ErrInvalidImageEncoding
	}

	meta, payload, found := strings.Cut(encoded, ";base64,")
	if !found {
		return nil, "", "", domain.ErrInvalidImageEncoding
	}

	ext := strings.TrimPrefix(meta, dataURIPrefix)
	if ext == "" {
		return nil, "", "", domain.ErrInvalidImageEncoding
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", "", domain.ErrInvalidImageEncoding
	}

	return data, ext, "image/" + ext, nil
}
