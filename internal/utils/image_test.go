package utils

import (
	"encoding/base64"
	"testing"

	"foodgram-backend/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBase64Image(t *testing.T) {
	raw := []byte{0x89, 'P', 'N', 'G'}
	encoded := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)

	data, ext, contentType, err := DecodeBase64Image(encoded)
	require.NoError(t, err)
	assert.Equal(t, raw, data)
	assert.Equal(t, "png", ext)
	assert.Equal(t, "image/png", contentType)
}

func TestDecodeBase64ImageInvalid(t *testing.T) {
	cases := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"no data uri prefix", "just a string"},
		{"wrong media type", "data:text/plain;base64,aGVsbG8="},
		{"missing base64 marker", "data:image/png,aGVsbG8="},
		{"missing extension", "data:image/;base64,aGVsbG8="},
		{"broken payload", "data:image/png;base64,%%%"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, _, err := DecodeBase64Image(tc.encoded)
			assert.ErrorIs(t, err, domain.ErrInvalidImageEncoding)
		})
	}
}
