package utils

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrInvalidImage is returned for payloads that are not base64 encoded images.
var ErrInvalidImage = errors.New("invalid image")

// DecodeBase64Image decodes a base64 image, dropping a data-URL prefix such as
// "data:image/png;base64," if present. It returns the bytes and detected content type.
func DecodeBase64Image(encoded string) ([]byte, string, error) {
	encoded = strings.TrimSpace(encoded)
	if i := strings.Index(encoded, ","); i >= 0 {
		encoded = encoded[i+1:]
	}
	if encoded == "" {
		return nil, "", fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, "", fmt.Errorf("%w: unsupported content type %s", ErrInvalidImage, mtype.String())
	}
	return data, mtype.String(), nil
}
