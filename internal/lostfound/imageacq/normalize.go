package imageacq

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"

	_ "golang.org/x/image/webp"
)

var errNotImage = errors.New("content is not a decodable image")

const reencodeQuality = 90

// Normalize checks that data is an image and returns it in a form every
// provider accepts: JPEG and PNG pass through, other formats are re-encoded
// as JPEG.
func Normalize(data []byte) ([]byte, string, error) {
	if len(data) == 0 {
		return nil, "", errNotImage
	}
	mime := http.DetectContentType(data)

	switch mime {
	case "image/jpeg", "image/png":
		if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
			return nil, "", fmt.Errorf("%w: %w", errNotImage, err)
		}
		return data, mime, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %w", errNotImage, mime, err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: reencodeQuality}); err != nil {
		return nil, "", fmt.Errorf("re-encode %s as jpeg: %w", mime, err)
	}
	return buf.Bytes(), "image/jpeg", nil
}
