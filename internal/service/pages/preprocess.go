package pages

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
)

// normalizeImage decodes an uploaded scan, bounds its largest dimension and
// re-encodes it as JPEG so every stored page image has a predictable format
// and size. Recognition quality is unaffected at these resolutions.
func normalizeImage(data []byte, maxDimension int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if maxDimension > 0 {
		bounds := img.Bounds()
		if bounds.Dx() > maxDimension || bounds.Dy() > maxDimension {
			img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
