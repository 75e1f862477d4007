package recognize

import (
	"context"

	"github.com/otiai10/gosseract/v2"
)

// TesseractConfig configures the local Tesseract recognizer.
type TesseractConfig struct {
	Languages []string
}

// TesseractProvider runs OCR in-process through gosseract. Useful for
// development and air-gapped deployments; failures are permanent by nature
// since the engine is local.
type TesseractProvider struct {
	languages []string
}

func NewTesseractProvider(cfg *TesseractConfig) *TesseractProvider {
	langs := cfg.Languages
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	return &TesseractProvider{languages: langs}
}

func (p *TesseractProvider) Name() string { return "tesseract" }

func (p *TesseractProvider) Recognize(ctx context.Context, image []byte) (*OCRResult, error) {
	// gosseract clients are not safe for concurrent use; one per call.
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(p.languages...); err != nil {
		return nil, Permanent("failed to set tesseract language", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return nil, Permanent("failed to load image", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, Permanent("tesseract recognition failed", err)
	}

	confidence := 0.0
	if boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE); err == nil && len(boxes) > 0 {
		var sum float64
		for _, b := range boxes {
			sum += b.Confidence
		}
		confidence = sum / float64(len(boxes)) / 100.0
	}

	return &OCRResult{
		Text:       text,
		Confidence: clampUnit(confidence),
	}, nil
}
