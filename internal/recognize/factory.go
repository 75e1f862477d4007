package recognize

import (
	"context"
	"fmt"

	cfg "github.com/rstamps01/image-to-text/config"
	"github.com/rstamps01/image-to-text/pkg/logger"
)

// NewProvider builds the recognition backend named in config.
func NewProvider(ctx context.Context, c *cfg.RecognizerConfig, log logger.Logger) (Provider, error) {
	switch c.Provider {
	case "vision":
		return NewVisionProvider(&VisionConfig{
			Endpoint:    c.Endpoint,
			Model:       c.Model,
			MaxTokens:   c.MaxTokens,
			Temperature: c.Temperature,
			Timeout:     c.Timeout,
		}), nil
	case "textract":
		return NewTextractProvider(ctx, &TextractConfig{
			Region:    c.Region,
			AccessKey: c.AccessKey,
			SecretKey: c.SecretKey,
		}, log)
	case "tesseract":
		return NewTesseractProvider(&TesseractConfig{
			Languages: c.Languages,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported recognizer provider: %s", c.Provider)
	}
}
