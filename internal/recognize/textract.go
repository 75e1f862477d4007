package recognize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/aws/smithy-go"

	"github.com/rstamps01/image-to-text/pkg/logger"
)

// TextractConfig configures the AWS Textract recognizer.
type TextractConfig struct {
	Region    string
	AccessKey string
	SecretKey string
}

// TextractProvider recognizes pages with Textract's DetectDocumentText.
// Textract reports no page-label field, so the label extractor runs over
// the full text downstream.
type TextractProvider struct {
	client *textract.Client
	logger logger.Logger
}

func NewTextractProvider(ctx context.Context, cfg *TextractConfig, log logger.Logger) (*TextractProvider, error) {
	creds := credentials.NewStaticCredentialsProvider(
		cfg.AccessKey,
		cfg.SecretKey,
		"",
	)

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	return &TextractProvider{
		client: textract.NewFromConfig(awsCfg),
		logger: log,
	}, nil
}

func (p *TextractProvider) Name() string { return "textract" }

func (p *TextractProvider) Recognize(ctx context.Context, image []byte) (*OCRResult, error) {
	input := &textract.DetectDocumentTextInput{
		Document: &types.Document{
			Bytes: image,
		},
	}

	out, err := p.client.DetectDocumentText(ctx, input)
	if err != nil {
		return nil, classifyTextractError(err)
	}

	var lines []string
	var confSum float64
	var confCount int
	for _, block := range out.Blocks {
		if block.BlockType != types.BlockTypeLine || block.Text == nil {
			continue
		}
		lines = append(lines, *block.Text)
		if block.Confidence != nil {
			confSum += float64(*block.Confidence)
			confCount++
		}
	}

	confidence := 0.0
	if confCount > 0 {
		confidence = confSum / float64(confCount) / 100.0
	}

	return &OCRResult{
		Text:       strings.Join(lines, "\n"),
		Confidence: clampUnit(confidence),
	}, nil
}

// classifyTextractError maps Textract failures onto the transient/permanent
// split. Throttling and server-side errors are retryable; document and
// parameter errors are not.
func classifyTextractError(err error) *Error {
	var throttle *types.ThrottlingException
	var internal *types.InternalServerError
	var provisioned *types.ProvisionedThroughputExceededException
	var limit *types.LimitExceededException
	if errors.As(err, &throttle) || errors.As(err, &internal) ||
		errors.As(err, &provisioned) || errors.As(err, &limit) {
		return Transient("textract call failed", err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "InternalServerError", "ServiceUnavailable":
			return Transient("textract call failed", err)
		}
		return Permanent("textract rejected document", err)
	}

	// Transport-level failure, likely recoverable.
	return Transient("textract call failed", err)
}
