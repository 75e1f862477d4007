package recognize

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const visionPrompt = `Transcribe the scanned book page in the image.
Respond with JSON: {"text": "<full page text>", "page_label": "<printed page number or empty>", "confidence": <0..1>}.
Preserve line breaks. If no page number is printed, use an empty page_label.`

// VisionConfig configures the HTTP vision-model recognizer.
type VisionConfig struct {
	Endpoint    string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// VisionProvider recognizes pages through an Ollama-compatible generate
// endpoint serving a vision model.
type VisionProvider struct {
	endpoint    string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
}

// visionResponse is the generate endpoint's envelope.
type visionResponse struct {
	Response string `json:"response"`
	Model    string `json:"model"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// visionPayload is the JSON the model is asked to produce.
type visionPayload struct {
	Text       string  `json:"text"`
	PageLabel  string  `json:"page_label"`
	Confidence float64 `json:"confidence"`
}

func NewVisionProvider(cfg *VisionConfig) *VisionProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &VisionProvider{
		endpoint:    strings.TrimRight(cfg.Endpoint, "/"),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (p *VisionProvider) Name() string { return "vision" }

func (p *VisionProvider) Recognize(ctx context.Context, image []byte) (*OCRResult, error) {
	base64Img := base64.StdEncoding.EncodeToString(image)

	reqBody := map[string]interface{}{
		"model":       p.model,
		"prompt":      visionPrompt,
		"images":      []string{base64Img},
		"stream":      false,
		"max_tokens":  p.maxTokens,
		"temperature": p.temperature,
		"format":      "json",
	}

	reqData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, Permanent("failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.endpoint+"/api/generate", bytes.NewReader(reqData))
	if err != nil {
		return nil, Permanent("failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		// Network errors and client timeouts are worth retrying.
		return nil, Transient("request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := fmt.Sprintf("unexpected status code %d: %s", resp.StatusCode, string(body))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, Transient(msg, nil)
		}
		return nil, Permanent(msg, nil)
	}

	var result visionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, Transient("failed to decode response", err)
	}
	if result.Error != "" {
		return nil, Permanent("model error: "+result.Error, nil)
	}

	return parseVisionPayload(result.Response), nil
}

// parseVisionPayload reads the model's JSON answer, falling back to the raw
// response when the model ignored the format instruction.
func parseVisionPayload(response string) *OCRResult {
	var payload visionPayload
	if err := json.Unmarshal([]byte(response), &payload); err == nil && payload.Text != "" {
		return &OCRResult{
			Text:       payload.Text,
			Label:      payload.PageLabel,
			Confidence: clampUnit(payload.Confidence),
		}
	}
	return &OCRResult{
		Text:       response,
		Confidence: 0,
	}
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (p *VisionProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}
