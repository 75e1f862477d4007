package config

import (
	"strings"
	"sync"
	"time"
)

var (
	recognizerOnce   sync.Once
	recognizerConfig *RecognizerConfig
)

// RecognizerConfig selects and configures the recognition backend plus the
// invoker's retry policy.
type RecognizerConfig struct {
	Provider string // "vision", "textract" or "tesseract"

	// vision
	Endpoint    string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration

	// textract
	Region    string
	AccessKey string
	SecretKey string

	// tesseract
	Languages []string

	// retry policy
	MaxAttempts  int
	InitialDelay time.Duration
}

func GetRecognizerConfig() *RecognizerConfig {
	recognizerOnce.Do(func() {
		loadEnv()

		recognizerConfig = &RecognizerConfig{
			Provider:     getenv("RECOGNIZER_PROVIDER", "vision"),
			Endpoint:     getenv("RECOGNIZER_ENDPOINT", "http://localhost:11434"),
			Model:        getenv("RECOGNIZER_MODEL", "llama3.2-vision"),
			MaxTokens:    getenvInt("RECOGNIZER_MAX_TOKENS", 4096),
			Temperature:  0,
			Timeout:      getenvDuration("RECOGNIZER_TIMEOUT", 120*time.Second),
			Region:       getenv("AWS_REGION", "us-east-1"),
			AccessKey:    getenv("AWS_ACCESS_KEY", ""),
			SecretKey:    getenv("AWS_SECRET_KEY", ""),
			Languages:    splitList(getenv("RECOGNIZER_LANGUAGES", "eng")),
			MaxAttempts:  getenvInt("RECOGNIZER_MAX_ATTEMPTS", 3),
			InitialDelay: getenvDuration("RECOGNIZER_INITIAL_DELAY", 1000*time.Millisecond),
		}
	})
	return recognizerConfig
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
