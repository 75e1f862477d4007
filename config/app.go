package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the YAML-file configuration shared by the server and worker
// binaries. Secrets stay in the environment; this file carries the
// operational knobs.
type AppConfig struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Worker struct {
		Concurrency int            `yaml:"concurrency"`
		Queues      map[string]int `yaml:"queues"`
	} `yaml:"worker"`

	Queue struct {
		ProcessTimeout time.Duration `yaml:"processTimeout"`
	} `yaml:"queue"`

	Upload struct {
		MaxFileSize  int64 `yaml:"maxFileSize"`
		MaxDimension int   `yaml:"maxDimension"`
	} `yaml:"upload"`

	Logger struct {
		Level       string   `yaml:"level"`
		Encoding    string   `yaml:"encoding"`
		OutputPaths []string `yaml:"outputPaths"`
	} `yaml:"logger"`
}

// DefaultAppConfig returns the configuration used when no file is given.
func DefaultAppConfig() *AppConfig {
	cfg := &AppConfig{}
	cfg.Server.Addr = ":8080"
	cfg.Worker.Concurrency = 5
	cfg.Worker.Queues = map[string]int{
		"critical": 6,
		"default":  3,
		"low":      1,
	}
	cfg.Queue.ProcessTimeout = 10 * time.Minute
	cfg.Upload.MaxFileSize = 20 * 1024 * 1024 // 20MB
	cfg.Upload.MaxDimension = 2400
	cfg.Logger.Level = "info"
	cfg.Logger.Encoding = "json"
	cfg.Logger.OutputPaths = []string{"stdout"}
	return cfg
}

// LoadAppConfig reads a YAML config file over the defaults. An empty path
// returns the defaults unchanged.
func LoadAppConfig(path string) (*AppConfig, error) {
	cfg := DefaultAppConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}
