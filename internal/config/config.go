package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"receiptscan/internal/logger"
	"receiptscan/internal/ocr"
)

type Config struct {
	// OCR Configuration
	OCRProvider string        // vision or documentai
	OCRTimeout  time.Duration // Per-image recognition timeout

	// Google Cloud Configuration
	GoogleCloudProject         string
	GoogleCloudLocation        string
	DocumentAIProcessorID      string
	DocumentAIProcessorVersion string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	timeoutSecs, err := strconv.Atoi(getEnv("OCR_TIMEOUT_SECONDS", "120"))
	if err != nil {
		return nil, fmt.Errorf("OCR_TIMEOUT_SECONDS must be an integer: %w", err)
	}

	config := &Config{
		OCRProvider:                strings.ToLower(getEnv("OCR_PROVIDER", ocr.ProviderVision)),
		OCRTimeout:                 time.Duration(timeoutSecs) * time.Second,
		GoogleCloudProject:         getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:        getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID:      getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		DocumentAIProcessorVersion: getEnv("DOCUMENT_AI_PROCESSOR_VERSION", ""),
		LogLevel:                   getEnv("LOG_LEVEL", "info"),
		LogFormat:                  getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:              getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:                  getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.OCRTimeout <= 0 {
		return fmt.Errorf("OCR_TIMEOUT_SECONDS must be positive")
	}
	switch c.OCRProvider {
	case ocr.ProviderVision:
	case ocr.ProviderDocumentAI:
		if c.GoogleCloudProject == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT is required when OCR_PROVIDER=documentai")
		}
		if c.DocumentAIProcessorID == "" {
			return fmt.Errorf("DOCUMENT_AI_PROCESSOR_ID is required when OCR_PROVIDER=documentai")
		}
	default:
		return fmt.Errorf("OCR_PROVIDER must be %q or %q, got %q", ocr.ProviderVision, ocr.ProviderDocumentAI, c.OCRProvider)
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// GetOCRSettings returns the recognizer settings from the main config
func (c *Config) GetOCRSettings() ocr.Settings {
	return ocr.Settings{
		Provider:         c.OCRProvider,
		ProjectID:        c.GoogleCloudProject,
		Location:         c.GoogleCloudLocation,
		ProcessorID:      c.DocumentAIProcessorID,
		ProcessorVersion: c.DocumentAIProcessorVersion,
		Timeout:          c.OCRTimeout,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
