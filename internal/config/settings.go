package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Keys lists the settable keys in display order.
var Keys = []string{
	"api_key", "default_model", "default_provider", "max_tokens", "temperature",
	"comparables_count", "currency", "models_catalog_url", "models_auto_sync",
	"http_timeout_sec", "retry_max_attempts", "retry_base_delay_ms", "retry_max_delay_ms",
	"ollama_host", "ollama_timeout_sec", "log_level", "log_pretty",
	"server_addr", "request_timeout_sec",
}

// Set parses val for key and stores it on c.
func (c *Global) Set(key, val string) error {
	val = strings.TrimSpace(val)
	switch key {
	case "api_key":
		c.APIKey = val
	case "default_model":
		c.DefaultModel = val
	case "default_provider":
		switch strings.ToLower(val) {
		case "openrouter", "openai", "anthropic", "google", "gemini":
			c.DefaultProvider = "openrouter"
		case "ollama", "local":
			c.DefaultProvider = "ollama"
		default:
			return fmt.Errorf("invalid default_provider: %s (use openrouter or ollama)", val)
		}
	case "max_tokens":
		return setInt(&c.MaxTokens, key, val)
	case "temperature":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for temperature: %w", err)
		}
		c.Temperature = f
	case "comparables_count":
		return setInt(&c.ComparablesCount, key, val)
	case "currency":
		c.Currency = strings.ToUpper(val)
	case "models_catalog_url":
		c.ModelsCatalogURL = val
	case "models_auto_sync":
		return setBool(&c.ModelsAutoSync, key, val)
	case "http_timeout_sec":
		return setInt(&c.HTTPTimeoutSec, key, val)
	case "retry_max_attempts":
		return setInt(&c.RetryMaxAttempts, key, val)
	case "retry_base_delay_ms":
		return setInt(&c.RetryBaseDelayMs, key, val)
	case "retry_max_delay_ms":
		return setInt(&c.RetryMaxDelayMs, key, val)
	case "ollama_host":
		c.OllamaHost = val
	case "ollama_timeout_sec":
		return setInt(&c.OllamaTimeoutSec, key, val)
	case "log_level":
		c.LogLevel = strings.ToLower(val)
	case "log_pretty":
		return setBool(&c.LogPretty, key, val)
	case "server_addr":
		c.ServerAddr = val
	case "request_timeout_sec":
		return setInt(&c.RequestTimeoutSec, key, val)
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func setInt(dst *int, key, val string) error {
	i, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("invalid int for %s: %w", key, err)
	}
	*dst = i
	return nil
}

func setBool(dst *bool, key, val string) error {
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fmt.Errorf("invalid bool for %s: %w", key, err)
	}
	*dst = b
	return nil
}

// Validate reports the first field that would make a command misbehave.
func (c *Global) Validate() error {
	if strings.TrimSpace(c.DefaultModel) == "" {
		return errors.New("default_model is required")
	}
	switch c.DefaultProvider {
	case "", "openrouter", "ollama":
	default:
		return fmt.Errorf("default_provider must be openrouter or ollama, got %q", c.DefaultProvider)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be >= 0, got %d", c.MaxTokens)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %g", c.Temperature)
	}
	if c.ComparablesCount < 2 || c.ComparablesCount > 200 {
		return fmt.Errorf("comparables_count must be between 2 and 200, got %d", c.ComparablesCount)
	}
	if len(c.Currency) != 3 {
		return fmt.Errorf("currency must be a 3-letter code, got %q", c.Currency)
	}
	if c.HTTPTimeoutSec < 1 {
		return errors.New("http_timeout_sec must be >= 1")
	}
	if c.RetryMaxAttempts < 1 {
		return errors.New("retry_max_attempts must be >= 1")
	}
	if c.RetryBaseDelayMs < 0 || c.RetryMaxDelayMs < c.RetryBaseDelayMs {
		return fmt.Errorf("retry delays must satisfy 0 <= retry_base_delay_ms <= retry_max_delay_ms, got %d/%d", c.RetryBaseDelayMs, c.RetryMaxDelayMs)
	}
	if c.RequestTimeoutSec < 1 {
		return errors.New("request_timeout_sec must be >= 1")
	}
	return nil
}
