package ai

import (
	"context"
	"strings"
)

// Runtime is a minimal interface implemented by AI backends/runtimes
// such as OpenRouter and local runtimes (e.g., Ollama).
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Provider identifiers used across the CLI for selection.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderGoogle     = "google"
	ProviderGemini     = "gemini"
	ProviderOllama     = "ollama"
	ProviderLocal      = "local"
)

// NormalizeProvider maps user-facing aliases onto a registered runtime name.
// Hosted vendors are reached through OpenRouter; "local" means Ollama.
// An empty name selects OpenRouter.
func NormalizeProvider(name string) string {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "", ProviderOpenRouter, ProviderOpenAI, ProviderAnthropic, ProviderGoogle, ProviderGemini:
		return ProviderOpenRouter
	case ProviderLocal, ProviderOllama:
		return ProviderOllama
	default:
		return n
	}
}

// NeedsAPIKey reports whether the provider requires a bearer key.
func NeedsAPIKey(provider string) bool {
	return NormalizeProvider(provider) != ProviderOllama
}
