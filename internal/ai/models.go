package ai

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// ModelInfo carries context size and illustrative pricing used for the
// dry-run cost line. Verify prices against the provider before relying on them.
type ModelInfo struct {
	Name          string
	ContextTokens int     // approximate context window
	InputPerK     float64 // USD per 1K input tokens
	OutputPerK    float64 // USD per 1K output tokens
}

var (
	catalogMu sync.RWMutex
	models    = map[string]ModelInfo{
		"google/gemini-2.5-flash": {Name: "google/gemini-2.5-flash", ContextTokens: 1048576, InputPerK: 0.0003, OutputPerK: 0.0025},
		"google/gemini-2.5-pro":   {Name: "google/gemini-2.5-pro", ContextTokens: 1048576, InputPerK: 0.00125, OutputPerK: 0.01},
		"openai/gpt-4o-mini":      {Name: "openai/gpt-4o-mini", ContextTokens: 128000, InputPerK: 0.00015, OutputPerK: 0.0006},
		"openai/gpt-4o":           {Name: "openai/gpt-4o", ContextTokens: 128000, InputPerK: 0.0025, OutputPerK: 0.01},
		"anthropic/claude-3.5-sonnet": {
			Name: "anthropic/claude-3.5-sonnet", ContextTokens: 200000, InputPerK: 0.003, OutputPerK: 0.015,
		},
		"deepseek/deepseek-r1:free": {Name: "deepseek/deepseek-r1:free", ContextTokens: 128000},
		// Common local (Ollama) tags
		"llama3.1:8b-instruct": {Name: "llama3.1:8b-instruct", ContextTokens: 8192},
		"mistral:7b-instruct":  {Name: "mistral:7b-instruct", ContextTokens: 8192},
		"qwen2.5:7b-instruct":  {Name: "qwen2.5:7b-instruct", ContextTokens: 32768},
	}
)

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	mi, ok := models[name]
	return mi, ok
}

// EstimateCostUSD estimates total cost in USD for given tokens using model pricing.
// If the model is unknown, returns 0 and ok=false.
func EstimateCostUSD(model string, promptTokens, completionTokens int) (float64, bool) {
	mi, ok := LookupModel(model)
	if !ok {
		return 0, false
	}
	inCost := (float64(promptTokens) / 1000.0) * mi.InputPerK
	outCost := (float64(completionTokens) / 1000.0) * mi.OutputPerK
	return inCost + outCost, true
}

// EstimateTokens approximates a token count at ~4 characters per token.
// Non-empty text is at least one token.
func EstimateTokens(text string) int {
	n := len([]rune(text))
	if n == 0 {
		return 0
	}
	if n < 4 {
		return 1
	}
	return n / 4
}

// LoadCatalogFromJSON loads a JSON object map[string]ModelInfo from a file path.
//
//	{ "openai/gpt-4o-mini": {"Name":"openai/gpt-4o-mini","ContextTokens":128000,"InputPerK":0.00015,"OutputPerK":0.0006} }
func LoadCatalogFromJSON(path string) (map[string]ModelInfo, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var m map[string]ModelInfo
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return m, nil
}

// MergeCatalog merges/overrides entries in the in-memory catalog.
func MergeCatalog(m map[string]ModelInfo) {
	catalogMu.Lock()
	defer catalogMu.Unlock()
	for k, v := range m {
		if v.Name == "" {
			v.Name = k
		}
		models[k] = v
	}
}

// Catalog returns a shallow copy of the current model catalog.
func Catalog() map[string]ModelInfo {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	out := make(map[string]ModelInfo, len(models))
	for k, v := range models {
		out[k] = v
	}
	return out
}

// OverrideCatalog replaces the in-memory catalog.
func OverrideCatalog(m map[string]ModelInfo) {
	next := make(map[string]ModelInfo, len(m))
	for k, v := range m {
		if v.Name == "" {
			v.Name = k
		}
		next[k] = v
	}
	catalogMu.Lock()
	models = next
	catalogMu.Unlock()
}
