package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/prophecy-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/prophecy-cli/internal/config"
	"github.com/KaramelBytes/prophecy-cli/internal/credentials"
)

// apiKeyEnv lists the environment variables consulted last for a key.
var apiKeyEnv = []string{"OPENROUTER_API_KEY", "PROPHECY_API_KEY"}

type runtimeOptions struct {
	ProviderFlag string
	APIKey       string
	OllamaHost   string
}

// resolveCredential walks the key sources in order: explicit flag or
// request value, config file, build-time default, environment.
func resolveCredential(c *cfgpkg.Global, explicit string, getenv func(string) string) (credentials.Credential, error) {
	var stored string
	if c != nil {
		stored = c.APIKey
	}
	return credentials.Resolve(
		credentials.Explicit(explicit),
		credentials.Stored(stored),
		credentials.Embedded(embeddedAPIKey),
		credentials.EnvFunc(getenv, apiKeyEnv...),
	)
}

func selectProvider(c *cfgpkg.Global, explicit string) string {
	name := strings.TrimSpace(explicit)
	if name == "" && c != nil {
		name = c.DefaultProvider
	}
	return ai.NormalizeProvider(name)
}

// selectModel prefers the flag, then config; Ollama falls back to a local
// tag since hosted model ids do not exist there.
func selectModel(c *cfgpkg.Global, explicit, provider string) string {
	if explicit != "" {
		return explicit
	}
	if c != nil && c.DefaultModel != "" {
		if provider != ai.ProviderOllama || !strings.Contains(c.DefaultModel, "/") {
			return c.DefaultModel
		}
	}
	if provider == ai.ProviderOllama {
		return "llama3.1:8b-instruct"
	}
	return "google/gemini-2.5-flash"
}

func runtimeConfig(c *cfgpkg.Global) ai.RuntimeConfig {
	rc := ai.RuntimeConfig{
		HTTPTimeout: 60 * time.Second,
		RetryMax:    3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    4 * time.Second,
	}
	if c != nil {
		if c.HTTPTimeoutSec > 0 {
			rc.HTTPTimeout = time.Duration(c.HTTPTimeoutSec) * time.Second
		}
		if c.RetryMaxAttempts > 0 {
			rc.RetryMax = c.RetryMaxAttempts
		}
		if c.RetryBaseDelayMs > 0 {
			rc.BaseDelay = time.Duration(c.RetryBaseDelayMs) * time.Millisecond
		}
		if c.RetryMaxDelayMs > 0 {
			rc.MaxDelay = time.Duration(c.RetryMaxDelayMs) * time.Millisecond
		}
	}
	return rc
}

// buildRuntime returns the runtime for the selected provider along with the
// credential it was given (zero for Ollama).
func buildRuntime(c *cfgpkg.Global, opts runtimeOptions, getenv func(string) string) (ai.Runtime, string, credentials.Credential, error) {
	provider := selectProvider(c, opts.ProviderFlag)
	rc := runtimeConfig(c)

	var cred credentials.Credential
	if ai.NeedsAPIKey(provider) {
		var err error
		cred, err = resolveCredential(c, opts.APIKey, getenv)
		if err != nil {
			return nil, provider, cred, fmt.Errorf("%w: pass --api-key, run `prophecy config set api_key <key>`, or export %s", err, apiKeyEnv[0])
		}
		rc.APIKey = cred.Key
		rc.BaseURL = getenv("PROPHECY_OPENROUTER_BASE_URL")
	} else {
		host := strings.TrimSpace(opts.OllamaHost)
		if host == "" {
			host = getenv("PROPHECY_OLLAMA_HOST")
		}
		if host == "" && c != nil {
			host = c.OllamaHost
		}
		if host == "" {
			host = ai.DefaultOllamaHost
		}
		rc.Host = host
		if v := getenv("PROPHECY_OLLAMA_TIMEOUT_SEC"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				rc.HTTPTimeout = time.Duration(n) * time.Second
			}
		} else if c != nil && c.OllamaTimeoutSec > 0 {
			rc.HTTPTimeout = time.Duration(c.OllamaTimeoutSec) * time.Second
		}
	}

	rt, ok := ai.GetRuntime(provider, rc)
	if !ok {
		return nil, provider, cred, fmt.Errorf("provider not supported: %s (available: %s)", provider, strings.Join(ai.Providers(), ", "))
	}
	return rt, provider, cred, nil
}
