package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DefaultModel != "google/gemini-2.5-flash" || c.DefaultProvider != "openrouter" {
		t.Fatalf("unexpected model defaults: %+v", c)
	}
	if c.ComparablesCount != 25 || c.Currency != "INR" || c.ServerAddr != ":8080" {
		t.Fatalf("unexpected valuation defaults: %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestSaveLoadRoundTripAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")
	c := &Global{}
	for k, v := range map[string]string{
		"api_key":           "sk-or-v1-abcdefghijkl",
		"default_model":     "openai/gpt-4o-mini",
		"comparables_count": "40",
		"currency":          "usd",
	} {
		if err := c.Set(k, v); err != nil {
			t.Fatalf("Set(%s): %v", k, err)
		}
	}
	if err := Save(c, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("config should be owner-only, got %v", info.Mode().Perm())
	}

	t.Setenv("PROPHECY_DEFAULT_MODEL", "anthropic/claude-3.5-sonnet")
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.APIKey != "sk-or-v1-abcdefghijkl" || got.ComparablesCount != 40 || got.Currency != "USD" {
		t.Fatalf("round trip lost values: %+v", got)
	}
	if got.DefaultModel != "anthropic/claude-3.5-sonnet" {
		t.Fatalf("env should override file, got %q", got.DefaultModel)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("max_tokens: [oops"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for malformed yaml")
	}
}

func TestSetErrors(t *testing.T) {
	c := &Global{}
	cases := [][2]string{
		{"nope", "1"},
		{"max_tokens", "many"},
		{"temperature", "warm"},
		{"default_provider", "bedrock"},
		{"log_pretty", "sometimes"},
	}
	for _, kv := range cases {
		if err := c.Set(kv[0], kv[1]); err == nil {
			t.Fatalf("Set(%q, %q) should fail", kv[0], kv[1])
		}
	}
	if err := c.Set("default_provider", "local"); err != nil || c.DefaultProvider != "ollama" {
		t.Fatalf("local should map to ollama: %v %q", err, c.DefaultProvider)
	}
}

func TestValidate(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	base, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cases := []struct {
		name string
		mut  func(*Global)
		want string
	}{
		{"model", func(c *Global) { c.DefaultModel = "" }, "default_model"},
		{"provider", func(c *Global) { c.DefaultProvider = "bedrock" }, "default_provider"},
		{"temperature", func(c *Global) { c.Temperature = 3 }, "temperature"},
		{"comparables", func(c *Global) { c.ComparablesCount = 1 }, "comparables_count"},
		{"currency", func(c *Global) { c.Currency = "RUPEE" }, "currency"},
		{"retry", func(c *Global) { c.RetryBaseDelayMs = 9000 }, "retry delays"},
	}
	for _, tc := range cases {
		c := *base
		tc.mut(&c)
		err := c.Validate()
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: expected error mentioning %q, got %v", tc.name, tc.want, err)
		}
	}
}

func TestAPIKeyNeverComesFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("PROPHECY_API_KEY", "sk-env-secret-0123456789")
	t.Setenv("PROPHECY_CURRENCY", "EUR")

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.APIKey != "" {
		t.Fatalf("env key leaked into config: %q", got.APIKey)
	}
	if got.Currency != "EUR" {
		t.Fatalf("env should still override other keys, got %q", got.Currency)
	}

	if err := Save(&Global{APIKey: "sk-file-0123456789", Currency: "USD"}, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err = Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.APIKey != "sk-file-0123456789" {
		t.Fatalf("file key should win over env, got %q", got.APIKey)
	}

	file, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if file.Currency != "USD" || file.MaxTokens != 4096 {
		t.Fatalf("LoadFile should ignore env and keep defaults: %+v", file)
	}
}
