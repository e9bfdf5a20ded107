package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("MOCK_LOOSE_METHOD_MATCH", "")
	t.Setenv("PROCESSING_CONCURRENT_LIMIT", "0")
	t.Setenv("SCRIPT_TIMEOUT", "bogus")
	cfg := Load()
	if cfg.Port != "8090" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.ProcessingConcurrentLimit != 2 {
		t.Errorf("ProcessingConcurrentLimit = %d", cfg.ProcessingConcurrentLimit)
	}
	if cfg.ScriptTimeout != 5*time.Second {
		t.Errorf("ScriptTimeout = %v", cfg.ScriptTimeout)
	}
	if cfg.MockLooseMethodMatch {
		t.Error("loose method matching must default to off")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "Gemini")
	t.Setenv("MOCK_AI_REGENERATE", "true")
	t.Setenv("MAX_RESPONSE_DELAY", "2s")
	cfg := Load()
	if cfg.LLMProvider != "gemini" || !cfg.MockAIRegenerate || cfg.MaxResponseDelay != 2*time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{LLMProvider: "openai", FullAIWindowTokens: 100, FullAIWindowOverlap: 10}
	if err := cfg.Validate(); err == nil {
		t.Error("expected missing OPENAI_API_KEY to fail")
	}
	cfg.OpenAIAPIKey = "k"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	cfg.FullAIWindowOverlap = 100
	if err := cfg.Validate(); err == nil {
		t.Error("expected overlap >= window to fail")
	}
	cfg.LLMProvider = "mystery"
	if err := cfg.Validate(); err == nil {
		t.Error("expected unknown provider to fail")
	}
}

func TestRules_MergesFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	body := "keywords: [Order, msisdn]\nurl_pattern: '/api/[a-z]+'\nsignature_keys: [tenantId]\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := Config{FilterKeywords: "refund, order", RulesFile: path}
	rules, keys, err := cfg.Rules()
	if err != nil {
		t.Fatalf("Rules: %v", err)
	}
	want := []string{"refund", "order", "msisdn"}
	if len(rules.Keywords) != len(want) {
		t.Fatalf("keywords = %v", rules.Keywords)
	}
	for i := range want {
		if rules.Keywords[i] != want[i] {
			t.Errorf("keywords = %v", rules.Keywords)
		}
	}
	if !rules.ContainsURL("see /api/orders") || rules.ContainsURL("see /v1/orders") {
		t.Error("file url pattern not applied")
	}
	if len(keys) != 1 || keys[0] != "tenantId" {
		t.Errorf("signature keys = %v", keys)
	}
}

func TestRules_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte("keywords: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := (Config{RulesFile: path}).Rules(); err == nil {
		t.Error("expected yaml error")
	}
	if _, _, err := (Config{RulesFile: filepath.Join(t.TempDir(), "none.yaml")}).Rules(); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}
}
