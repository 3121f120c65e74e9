package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.GraphAPIVersion != "v22.0" {
		t.Errorf("expected default graph version v22.0, got %s", cfg.GraphAPIVersion)
	}
	if cfg.MaxHistoryPairs != 10 {
		t.Errorf("expected default history pairs 10, got %d", cfg.MaxHistoryPairs)
	}
	if cfg.MaxReplyTokens != 200 {
		t.Errorf("expected default reply tokens 200, got %d", cfg.MaxReplyTokens)
	}
	if cfg.ReplyTemperature != 0.7 {
		t.Errorf("expected default temperature 0.7, got %f", cfg.ReplyTemperature)
	}
	if cfg.LLMProvider != "openai" {
		t.Errorf("expected default provider openai, got %s", cfg.LLMProvider)
	}
	if cfg.SystemPrompt != DefaultSystemPrompt {
		t.Errorf("expected default system prompt, got %s", cfg.SystemPrompt)
	}
	if cfg.GraphTimeout != 10*time.Second {
		t.Errorf("expected default graph timeout 10s, got %s", cfg.GraphTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MAX_HISTORY_PAIRS", "3")
	t.Setenv("REPLY_TEMPERATURE", "0.2")
	t.Setenv("LLM_PROVIDER", "Gemini")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("GRAPH_TIMEOUT", "30s")

	cfg := Load()

	if cfg.MaxHistoryPairs != 3 {
		t.Errorf("expected history pairs 3, got %d", cfg.MaxHistoryPairs)
	}
	if cfg.ReplyTemperature != 0.2 {
		t.Errorf("expected temperature 0.2, got %f", cfg.ReplyTemperature)
	}
	if cfg.LLMProvider != "gemini" {
		t.Errorf("expected provider normalized to gemini, got %s", cfg.LLMProvider)
	}
	if !cfg.RedisTLS {
		t.Error("expected RedisTLS true")
	}
	if cfg.GraphTimeout != 30*time.Second {
		t.Errorf("expected graph timeout 30s, got %s", cfg.GraphTimeout)
	}
}

func TestInvalidNumericFallsBack(t *testing.T) {
	t.Setenv("MAX_HISTORY_PAIRS", "not-a-number")

	cfg := Load()
	if cfg.MaxHistoryPairs != 10 {
		t.Errorf("expected fallback to 10, got %d", cfg.MaxHistoryPairs)
	}
}
