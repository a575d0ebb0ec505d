package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"NATS_SUBJECT", "AI_PROVIDER", "AI_TIMEOUT_SECONDS", "AI_TEMPERATURE", "AI_BREAKER_ENABLED", "WORKER_JOB_TIMEOUT_SECONDS"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.NATSSubject != "policies.extract" {
		t.Fatalf("expected default subject policies.extract, got %q", cfg.NATSSubject)
	}
	if cfg.AIProvider != AIProviderGemini {
		t.Fatalf("expected default provider gemini, got %q", cfg.AIProvider)
	}
	if cfg.AITimeoutSeconds != 45 {
		t.Fatalf("expected default ai timeout 45, got %d", cfg.AITimeoutSeconds)
	}
	if cfg.AITemperature != 0.2 || !cfg.AIBreakerEnabled {
		t.Fatalf("unexpected ai defaults %+v", cfg)
	}
	if cfg.WorkerJobTimeoutSeconds != 300 {
		t.Fatalf("expected default job timeout 300, got %d", cfg.WorkerJobTimeoutSeconds)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("AI_PROVIDER", "Ollama")
	t.Setenv("AI_TIMEOUT_SECONDS", "10")
	t.Setenv("AI_TEMPERATURE", "0.7")
	t.Setenv("AI_BREAKER_ENABLED", "false")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")

	cfg := Load()
	if cfg.AIProvider != AIProviderOllama {
		t.Fatalf("expected provider override, got %q", cfg.AIProvider)
	}
	if cfg.AITimeoutSeconds != 10 || cfg.AITemperature != 0.7 || cfg.AIBreakerEnabled {
		t.Fatalf("unexpected ai overrides %+v", cfg)
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected rps 2.5, got %v", cfg.APIRateLimitRPS)
	}
}

func TestLoadFallsBackOnMalformedNumbers(t *testing.T) {
	t.Setenv("AI_TIMEOUT_SECONDS", "soon")
	t.Setenv("AI_TEMPERATURE", "warm")
	t.Setenv("AI_BREAKER_ENABLED", "maybe")

	cfg := Load()
	if cfg.AITimeoutSeconds != 45 || cfg.AITemperature != 0.2 || !cfg.AIBreakerEnabled {
		t.Fatalf("expected fallbacks, got %+v", cfg)
	}
}
