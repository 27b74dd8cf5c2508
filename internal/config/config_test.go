package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "gitlyte.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
github:
  token: test-token
llm:
  provider: mock
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.GitHub.APIURL != "https://api.github.com" {
		t.Errorf("GitHub.APIURL = %q, want default", cfg.GitHub.APIURL)
	}
	if cfg.LLM.SectionConcurrency != 4 {
		t.Errorf("LLM.SectionConcurrency = %d, want 4", cfg.LLM.SectionConcurrency)
	}
	if cfg.Refinement.MaxIterations != 2 {
		t.Errorf("Refinement.MaxIterations = %d, want 2", cfg.Refinement.MaxIterations)
	}
	if cfg.Refinement.TargetScore != 8 {
		t.Errorf("Refinement.TargetScore = %d, want 8", cfg.Refinement.TargetScore)
	}
	if cfg.Publish.Branch != "gh-pages" {
		t.Errorf("Publish.Branch = %q, want gh-pages", cfg.Publish.Branch)
	}
	if cfg.GuardPollInterval() != 10*time.Second {
		t.Errorf("GuardPollInterval() = %v, want 10s", cfg.GuardPollInterval())
	}
	if cfg.GuardMaxWait() != 2*time.Minute {
		t.Errorf("GuardMaxWait() = %v, want 2m", cfg.GuardMaxWait())
	}
	if cfg.Monitoring == nil || cfg.Monitoring.Logging.Level != LogLevelInfo {
		t.Error("Monitoring logging defaults not applied")
	}
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("GITLYTE_TEST_TOKEN", "secret-from-env")
	path := writeConfig(t, `
github:
  token: ${GITLYTE_TEST_TOKEN}
llm:
  provider: mock
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.GitHub.Token != "secret-from-env" {
		t.Errorf("GitHub.Token = %q, want secret-from-env", cfg.GitHub.Token)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "unknown provider",
			content: `
llm:
  provider: banana
  api_key: k
`,
		},
		{
			name: "missing api key",
			content: `
llm:
  provider: openai
`,
		},
		{
			name: "target score out of range",
			content: `
llm:
  provider: mock
refinement:
  target_score: 11
`,
		},
		{
			name: "bad guard interval",
			content: `
llm:
  provider: mock
guard:
  poll_interval: soon
`,
		},
		{
			name: "schedule missing repository",
			content: `
llm:
  provider: mock
schedules:
  - interval: 1h
`,
		},
		{
			name: "notify enabled without url",
			content: `
llm:
  provider: mock
notify:
  enabled: true
`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := writeConfig(t, test.content)
			if _, err := Load(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadDaemonDefaults(t *testing.T) {
	path := writeConfig(t, `
llm:
  provider: mock
daemon:
  http:
    webhook_port: 9000
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Daemon == nil {
		t.Fatal("Daemon should be set")
	}
	if cfg.Daemon.HTTP.WebhookPort != 9000 {
		t.Errorf("WebhookPort = %d, want 9000", cfg.Daemon.HTTP.WebhookPort)
	}
	if cfg.Daemon.HTTP.AdminPort != 8081 {
		t.Errorf("AdminPort = %d, want default 8081", cfg.Daemon.HTTP.AdminPort)
	}
	if cfg.Daemon.Queue.Workers != 1 {
		t.Errorf("Queue.Workers = %d, want 1", cfg.Daemon.Queue.Workers)
	}
	if cfg.Daemon.Queue.Size != 50 {
		t.Errorf("Queue.Size = %d, want 50", cfg.Daemon.Queue.Size)
	}
}

func TestInitWritesLoadableConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gitlyte.yaml")

	if err := Init(path, false); err != nil {
		t.Fatalf("Init() error: %v", err)
	}

	// Second init without force should refuse to overwrite.
	if err := Init(path, false); err == nil {
		t.Fatal("expected error when config already exists")
	}
	if err := Init(path, true); err != nil {
		t.Fatalf("Init(force) error: %v", err)
	}

	t.Setenv("GITHUB_TOKEN", "t")
	t.Setenv("GITHUB_WEBHOOK_SECRET", "s")
	t.Setenv("OPENAI_API_KEY", "k")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(example) error: %v", err)
	}
	if cfg.LLM.Provider != ProviderOpenAI {
		t.Errorf("example provider = %q, want openai", cfg.LLM.Provider)
	}
}

func TestNormalizers(t *testing.T) {
	if NormalizeTriggerMode(" Auto ") != TriggerAuto {
		t.Error("NormalizeTriggerMode should trim and lowercase")
	}
	if NormalizeTriggerMode("banana") != "" {
		t.Error("unknown trigger mode should normalize to empty")
	}
	if NormalizeThemeMode("DARK") != ThemeDark {
		t.Error("NormalizeThemeMode should accept dark")
	}
	if NormalizeThemeMode("sparkly") != ThemeLight {
		t.Error("unknown theme should default to light")
	}
	if NormalizeRetryBackoff("Exponential") != RetryBackoffExponential {
		t.Error("NormalizeRetryBackoff should accept exponential")
	}
	if NormalizeLLMProvider("GEMINI") != ProviderGemini {
		t.Error("NormalizeLLMProvider should accept gemini")
	}
}
