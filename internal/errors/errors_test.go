package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestGitLyteError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *GitLyteError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(CategoryConfig, SeverityFatal, "configuration invalid"),
			expected: "config (fatal): configuration invalid",
		},
		{
			name:     "error with cause",
			err:      Wrap(fmt.Errorf("file not found"), CategoryConfig, SeverityFatal, "failed to load config"),
			expected: "config (fatal): failed to load config: file not found",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := test.err.Error()
			if result != test.expected {
				t.Errorf("Error() = %q, want %q", result, test.expected)
			}
		})
	}
}

func TestGitLyteError_WithContext(t *testing.T) {
	err := New(CategoryGitHub, SeverityWarning, "request failed").
		WithContext("repository", "test-repo").
		WithContext("branch", "main")

	if err.Context == nil {
		t.Fatal("Context should not be nil")
	}

	if err.Context["repository"] != "test-repo" {
		t.Errorf("Context[repository] = %v, want test-repo", err.Context["repository"])
	}

	if err.Context["branch"] != "main" {
		t.Errorf("Context[branch] = %v, want main", err.Context["branch"])
	}
}

func TestIsCategory(t *testing.T) {
	configErr := New(CategoryConfig, SeverityFatal, "config error")
	llmErr := New(CategoryLLM, SeverityWarning, "llm error")
	standardErr := fmt.Errorf("standard error")

	tests := []struct {
		name     string
		err      error
		category ErrorCategory
		expected bool
	}{
		{"config error matches config category", configErr, CategoryConfig, true},
		{"config error doesn't match llm category", configErr, CategoryLLM, false},
		{"llm error matches llm category", llmErr, CategoryLLM, true},
		{"standard error doesn't match any category", standardErr, CategoryConfig, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsCategory(test.err, test.category)
			if result != test.expected {
				t.Errorf("IsCategory() = %v, want %v", result, test.expected)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	retryableErr := Retryable(CategoryNetwork, SeverityWarning, "timeout")
	nonRetryableErr := New(CategoryConfig, SeverityFatal, "invalid")
	standardErr := fmt.Errorf("standard error")

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"retryable error", retryableErr, true},
		{"non-retryable error", nonRetryableErr, false},
		{"standard error", standardErr, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsRetryable(test.err)
			if result != test.expected {
				t.Errorf("IsRetryable() = %v, want %v", result, test.expected)
			}
		})
	}
}

func TestConvenienceFunctions(t *testing.T) {
	t.Run("ConfigNotFound", func(t *testing.T) {
		err := ConfigNotFound("/path/to/gitlyte.yaml")
		if err.Category != CategoryConfig {
			t.Errorf("Category = %v, want %v", err.Category, CategoryConfig)
		}
		if err.Severity != SeverityFatal {
			t.Errorf("Severity = %v, want %v", err.Severity, SeverityFatal)
		}
		if err.Context["path"] != "/path/to/gitlyte.yaml" {
			t.Errorf("Context[path] = %v, want /path/to/gitlyte.yaml", err.Context["path"])
		}
	})

	t.Run("ProviderRateLimited", func(t *testing.T) {
		cause := fmt.Errorf("429 too many requests")
		err := ProviderRateLimited("openai", cause)
		if err.Category != CategoryLLM {
			t.Errorf("Category = %v, want %v", err.Category, CategoryLLM)
		}
		if !err.Retryable {
			t.Error("ProviderRateLimited should be retryable")
		}
		if !stdErrors.Is(err, cause) {
			t.Errorf("Cause should match wrapped cause: %v", cause)
		}
	})

	t.Run("ValidationFailed", func(t *testing.T) {
		err := ValidationFailed("llm.provider", "unsupported value")
		if err.Category != CategoryValidation {
			t.Errorf("Category = %v, want %v", err.Category, CategoryValidation)
		}
		if err.Context["field"] != "llm.provider" {
			t.Errorf("Context[field] = %v, want llm.provider", err.Context["field"])
		}
		if err.Context["reason"] != "unsupported value" {
			t.Errorf("Context[reason] = %v, want unsupported value", err.Context["reason"])
		}
	})

	t.Run("SectionEmpty", func(t *testing.T) {
		err := SectionEmpty("hero")
		if err.Category != CategoryContent {
			t.Errorf("Category = %v, want %v", err.Category, CategoryContent)
		}
		if err.Context["section"] != "hero" {
			t.Errorf("Context[section] = %v, want hero", err.Context["section"])
		}
	})
}

func TestHTTPAdapterStatusCodes(t *testing.T) {
	adapter := NewHTTPErrorAdapter(nil)

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"nil error", nil, http.StatusOK},
		{"validation", ValidationError("bad input"), http.StatusBadRequest},
		{"auth", New(CategoryAuth, SeverityFatal, "denied"), http.StatusUnauthorized},
		{"llm", New(CategoryLLM, SeverityWarning, "rate limited"), http.StatusBadGateway},
		{"generation", New(CategoryGeneration, SeverityFatal, "failed"), http.StatusUnprocessableEntity},
		{"daemon", DaemonError("queue full"), http.StatusServiceUnavailable},
		{"plain error", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := adapter.StatusCodeFor(test.err); got != test.status {
				t.Errorf("StatusCodeFor() = %d, want %d", got, test.status)
			}
		})
	}
}

func TestCLIAdapterExitCodes(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"nil error", nil, 0},
		{"validation", ValidationError("bad input"), 2},
		{"config", ConfigRequired("github.token"), 7},
		{"llm", New(CategoryLLM, SeverityError, "provider down"), 8},
		{"publish", New(CategoryPublish, SeverityFatal, "push rejected"), 11},
		{"plain error", fmt.Errorf("boom"), 1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(test.err); got != test.code {
				t.Errorf("ExitCodeFor() = %d, want %d", got, test.code)
			}
		})
	}
}
