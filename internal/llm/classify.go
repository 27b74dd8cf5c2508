package llm

import (
	"errors"
	"strings"

	openai "github.com/openai/openai-go"
	"google.golang.org/genai"

	glerrors "github.com/wadakatu/gitlyte/internal/errors"
)

// classifyProviderError maps raw SDK errors onto the shared error taxonomy:
// rate limiting and connectivity are retryable, authentication is fatal.
func classifyProviderError(provider string, err error) error {
	if err == nil {
		return nil
	}

	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		return classifyStatusCode(provider, openaiErr.StatusCode, err)
	}

	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatusCode(provider, apiErr.Code, err)
	}

	errLower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errLower, "api key not valid") ||
		strings.Contains(errLower, "invalid api key") ||
		strings.Contains(errLower, "api_key_invalid") ||
		strings.Contains(errLower, "permission denied") ||
		strings.Contains(errLower, "unauthorized"):
		return glerrors.ProviderAuthFailed(provider, err)

	case strings.Contains(errLower, "quota") ||
		strings.Contains(errLower, "resource exhausted") ||
		strings.Contains(errLower, "rate limit") ||
		strings.Contains(errLower, "too many requests"):
		return glerrors.ProviderRateLimited(provider, err)

	case strings.Contains(errLower, "connection") ||
		strings.Contains(errLower, "network") ||
		strings.Contains(errLower, "timeout") ||
		strings.Contains(errLower, "dial") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "unreachable"):
		return glerrors.ProviderUnavailable(provider, err)

	default:
		return glerrors.Wrap(err, glerrors.CategoryLLM, glerrors.SeverityError, "text generation failed").
			WithContext("provider", provider)
	}
}

// classifyStatusCode categorizes an HTTP status code from a provider SDK error.
func classifyStatusCode(provider string, code int, err error) error {
	switch code {
	case 400, 401, 403:
		return glerrors.ProviderAuthFailed(provider, err)
	case 429:
		return glerrors.ProviderRateLimited(provider, err)
	case 500, 502, 503, 504:
		return glerrors.ProviderUnavailable(provider, err)
	default:
		return glerrors.Wrap(err, glerrors.CategoryLLM, glerrors.SeverityError, "text generation failed").
			WithContext("provider", provider)
	}
}
