package errors

// Shorthand constructors for the error shapes callers build repeatedly.

// Config errors

func ConfigNotFound(path string) *GitLyteError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigRequired(field string) *GitLyteError {
	return New(CategoryConfig, SeverityFatal, "required configuration missing").
		WithContext("field", field)
}

func ValidationFailed(field, reason string) *GitLyteError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Generation pipeline errors

func GenerationFailed(stage string, cause error) *GitLyteError {
	return Wrap(cause, CategoryGeneration, SeverityFatal, "site generation failed").
		WithContext("stage", stage)
}

func SectionEmpty(section string) *GitLyteError {
	return New(CategoryContent, SeverityError, "generated section is empty").
		WithContext("section", section)
}

func EvaluationParseFailed(cause error) *GitLyteError {
	return Wrap(cause, CategoryContent, SeverityError, "evaluation response could not be parsed")
}

func RefinementEmpty(iteration int) *GitLyteError {
	return New(CategoryContent, SeverityError, "refinement produced empty output").
		WithContext("iteration", iteration)
}

// Provider errors

func ProviderRateLimited(provider string, cause error) *GitLyteError {
	return WrapRetryable(cause, CategoryLLM, SeverityWarning, "provider rate limit exceeded").
		WithContext("provider", provider)
}

func ProviderAuthFailed(provider string, cause error) *GitLyteError {
	return Wrap(cause, CategoryAuth, SeverityFatal, "provider authentication failed").
		WithContext("provider", provider)
}

func ProviderUnavailable(provider string, cause error) *GitLyteError {
	return WrapRetryable(cause, CategoryNetwork, SeverityWarning, "provider unreachable").
		WithContext("provider", provider)
}

// GitHub errors

func GitHubAPIError(operation string, cause error) *GitLyteError {
	return Wrap(cause, CategoryGitHub, SeverityError, "github api request failed").
		WithContext("operation", operation)
}

func GitHubRateLimited(operation string, cause error) *GitLyteError {
	return WrapRetryable(cause, CategoryGitHub, SeverityWarning, "github rate limit exceeded").
		WithContext("operation", operation)
}

// Publish errors

func PublishFailed(repo string, cause error) *GitLyteError {
	return Wrap(cause, CategoryPublish, SeverityFatal, "site publish failed").
		WithContext("repository", repo)
}

// Network errors

func NetworkTimeout(url string, cause error) *GitLyteError {
	return WrapRetryable(cause, CategoryNetwork, SeverityWarning, "network timeout").
		WithContext("url", url)
}

// Internal errors

func InternalError(message string, cause error) *GitLyteError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
