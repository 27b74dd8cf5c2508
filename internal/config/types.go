package config

import "strings"

// TriggerMode enumerates repository-side generation trigger modes.
type TriggerMode string

const (
	TriggerAuto   TriggerMode = "auto"
	TriggerManual TriggerMode = "manual"
	TriggerLabel  TriggerMode = "label"
)

// NormalizeTriggerMode canonicalizes user input (case-insensitive), returning empty string for unknown.
// Unknown modes are treated by callers as "no match" rather than an error.
func NormalizeTriggerMode(raw string) TriggerMode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(TriggerAuto):
		return TriggerAuto
	case string(TriggerManual):
		return TriggerManual
	case string(TriggerLabel):
		return TriggerLabel
	default:
		return ""
	}
}

// ThemeMode enumerates supported site color themes.
type ThemeMode string

const (
	ThemeLight ThemeMode = "light"
	ThemeDark  ThemeMode = "dark"
)

// NormalizeThemeMode canonicalizes a theme string, defaulting unknown values to light.
func NormalizeThemeMode(raw string) ThemeMode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(ThemeDark):
		return ThemeDark
	default:
		return ThemeLight
	}
}

// LLMProvider enumerates supported text-generation providers.
type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderGemini LLMProvider = "gemini"
	ProviderMock   LLMProvider = "mock"
)

// NormalizeLLMProvider canonicalizes a provider string or returns empty if unknown.
func NormalizeLLMProvider(raw string) LLMProvider {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(ProviderOpenAI):
		return ProviderOpenAI
	case string(ProviderGemini):
		return ProviderGemini
	case string(ProviderMock):
		return ProviderMock
	default:
		return ""
	}
}

// RetryBackoffMode names a publish retry spacing strategy.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// NormalizeRetryBackoff maps raw user input onto a typed mode, case and
// whitespace insensitively. Unknown input yields the empty mode.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(RetryBackoffFixed):
		return RetryBackoffFixed
	case string(RetryBackoffLinear):
		return RetryBackoffLinear
	case string(RetryBackoffExponential):
		return RetryBackoffExponential
	default:
		return ""
	}
}

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

func NormalizeLogLevel(raw string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(LogLevelDebug):
		return LogLevelDebug
	case string(LogLevelInfo):
		return LogLevelInfo
	case string(LogLevelWarn):
		return LogLevelWarn
	case string(LogLevelError):
		return LogLevelError
	default:
		return ""
	}
}

// LogFormat selects between JSON and plain text log output.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

func NormalizeLogFormat(raw string) LogFormat {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(LogFormatJSON):
		return LogFormatJSON
	case string(LogFormatText):
		return LogFormatText
	default:
		return ""
	}
}

// GitHubConfig holds credentials and endpoints for the GitHub API.
type GitHubConfig struct {
	APIURL        string `yaml:"api_url"`        // API base URL (default https://api.github.com)
	BaseURL       string `yaml:"base_url"`       // Web base URL (for repository links)
	Token         string `yaml:"token"`          // API token, usually ${GITHUB_TOKEN}
	WebhookSecret string `yaml:"webhook_secret"` // HMAC secret for webhook validation
}

// LLMConfig holds text-generation provider settings.
type LLMConfig struct {
	Provider    LLMProvider `yaml:"provider"` // openai|gemini|mock
	Model       string      `yaml:"model"`
	APIKey      string      `yaml:"api_key"` // usually ${OPENAI_API_KEY} or ${GEMINI_API_KEY}
	Temperature float64     `yaml:"temperature,omitempty"`
	// SectionConcurrency caps parallel section generation requests per run.
	// Defaults to 4; values <1 are coerced to 1.
	SectionConcurrency int `yaml:"section_concurrency,omitempty"`
}

// RefinementConfig tunes the evaluate/refine quality loop.
type RefinementConfig struct {
	Enabled       bool `yaml:"enabled"`
	MaxIterations int  `yaml:"max_iterations,omitempty"` // default 2
	TargetScore   int  `yaml:"target_score,omitempty"`   // default 8 on a 1-10 scale
}

// GuardConfig tunes the advisory deployment guard.
type GuardConfig struct {
	PollInterval string `yaml:"poll_interval,omitempty"` // duration string (default 10s)
	MaxWait      string `yaml:"max_wait,omitempty"`      // duration string (default 2m)
}

// PublishConfig controls how generated bundles are committed.
type PublishConfig struct {
	Branch         string `yaml:"branch,omitempty"`         // target branch (default gh-pages)
	PreviewBranch  string `yaml:"preview_branch,omitempty"` // preview target (default gitlyte-preview)
	CommitterName  string `yaml:"committer_name,omitempty"`
	CommitterEmail string `yaml:"committer_email,omitempty"`
	// Retry policy fields for transient publish failures.
	MaxRetries        int              `yaml:"max_retries,omitempty"`         // retries after first attempt (default 2)
	RetryBackoff      RetryBackoffMode `yaml:"retry_backoff,omitempty"`       // fixed|linear|exponential (default linear)
	RetryInitialDelay string           `yaml:"retry_initial_delay,omitempty"` // duration string (default 1s)
	RetryMaxDelay     string           `yaml:"retry_max_delay,omitempty"`     // cap for growth (default 30s)
}

// DaemonConfig represents daemon-specific configuration.
type DaemonConfig struct {
	HTTP  HTTPConfig  `yaml:"http"`
	Queue QueueConfig `yaml:"queue"`
	Watch bool        `yaml:"watch"` // reload reloadable settings when the config file changes
}

// HTTPConfig represents HTTP server configuration.
type HTTPConfig struct {
	WebhookPort int `yaml:"webhook_port"` // Webhook reception port
	AdminPort   int `yaml:"admin_port"`   // Admin/status/metrics endpoints port
}

// QueueConfig tunes the generation job queue.
type QueueConfig struct {
	Workers      int `yaml:"workers"`       // concurrent generation jobs (default 1)
	Size         int `yaml:"size"`          // max queued jobs (default 50)
	HistoryLimit int `yaml:"history_limit"` // in-memory completed-job ring (default 100)
}

// HistoryConfig controls the persistent generation-run store.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"` // sqlite file path (default ./gitlyte-history.db)
}

// NotifyConfig controls lifecycle event publishing.
type NotifyConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url,omitempty"`     // NATS server URL
	Subject string `yaml:"subject,omitempty"` // subject prefix (default gitlyte.events)
}

// ScheduleConfig describes a periodic full regeneration of one repository.
type ScheduleConfig struct {
	Repository string `yaml:"repository"` // owner/name
	Interval   string `yaml:"interval"`   // duration string, e.g. 24h
}

// MonitoringConfig represents monitoring and observability configuration.
type MonitoringConfig struct {
	Metrics MonitoringMetrics `yaml:"metrics"`
	Logging MonitoringLogging `yaml:"logging"`
}

// MonitoringMetrics represents metrics configuration.
type MonitoringMetrics struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MonitoringLogging represents logging configuration.
type MonitoringLogging struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}
