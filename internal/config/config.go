package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the server configuration for gitlyte.
type Config struct {
	GitHub     GitHubConfig      `yaml:"github"`
	LLM        LLMConfig         `yaml:"llm"`
	Refinement RefinementConfig  `yaml:"refinement,omitempty"`
	Guard      GuardConfig       `yaml:"guard,omitempty"`
	Publish    PublishConfig     `yaml:"publish,omitempty"`
	Daemon     *DaemonConfig     `yaml:"daemon,omitempty"`
	History    HistoryConfig     `yaml:"history,omitempty"`
	Notify     NotifyConfig      `yaml:"notify,omitempty"`
	Schedules  []ScheduleConfig  `yaml:"schedules,omitempty"`
	Monitoring *MonitoringConfig `yaml:"monitoring,omitempty"`
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	// Load .env/.env.local if present; existing process env wins.
	if err := loadEnvFiles(); err != nil {
		// A missing .env is normal outside development
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// ${VAR} references in the YAML resolve against the process env
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&config)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// loadEnvFiles reads the first parseable of .env and .env.local into the
// process environment. Variables already set stay as they are.
func loadEnvFiles() error {
	envPaths := []string{".env", ".env.local"}
	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			return fmt.Errorf("failed to load %s: %w", envPath, err)
		}
		fmt.Fprintf(os.Stderr, "Loaded environment variables from %s\n", envPath)
		return nil
	}
	return fmt.Errorf("no .env file found")
}

// applyDefaults fills zero values with sensible defaults.
func applyDefaults(config *Config) {
	if config.GitHub.APIURL == "" {
		config.GitHub.APIURL = "https://api.github.com"
	}
	if config.GitHub.BaseURL == "" {
		config.GitHub.BaseURL = "https://github.com"
	}

	if config.LLM.Provider == "" {
		config.LLM.Provider = ProviderOpenAI
	}
	if config.LLM.Model == "" {
		switch config.LLM.Provider {
		case ProviderGemini:
			config.LLM.Model = "gemini-2.5-flash"
		default:
			config.LLM.Model = "gpt-4o-mini"
		}
	}
	if config.LLM.Temperature <= 0 {
		config.LLM.Temperature = 0.7
	}
	if config.LLM.SectionConcurrency < 1 {
		config.LLM.SectionConcurrency = 4
	}

	if config.Refinement.MaxIterations <= 0 {
		config.Refinement.MaxIterations = 2
	}
	if config.Refinement.TargetScore <= 0 {
		config.Refinement.TargetScore = 8
	}

	if config.Guard.PollInterval == "" {
		config.Guard.PollInterval = "10s"
	}
	if config.Guard.MaxWait == "" {
		config.Guard.MaxWait = "2m"
	}

	if config.Publish.Branch == "" {
		config.Publish.Branch = "gh-pages"
	}
	if config.Publish.PreviewBranch == "" {
		config.Publish.PreviewBranch = "gitlyte-preview"
	}
	if config.Publish.CommitterName == "" {
		config.Publish.CommitterName = "gitlyte"
	}
	if config.Publish.CommitterEmail == "" {
		config.Publish.CommitterEmail = "gitlyte@users.noreply.github.com"
	}
	if config.Publish.MaxRetries <= 0 {
		config.Publish.MaxRetries = 2
	}
	if config.Publish.RetryBackoff == "" {
		config.Publish.RetryBackoff = RetryBackoffLinear
	}
	if config.Publish.RetryInitialDelay == "" {
		config.Publish.RetryInitialDelay = "1s"
	}
	if config.Publish.RetryMaxDelay == "" {
		config.Publish.RetryMaxDelay = "30s"
	}

	if config.Daemon != nil {
		if config.Daemon.HTTP.WebhookPort == 0 {
			config.Daemon.HTTP.WebhookPort = 8080
		}
		if config.Daemon.HTTP.AdminPort == 0 {
			config.Daemon.HTTP.AdminPort = 8081
		}
		if config.Daemon.Queue.Workers < 1 {
			config.Daemon.Queue.Workers = 1
		}
		if config.Daemon.Queue.Size < 1 {
			config.Daemon.Queue.Size = 50
		}
		if config.Daemon.Queue.HistoryLimit < 1 {
			config.Daemon.Queue.HistoryLimit = 100
		}
	}

	if config.History.Enabled && config.History.Path == "" {
		config.History.Path = "./gitlyte-history.db"
	}
	if config.Notify.Enabled && config.Notify.Subject == "" {
		config.Notify.Subject = "gitlyte.events"
	}

	if config.Monitoring == nil {
		config.Monitoring = &MonitoringConfig{}
	}
	if config.Monitoring.Metrics.Path == "" {
		config.Monitoring.Metrics.Path = "/metrics"
	}
	if config.Monitoring.Logging.Level == "" {
		config.Monitoring.Logging.Level = LogLevelInfo
	}
	if config.Monitoring.Logging.Format == "" {
		config.Monitoring.Logging.Format = LogFormatText
	}
}

// validate checks invariants that would otherwise surface as confusing runtime failures.
func validate(config *Config) error {
	if NormalizeLLMProvider(string(config.LLM.Provider)) == "" {
		return fmt.Errorf("llm.provider: unsupported value %q", config.LLM.Provider)
	}
	if config.LLM.Provider != ProviderMock && config.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required for provider %s", config.LLM.Provider)
	}
	if config.Refinement.TargetScore < 1 || config.Refinement.TargetScore > 10 {
		return fmt.Errorf("refinement.target_score must be within 1..10, got %d", config.Refinement.TargetScore)
	}
	if _, err := time.ParseDuration(config.Guard.PollInterval); err != nil {
		return fmt.Errorf("guard.poll_interval: %w", err)
	}
	if _, err := time.ParseDuration(config.Guard.MaxWait); err != nil {
		return fmt.Errorf("guard.max_wait: %w", err)
	}
	for i, s := range config.Schedules {
		if s.Repository == "" {
			return fmt.Errorf("schedules[%d].repository is required", i)
		}
		if _, err := time.ParseDuration(s.Interval); err != nil {
			return fmt.Errorf("schedules[%d].interval: %w", i, err)
		}
	}
	if config.Notify.Enabled && config.Notify.URL == "" {
		return fmt.Errorf("notify.url is required when notify.enabled is true")
	}
	return nil
}

// GuardPollInterval returns the parsed guard poll interval.
func (c *Config) GuardPollInterval() time.Duration {
	d, err := time.ParseDuration(c.Guard.PollInterval)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// GuardMaxWait returns the parsed guard wait budget.
func (c *Config) GuardMaxWait() time.Duration {
	d, err := time.ParseDuration(c.Guard.MaxWait)
	if err != nil || d <= 0 {
		return 2 * time.Minute
	}
	return d
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		GitHub: GitHubConfig{
			APIURL:        "https://api.github.com",
			BaseURL:       "https://github.com",
			Token:         "${GITHUB_TOKEN}",
			WebhookSecret: "${GITHUB_WEBHOOK_SECRET}",
		},
		LLM: LLMConfig{
			Provider:    ProviderOpenAI,
			Model:       "gpt-4o-mini",
			APIKey:      "${OPENAI_API_KEY}",
			Temperature: 0.7,
		},
		Refinement: RefinementConfig{
			Enabled:       true,
			MaxIterations: 2,
			TargetScore:   8,
		},
		Guard: GuardConfig{
			PollInterval: "10s",
			MaxWait:      "2m",
		},
		Publish: PublishConfig{
			Branch:        "gh-pages",
			PreviewBranch: "gitlyte-preview",
		},
		Daemon: &DaemonConfig{
			HTTP:  HTTPConfig{WebhookPort: 8080, AdminPort: 8081},
			Queue: QueueConfig{Workers: 1, Size: 50, HistoryLimit: 100},
			Watch: true,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "./gitlyte-history.db",
		},
		Notify: NotifyConfig{Enabled: false},
		Schedules: []ScheduleConfig{
			{Repository: "your-org/your-repo", Interval: "168h"},
		},
		Monitoring: &MonitoringConfig{
			Metrics: MonitoringMetrics{Enabled: true, Path: "/metrics"},
			Logging: MonitoringLogging{Level: LogLevelInfo, Format: LogFormatText},
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
