// Package config defines the application's configuration structure and
// loading logic. Configuration is read from environment variables (prefix
// RECITE_) and an optional config.yaml, then validated before use.
package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains the embedded database settings.
type DatabaseConfig struct {
	// Path is the SQLite database file. The parent directory is created at
	// startup if missing.
	Path string `mapstructure:"path" validate:"required"`
}

// LLMConfig contains the chapter-splitting LLM settings. The whole section
// is optional: without an API key the split endpoint reports the feature
// unavailable while the rest of the service runs normally.
type LLMConfig struct {
	GeminiAPIKey       string `mapstructure:"gemini_api_key"`
	ModelName          string `mapstructure:"model_name"`
	MaxRetries         int    `mapstructure:"max_retries"         validate:"gte=0"`
	RetryDelaySeconds  int    `mapstructure:"retry_delay_seconds" validate:"gte=0"`
	PromptTemplatePath string `mapstructure:"prompt_template_path"`
}

// Enabled reports whether the LLM integration is configured.
func (c LLMConfig) Enabled() bool {
	return c.GeminiAPIKey != ""
}
