package config

import "time"

// Config is the top-level prwright configuration.
type Config struct {
	Models  ModelsConfig  `json:"models"`
	Gemini  GeminiConfig  `json:"gemini"`
	ADO     ADOConfig     `json:"ado"`
	Agent   AgentConfig   `json:"agent"`
	Submit  SubmitConfig  `json:"submit"`
	Server  ServerConfig  `json:"server"`
	History HistoryConfig `json:"history"`
}

// ModelsConfig names the Gemini model used for every completion.
type ModelsConfig struct {
	Primary string `json:"primary"`
}

// GeminiConfig holds the generative-language API credentials.
type GeminiConfig struct {
	APIKey string `json:"api_key,omitempty"`
}

// ADOConfig holds Azure DevOps access settings.
type ADOConfig struct {
	PAT               string  `json:"pat,omitempty"`
	BaseURL           string  `json:"base_url"`
	RequestsPerSecond float64 `json:"requests_per_second"`
}

// AgentConfig bounds the action loop.
type AgentConfig struct {
	// CallThreshold is the number of model calls made with the full action menu
	// before the menu narrows to the terminal action.
	CallThreshold int `json:"call_threshold"`
	// ForcedAttempts is how many narrowed-menu calls are allowed before giving up.
	ForcedAttempts int `json:"forced_attempts"`
	// MaxFailures caps failed steps across the whole run.
	MaxFailures int `json:"max_failures"`
}

// SubmitConfig controls the post-push ref indexing wait.
type SubmitConfig struct {
	IndexPollAttempts int    `json:"index_poll_attempts"`
	IndexPollInterval string `json:"index_poll_interval"`
}

// ParseIndexPollInterval returns the poll interval as a time.Duration.
func (s SubmitConfig) ParseIndexPollInterval() time.Duration {
	d, err := time.ParseDuration(s.IndexPollInterval)
	if err != nil || d <= 0 {
		return 3 * time.Second
	}
	return d
}

// ServerConfig holds HTTP boundary settings.
type ServerConfig struct {
	Port int `json:"port"`
}

// HistoryConfig controls the persisted request history.
type HistoryConfig struct {
	Dir        string `json:"dir,omitempty"`
	MaxEntries int    `json:"max_entries"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Models: ModelsConfig{
			Primary: "gemini-2.5-flash",
		},
		ADO: ADOConfig{
			BaseURL:           "https://dev.azure.com",
			RequestsPerSecond: 10,
		},
		Agent: AgentConfig{
			CallThreshold:  5,
			ForcedAttempts: 2,
			MaxFailures:    3,
		},
		Submit: SubmitConfig{
			IndexPollAttempts: 10,
			IndexPollInterval: "3s",
		},
		Server: ServerConfig{
			Port: 4199,
		},
		History: HistoryConfig{
			MaxEntries: 15,
		},
	}
}
