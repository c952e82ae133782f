// Package config loads agvisor configuration from a JSON config file with
// environment-variable overrides (AGVISOR_*).
package config

import "fmt"

type Config struct {
	Server     ServerConfig
	Completion CompletionConfig
	Storage    StorageConfig
	MCP        MCPConfig
	API        APIConfig
	Log        LogConfig
}

type ServerConfig struct {
	Port int
}

type CompletionConfig struct {
	BaseURL         string
	APIKey          string
	Model           string
	DirectMaxTokens int
	PanelMaxTokens  int
}

type StorageConfig struct {
	// Backend selects where profiles and history live: "memory" (default,
	// state dies with the process) or "sqlite".
	Backend string
	DataDir string
}

type MCPConfig struct {
	Enabled bool
}

type APIConfig struct {
	// Token, when set, gates mutating API routes behind bearer auth.
	// Empty leaves the API open.
	Token string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 5000,
		},
		Completion: CompletionConfig{
			BaseURL:         "https://api.openai.com/v1",
			Model:           "gpt-4o-mini",
			DirectMaxTokens: 2048,
			PanelMaxTokens:  1024,
		},
		Storage: StorageConfig{
			Backend: "memory",
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON file at
// $XDG_CONFIG_HOME/agvisor/config.json, then applies AGVISOR_* environment
// overrides. The completion API key is required and comes from the
// environment only (AGVISOR_OPENAI_API_KEY).
func Load() (Config, error) {
	return loadWith(newFileBackend())
}

func loadWith(b Backend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)

	if cfg.Completion.APIKey == "" {
		return Config{}, fmt.Errorf("missing required config: completion API key. Set it via environment variable AGVISOR_OPENAI_API_KEY")
	}

	switch cfg.Storage.Backend {
	case "memory", "sqlite":
	default:
		return Config{}, fmt.Errorf("invalid storage.backend %q (want \"memory\" or \"sqlite\")", cfg.Storage.Backend)
	}

	return cfg, nil
}
