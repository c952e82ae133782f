package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "AGVISOR_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "completion.base_url", typ: kString, env: "AGVISOR_OPENAI_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Completion.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Completion.BaseURL },
	},
	{
		key: "completion.api_key", typ: kString, env: "AGVISOR_OPENAI_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Completion.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Completion.APIKey },
	},
	{
		key: "completion.model", typ: kString, env: "AGVISOR_COMPLETION_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Completion.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Completion.Model },
	},
	{
		key: "completion.direct_max_tokens", typ: kInt, env: "AGVISOR_COMPLETION_DIRECT_MAX_TOKENS",
		apply:   func(cfg *Config, v any) { cfg.Completion.DirectMaxTokens = v.(int) },
		extract: func(cfg Config) any { return cfg.Completion.DirectMaxTokens },
	},
	{
		key: "completion.panel_max_tokens", typ: kInt, env: "AGVISOR_COMPLETION_PANEL_MAX_TOKENS",
		apply:   func(cfg *Config, v any) { cfg.Completion.PanelMaxTokens = v.(int) },
		extract: func(cfg Config) any { return cfg.Completion.PanelMaxTokens },
	},
	{
		key: "storage.backend", typ: kString, env: "AGVISOR_STORAGE_BACKEND",
		apply:   func(cfg *Config, v any) { cfg.Storage.Backend = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.Backend },
	},
	{
		key: "storage.data_dir", typ: kString, env: "AGVISOR_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "mcp.enabled", typ: kBool, env: "AGVISOR_MCP_ENABLED",
		apply:   func(cfg *Config, v any) { cfg.MCP.Enabled = v.(bool) },
		extract: func(cfg Config) any { return cfg.MCP.Enabled },
	},
	{
		key: "api.token", typ: kString, env: "AGVISOR_API_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.API.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.API.Token },
	},
	{
		key: "log.level", typ: kString, env: "AGVISOR_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b Backend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kBool:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if bv, err := strconv.ParseBool(v); err == nil {
					s.apply(cfg, bv)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kBool:
			if b, err := strconv.ParseBool(raw); err == nil {
				s.apply(cfg, b)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
